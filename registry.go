package kernel

import "sync"

// allocationIndex is a debugging-only side table mapping a live chunk's
// header address to the Pid that owns it. Nothing in Allocate or Free
// depends on it for correctness; it exists purely so tooling (or a test)
// can answer "which task owns this chunk" without walking the chunk list
// and cross-referencing owner fields by hand.
//
// Grounded on the teacher's promise registry: a ring buffer of live IDs
// plus a map, periodically compacted. There is no GC-scavenging equivalent
// here (a chunk's lifetime is exactly "allocated until Free", never
// GC-observed), so the weak-pointer liveness check is gone; compaction
// triggers purely on load factor after a removal pass.
type allocationIndex struct {
	mu   sync.Mutex
	data map[Addr]allocationRecord
	ring []Addr
}

// allocationRecord is what the index remembers about one live allocation.
type allocationRecord struct {
	Owner Pid
	Count int
}

func newAllocationIndex() *allocationIndex {
	return &allocationIndex{
		data: make(map[Addr]allocationRecord),
		ring: make([]Addr, 0, 256),
	}
}

// stampAllocationLocked records a fresh allocation. Called with the
// kernel's mu already held, from Allocate's critical section.
func (idx *allocationIndex) stampAllocationLocked(addr Addr, owner Pid, count int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.data[addr] = allocationRecord{Owner: owner, Count: count}
	idx.ring = append(idx.ring, addr)
}

// removeAllocationLocked forgets addr. Called with the kernel's mu already
// held, from Free's critical section, before coalescing mutates addr's
// header.
func (idx *allocationIndex) removeAllocationLocked(addr Addr) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.data, addr)
	idx.compactIfSparseLocked()
}

// Lookup reports the owner and size last stamped for a live allocation at
// addr, for debugging tooling; ok is false if addr is not (or no longer)
// allocated.
func (idx *allocationIndex) Lookup(addr Addr) (rec allocationRecord, ok bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	rec, ok = idx.data[addr]
	return rec, ok
}

// Len reports the number of currently live allocations tracked.
func (idx *allocationIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.data)
}

// compactIfSparseLocked rebuilds the ring once it has accumulated enough
// stale (removed) entries, the same load-factor heuristic as the teacher's
// registry compaction, minus the weak-pointer liveness pass it no longer
// needs. Must be called with mu held.
func (idx *allocationIndex) compactIfSparseLocked() {
	capacity := len(idx.ring)
	active := len(idx.data)
	if capacity <= 256 || float64(active) >= float64(capacity)*0.25 {
		return
	}
	newRing := make([]Addr, 0, active)
	for _, addr := range idx.ring {
		if _, ok := idx.data[addr]; ok {
			newRing = append(newRing, addr)
		}
	}
	idx.ring = newRing
}

// Reset discards every tracked allocation, used by Shutdown.
func (idx *allocationIndex) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.data = make(map[Addr]allocationRecord)
	idx.ring = idx.ring[:0]
}
