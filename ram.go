package kernel

import "encoding/binary"

// Addr is a simulated address into a RAM region. The zero value addresses
// HeapBase; NullAddr is the one value that never addresses a real byte.
type Addr int64

// NullAddr is the sentinel "no address" value, used as NullPid and as the
// null next-pointer of a tail chunk or tail PCB.
const NullAddr Addr = -1

// RAM is a fixed-size, flat memory region shared between the heap (growing
// up from HeapBase) and the task stacks/PCB chain (growing down from
// RAMTop), per the collision invariant in the allocator and process manager.
type RAM struct {
	bytes []byte
}

// NewRAM allocates a simulated RAM region of the given size.
func NewRAM(size int) *RAM {
	if size <= 0 {
		panic("kernel: RAM size must be positive")
	}
	return &RAM{bytes: make([]byte, size)}
}

// HeapBase is the lowest address available to the allocator.
func (r *RAM) HeapBase() Addr { return 0 }

// RAMTop is the highest usable RAM address.
func (r *RAM) RAMTop() Addr { return Addr(len(r.bytes) - 1) }

// Size returns the number of bytes in the region.
func (r *RAM) Size() int { return len(r.bytes) }

func (r *RAM) bounds(addr Addr, n int) {
	if addr < 0 || int(addr)+n > len(r.bytes) {
		panic("kernel: RAM access out of bounds")
	}
}

// ReadByte reads a single byte at addr.
func (r *RAM) ReadByte(addr Addr) byte {
	r.bounds(addr, 1)
	return r.bytes[addr]
}

// WriteByte writes a single byte at addr.
func (r *RAM) WriteByte(addr Addr, b byte) {
	r.bounds(addr, 1)
	r.bytes[addr] = b
}

// WriteBit sets or clears a single bit within the byte at addr.
func (r *RAM) WriteBit(addr Addr, bit uint, set bool) {
	b := r.ReadByte(addr)
	if set {
		b |= 1 << bit
	} else {
		b &^= 1 << bit
	}
	r.WriteByte(addr, b)
}

// ReadBit reads a single bit within the byte at addr.
func (r *RAM) ReadBit(addr Addr, bit uint) bool {
	return r.ReadByte(addr)&(1<<bit) != 0
}

// ReadBool reads a byte at addr as a boolean (nonzero is true).
func (r *RAM) ReadBool(addr Addr) bool {
	return r.ReadByte(addr) != 0
}

// WriteBool writes a boolean as a single byte at addr.
func (r *RAM) WriteBool(addr Addr, v bool) {
	if v {
		r.WriteByte(addr, 1)
	} else {
		r.WriteByte(addr, 0)
	}
}

// ReadAddr reads a simulated address field placement-constructed at addr.
// NullAddr round-trips exactly, matching the null next-pointer semantics
// of both the chunk list and the PCB chain.
func (r *RAM) ReadAddr(addr Addr) Addr {
	r.bounds(addr, addrSize)
	v := int64(binary.LittleEndian.Uint32(r.bytes[addr : addr+addrSize]))
	if uint32(v) == uint32(NullAddr) {
		return NullAddr
	}
	return Addr(v)
}

// WriteAddr writes a simulated address field at addr.
func (r *RAM) WriteAddr(addr Addr, v Addr) {
	r.bounds(addr, addrSize)
	binary.LittleEndian.PutUint32(r.bytes[addr:addr+addrSize], uint32(v))
}

// ReadUint16 reads a little-endian 16-bit value, used for the saved return
// program counter in a context frame.
func (r *RAM) ReadUint16(addr Addr) uint16 {
	r.bounds(addr, 2)
	return binary.LittleEndian.Uint16(r.bytes[addr : addr+2])
}

// WriteUint16 writes a little-endian 16-bit value at addr.
func (r *RAM) WriteUint16(addr Addr, v uint16) {
	r.bounds(addr, 2)
	binary.LittleEndian.PutUint16(r.bytes[addr:addr+2], v)
}

// ReadBytes copies n bytes starting at addr.
func (r *RAM) ReadBytes(addr Addr, n int) []byte {
	r.bounds(addr, n)
	out := make([]byte, n)
	copy(out, r.bytes[addr:int(addr)+n])
	return out
}

// WriteBytes writes b starting at addr.
func (r *RAM) WriteBytes(addr Addr, b []byte) {
	r.bounds(addr, len(b))
	copy(r.bytes[addr:int(addr)+len(b)], b)
}

// Zero zeroes n bytes starting at addr.
func (r *RAM) Zero(addr Addr, n int) {
	r.bounds(addr, n)
	clear(r.bytes[addr : int(addr)+n])
}
