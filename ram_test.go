package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRAMAddrRoundTrip(t *testing.T) {
	r := NewRAM(64)

	r.WriteAddr(0, 42)
	assert.Equal(t, Addr(42), r.ReadAddr(0))

	r.WriteAddr(8, NullAddr)
	assert.Equal(t, NullAddr, r.ReadAddr(8), "NullAddr must round-trip exactly")
}

func TestRAMBoolAndBitAccessors(t *testing.T) {
	r := NewRAM(16)

	assert.False(t, r.ReadBool(0))
	r.WriteBool(0, true)
	assert.True(t, r.ReadBool(0))
	r.WriteBool(0, false)
	assert.False(t, r.ReadBool(0))

	r.WriteBit(1, 3, true)
	assert.True(t, r.ReadBit(1, 3))
	assert.False(t, r.ReadBit(1, 2))
	r.WriteBit(1, 3, false)
	assert.False(t, r.ReadBit(1, 3))
}

func TestRAMOutOfBoundsPanics(t *testing.T) {
	r := NewRAM(4)
	assert.Panics(t, func() { r.ReadByte(4) })
	assert.Panics(t, func() { r.WriteAddr(2, 0) }, "a 4-byte addr write starting at 2 overruns a 4-byte RAM")
	assert.Panics(t, func() { r.ReadByte(-1) })
}

// TestContextSaveLoadRoundTrip is part of testable property 4: saveContext
// followed by loadContext at the same address must reproduce every field
// exactly, since this is the kernel's entire context-switch prologue/epilogue.
func TestContextSaveLoadRoundTrip(t *testing.T) {
	r := NewRAM(256)

	var regs Registers
	for i := range regs {
		regs[i] = byte(i * 7)
	}
	want := &Context{Status: 0xAB, Regs: regs, PC: 0x1234}

	const frame = Addr(16)
	saveContext(r, frame, want)
	got := loadContext(r, frame)

	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Regs, got.Regs)
	assert.Equal(t, want.PC, got.PC)
}

func TestNewInitialContextZeroesRegistersAndSetsPC(t *testing.T) {
	ctx := newInitialContext(0xBEEF)
	assert.Equal(t, byte(0), ctx.Status)
	assert.Equal(t, Registers{}, ctx.Regs)
	assert.Equal(t, uint16(0xBEEF), ctx.PC)
}
