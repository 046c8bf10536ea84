package kernel

// Registers is the general-purpose register file a task program manipulates
// directly, the same way a task on the original target touches its 32 AVR
// general-purpose registers.
type Registers [numRegisters]byte

// Context is everything a context switch must save and restore: the
// register file, the status/flags word, and the return program counter.
// Its encoded size in RAM is exactly ContextSize bytes.
type Context struct {
	Status byte
	Regs   Registers
	PC     uint16
}

// saveContext serializes ctx into RAM starting at addr, in the fixed order
// [status][registers][pc]. addr is the context frame's stack_top: the
// lowest address of the frame, from which the restore sequence pops.
//
// The prologue (saveContext) and epilogue (loadContext) must be exact
// inverses of each other; the specific byte order chosen here is this
// kernel's implementation choice, not a requirement of any real hardware.
func saveContext(ram *RAM, addr Addr, ctx *Context) {
	ram.WriteByte(addr, ctx.Status)
	ram.WriteBytes(addr+statusSize, ctx.Regs[:])
	ram.WriteUint16(addr+statusSize+numRegisters, ctx.PC)
}

// loadContext deserializes a Context previously written by saveContext.
func loadContext(ram *RAM, addr Addr) *Context {
	ctx := &Context{
		Status: ram.ReadByte(addr),
		PC:     ram.ReadUint16(addr + statusSize + numRegisters),
	}
	copy(ctx.Regs[:], ram.ReadBytes(addr+statusSize, numRegisters))
	return ctx
}

// newInitialContext builds the zeroed context frame primed for a freshly
// spawned task: all registers and the status word are zero, and PC is set
// to the task's entry address. Per spec, the stack_top of this frame is its
// own base address (the "last zero byte" / lowest address of the frame).
func newInitialContext(entry uint16) *Context {
	return &Context{PC: entry}
}
