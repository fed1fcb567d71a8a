// Package cpu implements the Intel 8080 microprocessor: a cycle-counted
// instruction interpreter that executes the 8080 instruction set against a
// caller-supplied mem.Bus.
package cpu

import "github.com/alestane/lemurs/mask"

// Register names one of the seven 8-bit registers. Values are the slot each
// register occupies in State.register, chosen (as on a little-endian host)
// so that a pair's low byte sits at the lower-indexed slot; Pair composes
// and decomposes pairs explicitly from these slots rather than reinterpreting
// memory, which keeps the layout portable across host byte orders.
type Register byte

const (
	C Register = iota
	B
	E
	D
	L
	H
	A
)

// Double names a 16-bit register pair.
type Double byte

const (
	BC Double = iota
	DE
	HL
)

// Internal names any 16-bit location addressable on the chip itself: a
// register pair, the program counter, or the stack pointer.
type Internal struct {
	Pair        Double
	Kind        internalKind
}

type internalKind byte

const (
	InternalWide internalKind = iota
	InternalPC
	InternalSP
)

func Wide(d Double) Internal       { return Internal{Pair: d, Kind: InternalWide} }
var ProgramCounterLoc = Internal{Kind: InternalPC}
var StackPointerLoc = Internal{Kind: InternalSP}

// ByteKind distinguishes the three shapes a Byte operand location can take.
type ByteKind byte

const (
	ByteSingle ByteKind = iota
	ByteIndirect
	ByteRAM
)

// Byte names a one-byte operand location: a register, the byte at [HL], or
// a fixed RAM address. Indirect is resolved to RAM(HL) by State.Resolve.
type Byte struct {
	Kind ByteKind
	Reg  Register
	Addr uint16
}

func SingleReg(r Register) Byte { return Byte{Kind: ByteSingle, Reg: r} }

var Indirect = Byte{Kind: ByteIndirect}

func RAMByte(addr uint16) Byte { return Byte{Kind: ByteRAM, Addr: addr} }

// WordKind distinguishes the four shapes a Word operand location can take.
type WordKind byte

const (
	WordOnBoard WordKind = iota
	WordProgramStatus
	WordRAM
	WordStack
)

// Word names a 16-bit operand location used by PUSH/POP. The direct
// load/store-pair forms (LHLD/SHLD) carry their address in Op.Addr instead.
type Word struct {
	Kind     WordKind
	Internal Internal
	Addr     uint16
}

// State holds the complete architectural state of one 8080 chip: its seven
// byte registers, program counter, stack pointer, five condition flags, and
// the halted/interrupts-enabled latches.
type State struct {
	register [7]byte
	pc, sp   uint16

	Carry    bool // C
	AuxCarry bool // A (auxiliary carry, used by DAA)
	Parity   bool // P (set iff even)
	Sign     bool // M (set iff negative)
	Zero     bool // Z

	active     bool
	interrupts bool
}

// NewState returns a fresh chip with every register zeroed, flags clear,
// and the processor active (not halted) with interrupts disabled.
func NewState() State {
	return State{active: true}
}

// Reg reads a single byte register.
func (s *State) Reg(r Register) byte { return s.register[r] }

// SetReg writes a single byte register.
func (s *State) SetReg(r Register, v byte) { s.register[r] = v }

// Pair reads a register pair as a 16-bit value, high byte first.
func (s *State) Pair(d Double) uint16 {
	lo, hi := s.pairSlots(d)
	return uint16(s.register[hi])<<8 | uint16(s.register[lo])
}

// SetPair writes a register pair from a 16-bit value, high byte first.
func (s *State) SetPair(d Double, v uint16) {
	lo, hi := s.pairSlots(d)
	s.register[lo] = byte(v)
	s.register[hi] = byte(v >> 8)
}

func (s *State) pairSlots(d Double) (lo, hi Register) {
	switch d {
	case BC:
		return C, B
	case DE:
		return E, D
	default:
		return L, H
	}
}

// ProgramCounter reads the program counter.
func (s *State) ProgramCounter() uint16 { return s.pc }

// SetProgramCounter writes the program counter.
func (s *State) SetProgramCounter(v uint16) { s.pc = v }

// StackPointer reads the stack pointer.
func (s *State) StackPointer() uint16 { return s.sp }

// SetStackPointer writes the stack pointer.
func (s *State) SetStackPointer(v uint16) { s.sp = v }

// Word reads any 16-bit internal location (a pair, PC, or SP).
func (s *State) Word(i Internal) uint16 {
	switch i.Kind {
	case InternalPC:
		return s.pc
	case InternalSP:
		return s.sp
	default:
		return s.Pair(i.Pair)
	}
}

// SetWord writes any 16-bit internal location (a pair, PC, or SP).
func (s *State) SetWord(i Internal, v uint16) {
	switch i.Kind {
	case InternalPC:
		s.pc = v
	case InternalSP:
		s.sp = v
	default:
		s.SetPair(i.Pair, v)
	}
}

// IsActive reports whether the processor is executing from the program
// counter rather than halted.
func (s *State) IsActive() bool { return s.active }

// SetActive forces the active/halted latch; Machine uses this to resume a
// halted chip on an accepted interrupt.
func (s *State) SetActive(v bool) { s.active = v }

// InterruptsEnabled reports whether the processor currently accepts
// interrupts.
func (s *State) InterruptsEnabled() bool { return s.interrupts }

// SetInterruptsEnabled sets the interrupts-accepted latch (EI/DI, or an
// accepted interrupt clearing it).
func (s *State) SetInterruptsEnabled(v bool) { s.interrupts = v }

// Flags packs the five condition flags into the PSW byte layout
// `mz0a0p1c` (bit 7 down to bit 0), with bit 1 fixed at 1 and bits 3 and 5
// fixed at 0. Bit positions are 1-indexed from the MSB, matching the
// mask package's convention.
func (s *State) Flags() byte {
	var b byte
	if s.Sign {
		b = mask.Set(b, mask.I1, 0b1000_0000)
	}
	if s.Zero {
		b = mask.Set(b, mask.I2, 0b0100_0000)
	}
	if s.AuxCarry {
		b = mask.Set(b, mask.I4, 0b0001_0000)
	}
	if s.Parity {
		b = mask.Set(b, mask.I6, 0b0000_0100)
	}
	b = mask.Set(b, mask.I7, 0b0000_0010) // constant 1
	if s.Carry {
		b = mask.Set(b, mask.I8, 0b0000_0001)
	}
	return b
}

// ExtractFlags sets the five condition flags from a packed PSW byte (as
// popped from the stack, e.g. by POP PSW).
func (s *State) ExtractFlags(b byte) {
	s.Carry = mask.IsSet(b, mask.I8)
	s.Parity = mask.IsSet(b, mask.I6)
	s.AuxCarry = mask.IsSet(b, mask.I4)
	s.Zero = mask.IsSet(b, mask.I2)
	s.Sign = mask.IsSet(b, mask.I1)
}

// status packs A and Flags() into a 16-bit value the way PUSH PSW/POP PSW
// move them as a single word: A in the low byte, flags in the high byte.
func (s *State) status() uint16 {
	return uint16(s.Flags())<<8 | uint16(s.Reg(A))
}

// UpdateFlagsFor recomputes Sign, Zero and Parity from value and clears
// AuxCarry; it is the shared tail of every ALU op that doesn't derive its
// own auxiliary-carry rule. The caller is responsible for setting Carry,
// and for overriding AuxCarry afterward when the operation specifies one.
func (s *State) UpdateFlagsFor(value byte) {
	s.Sign = value&0b1000_0000 != 0
	s.Zero = value == 0
	s.Parity = evenParity(value)
	s.AuxCarry = false
}

// UpdateFlags recomputes Sign, Zero and Parity from the accumulator.
func (s *State) UpdateFlags() {
	s.UpdateFlagsFor(s.Reg(A))
}

func evenParity(value byte) bool {
	p := value
	p ^= p >> 4
	p ^= p >> 2
	p ^= p >> 1
	return p&1 == 0
}

// Push predecrements SP by 2 and returns the new SP, the address a caller
// should write the pushed word to.
func (s *State) Push() uint16 {
	s.sp -= 2
	return s.sp
}

// Pop returns the current SP, the address a caller should read the popped
// word from, and post-increments SP by 2.
func (s *State) Pop() uint16 {
	address := s.sp
	s.sp += 2
	return address
}

// Resolve collapses Indirect to RAM(HL); every other Byte location passes
// through unchanged.
func (s *State) Resolve(loc Byte) Byte {
	if loc.Kind == ByteIndirect {
		return RAMByte(s.Pair(HL))
	}
	return loc
}
