package cpu

import "github.com/alestane/lemurs/mem"

// subtract implements the 8080's subtract-as-two's-complement-add rule:
// base - by, returning the result, the carry (borrow) flag, and the
// auxiliary-carry flag. The carry-out flag is inverted relative to the
// native add carry, per the 8080's "carry set means borrow occurred" sense.
func subtract(base, by byte) (value byte, carry, aux bool) {
	negated := ^by + 1
	auxSrc := base ^ negated
	sum, nativeCarry := addOverflow(base, negated)
	return sum, by != 0 && !nativeCarry, (sum^auxSrc)&0x10 != 0
}

func addOverflow(a, b byte) (byte, bool) {
	sum := uint16(a) + uint16(b)
	return byte(sum), sum > 0xFF
}

// readByte fetches the value at loc (already resolved) and the cycle cost
// of doing so: 4 for an on-chip register, 7 for memory via HL. This is the
// "outer form overrides inner cycle count" dispatch §4.3.3 describes: e.g.
// Add{from:R}.executeOn reads the operand itself and returns its own cycle
// count rather than trusting AddTo's.
func readByte(chip *State, bus mem.Bus, loc Byte) (byte, byte) {
	switch resolved := chip.Resolve(loc); resolved.Kind {
	case ByteRAM:
		return bus.Read(resolved.Addr), 7
	default:
		return chip.Reg(resolved.Reg), 4
	}
}

// executeOn runs op against chip and bus, mutating both as the instruction
// specifies, and returns the instruction's architectural cycle count.
func (op Op) executeOn(chip *State, bus mem.Bus) byte {
	switch op.Kind {
	case KindNOP:
		return op.N

	case KindAdd:
		value, time := readByte(chip, bus, op.From)
		Op{Kind: KindAddTo, Value: value, Carry: op.Carry}.executeOn(chip, bus)
		return time
	case KindAddTo:
		carryIn := chip.Carry && op.Carry
		a := chip.Reg(A)
		addend := op.Value
		if carryIn {
			addend++
		}
		aux := a ^ addend
		sum, carry := addOverflow(a, addend)
		chip.SetReg(A, sum)
		chip.UpdateFlags()
		chip.Carry = carry
		chip.AuxCarry = (sum^aux)&0x10 != 0
		return 7

	case KindAnd:
		value, time := readByte(chip, bus, op.From)
		Op{Kind: KindAndWith, Value: value}.executeOn(chip, bus)
		return time
	case KindAndWith:
		chip.SetReg(A, chip.Reg(A)&op.Value)
		chip.UpdateFlags()
		chip.Carry = false
		return 7

	case KindCall:
		bus.WriteWord(chip.Push(), chip.ProgramCounter())
		chip.SetProgramCounter(op.Addr)
		return 17
	case KindCallIf:
		if op.Test.Approves(chip) {
			Op{Kind: KindCall, Addr: op.Addr}.executeOn(chip, bus)
			return 17
		}
		return 11

	case KindCarryFlag:
		chip.Carry = op.Enable || !chip.Carry
		return 4

	case KindCompare:
		value, time := readByte(chip, bus, op.From)
		Op{Kind: KindCompareWith, Value: value}.executeOn(chip, bus)
		return time
	case KindCompareWith:
		value, carry, aux := subtract(chip.Reg(A), op.Value)
		chip.UpdateFlagsFor(value)
		chip.Carry = carry
		chip.AuxCarry = aux
		return 7

	case KindComplementAccumulator:
		chip.SetReg(A, ^chip.Reg(A))
		return 4

	case KindDecimalAddAdjust:
		a := chip.Reg(A)
		var aux bool
		if a&0x0F > 0x09 {
			a += 0x06
			aux = true
		} else if chip.AuxCarry {
			a += 0x06
		}
		var carry bool
		if a>>4 > 0x09 {
			a += 0x06 << 4
			carry = true
		} else if chip.Carry {
			a += 0x06 << 4
		}
		chip.SetReg(A, a)
		chip.UpdateFlags()
		chip.Carry = carry
		chip.AuxCarry = aux
		return 4

	case KindDecrementByte:
		resolved := chip.Resolve(op.From)
		var value byte
		var time byte
		if resolved.Kind == ByteRAM {
			value = bus.Read(resolved.Addr) - 1
			bus.Write(resolved.Addr, value)
			time = 10
		} else {
			value = chip.Reg(resolved.Reg) - 1
			chip.SetReg(resolved.Reg, value)
			time = 5
		}
		chip.UpdateFlagsFor(value)
		chip.AuxCarry = (value^(value+1))&0x10 != 0
		return time

	case KindDecrementWord:
		chip.SetWord(op.Pair, chip.Word(op.Pair)-1)
		return 5

	case KindDoubleAdd:
		sum := uint32(chip.Pair(HL)) + uint32(chip.Word(op.Pair))
		chip.SetPair(HL, uint16(sum))
		chip.Carry = sum > 0xFFFF
		return 10

	case KindExchangeDoubleWithHilo:
		de, hl := chip.Pair(DE), chip.Pair(HL)
		chip.SetPair(DE, hl)
		chip.SetPair(HL, de)
		return 5

	case KindExchangeTopWithHilo:
		hl := chip.Pair(HL)
		sp := chip.StackPointer()
		fromStack := bus.ReadWord(sp)
		bus.WriteWord(sp, hl)
		chip.SetPair(HL, fromStack)
		return 18

	case KindExclusiveOr:
		value, time := readByte(chip, bus, op.From)
		Op{Kind: KindExclusiveOrWith, Value: value}.executeOn(chip, bus)
		return time
	case KindExclusiveOrWith:
		chip.SetReg(A, chip.Reg(A)^op.Value)
		chip.UpdateFlags()
		chip.Carry = false
		return 7

	case KindHalt:
		chip.SetActive(false)
		return 7

	case KindIn:
		chip.SetReg(A, bus.Input(op.Port))
		return 10

	case KindIncrementByte:
		resolved := chip.Resolve(op.From)
		var value byte
		var time byte
		if resolved.Kind == ByteRAM {
			value = bus.Read(resolved.Addr) + 1
			bus.Write(resolved.Addr, value)
			time = 10
		} else {
			value = chip.Reg(resolved.Reg) + 1
			chip.SetReg(resolved.Reg, value)
			time = 5
		}
		chip.UpdateFlagsFor(value)
		chip.AuxCarry = (value^(value-1))&0x10 != 0
		return time

	case KindIncrementWord:
		chip.SetWord(op.Pair, chip.Word(op.Pair)+1)
		return 5

	case KindInterrupts:
		chip.SetInterruptsEnabled(op.Enable)
		return 4

	case KindJump:
		chip.SetProgramCounter(op.Addr)
		return 10
	case KindJumpIf:
		if op.Test.Approves(chip) {
			chip.SetProgramCounter(op.Addr)
		}
		return 10

	case KindLoadAccumulator:
		chip.SetReg(A, bus.Read(op.Addr))
		return 13
	case KindLoadAccumulatorIndirect:
		chip.SetReg(A, bus.Read(chip.Word(op.Pair)))
		return 7
	case KindLoadExtendedWith:
		chip.SetWord(op.Pair, op.Addr)
		return 10
	case KindLoadHilo:
		chip.SetPair(HL, bus.ReadWord(op.Addr))
		return 16

	case KindMove:
		to, from := chip.Resolve(op.To), chip.Resolve(op.From)
		switch {
		case to.Kind == ByteRAM:
			bus.Write(to.Addr, chip.Reg(from.Reg))
			return 7
		case from.Kind == ByteRAM:
			chip.SetReg(to.Reg, bus.Read(from.Addr))
			return 7
		default:
			chip.SetReg(to.Reg, chip.Reg(from.Reg))
			return 5
		}
	case KindMoveData:
		to := chip.Resolve(op.To)
		if to.Kind == ByteRAM {
			bus.Write(to.Addr, op.Value)
			return 10
		}
		chip.SetReg(to.Reg, op.Value)
		return 7

	case KindOr:
		value, time := readByte(chip, bus, op.From)
		Op{Kind: KindOrWith, Value: value}.executeOn(chip, bus)
		return time
	case KindOrWith:
		chip.SetReg(A, chip.Reg(A)|op.Value)
		chip.UpdateFlags()
		chip.Carry = false
		return 7

	case KindOut:
		bus.Output(op.Port, chip.Reg(A))
		return 10

	case KindPop:
		switch op.Word.Kind {
		case WordProgramStatus:
			word := bus.ReadWord(chip.Pop())
			chip.SetReg(A, byte(word))
			chip.ExtractFlags(byte(word >> 8))
		default:
			chip.SetWord(op.Word.Internal, bus.ReadWord(chip.Pop()))
		}
		return 10

	case KindProgramCounterFromHilo:
		chip.SetProgramCounter(chip.Pair(HL))
		return 5

	case KindPush:
		var value uint16
		if op.Word.Kind == WordProgramStatus {
			value = chip.status()
		} else {
			value = chip.Word(op.Word.Internal)
		}
		bus.WriteWord(chip.Push(), value)
		return 11

	case KindReset:
		bus.WriteWord(chip.Push(), chip.ProgramCounter())
		chip.SetProgramCounter(uint16(op.Vector) * 8)
		return 11

	case KindReturn:
		chip.SetProgramCounter(bus.ReadWord(chip.Pop()))
		return 10
	case KindReturnIf:
		if op.Test.Approves(chip) {
			Op{Kind: KindReturn}.executeOn(chip, bus)
			return 11
		}
		return 5

	case KindRotateAccumulatorLeft:
		a := chip.Reg(A)
		carryIn := byte(0)
		if chip.Carry {
			carryIn = 1
		}
		chip.Carry = a&0x80 != 0
		chip.SetReg(A, a<<1|carryIn)
		return 4
	case KindRotateAccumulatorRight:
		a := chip.Reg(A)
		carryIn := byte(0)
		if chip.Carry {
			carryIn = 0x80
		}
		chip.Carry = a&0x01 != 0
		chip.SetReg(A, a>>1|carryIn)
		return 4
	case KindRotateLeftCarrying:
		a := chip.Reg(A)
		chip.Carry = a&0x80 != 0
		chip.SetReg(A, a<<1|a>>7)
		return 4
	case KindRotateRightCarrying:
		a := chip.Reg(A)
		chip.Carry = a&0x01 != 0
		chip.SetReg(A, a>>1|a<<7)
		return 4

	case KindStackPointerFromHilo:
		chip.SetStackPointer(chip.Pair(HL))
		return 5

	case KindStoreAccumulator:
		bus.Write(op.Addr, chip.Reg(A))
		return 13
	case KindStoreAccumulatorIndirect:
		bus.Write(chip.Word(op.Pair), chip.Reg(A))
		return 7
	case KindStoreHilo:
		bus.WriteWord(op.Addr, chip.Pair(HL))
		return 16

	case KindSubtract:
		value, time := readByte(chip, bus, op.From)
		Op{Kind: KindSubtractBy, Value: value, Carry: op.Carry}.executeOn(chip, bus)
		return time
	case KindSubtractBy:
		borrow := op.Value
		if chip.Carry && op.Carry {
			borrow++
		}
		value, carry, aux := subtract(chip.Reg(A), borrow)
		chip.SetReg(A, value)
		chip.UpdateFlags()
		chip.Carry = carry
		chip.AuxCarry = aux
		return 7
	}
	return 0
}
