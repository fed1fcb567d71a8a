package cpu

import "github.com/alestane/lemurs/mask"

// OpKind tags which of the ~50 instruction shapes an Op represents. Op is
// a flat struct rather than an interface-based sum type so that it stays
// a small, copyable value with no shared ownership, matching its
// single-use, construct-decode-execute-discard lifecycle.
type OpKind byte

const (
	KindNOP OpKind = iota
	KindAdd
	KindAddTo
	KindAnd
	KindAndWith
	KindCall
	KindCallIf
	KindCarryFlag
	KindCompare
	KindCompareWith
	KindComplementAccumulator
	KindDecimalAddAdjust
	KindDecrementByte
	KindDecrementWord
	KindInterrupts
	KindDoubleAdd
	KindExchangeDoubleWithHilo
	KindExchangeTopWithHilo
	KindExclusiveOr
	KindExclusiveOrWith
	KindHalt
	KindIn
	KindIncrementByte
	KindIncrementWord
	KindJump
	KindJumpIf
	KindLoadAccumulator
	KindLoadAccumulatorIndirect
	KindLoadExtendedWith
	KindLoadHilo
	KindMove
	KindMoveData
	KindOr
	KindOrWith
	KindOut
	KindPop
	KindProgramCounterFromHilo
	KindPush
	KindReset
	KindReturn
	KindReturnIf
	KindRotateLeftCarrying
	KindRotateRightCarrying
	KindRotateAccumulatorLeft
	KindRotateAccumulatorRight
	KindStackPointerFromHilo
	KindStoreAccumulator
	KindStoreAccumulatorIndirect
	KindStoreHilo
	KindSubtract
	KindSubtractBy
)

// Flag names one of the four condition flags a Test can examine.
type Flag byte

const (
	FlagZero Flag = iota
	FlagCarry
	FlagEvenParity
	FlagNegative
)

// Test is a conditional-branch predicate: either a flag or its negation.
type Test struct {
	Flag Flag
	Is   bool
}

// Approves reports whether the test holds against the given state.
func (t Test) Approves(s *State) bool {
	var v bool
	switch t.Flag {
	case FlagZero:
		v = s.Zero
	case FlagCarry:
		v = s.Carry
	case FlagEvenParity:
		v = s.Parity
	case FlagNegative:
		v = s.Sign
	}
	return v == t.Is
}

func testFromByte(value byte) Test {
	var f Flag
	switch mask.Range(value, mask.I3, mask.I4) {
	case 0b00:
		f = FlagZero
	case 0b01:
		f = FlagCarry
	case 0b10:
		f = FlagEvenParity
	default:
		f = FlagNegative
	}
	return Test{Flag: f, Is: mask.IsSet(value, mask.I5)}
}

func (t Test) toField() byte {
	var f byte
	switch t.Flag {
	case FlagZero:
		f = 0b00
	case FlagCarry:
		f = 0b01
	case FlagEvenParity:
		f = 0b10
	case FlagNegative:
		f = 0b11
	}
	b := f << 4
	if t.Is {
		b |= 0b0000_1000
	}
	return b
}

// Op is a single 8080 instruction, as produced by the decoder or
// constructed directly by a host for interrupt injection. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Op struct {
	Kind   OpKind
	From   Byte
	To     Byte
	Value  byte
	Carry  bool
	Enable bool
	Addr   uint16
	Test   Test
	Pair   Internal
	Word   Word
	Port   byte
	Vector byte
	N      byte
}

// byteFieldFromCode maps the 8080's 3-bit register encoding (B=0, C=1,
// D=2, E=3, H=4, L=5, M(indirect)=6, A=7) to an operand location. Both the
// bits-2-0 "SSS" field and the bits-5-3 "DDD" field share this encoding;
// only their position in the opcode byte differs.
func byteFieldFromCode(code byte) Byte {
	switch code {
	case 0:
		return SingleReg(B)
	case 1:
		return SingleReg(C)
	case 2:
		return SingleReg(D)
	case 3:
		return SingleReg(E)
	case 4:
		return SingleReg(H)
	case 5:
		return SingleReg(L)
	case 6:
		return Indirect
	default:
		return SingleReg(A)
	}
}

// byteFieldToLoc extracts the bits-2-0 "SSS" register/operand field, used
// by the ALU-with-source-register forms (ADD/ADC/SUB/SBB/ANA/XRA/ORA/CMP)
// and as the "from" field of MOV.
func byteFieldToLoc(value byte) Byte {
	return byteFieldFromCode(mask.RegisterField(value))
}

func byteLocToField(loc Byte) byte {
	if loc.Kind == ByteIndirect {
		return 6
	}
	switch loc.Reg {
	case A:
		return 7
	case B:
		return 0
	case C:
		return 1
	case D:
		return 2
	case E:
		return 3
	case H:
		return 4
	default: // L
		return 5
	}
}

func internalFromField(value byte) Internal {
	switch mask.PairField(value) {
	case 0b00:
		return Wide(BC)
	case 0b01:
		return Wide(DE)
	case 0b10:
		return Wide(HL)
	default:
		return StackPointerLoc
	}
}

func internalToField(i Internal) byte {
	if i.Kind == InternalSP {
		return 0b11
	}
	switch i.Pair {
	case BC:
		return 0b00
	case DE:
		return 0b01
	default:
		return 0b10
	}
}

// isUnused reports whether b is a primary opcode the 8080 truly leaves undefined: the Z80
// prefix bytes it shares an encoding space with, plus the alternate-NOP
// slots whose middle-and-suffix bits are all zero.
func isUnused(b byte) bool {
	switch b {
	case 0xCB, 0xD9, 0xDD, 0xED, 0xFD:
		return true
	}
	return b&0b11_000_111 == 0 && b != 0x00
}

// exact one-byte-complete opcodes.
const (
	opNOP                     = 0b0000_0000
	opRLC                     = 0b0000_0111
	opRRC                     = 0b0000_1111
	opRAL                     = 0b0001_0111
	opRAR                     = 0b0001_1111
	opDAA                     = 0b0010_0111
	opCMA                     = 0b0010_1111
	opSTC                     = 0b0011_0111
	opCMC                     = 0b0011_1111
	opHLT                     = 0b0111_0110
	opRET                     = 0b1100_1001
	opXCHG                    = 0b1110_1011
	opPCHL                    = 0b1110_1001
	opXTHL                    = 0b1110_0011
	opSPHL                    = 0b1111_1001
	opDI                      = 0b1111_0011
	opEI                      = 0b1111_1011
	opOUT                     = 0b1101_0011
	opIN                      = 0b1101_1011
	opANI                     = 0b1110_0110
	opADI                     = 0b1100_0110
	opACI                     = 0b1100_1110
	opSUI                     = 0b1101_0110
	opSBI                     = 0b1101_1110
	opXRI                     = 0b1110_1110
	opORI                     = 0b1111_0110
	opCPI                     = 0b1111_1110
	opJMP                     = 0b1100_0011
	opCALL                    = 0b1100_1101
	opLHLD                    = 0b0010_1010
	opSHLD                    = 0b0010_0010
	opLDA                     = 0b0011_1010
	opSTA                     = 0b0011_0010
)

// decode1 tries to decode a single byte as a 1-byte-complete instruction.
func decode1(value byte) (Op, bool) {
	switch value {
	case opNOP:
		return Op{Kind: KindNOP, N: 4}, true
	case opXCHG:
		return Op{Kind: KindExchangeDoubleWithHilo}, true
	case opHLT:
		return Op{Kind: KindHalt}, true
	case opRET:
		return Op{Kind: KindReturn}, true
	case opXTHL:
		return Op{Kind: KindExchangeTopWithHilo}, true
	case opRLC:
		return Op{Kind: KindRotateLeftCarrying}, true
	case opRRC:
		return Op{Kind: KindRotateRightCarrying}, true
	case opRAL:
		return Op{Kind: KindRotateAccumulatorLeft}, true
	case opRAR:
		return Op{Kind: KindRotateAccumulatorRight}, true
	case opSTC:
		return Op{Kind: KindCarryFlag, Enable: true}, true
	case opCMC:
		return Op{Kind: KindCarryFlag, Enable: false}, true
	case opDAA:
		return Op{Kind: KindDecimalAddAdjust}, true
	case opCMA:
		return Op{Kind: KindComplementAccumulator}, true
	case opPCHL:
		return Op{Kind: KindProgramCounterFromHilo}, true
	case opSPHL:
		return Op{Kind: KindStackPointerFromHilo}, true
	case opDI:
		return Op{Kind: KindInterrupts, Enable: false}, true
	case opEI:
		return Op{Kind: KindInterrupts, Enable: true}, true
	}

	switch value & 0b11_000_111 {
	case 0b11_000_111:
		return Op{Kind: KindReset, Vector: mask.MiddleField(value)}, true
	case 0b11_000_000:
		return Op{Kind: KindReturnIf, Test: testFromByte(value)}, true
	case 0b00_000_100:
		return Op{Kind: KindIncrementByte, From: byteFieldFromMiddle(value)}, true
	case 0b00_000_101:
		return Op{Kind: KindDecrementByte, From: byteFieldFromMiddle(value)}, true
	}

	switch value & 0b11_00_1111 {
	case 0b00_00_1011:
		return Op{Kind: KindDecrementWord, Pair: internalFromField(value)}, true
	case 0b00_00_0011:
		return Op{Kind: KindIncrementWord, Pair: internalFromField(value)}, true
	case 0b00_00_1001:
		return Op{Kind: KindDoubleAdd, Pair: internalFromField(value)}, true
	case 0b11_00_0101:
		return Op{Kind: KindPush, Word: wordFromPairField(value)}, true
	case 0b11_00_0001:
		return Op{Kind: KindPop, Word: wordFromPairField(value)}, true
	}

	switch value & 0b11_111_000 {
	case 0b10_000_000:
		return Op{Kind: KindAdd, From: byteFieldToLoc(value), Carry: false}, true
	case 0b10_001_000:
		return Op{Kind: KindAdd, From: byteFieldToLoc(value), Carry: true}, true
	case 0b10_010_000:
		return Op{Kind: KindSubtract, From: byteFieldToLoc(value), Carry: false}, true
	case 0b10_011_000:
		return Op{Kind: KindSubtract, From: byteFieldToLoc(value), Carry: true}, true
	case 0b10_100_000:
		return Op{Kind: KindAnd, From: byteFieldToLoc(value)}, true
	case 0b10_101_000:
		return Op{Kind: KindExclusiveOr, From: byteFieldToLoc(value)}, true
	case 0b10_110_000:
		return Op{Kind: KindOr, From: byteFieldToLoc(value)}, true
	case 0b10_111_000:
		return Op{Kind: KindCompare, From: byteFieldToLoc(value)}, true
	}

	// 0x76 falls in the MOV block's bit pattern (DDD=SSS=110, both M) but
	// is reserved for HLT instead; the exact-match switch above already
	// claimed it, so this block never sees it.
	if value&0b11_000000 == 0b01_000000 {
		return Op{Kind: KindMove, To: byteFieldFromMiddle(value), From: byteFieldToLoc(value)}, true
	}

	switch value & 0b111_0_1111 {
	case 0b000_0_1010:
		return Op{Kind: KindLoadAccumulatorIndirect, Pair: ldaxStaxPair(value)}, true
	case 0b000_0_0010:
		return Op{Kind: KindStoreAccumulatorIndirect, Pair: ldaxStaxPair(value)}, true
	}

	return Op{}, false
}

// byteFieldFromMiddle extracts the bits-5-3 "DDD" field, used by the "to"
// side of MOV/MVI and the register operand of INR/DCR.
func byteFieldFromMiddle(value byte) Byte {
	return byteFieldFromCode(mask.MiddleField(value))
}

func ldaxStaxPair(value byte) Internal {
	if mask.SelectBit4(value) {
		return Wide(DE)
	}
	return Wide(BC)
}

func wordFromPairField(value byte) Word {
	i := internalFromField(value)
	if i.Kind == InternalSP {
		return Word{Kind: WordProgramStatus}
	}
	return Word{Kind: WordOnBoard, Internal: i}
}

// decode2 tries to decode a two-byte instruction: an opcode byte followed
// by one immediate/port byte.
func decode2(b0, b1 byte) (Op, bool) {
	switch b0 {
	case opADI:
		return Op{Kind: KindAddTo, Value: b1, Carry: false}, true
	case opACI:
		return Op{Kind: KindAddTo, Value: b1, Carry: true}, true
	case opSUI:
		return Op{Kind: KindSubtractBy, Value: b1, Carry: false}, true
	case opSBI:
		return Op{Kind: KindSubtractBy, Value: b1, Carry: true}, true
	case opANI:
		return Op{Kind: KindAndWith, Value: b1}, true
	case opXRI:
		return Op{Kind: KindExclusiveOrWith, Value: b1}, true
	case opORI:
		return Op{Kind: KindOrWith, Value: b1}, true
	case opCPI:
		return Op{Kind: KindCompareWith, Value: b1}, true
	case opOUT:
		return Op{Kind: KindOut, Port: b1}, true
	case opIN:
		return Op{Kind: KindIn, Port: b1}, true
	}

	if b0&0b11_000_111 == 0b00_000_110 {
		return Op{Kind: KindMoveData, Value: b1, To: byteFieldFromMiddle(b0)}, true
	}

	return Op{}, false
}

// decode3 tries to decode a three-byte instruction: an opcode byte
// followed by a little-endian 16-bit address or immediate.
func decode3(b0, b1, b2 byte) (Op, bool) {
	data := uint16(b1) | uint16(b2)<<8

	switch b0 {
	case opLHLD:
		return Op{Kind: KindLoadHilo, Addr: data}, true
	case opSHLD:
		return Op{Kind: KindStoreHilo, Addr: data}, true
	case opLDA:
		return Op{Kind: KindLoadAccumulator, Addr: data}, true
	case opSTA:
		return Op{Kind: KindStoreAccumulator, Addr: data}, true
	case opJMP:
		return Op{Kind: KindJump, Addr: data}, true
	case opCALL:
		return Op{Kind: KindCall, Addr: data}, true
	}

	if b0&0b11_00_1111 == 0b00_00_0001 {
		return Op{Kind: KindLoadExtendedWith, Pair: internalFromField(b0), Addr: data}, true
	}

	switch b0 & 0b11_000_111 {
	case 0b11_000_010:
		return Op{Kind: KindJumpIf, Test: testFromByte(b0), Addr: data}, true
	case 0b11_000_100:
		return Op{Kind: KindCallIf, Test: testFromByte(b0), Addr: data}, true
	}

	return Op{}, false
}

// DecodeBytes decodes an Op from a finite byte slice, following the
// extraction order of §4.2.3: try a 1-byte decode, reject the small set of
// truly-unused opcodes outright, then try 2- and 3-byte decodes. It never
// reads past the returned length, and never panics on a short slice.
func DecodeBytes(bytes []byte) (Op, int, error) {
	if len(bytes) == 0 {
		return Op{}, 0, errNoData()
	}
	if op, ok := decode1(bytes[0]); ok {
		return op, 1, nil
	}
	if isUnused(bytes[0]) {
		return Op{}, 0, errUnknown(bytes[0])
	}
	if len(bytes) < 2 {
		return Op{}, 0, errInvalid(bytes[0])
	}
	if op, ok := decode2(bytes[0], bytes[1]); ok {
		return op, 2, nil
	}
	if len(bytes) < 3 {
		return Op{}, 0, errInvalidPair(bytes[0], bytes[1])
	}
	if op, ok := decode3(bytes[0], bytes[1], bytes[2]); ok {
		return op, 3, nil
	}
	return Op{}, 0, errInvalidTriple(bytes[0], bytes[1], bytes[2])
}

// Len returns the instruction length (in bytes) for op's Kind.
//
// RET cond is architecturally 1 byte; the original source this core was
// grounded on groups ReturnIf with the 3-byte forms, which contradicts the
// 8080 Programmer's Manual. This table follows the manual.
func (op Op) Len() byte {
	switch op.Kind {
	case KindCall, KindCallIf, KindJump, KindJumpIf, KindLoadExtendedWith,
		KindStoreAccumulator, KindLoadAccumulator, KindLoadHilo, KindStoreHilo:
		return 3
	case KindAddTo, KindAndWith, KindExclusiveOrWith, KindOrWith, KindSubtractBy,
		KindCompareWith, KindMoveData, KindOut, KindIn:
		return 2
	default:
		return 1
	}
}

// Encode returns the canonical [len, b0, b1, b2] encoding of op, the
// inverse of DecodeBytes: DecodeBytes(Encode(op)[1:]) reproduces op.
func (op Op) Encode() [4]byte {
	switch op.Kind {
	case KindNOP:
		return [4]byte{1, opNOP, 0, 0}
	case KindAdd, KindSubtract, KindAnd, KindExclusiveOr, KindOr, KindCompare:
		var base byte
		switch op.Kind {
		case KindAdd:
			if op.Carry {
				base = 0b10_001_000
			} else {
				base = 0b10_000_000
			}
		case KindSubtract:
			if op.Carry {
				base = 0b10_011_000
			} else {
				base = 0b10_010_000
			}
		case KindAnd:
			base = 0b10_100_000
		case KindExclusiveOr:
			base = 0b10_101_000
		case KindOr:
			base = 0b10_110_000
		case KindCompare:
			base = 0b10_111_000
		}
		return [4]byte{1, base | byteLocToField(op.From), 0, 0}
	case KindAddTo, KindSubtractBy, KindAndWith, KindExclusiveOrWith, KindOrWith, KindCompareWith:
		var b byte
		switch op.Kind {
		case KindAddTo:
			if op.Carry {
				b = opACI
			} else {
				b = opADI
			}
		case KindSubtractBy:
			if op.Carry {
				b = opSBI
			} else {
				b = opSUI
			}
		case KindAndWith:
			b = opANI
		case KindExclusiveOrWith:
			b = opXRI
		case KindOrWith:
			b = opORI
		case KindCompareWith:
			b = opCPI
		}
		return [4]byte{2, b, op.Value, 0}
	case KindCall:
		return [4]byte{3, opCALL, byte(op.Addr), byte(op.Addr >> 8)}
	case KindCallIf:
		return [4]byte{3, 0b11_000_100 | op.Test.toField(), byte(op.Addr), byte(op.Addr >> 8)}
	case KindCarryFlag:
		if op.Enable {
			return [4]byte{1, opSTC, 0, 0}
		}
		return [4]byte{1, opCMC, 0, 0}
	case KindComplementAccumulator:
		return [4]byte{1, opCMA, 0, 0}
	case KindDecimalAddAdjust:
		return [4]byte{1, opDAA, 0, 0}
	case KindDecrementByte:
		return [4]byte{1, 0b00_000_101 | byteLocMiddleField(op.From), 0, 0}
	case KindDecrementWord:
		return [4]byte{1, 0b00_00_1011 | internalToField(op.Pair)<<4, 0, 0}
	case KindDoubleAdd:
		return [4]byte{1, 0b00_00_1001 | internalToField(op.Pair)<<4, 0, 0}
	case KindExchangeDoubleWithHilo:
		return [4]byte{1, opXCHG, 0, 0}
	case KindExchangeTopWithHilo:
		return [4]byte{1, opXTHL, 0, 0}
	case KindHalt:
		return [4]byte{1, opHLT, 0, 0}
	case KindIn:
		return [4]byte{2, opIN, op.Port, 0}
	case KindIncrementByte:
		return [4]byte{1, 0b00_000_100 | byteLocMiddleField(op.From), 0, 0}
	case KindIncrementWord:
		return [4]byte{1, 0b00_00_0011 | internalToField(op.Pair)<<4, 0, 0}
	case KindInterrupts:
		if op.Enable {
			return [4]byte{1, opEI, 0, 0}
		}
		return [4]byte{1, opDI, 0, 0}
	case KindJump:
		return [4]byte{3, opJMP, byte(op.Addr), byte(op.Addr >> 8)}
	case KindJumpIf:
		return [4]byte{3, 0b11_000_010 | op.Test.toField(), byte(op.Addr), byte(op.Addr >> 8)}
	case KindLoadAccumulator:
		return [4]byte{3, opLDA, byte(op.Addr), byte(op.Addr >> 8)}
	case KindLoadAccumulatorIndirect:
		return [4]byte{1, 0b000_0_1010 | ldaxStaxField(op.Pair), 0, 0}
	case KindLoadExtendedWith:
		return [4]byte{3, 0b00_00_0001 | internalToField(op.Pair)<<4, byte(op.Addr), byte(op.Addr >> 8)}
	case KindLoadHilo:
		return [4]byte{3, opLHLD, byte(op.Addr), byte(op.Addr >> 8)}
	case KindMove:
		return [4]byte{1, 0b01_000000 | byteLocMiddleField(op.To) | byteLocToField(op.From), 0, 0}
	case KindMoveData:
		return [4]byte{2, 0b00_000_110 | byteLocMiddleField(op.To), op.Value, 0}
	case KindOut:
		return [4]byte{2, opOUT, op.Port, 0}
	case KindPop:
		return [4]byte{1, 0b11_00_0001 | wordPairField(op.Word)<<4, 0, 0}
	case KindProgramCounterFromHilo:
		return [4]byte{1, opPCHL, 0, 0}
	case KindPush:
		return [4]byte{1, 0b11_00_0101 | wordPairField(op.Word)<<4, 0, 0}
	case KindReset:
		return [4]byte{1, 0b11_000_111 | op.Vector<<3, 0, 0}
	case KindReturn:
		return [4]byte{1, opRET, 0, 0}
	case KindReturnIf:
		return [4]byte{1, 0b11_000_000 | op.Test.toField(), 0, 0}
	case KindRotateAccumulatorLeft:
		return [4]byte{1, opRAL, 0, 0}
	case KindRotateAccumulatorRight:
		return [4]byte{1, opRAR, 0, 0}
	case KindRotateLeftCarrying:
		return [4]byte{1, opRLC, 0, 0}
	case KindRotateRightCarrying:
		return [4]byte{1, opRRC, 0, 0}
	case KindStackPointerFromHilo:
		return [4]byte{1, opSPHL, 0, 0}
	case KindStoreAccumulator:
		return [4]byte{3, opSTA, byte(op.Addr), byte(op.Addr >> 8)}
	case KindStoreAccumulatorIndirect:
		return [4]byte{1, 0b000_0_0010 | ldaxStaxField(op.Pair), 0, 0}
	case KindStoreHilo:
		return [4]byte{3, opSHLD, byte(op.Addr), byte(op.Addr >> 8)}
	default:
		return [4]byte{1, opNOP, 0, 0}
	}
}

func byteLocMiddleField(loc Byte) byte { return byteLocToField(loc) << 3 }

func ldaxStaxField(i Internal) byte {
	if i.Pair == DE {
		return 0b0001_0000
	}
	return 0
}

func wordPairField(w Word) byte {
	if w.Kind == WordProgramStatus {
		return 0b11
	}
	return internalToField(w.Internal)
}
