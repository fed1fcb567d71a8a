package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// constructibleOps enumerates one representative Op per Kind, including
// every Byte/Word/Internal/Test shape the encoder distinguishes. It is the
// corpus the round-trip test iterates.
func constructibleOps() []Op {
	var ops []Op
	locs := []Byte{SingleReg(B), SingleReg(C), SingleReg(D), SingleReg(E), SingleReg(H), SingleReg(L), SingleReg(A), Indirect}
	pairs := []Internal{Wide(BC), Wide(DE), Wide(HL), StackPointerLoc}
	tests := []Test{
		{Flag: FlagZero, Is: false}, {Flag: FlagZero, Is: true},
		{Flag: FlagCarry, Is: false}, {Flag: FlagCarry, Is: true},
		{Flag: FlagEvenParity, Is: false}, {Flag: FlagEvenParity, Is: true},
		{Flag: FlagNegative, Is: false}, {Flag: FlagNegative, Is: true},
	}

	ops = append(ops, Op{Kind: KindNOP, N: 4})
	for _, from := range locs {
		ops = append(ops,
			Op{Kind: KindAdd, From: from, Carry: false},
			Op{Kind: KindAdd, From: from, Carry: true},
			Op{Kind: KindSubtract, From: from, Carry: false},
			Op{Kind: KindSubtract, From: from, Carry: true},
			Op{Kind: KindAnd, From: from},
			Op{Kind: KindExclusiveOr, From: from},
			Op{Kind: KindOr, From: from},
			Op{Kind: KindCompare, From: from},
			Op{Kind: KindIncrementByte, From: from},
			Op{Kind: KindDecrementByte, From: from},
		)
		for _, to := range locs {
			// MOV M,M's encoding (0x76) is HLT, not a real move: that
			// slot isn't a constructible Op, so it's excluded here
			// rather than fed through a round trip that can't hold.
			if to.Kind == ByteIndirect && from.Kind == ByteIndirect {
				continue
			}
			ops = append(ops, Op{Kind: KindMove, To: to, From: from})
		}
		ops = append(ops, Op{Kind: KindMoveData, To: from, Value: 0x42})
	}
	ops = append(ops,
		Op{Kind: KindAddTo, Value: 0x10, Carry: false},
		Op{Kind: KindAddTo, Value: 0x10, Carry: true},
		Op{Kind: KindSubtractBy, Value: 0x10, Carry: false},
		Op{Kind: KindSubtractBy, Value: 0x10, Carry: true},
		Op{Kind: KindAndWith, Value: 0x0F},
		Op{Kind: KindExclusiveOrWith, Value: 0x0F},
		Op{Kind: KindOrWith, Value: 0x0F},
		Op{Kind: KindCompareWith, Value: 0x0F},
		Op{Kind: KindOut, Port: 0x01},
		Op{Kind: KindIn, Port: 0x01},
	)
	for _, p := range pairs {
		ops = append(ops,
			Op{Kind: KindDecrementWord, Pair: p},
			Op{Kind: KindIncrementWord, Pair: p},
			Op{Kind: KindDoubleAdd, Pair: p},
			Op{Kind: KindLoadExtendedWith, Pair: p, Addr: 0x1234},
		)
	}
	for _, p := range []Internal{Wide(BC), Wide(DE)} {
		ops = append(ops,
			Op{Kind: KindLoadAccumulatorIndirect, Pair: p},
			Op{Kind: KindStoreAccumulatorIndirect, Pair: p},
		)
	}
	for _, w := range []Word{
		{Kind: WordOnBoard, Internal: Wide(BC)},
		{Kind: WordOnBoard, Internal: Wide(DE)},
		{Kind: WordOnBoard, Internal: Wide(HL)},
		{Kind: WordProgramStatus},
	} {
		ops = append(ops, Op{Kind: KindPush, Word: w}, Op{Kind: KindPop, Word: w})
	}
	for _, t := range tests {
		ops = append(ops,
			Op{Kind: KindJumpIf, Test: t, Addr: 0xBEEF},
			Op{Kind: KindCallIf, Test: t, Addr: 0xBEEF},
			Op{Kind: KindReturnIf, Test: t},
		)
	}
	for v := byte(0); v < 8; v++ {
		ops = append(ops, Op{Kind: KindReset, Vector: v})
	}
	ops = append(ops,
		Op{Kind: KindCall, Addr: 0x1234},
		Op{Kind: KindCarryFlag, Enable: true},
		Op{Kind: KindCarryFlag, Enable: false},
		Op{Kind: KindComplementAccumulator},
		Op{Kind: KindDecimalAddAdjust},
		Op{Kind: KindExchangeDoubleWithHilo},
		Op{Kind: KindExchangeTopWithHilo},
		Op{Kind: KindHalt},
		Op{Kind: KindInterrupts, Enable: true},
		Op{Kind: KindInterrupts, Enable: false},
		Op{Kind: KindJump, Addr: 0x1234},
		Op{Kind: KindLoadAccumulator, Addr: 0x1234},
		Op{Kind: KindLoadHilo, Addr: 0x1234},
		Op{Kind: KindProgramCounterFromHilo},
		Op{Kind: KindReturn},
		Op{Kind: KindRotateLeftCarrying},
		Op{Kind: KindRotateRightCarrying},
		Op{Kind: KindRotateAccumulatorLeft},
		Op{Kind: KindRotateAccumulatorRight},
		Op{Kind: KindStackPointerFromHilo},
		Op{Kind: KindStoreAccumulator, Addr: 0x1234},
		Op{Kind: KindStoreHilo, Addr: 0x1234},
	)
	return ops
}

func TestRoundTrip(t *testing.T) {
	for _, op := range constructibleOps() {
		encoded := op.Encode()
		length := encoded[0]
		assert.Equal(t, op.Len(), length, "Len() disagrees with Encode()[0] for %+v", op)

		decoded, n, err := DecodeBytes(encoded[1:])
		assert.NoError(t, err, "decode of freshly-encoded %+v failed", op)
		assert.Equal(t, op, decoded, "round trip mismatch for %+v", op)
		assert.Equal(t, int(length), n, "decoded length mismatch for %+v", op)
	}
}

// TestDecodeCoverage walks every possible first byte with three fixed
// trailing pairs, and requires DecodeBytes never to panic and, where it
// succeeds, to report a length that agrees with Op.Len.
func TestDecodeCoverage(t *testing.T) {
	suffixes := [][2]byte{{0x00, 0x00}, {0xFF, 0xFF}, {0x42, 0x99}}
	for b0 := 0; b0 < 256; b0++ {
		for _, suf := range suffixes {
			bytes := []byte{byte(b0), suf[0], suf[1]}
			assert.NotPanics(t, func() {
				op, n, err := DecodeBytes(bytes)
				if err == nil {
					assert.GreaterOrEqual(t, n, 1)
					assert.LessOrEqual(t, n, 3)
					assert.Equal(t, byte(n), op.Len())
				}
			})
		}
	}
}

func TestUnusedOpcodesReportUnknown(t *testing.T) {
	for _, b := range []byte{0xCB, 0xD9, 0xDD, 0xED, 0xFD, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		_, _, err := DecodeBytes([]byte{b, 0, 0})
		assert.Error(t, err, "opcode %#02x should be reported as unused", b)
		var de *DecodeError
		assert.ErrorAs(t, err, &de)
		assert.Equal(t, ErrUnknown, de.Kind)
	}
}

// TestReturnIfIsOneByte locks in the architectural correction noted on
// Op.Len: a conditional RET is one byte, not three.
func TestReturnIfIsOneByte(t *testing.T) {
	op := Op{Kind: KindReturnIf, Test: Test{Flag: FlagZero, Is: true}}
	assert.Equal(t, byte(1), op.Len())
	encoded := op.Encode()
	assert.Equal(t, byte(1), encoded[0])
}

func TestTestFieldRoundTrip(t *testing.T) {
	for flag := FlagZero; flag <= FlagNegative; flag++ {
		for _, is := range []bool{false, true} {
			want := Test{Flag: flag, Is: is}
			got := testFromByte(want.toField())
			assert.Equal(t, want, got)
		}
	}
}
