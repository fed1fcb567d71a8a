package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterField(t *testing.T) {
	// MOV A,B = 0b01_111_000, source field SSS = 000 (B)
	assert.Equal(t, byte(0b000), RegisterField(0b01_111_000))
	// MOV B,A = 0b01_000_111, source field SSS = 111 (A)
	assert.Equal(t, byte(0b111), RegisterField(0b01_000_111))
	assert.Equal(t, byte(0b110), RegisterField(0b10_000_110)) // ADD M
}

func TestMiddleField(t *testing.T) {
	// MOV A,B = 0b01_111_000, destination field DDD = 111 (A)
	assert.Equal(t, byte(0b111), MiddleField(0b01_111_000))
	// RST 5 = 0b11_101_111, vector field = 101
	assert.Equal(t, byte(0b101), MiddleField(0b11_101_111))
	// INR H = 0b00_100_100, register field = 100 (H)
	assert.Equal(t, byte(0b100), MiddleField(0b00_100_100))
}

func TestPairField(t *testing.T) {
	assert.Equal(t, byte(0b00), PairField(0b00_00_0001)) // LXI B
	assert.Equal(t, byte(0b01), PairField(0b00_01_0001)) // LXI D
	assert.Equal(t, byte(0b10), PairField(0b00_10_0001)) // LXI H
	assert.Equal(t, byte(0b11), PairField(0b00_11_0001)) // LXI SP
}

func TestSelectBit4(t *testing.T) {
	assert.False(t, SelectBit4(0b000_0_1010)) // LDAX B
	assert.True(t, SelectBit4(0b000_1_1010))  // LDAX D
}
