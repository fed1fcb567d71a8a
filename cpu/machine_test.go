package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alestane/lemurs/mem"
)

func TestInterruptIgnoredWhenDisabled(t *testing.T) {
	m, _ := newMachine()
	m.State.SetInterruptsEnabled(false)
	ok, err := m.Interrupt(Op{Kind: KindReset, Vector: 1})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint16(0), m.State.ProgramCounter())
}

func TestInterruptResumesHaltedChipAndDisablesFurtherInterrupts(t *testing.T) {
	m, _ := newMachine()
	m.State.SetActive(false)
	m.State.SetInterruptsEnabled(true)
	m.State.SetStackPointer(0x2000)

	ok, err := m.Interrupt(Op{Kind: KindReset, Vector: 3})
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.State.IsActive())
	assert.False(t, m.State.InterruptsEnabled())
	assert.Equal(t, uint16(0x0018), m.State.ProgramCounter())
}

func TestInterruptRejectsMultiByteOps(t *testing.T) {
	m, _ := newMachine()
	m.State.SetInterruptsEnabled(true)
	_, err := m.Interrupt(Op{Kind: KindJump, Addr: 0x1234})
	assert.Error(t, err)
	var nu *NotUsableError
	assert.ErrorAs(t, err, &nu)
}

func TestResetToValidatesRange(t *testing.T) {
	m, _ := newMachine()
	m.State.SetInterruptsEnabled(true)
	_, err := m.ResetTo(8)
	assert.Error(t, err)
	var oor *OutOfRangeError
	assert.ErrorAs(t, err, &oor)

	ok, err := m.ResetTo(2)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0010), m.State.ProgramCounter())
}

func TestStepsIteratorStopsAtHalt(t *testing.T) {
	m, bus := newMachine()
	bus.LoadAt(0, []byte{0x00, 0x00, 0x76, 0x00}) // NOP; NOP; HLT; NOP
	next := m.Steps()

	var seen int
	for {
		cycles, ok := next()
		if !ok {
			break
		}
		seen++
		assert.NotZero(t, cycles)
	}
	assert.Equal(t, 3, seen) // two NOPs and the HLT itself
	assert.False(t, m.State.IsActive())

	cycles, ok := next()
	assert.False(t, ok)
	assert.Zero(t, cycles)
}

// recordingHook implements Hook to verify Machine.Step invokes it with the
// executed Op, and that a returned follow-up Op runs on the same step.
type recordingHook struct {
	*mem.SimpleBus
	seen   []Op
	follow *Op
}

func (h *recordingHook) DidExecute(state *State, executed Op, cycles byte) (*Op, error) {
	h.seen = append(h.seen, executed)
	return h.follow, nil
}

func TestHookObservesEveryStepAndCanInjectFollowUp(t *testing.T) {
	follow := Op{Kind: KindReturn}
	hook := &recordingHook{SimpleBus: &mem.SimpleBus{}, follow: &follow}
	hook.LoadAt(0, []byte{0x00}) // NOP

	m := NewMachine(hook)
	m.State.SetStackPointer(0x1000)
	hook.WriteWord(0x1000, 0xABCD) // what RET will pop

	cycles, err := m.Step()
	assert.NoError(t, err)
	assert.NotZero(t, cycles)
	assert.Len(t, hook.seen, 1)
	assert.Equal(t, KindNOP, hook.seen[0].Kind)
	assert.Equal(t, uint16(0xABCD), m.State.ProgramCounter())
}

func TestOpenModeSurfacesDecodeErrorInsteadOfPanicking(t *testing.T) {
	m, bus := newMachine()
	m.Open = true
	bus.LoadAt(0, []byte{0xDD}) // unused/Z80-prefix opcode

	cycles, err := m.Step()
	assert.Error(t, err)
	assert.Zero(t, cycles)
	assert.NotPanics(t, func() { _, _ = m.Step() })
}

func TestClosedModePanicsOnDecodeError(t *testing.T) {
	m, bus := newMachine()
	bus.LoadAt(0, []byte{0xDD})
	assert.Panics(t, func() { _, _ = m.Step() })
}
