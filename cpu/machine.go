package cpu

import "github.com/alestane/lemurs/mem"

// Hook lets a Bus observe (and, for debug harnesses, redirect) execution
// after every instruction. It is optional: Machine checks for it with a
// type assertion on the Bus value, and a Bus that doesn't implement it is
// simply never asked.
//
// A non-nil returned Op is executed immediately, on the same step, with no
// fresh fetch-decode — the mechanism a CP/M BDOS trap harness uses to
// inject a synthetic RET and short-circuit a trapped routine without the
// guest program ever seeing the trap.
type Hook interface {
	DidExecute(state *State, executed Op, cycles byte) (follow *Op, err error)
}

// Machine owns a chip's State and a handle to its Bus. It is the
// fetch-decode-execute loop's entry point.
type Machine struct {
	State State
	Bus    mem.Bus

	// Open selects the "open"/debug build contract: when true, Step
	// surfaces decode failures and hook errors as an error return instead
	// of panicking. The underlying semantics are identical either way;
	// only error surfacing differs.
	Open bool
}

// NewMachine returns a Machine with a fresh, active State wired to bus.
func NewMachine(bus mem.Bus) *Machine {
	return &Machine{State: NewState(), Bus: bus}
}

// fetch decodes the instruction at the program counter directly from the
// Bus, peeling candidates in the same 1/2/3-byte order DecodeBytes uses
// but without pre-collecting a slice: a Bus always has a byte at any
// address, so there is no NoData case here, only Unknown/InvalidTriple.
func (m *Machine) fetch() (Op, byte, error) {
	pc := m.State.ProgramCounter()
	b0 := m.Bus.Read(pc)
	if op, ok := decode1(b0); ok {
		return op, 1, nil
	}
	if isUnused(b0) {
		return Op{}, 0, errUnknown(b0)
	}
	b1 := m.Bus.Read(pc + 1)
	if op, ok := decode2(b0, b1); ok {
		return op, 2, nil
	}
	b2 := m.Bus.Read(pc + 2)
	if op, ok := decode3(b0, b1, b2); ok {
		return op, 3, nil
	}
	return Op{}, 0, errInvalidTriple(b0, b1, b2)
}

// Step performs one fetch-decode-execute cycle: if halted, it returns a
// single idle cycle and touches nothing else. Otherwise it decodes the
// instruction at the program counter, advances the counter past it,
// dispatches the instruction, and — if the Bus implements Hook — invokes
// the post-instruction hook, executing any follow-up Op it returns on the
// same step.
//
// In a closed build (Open == false), a decode failure is a panic: the
// caller's instruction stream is malformed and there is no way to proceed.
// In an open build, it is returned as an error instead, leaving State and
// Bus exactly as the failing fetch left them.
func (m *Machine) Step() (cycles byte, err error) {
	if !m.State.IsActive() {
		return 1, nil
	}
	op, length, decodeErr := m.fetch()
	if decodeErr != nil {
		if !m.Open {
			panic(decodeErr)
		}
		return 0, decodeErr
	}
	m.State.SetProgramCounter(m.State.ProgramCounter() + uint16(length))
	cycles = op.executeOn(&m.State, m.Bus)
	if cycles == 0 {
		m.State.SetActive(false)
	}
	if hook, ok := m.Bus.(Hook); ok {
		follow, hookErr := hook.DidExecute(&m.State, op, cycles)
		if hookErr != nil {
			if m.Open {
				return cycles, hookErr
			}
			panic(hookErr)
		}
		if follow != nil {
			follow.executeOn(&m.State, m.Bus)
			if follow.Kind == KindHalt {
				return 0, nil
			}
		}
	}
	return cycles, nil
}

// Interrupt injects a one-byte Op as if it arrived on the interrupt pin:
// if interrupts are disabled, it is ignored and Interrupt returns false
// without disturbing state. Otherwise the processor resumes from halt,
// interrupts are disabled until re-enabled, and the op executes with its
// normal side effects (an RST pushes the return PC, for instance).
func (m *Machine) Interrupt(op Op) (bool, error) {
	if op.Len() != 1 {
		return false, &NotUsableError{Op: op}
	}
	if !m.State.InterruptsEnabled() {
		return false, nil
	}
	m.State.SetActive(true)
	m.State.SetInterruptsEnabled(false)
	op.executeOn(&m.State, m.Bus)
	return true, nil
}

// ResetTo is shorthand for Interrupt(Reset{vector: index}), for index in
// 0..=7.
func (m *Machine) ResetTo(index int) (bool, error) {
	if index < 0 || index > 7 {
		return false, &OutOfRangeError{Index: index}
	}
	ok, err := m.Interrupt(Op{Kind: KindReset, Vector: byte(index)})
	return ok, err
}

// Steps returns an iterator-style closure yielding one cycle count per
// call. It checks IsActive() before stepping, not after: a HLT still
// yields its 7 cycles on the call that executes it (ok == true), since
// the machine was active when that call began. The call after that one
// finds the machine already halted and stops the iterator there (ok ==
// false) — the same "no further cycles" fixed point Step reports on its
// own for a halted machine, just surfaced through IsActive rather than a
// zero cycle count HLT never actually produces. A decode/hook error
// stops it too.
func (m *Machine) Steps() func() (cycles byte, ok bool) {
	return func() (byte, bool) {
		if !m.State.IsActive() {
			return 0, false
		}
		cycles, err := m.Step()
		if err != nil {
			return 0, false
		}
		return cycles, true
	}
}
