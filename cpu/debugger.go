package cpu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/alestane/lemurs/mem"
)

// model is the bubbletea model backing Debug: a Machine stepped one
// instruction per keypress, with the surrounding RAM and register file
// rendered after every Update.
type model struct {
	machine *Machine
	bus     *mem.SimpleBus

	offset uint16 // window start for the page table
	prevPC uint16
	err    error
}

// Init performs no setup: the caller has already loaded the program and
// positioned the program counter before calling Debug.
func (m model) Init() tea.Cmd { return nil }

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case " ", "j":
			m.prevPC = m.machine.State.ProgramCounter()
			if _, err := m.machine.Step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// renderPage renders a single 16-byte page as a line, highlighting the
// current program counter.
func (m model) renderPage(start uint16) string {
	pc := m.machine.State.ProgramCounter()
	s := fmt.Sprintf("%04x | ", start)
	for i := uint16(0); i < 16; i++ {
		b := m.bus.Read(start + i)
		if start+i == pc {
			s += fmt.Sprintf("[%02x] ", b)
		} else {
			s += fmt.Sprintf(" %02x  ", b)
		}
	}
	return s
}

func (m model) status() string {
	st := &m.machine.State
	var flags string
	for _, flag := range []bool{st.Sign, st.Zero, st.AuxCarry, st.Parity, st.Carry} {
		if flag {
			flags += "/ "
		} else {
			flags += "  "
		}
	}
	return fmt.Sprintf(`
PC: %04x (%04x)
SP: %04x
 A: %02x  B: %02x  C: %02x
 D: %02x  E: %02x
 H: %02x  L: %02x
S Z A P C
`,
		st.ProgramCounter(), m.prevPC,
		st.StackPointer(),
		st.Reg(A), st.Reg(B), st.Reg(C),
		st.Reg(D), st.Reg(E),
		st.Reg(H), st.Reg(L),
	) + flags
}

func (m model) pageTable() string {
	header := "page | "
	for b := range 16 {
		header += fmt.Sprintf("  %01x  ", b)
	}

	pages := []string{header}
	pc := m.machine.State.ProgramCounter()
	base := pc - pc%16
	offsets := []int{
		int(base), int(base) + 16, int(base) + 32,
		int(m.offset), int(m.offset) + 16, int(m.offset) + 32,
	}
	for _, i := range offsets {
		pages = append(pages, m.renderPage(uint16(i)))
	}
	return strings.Join(pages, "\n")
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (m model) View() string {
	op, _, err := DecodeBytes(m.bus.RAM[m.machine.State.ProgramCounter():])
	var next string
	if err != nil {
		next = err.Error()
	} else {
		next = spew.Sdump(op)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.pageTable(),
			m.status(),
		),
		"",
		next,
	)
}

// Debug loads program into bus's RAM at offset, points the machine's
// program counter there, and starts an interactive single-step TUI: space
// or 'j' advances one instruction, 'q' quits.
func Debug(machine *Machine, bus *mem.SimpleBus, program []byte, offset uint16) error {
	bus.LoadAt(offset, program)
	machine.State.SetProgramCounter(offset)
	m, err := tea.NewProgram(model{machine: machine, bus: bus, offset: offset}).Run()
	if err != nil {
		return err
	}
	if x := m.(model); x.err != nil {
		return x.err
	}
	return nil
}
