// Command lemurs loads an 8080 binary into a flat 64KB bus and runs it,
// either headless or under the interactive single-step debugger.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alestane/lemurs/cpu"
	"github.com/alestane/lemurs/mem"
)

func main() {
	var origin uint16
	var originFlag string
	var debug bool
	var trace bool
	var openMode bool

	root := &cobra.Command{
		Use:   "lemurs [binary]",
		Short: "Intel 8080 emulator core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			parsed, err := strconv.ParseUint(originFlag, 0, 16)
			if err != nil {
				return fmt.Errorf("invalid --origin %q: %w", originFlag, err)
			}
			origin = uint16(parsed)

			board := &bdosBoard{SimpleBus: &mem.SimpleBus{}}
			machine := cpu.NewMachine(board)
			machine.Open = openMode

			if debug {
				return cpu.Debug(machine, board.SimpleBus, program, origin)
			}

			board.LoadAt(origin, program)
			machine.State.SetProgramCounter(origin)

			next := machine.Steps()
			for {
				cycles, ok := next()
				if !ok {
					break
				}
				if trace {
					fmt.Fprintf(os.Stderr, "pc=%04x cycles=%d\n", machine.State.ProgramCounter(), cycles)
				}
			}
			return nil
		},
	}

	root.Flags().StringVar(&originFlag, "origin", "0x100", "load address, as a Go integer literal")
	root.Flags().BoolVar(&debug, "debug", false, "launch the interactive single-step debugger instead of running headless")
	root.Flags().BoolVar(&trace, "trace", false, "print pc and cycle count after every instruction")
	root.Flags().BoolVar(&openMode, "open", false, "stop on decode/hook failures instead of panicking; the failure is printed only with --debug")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lemurs:", err)
		os.Exit(1)
	}
}

// bdosBoard wraps a SimpleBus with a minimal trap for CP/M BDOS functions 2
// (console output, character in register E) and 9 (print $-terminated
// string, address in DE) at address 0x0005 — the fixed BDOS entry point
// every CP/M .COM program expects. It implements cpu.Hook: after every
// instruction it checks whether the program counter landed on 0x0005 and,
// if so, performs the call's effect itself and injects a synthetic RET so
// the guest program never has to know BDOS isn't really there.
//
// This is demonstration plumbing for the CLI, not part of the core's
// contract: the core only ever requires a mem.Bus.
type bdosBoard struct {
	*mem.SimpleBus
	out *bufio.Writer
}

func (b *bdosBoard) writer() *bufio.Writer {
	if b.out == nil {
		b.out = bufio.NewWriter(os.Stdout)
	}
	return b.out
}

func (b *bdosBoard) DidExecute(state *cpu.State, executed cpu.Op, cycles byte) (*cpu.Op, error) {
	if state.ProgramCounter() != 0x0005 {
		return nil, nil
	}
	w := b.writer()
	switch state.Reg(cpu.C) {
	case 2:
		w.WriteByte(state.Reg(cpu.E))
	case 9:
		addr := state.Pair(cpu.DE)
		for {
			c := b.Read(addr)
			if c == '$' {
				break
			}
			w.WriteByte(c)
			addr++
		}
	}
	w.Flush()
	follow := cpu.Op{Kind: cpu.KindReturn}
	return &follow, nil
}
