// Package mem provides the Bus contract the cpu package uses to reach
// outside of its own registers: every memory fetch, memory store, port
// read, and port write the 8080 core performs is mediated by a Bus.
//
// The core never interprets a Bus's internal layout. MMIO, bank switching,
// write-protected regions, and video memory are the Bus implementation's
// concern, not the CPU's.
package mem

// A Bus is the central object a Machine reads instructions and data from,
// and writes results to. One or more components can be wired to a Bus by
// giving it their own memory-mapped ranges or port numbers; the core only
// ever sees the methods below.
type Bus interface {
	// Read returns the byte currently stored at addr.
	Read(addr uint16) byte
	// Write stores value at addr. Implementations backing read-only memory
	// may discard the write silently.
	Write(addr uint16, value byte)
	// ReadWord returns the little-endian 16-bit word at addr, addr+1.
	ReadWord(addr uint16) uint16
	// WriteWord stores value as a little-endian pair at addr, addr+1.
	WriteWord(addr uint16, value uint16)
	// Input returns the byte currently presented on the given input port.
	Input(port byte) byte
	// Output accepts value on the given output port.
	Output(port byte, value byte)
}

// SimpleBus is a minimal reference Bus: a flat 64KB RAM array plus 256
// input and output ports, modeled on the teacher's FakeRam array and on
// original_source's SimpleBoard. It is the Bus cmd/lemurs uses by default
// and the Bus the cpu package's own tests exercise.
//
// SimpleBus carries no hook of its own: the cpu package declares the Hook
// contract (it needs cpu.Op and cpu.State, which mem must not import), and
// a caller that wants a debug trap wraps a *SimpleBus in its own type that
// implements cpu.Hook. See cmd/lemurs for a CP/M BDOS trap built this way.
type SimpleBus struct {
	RAM [65536]byte
	In  [256]byte
	Out [256]byte
}

func (b *SimpleBus) Read(addr uint16) byte { return b.RAM[addr] }

func (b *SimpleBus) Write(addr uint16, value byte) { b.RAM[addr] = value }

func (b *SimpleBus) ReadWord(addr uint16) uint16 {
	return uint16(b.RAM[addr+1])<<8 | uint16(b.RAM[addr])
}

func (b *SimpleBus) WriteWord(addr uint16, value uint16) {
	b.RAM[addr] = byte(value)
	b.RAM[addr+1] = byte(value >> 8)
}

func (b *SimpleBus) Input(port byte) byte { return b.In[port] }

func (b *SimpleBus) Output(port byte, value byte) { b.Out[port] = value }

// LoadAt copies program into the bus's RAM starting at addr, wrapping
// around 64KB if necessary.
func (b *SimpleBus) LoadAt(addr uint16, program []byte) {
	for i, v := range program {
		b.RAM[addr+uint16(i)] = v
	}
}
