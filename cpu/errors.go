package cpu

import "fmt"

// DecodeError is the taxonomy of failures the opcode decoder can report.
// *DecodeError satisfies error, so callers can match on it with errors.As
// or a type switch and then compare its Kind against the constants below.
type DecodeError struct {
	Kind  DecodeErrorKind
	Bytes []byte
	Op    Op
}

type DecodeErrorKind byte

const (
	ErrNoData DecodeErrorKind = iota
	ErrUnknown
	ErrInvalid
	ErrInvalidPair
	ErrInvalidTriple
	ErrMismatch
)

func (e *DecodeError) Error() string {
	switch e.Kind {
	case ErrNoData:
		return "no data to decode"
	case ErrUnknown:
		return fmt.Sprintf("unknown opcode %#02x", e.Bytes[0])
	case ErrInvalid:
		return fmt.Sprintf("invalid opcode %#02x", e.Bytes[0])
	case ErrInvalidPair:
		return fmt.Sprintf("invalid opcode pair %#02x %#02x", e.Bytes[0], e.Bytes[1])
	case ErrInvalidTriple:
		return fmt.Sprintf("invalid opcode triple %#02x %#02x %#02x", e.Bytes[0], e.Bytes[1], e.Bytes[2])
	case ErrMismatch:
		return fmt.Sprintf("op %v does not match byte %#02x", e.Op, e.Bytes[0])
	default:
		return "decode error"
	}
}

func errNoData() error { return &DecodeError{Kind: ErrNoData} }

func errUnknown(b byte) error { return &DecodeError{Kind: ErrUnknown, Bytes: []byte{b}} }

func errInvalid(b byte) error { return &DecodeError{Kind: ErrInvalid, Bytes: []byte{b}} }

func errInvalidPair(b0, b1 byte) error {
	return &DecodeError{Kind: ErrInvalidPair, Bytes: []byte{b0, b1}}
}

func errInvalidTriple(b0, b1, b2 byte) error {
	return &DecodeError{Kind: ErrInvalidTriple, Bytes: []byte{b0, b1, b2}}
}

// NotUsableError is returned by Machine.Interrupt when the supplied Op does
// not fit in a single byte, a technical requirement of interrupt injection
// on the real chip.
type NotUsableError struct{ Op Op }

func (e *NotUsableError) Error() string { return fmt.Sprintf("op %v is not usable as an interrupt: not one byte", e.Op) }

// OutOfRangeError is returned by Machine.ResetTo when the vector index
// falls outside 0..=7.
type OutOfRangeError struct{ Index int }

func (e *OutOfRangeError) Error() string { return fmt.Sprintf("reset vector %d out of range 0..=7", e.Index) }
