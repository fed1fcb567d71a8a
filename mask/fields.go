package mask

// RegisterField extracts the 3-bit register/operand field from bits 2-0 of
// an 8080 opcode byte (the "SSS" field in the Programmer's Manual: the
// register field of the MOV-source and ALU-source forms).
func RegisterField(b byte) byte { return Range(b, I6, I8) }

// MiddleField extracts the 3-bit field from bits 5-3 of an 8080 opcode byte
// (the "DDD" field of MOV/MVI, the register field of INR/DCR, the RST
// vector, the condition-test selector, or the ALU-operation selector).
func MiddleField(b byte) byte { return Range(b, I3, I5) }

// PairField extracts the 2-bit register-pair field from bits 5-4 (the "RP"
// field of LXI/INX/DCX/DAD/PUSH/POP).
func PairField(b byte) byte { return Range(b, I3, I4) }

// SelectBit4 reports whether bit 4 is set, the BC/DE selector used by the
// LDAX/STAX family.
func SelectBit4(b byte) bool { return IsSet(b, I4) }
