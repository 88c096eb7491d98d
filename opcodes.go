package ryder

// Opcode identifies a command understood by the Ryder device. The driver
// never interprets these beyond framing and sequencing the bytes; their
// semantics belong to the application layer (spec.md §1).
type Opcode byte

// Exposed command opcodes (spec.md §6). Each is the single opaque byte a
// caller passes to Driver.Send; multi-byte payloads are the caller's own
// concern, appended after the opcode.
const (
	OpWake                        Opcode = 1
	OpInfo                        Opcode = 2
	OpSetup                       Opcode = 10
	OpRestoreFromSeed             Opcode = 11
	OpRestoreFromMnemonic         Opcode = 12
	OpErase                       Opcode = 13
	OpExportOwnerKey              Opcode = 18
	OpExportOwnerKeyPrivateKey    Opcode = 19
	OpExportAppKey                Opcode = 20
	OpExportAppKeyPrivateKey      Opcode = 21
	OpExportOwnerAppKeyPrivateKey Opcode = 23
	OpExportPublicIdentities      Opcode = 30
	OpExportPublicIdentity        Opcode = 31
	OpStartEncrypt                Opcode = 40
	OpStartDecrypt                Opcode = 41
	OpCancel                      Opcode = 100
)

// Byte returns the wire representation of the opcode.
func (o Opcode) Byte() byte {
	return byte(o)
}
