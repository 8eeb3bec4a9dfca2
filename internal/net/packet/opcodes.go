package packet

// Client opcodes.
const (
	C_VERSION      byte = 0x01
	C_START_BATTLE byte = 0x10
	C_END_BATTLE   byte = 0x11
	C_START_TURN   byte = 0x12
	C_ATTACK       byte = 0x20
	C_FREE_AIM     byte = 0x21
	C_USE_SKILL    byte = 0x22
	C_TRIGGER      byte = 0x23
)

// Server opcodes.
const (
	S_VERSION_OK byte = 0x81
	S_OUTCOME    byte = 0x90
	S_NOTICE     byte = 0x91
	S_ERROR      byte = 0xFF
)

// ProtocolVersion is checked against the client's C_VERSION.
const ProtocolVersion = 1

// Action flags carried by C_ATTACK, C_FREE_AIM and C_USE_SKILL. FlagCounter
// is only honoured on C_ATTACK.
const (
	FlagCritical byte = 1 << iota
	FlagWeakPoint
	FlagCounter
)
