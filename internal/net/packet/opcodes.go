package packet

// Client → server opcodes.
const (
	C_OPCODE_HELLO        byte = 0x00 // playerId u64
	C_OPCODE_BIND         byte = 0x01 // vehicleId u64 (0 unbinds)
	C_OPCODE_CONTROL      byte = 0x02 // vehicleId u64, flags u8
	C_OPCODE_START_ENGINE byte = 0x03 // vehicleId u64
	C_OPCODE_HORN         byte = 0x04 // vehicleId u64
	C_OPCODE_KEYS         byte = 0x05 // vehicleId u64, held keys u8
	C_OPCODE_REFUEL       byte = 0x06 // vehicleId u64, fluid S, amount f32
	C_OPCODE_PURCHASE     byte = 0x07 // modelId S
	C_OPCODE_REPAIR       byte = 0x08 // vehicleId u64
	C_OPCODE_SCRAP        byte = 0x09 // vehicleId u64
)

// Server → client opcodes.
const (
	S_OPCODE_TELEMETRY    byte = 0x81
	S_OPCODE_ENGINE_STATE byte = 0x82
	S_OPCODE_HORN         byte = 0x83
	S_OPCODE_BIND_RESULT  byte = 0x84 // vehicleId u64, ok u8
	S_OPCODE_RECEIPT      byte = 0x85 // kind u8, ok u8, vehicleId u64, cost u64, text S
)

// Receipt kinds carried by S_RECEIPT.
const (
	ReceiptFuel     byte = 1
	ReceiptPurchase byte = 2
	ReceiptRepair   byte = 3
	ReceiptScrap    byte = 4
)
