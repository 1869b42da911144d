package canutil

// fdLengths maps a CAN-FD DLC code to its payload byte count.
var fdLengths = [16]uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}

// MaxFDLen is the largest CAN-FD payload in bytes.
const MaxFDLen = 64

// DLCToByteCount returns the payload size encoded by a CAN-FD DLC code.
// DLC is a 4-bit field; only the low four bits of dlc are used.
//
// Codes 0..8 map to themselves; 9..15 map to 12, 16, 20, 24, 32, 48, 64.
func DLCToByteCount(dlc uint8) uint8 {
	return fdLengths[dlc&0x0F]
}

// ByteCountToDLC returns the smallest DLC code whose payload holds n bytes.
// Counts between valid sizes round up (the frame is padded); counts above
// 64 saturate at 15 (the payload is truncated).
func ByteCountToDLC(n int) uint8 {
	if n <= 8 {
		if n < 0 {
			return 0
		}
		return uint8(n)
	}
	for dlc := uint8(9); dlc < 15; dlc++ {
		if n <= int(fdLengths[dlc]) {
			return dlc
		}
	}
	return 15
}

// ValidFDLen reports whether n is a payload size a CAN-FD frame can carry
// without padding.
func ValidFDLen(n int) bool {
	if n < 0 || n > MaxFDLen {
		return false
	}
	return int(DLCToByteCount(ByteCountToDLC(n))) == n
}

// PaddedFDLen returns the payload size a frame carrying n bytes occupies
// on the wire.
func PaddedFDLen(n int) int {
	return int(DLCToByteCount(ByteCountToDLC(n)))
}
