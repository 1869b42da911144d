package canutil

import "encoding/binary"

// Byte orders of multi-byte values carried in frame payloads.
var (
	// CANopenByteOrder is the byte order of CANopen (CiA 301) payloads.
	CANopenByteOrder binary.ByteOrder = binary.LittleEndian
	// J1939ByteOrder is the byte order of SAE J1939 parameters.
	J1939ByteOrder binary.ByteOrder = binary.LittleEndian
)
