package cff

// Constants defining the CFF wire format: preamble bytes, header layout,
// and frame size limits.
const (
	PreambleByte0 = 0xFA
	PreambleByte1 = 0xCE

	// HeaderSize is the size in bytes of preamble + counter + size + header CRC.
	HeaderSize = 8
	// PayloadCRCSize is the size in bytes of the trailing payload CRC field.
	PayloadCRCSize = 2
	// MinFrameSize is the smallest possible frame: an empty payload.
	MinFrameSize = HeaderSize + PayloadCRCSize
	// MaxPayloadSize is the largest payload a u16 size field can express.
	MaxPayloadSize = 65535
)

// Preamble is the 2-byte sync marker beginning every frame, in transmission order.
var Preamble = [2]byte{PreambleByte0, PreambleByte1}

// CalculateFrameSize returns the total wire size of a frame carrying a
// payload of payloadSize bytes: HeaderSize + payloadSize + PayloadCRCSize.
func CalculateFrameSize(payloadSize int) int {
	return HeaderSize + payloadSize + PayloadCRCSize
}
