package cff

import "errors"

// FrameDescriptor is a transient, parsed view of one frame. It does not
// own the payload bytes: it references the ring buffer and the physical
// index the payload begins at, and is valid only until that range is
// consumed. A caller that needs to retain the payload must copy it out
// with CopyFramePayload before consuming the ring further.
type FrameDescriptor struct {
	Preamble     [2]byte
	FrameCounter uint16
	PayloadSize  uint16
	HeaderCRC    uint16
	PayloadCRC   uint16

	ring          *RingBuffer
	payloadOffset int // physical index into ring.storage
}

// ParseFrame attempts to parse exactly one frame starting at the ring's
// consumeIndex. On success it advances consumeIndex by the frame size; on
// any failure it does not advance, so the caller may retry once more bytes
// are available.
//
// State machine: NEED_HEADER -> HEADER_VALIDATED -> NEED_PAYLOAD -> DONE.
func ParseFrame(ring *RingBuffer) (FrameDescriptor, error) {
	var desc FrameDescriptor
	if ring == nil {
		return desc, ErrNullPointer
	}

	// NEED_HEADER
	if ring.Used() < MinFrameSize {
		return desc, ErrIncompleteFrame
	}
	b0, _ := ring.PeekByte(0)
	b1, _ := ring.PeekByte(1)
	if b0 != PreambleByte0 || b1 != PreambleByte1 {
		return desc, ErrInvalidPreamble
	}
	counter, _ := ring.PeekU16LE(2)
	payloadSize, _ := ring.PeekU16LE(4)
	storedHeaderCRC, _ := ring.PeekU16LE(6)
	headerCRC, err := ring.WrapAwareCRC(0, 6)
	if err != nil {
		return desc, err
	}
	if headerCRC != storedHeaderCRC {
		return desc, ErrInvalidHeaderCRC
	}

	// HEADER_VALIDATED -> NEED_PAYLOAD
	expectedFrameSize := CalculateFrameSize(int(payloadSize))
	if ring.Used() < expectedFrameSize {
		return desc, ErrIncompleteFrame
	}

	// NEED_PAYLOAD
	payloadCRC, err := ring.WrapAwareCRC(HeaderSize, int(payloadSize))
	if err != nil {
		return desc, err
	}
	storedPayloadCRC, _ := ring.PeekU16LE(HeaderSize + int(payloadSize))
	if payloadCRC != storedPayloadCRC {
		return desc, ErrInvalidPayloadCRC
	}

	// DONE
	desc.Preamble = [2]byte{b0, b1}
	desc.FrameCounter = counter
	desc.PayloadSize = payloadSize
	desc.HeaderCRC = storedHeaderCRC
	desc.PayloadCRC = storedPayloadCRC
	desc.ring = ring
	desc.payloadOffset = ring.physicalIndex(HeaderSize)

	if err := ring.Discard(expectedFrameSize); err != nil {
		return desc, err
	}
	return desc, nil
}

// ParseFrames repeatedly parses frames from ring, invoking callback for
// each one successfully parsed, and returns the number delivered. It is
// the resynchronizing streaming parser: after a candidate frame fails
// validation for any reason other than "incomplete", it slides the
// logical origin forward by exactly one byte and tries again, so a
// single-byte corruption damages at most one frame. incomplete_frame stops
// the scan without advancing, since more data may still arrive.
func ParseFrames(ring *RingBuffer, callback func(FrameDescriptor)) (int, error) {
	if ring == nil {
		return 0, ErrNullPointer
	}
	delivered := 0
	for {
		used := ring.Used()
		if used < MinFrameSize {
			return delivered, nil
		}

		offset, found := scanForPreamble(ring, used)
		if !found {
			// No further 2-byte match is possible once we've checked every
			// adjacent pair; keep the last byte in case a preamble's second
			// byte arrives with the next append.
			_ = ring.Discard(used - 1)
			return delivered, nil
		}
		if offset > 0 {
			if err := ring.Discard(offset); err != nil {
				return delivered, err
			}
		}

		desc, err := ParseFrame(ring)
		switch {
		case err == nil:
			callback(desc)
			delivered++
		case errors.Is(err, ErrIncompleteFrame):
			return delivered, nil
		default:
			// invalid_header_crc or invalid_payload_crc (invalid_preamble is
			// impossible here: we just scanned to a matching preamble).
			if err := ring.Discard(1); err != nil {
				return delivered, err
			}
		}
	}
}

// scanForPreamble searches for the first occurrence of the 2-byte preamble
// among the used bytes, returning its logical offset from consumeIndex.
func scanForPreamble(ring *RingBuffer, used int) (int, bool) {
	prev, _ := ring.PeekByte(0)
	for offset := 1; offset < used; offset++ {
		cur, _ := ring.PeekByte(offset)
		if prev == PreambleByte0 && cur == PreambleByte1 {
			return offset - 1, true
		}
		prev = cur
	}
	return 0, false
}

// CopyFramePayload copies a parsed frame's payload into out, honoring
// wrap-around. Fails ErrBufferTooSmall if len(out) is less than
// desc.PayloadSize.
func CopyFramePayload(desc FrameDescriptor, out []byte) error {
	if desc.ring == nil {
		return ErrNullPointer
	}
	if len(out) < int(desc.PayloadSize) {
		return ErrBufferTooSmall
	}
	desc.ring.copyOutPhysical(desc.payloadOffset, int(desc.PayloadSize), out)
	return nil
}
