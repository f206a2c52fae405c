// Package batch provides bulk encode/decode helpers for moving several CFF
// frames through a single I/O operation, in the shape of a cannelloni-style
// batch codec: an Encode/EncodeTo pair for writers and a Decode-by-callback
// loop for readers.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jkowalski/cff/cff"
	"github.com/jkowalski/cff/internal/metrics"
)

// Codec batches CFF frame construction on top of a cff.FrameBuilder. It is
// not safe for concurrent Encode calls, matching the single-writer contract
// of the embedded builder.
type Codec struct {
	builder cff.FrameBuilder
}

// Init prepares the codec with scratch storage sized for the largest frame
// it will build; see cff.CalculateFrameSize.
func (c *Codec) Init(scratch []byte) error {
	return c.builder.Init(scratch)
}

// Counter returns the frame counter the next BuildFrame call will stamp.
func (c *Codec) Counter() uint16 { return c.builder.Counter() }

// Encode packs payloads into consecutive CFF frames and returns the
// concatenated wire bytes. Returns nil, nil for an empty payload list.
func (c *Codec) Encode(payloads [][]byte) ([]byte, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if _, err := c.EncodeTo(&buf, payloads); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the wire representation of payloads to w, one CFF frame
// per payload, and returns the number of bytes written.
func (c *Codec) EncodeTo(w io.Writer, payloads [][]byte) (int, error) {
	var total int
	for _, p := range payloads {
		frame, err := c.builder.BuildFrame(p)
		if err != nil {
			return total, fmt.Errorf("batch encode: %w", err)
		}
		n, err := w.Write(frame)
		total += n
		if err != nil {
			return total, fmt.Errorf("batch encode write: %w", err)
		}
		metrics.IncFramesBuilt()
	}
	return total, nil
}

// Decode drains as many complete frames as are currently buffered in ring,
// invoking onFrame with a freshly allocated copy of each payload. An
// incomplete trailing frame is left in ring for the next call. It returns
// the number of frames delivered.
func Decode(ring *cff.RingBuffer, onFrame func(counter uint16, payload []byte)) (int, error) {
	return decodeUpTo(ring, 0, onFrame)
}

// DecodeN decodes at most max frames (max<=0 means unbounded, equivalent to
// Decode) from ring, invoking onFrame for each and stopping as soon as max
// is reached rather than draining the whole ring. Corrupt candidates are
// resynchronized one byte at a time, same as Decode.
func DecodeN(ring *cff.RingBuffer, max int, onFrame func(counter uint16, payload []byte)) (int, error) {
	return decodeUpTo(ring, max, onFrame)
}

// decodeUpTo parses frames one at a time via cff.ParseFrame (rather than
// cff.ParseFrames) so that this dependency-free-core-adjacent layer can
// observe each rejection and resync step and report it to metrics; the core
// itself must not import metrics. max<=0 means unbounded.
func decodeUpTo(ring *cff.RingBuffer, max int, onFrame func(counter uint16, payload []byte)) (int, error) {
	delivered := 0
	for max <= 0 || delivered < max {
		desc, err := cff.ParseFrame(ring)
		switch {
		case err == nil:
			payload := make([]byte, desc.PayloadSize)
			if cerr := cff.CopyFramePayload(desc, payload); cerr != nil {
				metrics.IncError("batch_decode")
				return delivered, cerr
			}
			metrics.IncFramesParsed()
			onFrame(desc.FrameCounter, payload)
			delivered++
		case errors.Is(err, cff.ErrIncompleteFrame):
			return delivered, nil
		default:
			if reason := rejectReason(err); reason != "" {
				metrics.IncRejected(reason)
			}
			if derr := ring.Discard(1); derr != nil {
				return delivered, derr
			}
			metrics.IncResync()
		}
	}
	return delivered, nil
}

// rejectReason maps a cff.ParseFrame validation error to a metrics reason
// label. Returns "" for errors that aren't frame-rejection reasons (e.g. a
// nil ring), which the caller should not count as a rejection.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, cff.ErrInvalidPreamble):
		return metrics.ReasonInvalidPreamble
	case errors.Is(err, cff.ErrInvalidHeaderCRC):
		return metrics.ReasonInvalidHeaderCRC
	case errors.Is(err, cff.ErrInvalidPayloadCRC):
		return metrics.ReasonInvalidPayloadCRC
	default:
		return ""
	}
}
