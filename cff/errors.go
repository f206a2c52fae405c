package cff

import "errors"

// Sentinel errors returned by the core codec. None of these wrap further
// context (the core never allocates), so callers compare with errors.Is or
// plain equality.
var (
	// ErrNullPointer is returned when a required input reference was absent.
	ErrNullPointer = errors.New("cff: null pointer")
	// ErrBufferTooSmall is returned when a caller-provided buffer cannot
	// hold the result.
	ErrBufferTooSmall = errors.New("cff: buffer too small")
	// ErrInsufficientSpace is returned when a ring buffer append exceeds
	// free space, or a consume/peek exceeds used bytes.
	ErrInsufficientSpace = errors.New("cff: insufficient space")
	// ErrPayloadTooLarge is returned when a payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("cff: payload too large")
	// ErrIncompleteFrame is returned when the parser needs more bytes;
	// the caller should supply more data and retry.
	ErrIncompleteFrame = errors.New("cff: incomplete frame")
	// ErrInvalidPreamble is returned when the bytes at the inspected
	// origin do not match the preamble.
	ErrInvalidPreamble = errors.New("cff: invalid preamble")
	// ErrInvalidHeaderCRC is returned on a header CRC mismatch.
	ErrInvalidHeaderCRC = errors.New("cff: invalid header crc")
	// ErrInvalidPayloadCRC is returned on a payload CRC mismatch.
	ErrInvalidPayloadCRC = errors.New("cff: invalid payload crc")
)
