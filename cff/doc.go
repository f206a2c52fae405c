// Package cff implements the Compact Frame Format (CFF): a lightweight,
// length-prefixed framing protocol for delimiting discrete payloads within
// a continuous byte stream on constrained links (UART, SPI, I2C, USB, CAN,
// BLE).
//
// # Wire format
//
//	offset  size  field
//	 0      2     preamble       = 0xFA, 0xCE
//	 2      2     frame counter  u16 little-endian
//	 4      2     payload size   u16 little-endian, = N
//	 6      2     header CRC     u16 little-endian, CRC over bytes [0..6)
//	 8      N     payload        opaque
//	 8+N    2     payload CRC    u16 little-endian, CRC over bytes [8..8+N)
//
// # Usage
//
// A FrameBuilder writes frames into a caller-owned buffer and assigns
// monotonically increasing counters:
//
//	var b cff.FrameBuilder
//	if err := b.Init(buf); err != nil { ... }
//	frame, err := b.BuildFrame(payload)
//
// ParseFrames reads frames out of a RingBuffer that the caller fills with
// incoming bytes, recovering from single-byte corruption by resynchronizing
// on the next preamble:
//
//	var ring cff.RingBuffer
//	_ = ring.Init(storage)
//	_ = ring.Append(incoming)
//	n, err := cff.ParseFrames(&ring, func(f cff.FrameDescriptor) {
//	    _ = cff.CopyFramePayload(f, out)
//	})
//
// This package performs no heap allocation, starts no goroutines, and
// depends only on the standard library: every buffer is supplied by the
// caller and every object is mutated in place.
package cff
