package cff

import "testing"

// FuzzParseFramesRoundTrip ensures arbitrary small frame sets survive a
// build/parse round trip and that the resynchronizing parser never panics.
func FuzzParseFramesRoundTrip(f *testing.F) {
	seed := [][][]byte{
		{{}},
		{[]byte("hello")},
		{[]byte("a"), []byte("bb"), []byte("ccc")},
	}
	for _, payloads := range seed {
		var fb FrameBuilder
		fb.Init(make([]byte, 1<<16))
		var wire []byte
		for _, p := range payloads {
			frame, err := fb.BuildFrame(p)
			if err != nil {
				continue
			}
			wire = append(wire, frame...)
		}
		f.Add(wire)
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		var ring RingBuffer
		if err := ring.Init(make([]byte, len(data)+MinFrameSize)); err != nil {
			return
		}
		if err := ring.Append(data); err != nil {
			return
		}
		_, _ = ParseFrames(&ring, func(FrameDescriptor) {})
	})
}

// FuzzParseFrameSingle ensures parsing one frame at a time from arbitrary
// input never panics, regardless of how the header or payload CRC fields
// are corrupted.
func FuzzParseFrameSingle(f *testing.F) {
	f.Add([]byte{PreambleByte0, PreambleByte1, 0, 0, 0, 0, 0, 0, 0, 0})
	f.Fuzz(func(t *testing.T, data []byte) {
		var ring RingBuffer
		if err := ring.Init(make([]byte, len(data)+MinFrameSize)); err != nil {
			return
		}
		if err := ring.Append(data); err != nil {
			return
		}
		_, _ = ParseFrame(&ring)
	})
}
