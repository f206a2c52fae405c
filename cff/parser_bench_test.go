package cff

import "testing"

func benchmarkPayloads(n, size int) [][]byte {
	payloads := make([][]byte, n)
	for i := range payloads {
		p := make([]byte, size)
		for j := range p {
			p[j] = byte(i + j)
		}
		payloads[i] = p
	}
	return payloads
}

func BenchmarkBuildFrame_64B(b *testing.B) {
	var fb FrameBuilder
	buf := make([]byte, CalculateFrameSize(64))
	if err := fb.Init(buf); err != nil {
		b.Fatal(err)
	}
	payload := benchmarkPayloads(1, 64)[0]
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := fb.BuildFrame(payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseFrames_64Frames(b *testing.B) {
	payloads := benchmarkPayloads(64, 8)
	var stream []byte
	var fb FrameBuilder
	fb.Init(make([]byte, 1<<20))
	for _, p := range payloads {
		frame, err := fb.BuildFrame(p)
		if err != nil {
			b.Fatal(err)
		}
		stream = append(stream, frame...)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var ring RingBuffer
		ring.Init(make([]byte, len(stream)+8))
		if err := ring.Append(stream); err != nil {
			b.Fatal(err)
		}
		if _, err := ParseFrames(&ring, func(FrameDescriptor) {}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRingAppendDiscard(b *testing.B) {
	var ring RingBuffer
	ring.Init(make([]byte, 4096))
	chunk := make([]byte, 256)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := ring.Append(chunk); err != nil {
			b.Fatal(err)
		}
		if err := ring.Discard(len(chunk)); err != nil {
			b.Fatal(err)
		}
	}
}
