package cffserial

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jkowalski/cff/cff"
)

// fakePort is an in-memory Port that serves pre-loaded chunks to Read calls
// and discards writes, used to drive Reader without a real UART.
type fakePort struct {
	mu     sync.Mutex
	chunks [][]byte
	pos    int
	writes [][]byte
	closed bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos >= len(p.chunks) {
		return 0, io.EOF
	}
	chunk := p.chunks[p.pos]
	p.pos++
	n := copy(b, chunk)
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := append([]byte(nil), b...)
	p.writes = append(p.writes, cp)
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func buildWireFrames(t *testing.T, payloads ...string) []byte {
	t.Helper()
	var b cff.FrameBuilder
	if err := b.Init(make([]byte, 256)); err != nil {
		t.Fatal(err)
	}
	var out []byte
	for _, p := range payloads {
		frame, err := b.BuildFrame([]byte(p))
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, frame...)
	}
	return out
}

func TestReaderDeliversFramesSplitAcrossReads(t *testing.T) {
	wire := buildWireFrames(t, "hello", "world")
	// Split the wire stream into small chunks to exercise partial reads.
	var chunks [][]byte
	for i := 0; i < len(wire); i += 3 {
		end := i + 3
		if end > len(wire) {
			end = len(wire)
		}
		chunks = append(chunks, wire[i:end])
	}
	port := &fakePort{chunks: chunks}

	var mu sync.Mutex
	var got []string
	r, err := NewReader(port, 4096, func(counter uint16, payload []byte) {
		mu.Lock()
		got = append(got, string(payload))
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Fatalf("got %v, want [hello world]", got)
	}
}

func TestReaderRecoversFromLeadingGarbage(t *testing.T) {
	wire := buildWireFrames(t, "ok")
	garbage := []byte{0x00, 0x11, 0x22, 0xFA, 0x33}
	port := &fakePort{chunks: [][]byte{append(garbage, wire...)}}

	var got []string
	r, err := NewReader(port, 4096, func(counter uint16, payload []byte) {
		got = append(got, string(payload))
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	if len(got) != 1 || got[0] != "ok" {
		t.Fatalf("got %v, want [ok]", got)
	}
}

func TestReaderStopsOnPathError(t *testing.T) {
	pathErr := &os.PathError{Op: "read", Path: "/dev/fake-tty", Err: errors.New("no such device")}
	port := &erroringPort{err: pathErr}
	r, err := NewReader(port, 64, func(counter uint16, payload []byte) {})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after fatal read error")
	}
}

type erroringPort struct{ err error }

func (p *erroringPort) Read(b []byte) (int, error)  { return 0, p.err }
func (p *erroringPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *erroringPort) Close() error                { return nil }
