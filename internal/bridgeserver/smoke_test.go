package bridgeserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jkowalski/cff/cff"
	"github.com/jkowalski/cff/internal/batch"
	"github.com/jkowalski/cff/internal/hub"
)

// TestSmokeConcurrentClients ensures a broadcast reaches several simultaneous
// subscribers.
func TestSmokeConcurrentClients(t *testing.T) {
	h := hub.New()
	s := New(WithListenAddr("127.0.0.1:0"), WithHub(h), WithFlushInterval(2*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Serve(ctx) }()

	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("server never became ready")
	}

	const nClients = 5
	conns := make([]net.Conn, 0, nClients)
	for i := 0; i < nClients; i++ {
		conns = append(conns, dialAndHandshake(t, s.Addr()))
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	deadline := time.Now().Add(200 * time.Millisecond)
	for h.Count() < nClients && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if h.Count() != nClients {
		t.Fatalf("hub.Count() = %d, want %d", h.Count(), nClients)
	}

	h.Broadcast(hub.Frame{Counter: 1, Payload: []byte("broadcast")})

	for idx, c := range conns {
		var ring cff.RingBuffer
		if err := ring.Init(make([]byte, 4096)); err != nil {
			t.Fatal(err)
		}
		_ = c.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		buf := make([]byte, 256)
		var got []string
		readDeadline := time.Now().Add(500 * time.Millisecond)
		for len(got) == 0 && time.Now().Before(readDeadline) {
			n, err := c.Read(buf)
			if err != nil {
				break
			}
			if n > 0 {
				if err := ring.Append(buf[:n]); err != nil {
					t.Fatal(err)
				}
				_, _ = batch.Decode(&ring, func(counter uint16, payload []byte) {
					got = append(got, string(payload))
				})
			}
		}
		if len(got) != 1 || got[0] != "broadcast" {
			t.Fatalf("client %d: got %v, want [broadcast]", idx, got)
		}
	}
}

// TestSmokeBatching forces multiple frames past the batch-size threshold in
// one flush and checks the client receives all of them, in order.
func TestSmokeBatching(t *testing.T) {
	h := hub.New()
	s := New(WithListenAddr("127.0.0.1:0"), WithHub(h), WithBatchSize(4), WithFlushInterval(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Serve(ctx) }()

	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("server never became ready")
	}

	conn := dialAndHandshake(t, s.Addr())
	defer conn.Close()

	deadline := time.Now().Add(200 * time.Millisecond)
	for h.Count() < 1 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}

	const nFrames = 4
	for i := 0; i < nFrames; i++ {
		h.Broadcast(hub.Frame{Counter: uint16(i), Payload: []byte{byte(i)}})
	}

	var ring cff.RingBuffer
	if err := ring.Init(make([]byte, 4096)); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 256)
	var got [][]byte
	readDeadline := time.Now().Add(time.Second)
	for len(got) < nFrames && time.Now().Before(readDeadline) {
		n, err := conn.Read(buf)
		if err != nil {
			break
		}
		if n > 0 {
			if err := ring.Append(buf[:n]); err != nil {
				t.Fatal(err)
			}
			_, _ = batch.Decode(&ring, func(counter uint16, payload []byte) {
				got = append(got, append([]byte(nil), payload...))
			})
		}
	}
	if len(got) != nFrames {
		t.Fatalf("got %d frames, want %d", len(got), nFrames)
	}
	for i, payload := range got {
		if len(payload) != 1 || payload[0] != byte(i) {
			t.Fatalf("frame %d = %v, want [%d]", i, payload, i)
		}
	}
}
