package cffserial

import (
	"context"
	"errors"
	"sync"

	"github.com/jkowalski/cff/cff"
	"github.com/jkowalski/cff/internal/logging"
	"github.com/jkowalski/cff/internal/metrics"
	"github.com/jkowalski/cff/internal/transport"
)

// ErrTxOverflow is returned by SendPayload when the async write buffer is full.
var ErrTxOverflow = errors.New("serial tx overflow")

// Writer funnels outbound payloads through a single goroutine, building a
// CFF frame for each one before writing it to the port.
type Writer struct {
	base    *transport.AsyncTx
	mu      sync.Mutex
	builder cff.FrameBuilder
	scratch []byte
}

// NewWriter creates a Writer that builds frames into a scratch buffer sized
// for the largest payload it will send and queues up to buf frames for
// asynchronous transmission.
func NewWriter(parent context.Context, port Port, scratch []byte, buf int) (*Writer, error) {
	w := &Writer{scratch: scratch}
	if err := w.builder.Init(scratch); err != nil {
		return nil, err
	}
	send := func(payload []byte) error {
		w.mu.Lock()
		frame, err := w.builder.BuildFrame(payload)
		w.mu.Unlock()
		if err != nil {
			return err
		}
		_, err = port.Write(frame)
		return err
	}
	hooks := transport.Hooks{
		OnError: func(err error) {
			metrics.IncError(metrics.ErrSerialWrite)
			logging.L().Error("serial_write_error", "error", err)
		},
		OnAfter: func() { metrics.IncSerialTx() },
		OnDrop: func() error {
			metrics.IncError(metrics.ErrSerialWrite)
			return ErrTxOverflow
		},
	}
	w.base = transport.NewAsyncTx(parent, buf, send, hooks)
	return w, nil
}

// SendPayload queues payload for asynchronous framing and transmission. It
// returns ErrTxOverflow if the queue is full rather than blocking the caller.
func (w *Writer) SendPayload(payload []byte) error { return w.base.Send(payload) }

// Close stops the writer goroutine and waits for it to exit.
func (w *Writer) Close() { w.base.Close() }
