package cffserial

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jkowalski/cff/cff"
	"github.com/jkowalski/cff/internal/batch"
	"github.com/jkowalski/cff/internal/logging"
	"github.com/jkowalski/cff/internal/metrics"
)

// sleepFn allows tests to intercept backoff sleeps.
var sleepFn = time.Sleep

const (
	readBufSize  = 4096
	rxBackoffMin = 20 * time.Millisecond
	rxBackoffMax = 500 * time.Millisecond
)

// Reader drives the UART receive loop: it reads raw bytes from a Port,
// feeds them into a ring buffer, and hands complete frames to onFrame as
// the streaming parser resynchronizes past any corruption. It runs until
// ctx is cancelled or the port reports a fatal error (device removed).
type Reader struct {
	port    Port
	ring    cff.RingBuffer
	onFrame func(counter uint16, payload []byte)
	log     *slog.Logger
}

// NewReader constructs a Reader backed by a ring buffer of ringSize bytes.
func NewReader(port Port, ringSize int, onFrame func(counter uint16, payload []byte)) (*Reader, error) {
	r := &Reader{port: port, onFrame: onFrame, log: logging.L()}
	if err := r.ring.Init(make([]byte, ringSize)); err != nil {
		return nil, err
	}
	return r, nil
}

// Run blocks, reading from the port and dispatching frames, until ctx is
// cancelled or a fatal I/O error occurs.
func (r *Reader) Run(ctx context.Context) {
	defer r.log.Info("serial_rx_end")
	buf := make([]byte, readBufSize)
	backoff := rxBackoffMin
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := r.port.Read(buf)
		if n > 0 {
			metrics.AddSerialRxBytes(n)
			r.ingest(buf[:n])
			backoff = rxBackoffMin
		}
		if err != nil {
			if ctx.Err() != nil { // shutting down
				return
			}
			var perr *os.PathError
			if errors.As(err, &perr) {
				r.log.Error("serial_device_gone", "error", err)
				return // device removed or fatal
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				continue // ignore transient EOF
			}
			metrics.IncError(metrics.ErrSerialRead)
			r.log.Warn("serial_read_error", "error", err, "backoff", backoff)
			sleepFn(backoff)
			backoff *= 2
			if backoff > rxBackoffMax {
				backoff = rxBackoffMax
			}
		}
	}
}

// ingest appends newly read bytes to the ring and drains as many complete
// frames as are now available. If the ring has no room (a sustained
// producer/consumer imbalance), it is drained and reset rather than
// blocking the reader indefinitely, trading the buffered backlog for
// forward progress.
func (r *Reader) ingest(data []byte) {
	if err := r.ring.Append(data); err != nil {
		r.log.Warn("serial_ring_overflow", "error", err, "discarded", r.ring.Used())
		_ = r.ring.Discard(r.ring.Used())
		metrics.IncError(metrics.ErrSerialRead)
		_ = r.ring.Append(data)
	}
	metrics.SetRingOccupancy(r.ring.Used())
	if _, err := batch.Decode(&r.ring, r.onFrame); err != nil {
		metrics.IncError(metrics.ErrSerialRead)
		r.log.Warn("serial_decode_error", "error", err)
	}
	metrics.SetRingOccupancy(r.ring.Used())
}
