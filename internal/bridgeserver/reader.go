package bridgeserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/jkowalski/cff/cff"
	"github.com/jkowalski/cff/internal/batch"
	"github.com/jkowalski/cff/internal/hub"
	"github.com/jkowalski/cff/internal/metrics"
)

func (s *Server) startReader(ctxDone <-chan struct{}, conn net.Conn, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = conn.Close() }()

		var ring cff.RingBuffer
		if err := ring.Init(make([]byte, s.ringSize)); err != nil {
			logger.Error("reader_ring_init", "error", err)
			return
		}
		readBuf := make([]byte, 4096)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.readDeadline))
			n, err := conn.Read(readBuf)
			if n > 0 {
				if appendErr := ring.Append(readBuf[:n]); appendErr != nil {
					logger.Warn("reader_ring_overflow", "error", appendErr)
					_ = ring.Discard(ring.Used())
				} else {
					if _, derr := batch.Decode(&ring, func(counter uint16, payload []byte) {
						if s.frameFilter != nil && !s.frameFilter(payload) {
							return
						}
						metrics.IncTCPRx()
						if s.Send == nil {
							return
						}
						if err := s.Send(payload); err != nil {
							s.totalBackendFail.Add(1)
							logger.Error("backend_tx_error", "error", err)
						}
					}); derr != nil {
						logger.Warn("reader_decode_error", "error", derr)
					}
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				wrap := fmt.Errorf("%w: %v", ErrConnRead, err)
				metrics.IncError(mapErrToMetric(wrap))
				s.setError(wrap)
				return
			}
			select {
			case <-ctxDone:
				return
			default:
			}
		}
	}()
}
