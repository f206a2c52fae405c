package bridgeserver

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/jkowalski/cff/internal/batch"
	"github.com/jkowalski/cff/internal/hub"
	"github.com/jkowalski/cff/internal/metrics"
)

// startWriter launches the goroutine pushing hub frames to a single client
// connection, batching them with internal/batch on a flush timer.
func (s *Server) startWriter(ctxDone <-chan struct{}, conn net.Conn, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = conn.Close()
			if s.Hub != nil {
				s.Hub.Remove(cl)
			}
			s.totalDisconnected.Add(1)
			logger.Info("client_disconnected")
		}()

		var codec batch.Codec
		if err := codec.Init(make([]byte, 4096)); err != nil {
			logger.Error("writer_codec_init", "error", err)
			return
		}

		t := time.NewTicker(s.flushInterval)
		defer t.Stop()
		pending := make([][]byte, 0, s.batchSize)

		flush := func() error {
			if len(pending) == 0 {
				return nil
			}
			n, err := codec.EncodeTo(conn, pending)
			pending = pending[:0]
			if err != nil {
				wrap := fmt.Errorf("%w: %v", ErrConnWrite, err)
				metrics.IncError(mapErrToMetric(wrap))
				s.setError(wrap)
				return wrap
			}
			_ = n
			return nil
		}

		for {
			select {
			case fr := <-cl.Out:
				pending = append(pending, fr.Payload)
				metrics.AddTCPTx(1)
				if len(pending) >= s.batchSize {
					if err := flush(); err != nil {
						return
					}
				}
			case <-t.C:
				if err := flush(); err != nil {
					return
				}
			case <-cl.Closed:
				_ = flush()
				return
			case <-ctxDone:
				_ = flush()
				return
			}
		}
	}()
}
