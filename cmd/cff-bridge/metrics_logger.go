package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jkowalski/cff/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"frames_built", snap.FramesBuilt,
					"frames_parsed", snap.FramesParsed,
					"frames_rejected", snap.FramesRejects,
					"resync_events", snap.ResyncEvents,
					"serial_rx_bytes", snap.SerialRxBytes,
					"serial_tx_frames", snap.SerialTx,
					"hub_drops", snap.HubDrops,
					"hub_kicks", snap.HubKicks,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
