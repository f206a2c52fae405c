package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jkowalski/cff/internal/cffserial"
	"github.com/jkowalski/cff/internal/hub"
)

// openSerialPort is a hook for tests.
var openSerialPort = cffserial.Open

// initSerialBackend opens the configured UART, launches its RX loop
// broadcasting parsed frames onto the hub, and returns a sender for
// frames arriving from TCP subscribers plus a cleanup function.
func initSerialBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func([]byte) error, func(), error) {
	port, err := openSerialPort(cfg.serialDev, cfg.baud, cfg.serialReadTO)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open serial: %w", err)
	}
	l.Info("serial_open", "device", cfg.serialDev, "baud", cfg.baud)

	writer, err := cffserial.NewWriter(ctx, port, make([]byte, cffMaxFrameSize), txQueueSize)
	if err != nil {
		_ = port.Close()
		return nil, func() {}, fmt.Errorf("init serial writer: %w", err)
	}

	reader, err := cffserial.NewReader(port, cfg.ringSize, func(c uint16, payload []byte) {
		h.Broadcast(hub.Frame{Counter: c, Payload: payload})
	})
	if err != nil {
		_ = port.Close()
		writer.Close()
		return nil, func() {}, fmt.Errorf("init serial reader: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reader.Run(ctx)
	}()

	return writer.SendPayload, func() { _ = port.Close(); writer.Close() }, nil
}

// cffMaxFrameSize bounds the scratch buffer the outbound frame builder
// uses; CFF frames are never larger than a 16-bit payload plus the fixed
// header/trailer overhead.
const cffMaxFrameSize = 8 + 65535 + 2

const txQueueSize = 1024 // capacity of the async serial TX queue
