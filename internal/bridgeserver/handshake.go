package bridgeserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// helloMagic is exchanged by both ends immediately after connect so a
// client speaking a different protocol on the same port fails fast
// instead of desynchronizing the frame stream.
const helloMagic = "CFF1"

// Handshake performs the bidirectional hello exchange required before a
// connection is admitted to the hub.
func Handshake(ctx context.Context, c net.Conn, timeout time.Duration) error {
	if err := c.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer c.SetDeadline(time.Time{})

	errCh := make(chan error, 2)

	go func() {
		_, err := io.WriteString(c, helloMagic)
		errCh <- err
	}()

	go func() {
		buf := make([]byte, len(helloMagic))
		_, err := io.ReadFull(c, buf)
		if err == nil && string(buf) != helloMagic {
			err = errors.New("bad hello")
		}
		errCh <- err
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("handshake: %w", err)
			}
		}
	}
	return nil
}
