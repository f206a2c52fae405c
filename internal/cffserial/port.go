// Package cffserial bridges a physical UART device to the CFF core codec:
// a Port abstraction over tarm/serial, a Reader that feeds received bytes
// through a ring buffer and the streaming parser, and a Writer that funnels
// outbound frames through a single goroutine.
package cffserial

import (
	"time"

	"github.com/tarm/serial"
)

// Port abstracts tarm/serial so tests can substitute an in-memory fake.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Open opens a real UART device at the given baud rate with the given read
// timeout (a zero timeout blocks Read indefinitely between bytes).
func Open(name string, baud int, readTimeout time.Duration) (Port, error) {
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout}
	return serial.OpenPort(cfg)
}
