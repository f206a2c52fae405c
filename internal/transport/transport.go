package transport

// FrameSink is a generic asynchronous payload transmission target,
// implemented by AsyncTx.
type FrameSink interface {
	Send(payload []byte) error
}
