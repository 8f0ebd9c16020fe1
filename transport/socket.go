// Package transport defines the socket-level contracts the rest of the
// module is built against: send/receive framed bytes with a bounded
// timeout, and a Dealer that drives a RequestHandler off one. InProcess
// backs tests and single-process wiring; ZMQSocket backs a real
// multi-process deployment over ZeroMQ DEALER/ROUTER sockets.
package transport

import (
	"context"
	"time"
)

// Socket is the minimum contract every concrete transport (ZeroMQ
// router/dealer, a pub/sub broker, an in-process pipe used in tests) must
// satisfy: send and receive framed byte messages, with receive bounded by
// a timeout so callers remain responsive to cancellation.
type Socket interface {
	// Send transmits data, blocking at most timeout before giving up.
	Send(ctx context.Context, data []byte, timeout time.Duration) error

	// Receive waits up to timeout for the next message. ok is false on
	// timeout, which is not an error: callers use it to re-poll a stop
	// signal.
	Receive(ctx context.Context, timeout time.Duration) (data []byte, ok bool, err error)

	// Close releases the socket's underlying resources.
	Close() error
}

// RequestHandler answers a single request/response exchange. Concrete
// request/reply workers (the associator, the incrementer) implement this
// and are driven by a Dealer.
type RequestHandler interface {
	Handle(ctx context.Context, request []byte) (response []byte, err error)
}

// Dealer repeatedly polls a Socket for requests and dispatches each to a
// RequestHandler, replying with its result. Run blocks until ctx is
// cancelled; every poll is bounded by pollTimeout so cancellation is
// observed within one iteration.
type Dealer struct {
	Socket      Socket
	Handler     RequestHandler
	PollTimeout time.Duration
}

// Run drains the dealer's socket until ctx is cancelled.
func (d *Dealer) Run(ctx context.Context) error {
	timeout := d.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Millisecond
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		request, ok, err := d.Socket.Receive(ctx, timeout)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		response, err := d.Handler.Handle(ctx, request)
		if err != nil {
			continue
		}
		_ = d.Socket.Send(ctx, response, timeout)
	}
}
