package transport

import (
	"context"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
)

// ZMQSocket adapts a github.com/go-zeromq/zmq4 DEALER or ROUTER socket to
// the Socket interface. InProcess stands in for this in tests; ZMQSocket
// is what a deployed process actually dials or binds.
type ZMQSocket struct {
	socket zmq4.Socket
}

// NewZMQDealer opens a DEALER socket connected to endpoint, the role a
// requesting client (picker pipeline, incrementer Requestor) plays.
func NewZMQDealer(ctx context.Context, endpoint string) (*ZMQSocket, error) {
	socket := zmq4.NewDealer(ctx)
	if err := socket.Dial(endpoint); err != nil {
		return nil, errors.Wrap(err, "dial dealer socket")
	}
	return &ZMQSocket{socket: socket}, nil
}

// NewZMQRouter opens a ROUTER socket bound to endpoint, the role a
// service (incrementer Service, associator Associator) plays.
func NewZMQRouter(ctx context.Context, endpoint string) (*ZMQSocket, error) {
	socket := zmq4.NewRouter(ctx)
	if err := socket.Listen(endpoint); err != nil {
		return nil, errors.Wrap(err, "listen on router socket")
	}
	return &ZMQSocket{socket: socket}, nil
}

// Send implements Socket.
func (z *ZMQSocket) Send(ctx context.Context, data []byte, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- z.socket.Send(zmq4.NewMsg(data)) }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return errors.New("send timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive implements Socket.
func (z *ZMQSocket) Receive(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	type result struct {
		msg zmq4.Msg
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := z.socket.Recv()
		done <- result{msg: msg, err: err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			return nil, false, r.err
		}
		return r.msg.Bytes(), true, nil
	case <-time.After(timeout):
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close implements Socket.
func (z *ZMQSocket) Close() error {
	return z.socket.Close()
}
