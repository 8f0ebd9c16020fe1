// Package broadcast implements typed publish/subscribe envelopes over a
// transport.Socket: serialization, send and receive timeouts, and the
// slow-joiner mitigation every publisher performs before its first
// emission. The configured high water mark is validated but not enforced.
package broadcast

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/transport"
)

// DefaultHighWaterMark is the default Options.HighWaterMark. The value is
// validated and stored, but neither Publisher nor transport.Socket bounds
// the number of buffered messages by it.
const DefaultHighWaterMark = 8192

// DefaultSendTimeout is the timeout a Publisher passes to the socket for
// each Send.
const DefaultSendTimeout = 1000 * time.Millisecond

// DefaultReceiveTimeout bounds how long a single Receive blocks waiting
// for the next message.
const DefaultReceiveTimeout = 10 * time.Millisecond

// SlowJoinerDelay is how long a freshly constructed Publisher sleeps
// before its first Send, mitigating the slow-joiner problem inherent to
// pub/sub transports where early subscribers can miss a publisher's
// first few messages.
const SlowJoinerDelay = 100 * time.Millisecond

// Encoder serializes a domain message to bytes; implementations are the
// per-type Marshal methods in pick, origin, associator, and incrementer.
type Encoder interface {
	Marshal() ([]byte, error)
}

// Decoder deserializes bytes into a domain message.
type Decoder func(data []byte) (interface{}, error)

// Options configures a Publisher or Subscriber's timeouts.
type Options struct {
	HighWaterMark  int
	SendTimeout    time.Duration
	ReceiveTimeout time.Duration
}

// DefaultOptions returns the package defaults.
func DefaultOptions() Options {
	return Options{
		HighWaterMark:  DefaultHighWaterMark,
		SendTimeout:    DefaultSendTimeout,
		ReceiveTimeout: DefaultReceiveTimeout,
	}
}

// Validate checks that every field is positive.
func (o Options) Validate() error {
	if o.HighWaterMark <= 0 {
		return errors.New("high water mark must be positive")
	}
	if o.SendTimeout <= 0 {
		return errors.New("send timeout must be positive")
	}
	if o.ReceiveTimeout <= 0 {
		return errors.New("receive timeout must be positive")
	}
	return nil
}

// Publisher wraps a transport.Socket with a typed Send, honoring the
// configured send timeout; the configured high water mark is not
// enforced. Construction sleeps
// SlowJoinerDelay before returning so the first Send is unlikely to be
// missed by subscribers still connecting.
type Publisher struct {
	socket  transport.Socket
	options Options
	sent    int
}

// NewPublisher constructs a Publisher and blocks for the slow-joiner
// delay before returning.
func NewPublisher(socket transport.Socket, options Options) (*Publisher, error) {
	if socket == nil {
		return nil, errors.New("socket required")
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	time.Sleep(SlowJoinerDelay)
	return &Publisher{socket: socket, options: options}, nil
}

// Send serializes message and transmits it, honoring the configured send
// timeout. The high water mark is not consulted: transport.Socket takes no
// high-water-mark setting, so no bound on queued messages is applied.
func (p *Publisher) Send(ctx context.Context, message Encoder) error {
	data, err := message.Marshal()
	if err != nil {
		return errors.Wrap(err, "failed to serialize broadcast message")
	}
	return p.socket.Send(ctx, data, p.options.SendTimeout)
}

// Close releases the underlying socket.
func (p *Publisher) Close() error { return p.socket.Close() }

// Subscriber wraps a transport.Socket with a typed Receive returning a
// decoded message or false when idle, never blocking past the configured
// receive timeout.
type Subscriber struct {
	socket  transport.Socket
	decode  Decoder
	options Options
}

// NewSubscriber constructs a Subscriber using decode to turn each raw
// message into a concrete domain type.
func NewSubscriber(socket transport.Socket, decode Decoder, options Options) (*Subscriber, error) {
	if socket == nil {
		return nil, errors.New("socket required")
	}
	if decode == nil {
		return nil, errors.New("decoder required")
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &Subscriber{socket: socket, decode: decode, options: options}, nil
}

// Receive waits up to the configured receive timeout for the next
// message. ok is false on an idle timeout, which is not an error.
func (s *Subscriber) Receive(ctx context.Context) (message interface{}, ok bool, err error) {
	data, ok, err := s.socket.Receive(ctx, s.options.ReceiveTimeout)
	if err != nil || !ok {
		return nil, ok, err
	}
	decoded, err := s.decode(data)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to decode broadcast message")
	}
	return decoded, true, nil
}

// Close releases the underlying socket.
func (s *Subscriber) Close() error { return s.socket.Close() }
