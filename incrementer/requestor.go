package incrementer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/transport"
)

// DefaultRequestTimeout bounds how long Requestor.Next waits for a
// response before giving up.
const DefaultRequestTimeout = 2500 * time.Millisecond

// Requestor is the client side of the incrementer service: it sends an
// IncrementRequest over a transport.Socket and decodes the response.
type Requestor struct {
	Socket  transport.Socket
	Timeout time.Duration
}

// NewRequestor constructs a Requestor using DefaultRequestTimeout.
func NewRequestor(socket transport.Socket) (*Requestor, error) {
	if socket == nil {
		return nil, errors.New("socket required")
	}
	return &Requestor{Socket: socket, Timeout: DefaultRequestTimeout}, nil
}

// Next requests the next identifier for item.
func (r *Requestor) Next(ctx context.Context, item string) (uint64, error) {
	req := IncrementRequest{Item: item}
	data, err := req.Marshal()
	if err != nil {
		return 0, err
	}
	if err := r.Socket.Send(ctx, data, r.Timeout); err != nil {
		return 0, errors.Wrap(err, "failed to send increment request")
	}
	response, ok, err := r.Socket.Receive(ctx, r.Timeout)
	if err != nil {
		return 0, errors.Wrap(err, "failed to receive increment response")
	}
	if !ok {
		return 0, errors.New("increment request timed out")
	}
	resp, err := UnmarshalIncrementResponse(response)
	if err != nil {
		return 0, err
	}
	if resp.ReturnCode != Success {
		return 0, errors.Errorf("increment request failed with return code %d", resp.ReturnCode)
	}
	return resp.Value, nil
}
