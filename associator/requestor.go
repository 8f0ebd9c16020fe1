package associator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/transport"
	"github.com/uofuseismo/urts-core/urtslog"
)

// DefaultRequestTimeout bounds how long a Requestor waits for an
// association response before giving up.
const DefaultRequestTimeout = 5 * time.Second

// Requestor is the client side of the associator service: it marshals a
// Request, sends it over Socket, and waits for the matching Response. Each
// call is tagged with a UUID purely for log correlation across the
// client/service boundary, the way the teacher tags outbound HTTP calls
// with a trace identifier.
type Requestor struct {
	Socket  transport.Socket
	Timeout time.Duration
	Logger  urtslog.Logger
}

// NewRequestor constructs a Requestor with the default timeout.
func NewRequestor(socket transport.Socket) (*Requestor, error) {
	if socket == nil {
		return nil, errors.New("socket must not be nil")
	}
	return &Requestor{Socket: socket, Timeout: DefaultRequestTimeout, Logger: urtslog.Stderr}, nil
}

// Associate sends req and waits for the matching Response.
func (r *Requestor) Associate(ctx context.Context, req Request) (Response, error) {
	correlationID := uuid.New()
	if err := req.Validate(); err != nil {
		return Response{}, errors.Wrap(err, "invalid association request")
	}

	data, err := req.Marshal()
	if err != nil {
		return Response{}, errors.Wrap(err, "marshal association request")
	}

	r.Logger.Debugf("association request %s: sending %d picks\n", correlationID, len(req.Picks))
	if err := r.Socket.Send(ctx, data, r.Timeout); err != nil {
		return Response{}, errors.Wrapf(err, "association request %s: send", correlationID)
	}

	respData, ok, err := r.Socket.Receive(ctx, r.Timeout)
	if err != nil {
		return Response{}, errors.Wrapf(err, "association request %s: receive", correlationID)
	}
	if !ok {
		return Response{}, errors.Errorf("association request %s: timed out waiting for response", correlationID)
	}

	resp, err := UnmarshalResponse(respData)
	if err != nil {
		return Response{}, errors.Wrapf(err, "association request %s: unmarshal response", correlationID)
	}
	r.Logger.Debugf("association request %s: got %d origins\n", correlationID, len(resp.Origins))
	return resp, nil
}
