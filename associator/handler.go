package associator

import (
	"context"

	"github.com/pkg/errors"
)

// Handler adapts an Associator to transport.RequestHandler, so it can be
// served behind a transport.Dealer the way incrementer.Service is.
type Handler struct {
	Associator *Associator
}

// Handle implements transport.RequestHandler.
func (h Handler) Handle(_ context.Context, request []byte) ([]byte, error) {
	req, err := UnmarshalRequest(request)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal association request")
	}
	resp := h.Associator.Associate(req)
	return resp.Marshal()
}
