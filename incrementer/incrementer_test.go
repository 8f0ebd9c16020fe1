package incrementer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/urts-core/transport"
)

func TestCounterAdvancesByIncrement(t *testing.T) {
	c, err := NewCounter(1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Next())
	assert.Equal(t, uint64(2), c.Next())
	assert.Equal(t, uint64(3), c.Current())
}

func TestCounterRejectsZeroIncrement(t *testing.T) {
	_, err := NewCounter(1, 0)
	assert.Error(t, err)
}

func TestServiceIncrementUnknownItem(t *testing.T) {
	s := NewService()
	resp := s.Increment(IncrementRequest{Item: "Pick"})
	assert.Equal(t, UnknownItem, resp.ReturnCode)
}

func TestServiceIncrementAndItems(t *testing.T) {
	s := NewService()
	require.NoError(t, s.Register("Pick", 1, 1))
	require.NoError(t, s.Register("Origin", 100, 1))
	require.Error(t, s.Register("Pick", 1, 1))

	r1 := s.Increment(IncrementRequest{Item: "Pick"})
	assert.Equal(t, Success, r1.ReturnCode)
	assert.Equal(t, uint64(1), r1.Value)

	r2 := s.Increment(IncrementRequest{Item: "Pick"})
	assert.Equal(t, uint64(2), r2.Value)

	items := s.Items(ItemsRequest{})
	assert.ElementsMatch(t, []string{"Pick", "Origin"}, items.Items)
}

func TestIncrementRoundTripCodec(t *testing.T) {
	req := IncrementRequest{Item: "Pick"}
	data, err := req.Marshal()
	require.NoError(t, err)
	got, err := UnmarshalIncrementRequest(data)
	require.NoError(t, err)
	assert.Equal(t, req, got)

	resp := IncrementResponse{Item: "Pick", Value: 42, ReturnCode: Success}
	data, err = resp.Marshal()
	require.NoError(t, err)
	gotResp, err := UnmarshalIncrementResponse(data)
	require.NoError(t, err)
	assert.Equal(t, resp, gotResp)
}

type incrementHandler struct {
	service *Service
}

func (h incrementHandler) Handle(_ context.Context, request []byte) ([]byte, error) {
	req, err := UnmarshalIncrementRequest(request)
	if err != nil {
		return nil, err
	}
	resp := h.service.Increment(req)
	return resp.Marshal()
}

func TestRequestorEndToEndOverInProcessTransport(t *testing.T) {
	service := NewService()
	require.NoError(t, service.Register("Pick", 1, 1))

	server, client := transport.NewInProcessPair(4)
	dealer := &transport.Dealer{Socket: server, Handler: incrementHandler{service: service}, PollTimeout: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dealer.Run(ctx)

	requestor, err := NewRequestor(client)
	require.NoError(t, err)

	first, err := requestor.Next(ctx, "Pick")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first)

	second, err := requestor.Next(ctx, "Pick")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second)
}
