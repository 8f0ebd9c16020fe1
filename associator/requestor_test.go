package associator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/transport"
	"github.com/uofuseismo/urts-core/waveform"
)

func TestRequestorEndToEndOverInProcessTransport(t *testing.T) {
	stations := map[string]StationLocation{
		"UU.TEST": {Latitude: 40.0, Longitude: -112.0, ElevationMeters: 1500},
	}
	model, err := NewVelocityModel(6.1, 3.5)
	require.NoError(t, err)
	region := testRegion()
	region.MinClusterSize = 1
	assoc, err := New(region, stations, model)
	require.NoError(t, err)

	server, client := transport.NewInProcessPair(4)
	dealer := &transport.Dealer{Socket: server, Handler: Handler{Associator: assoc}, PollTimeout: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dealer.Run(ctx)

	requestor, err := NewRequestor(client)
	require.NoError(t, err)

	req := Request{
		Identifier: 7,
		Picks: []CandidatePick{
			{
				ChannelID:     waveform.ChannelID{Network: "UU", Station: "TEST", Channel: "EHZ", LocationCode: "01"},
				Time:          time.Unix(1700000000, 0).UTC(),
				PhaseHint:     pick.PhaseP,
				StandardError: 10 * time.Millisecond,
				Identifier:    1,
			},
		},
	}

	resp, err := requestor.Associate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), resp.Identifier)
}

func TestRequestorRejectsInvalidRequest(t *testing.T) {
	_, client := transport.NewInProcessPair(4)
	requestor, err := NewRequestor(client)
	require.NoError(t, err)
	_, err = requestor.Associate(context.Background(), Request{})
	assert.Error(t, err)
}
