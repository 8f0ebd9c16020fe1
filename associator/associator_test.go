package associator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/waveform"
)

func testutilCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	return testutil.ToFloat64(c)
}

func testRegion() RegionOptions {
	r := UtahRegion()
	// Keep the test fast and deterministic; the default cluster
	// geometry and search space still apply.
	r.MinClusterSize = 5
	r.Epsilon = 5.0
	r.ParticleCount = 40
	r.EpochCount = 30
	return r
}

func testStations() map[string]StationLocation {
	return map[string]StationLocation{
		"UU.FSU": {Latitude: 40.10, Longitude: -112.10, ElevationMeters: 1500},
		"UU.NOQ": {Latitude: 40.30, Longitude: -111.90, ElevationMeters: 1800},
		"UU.MPU": {Latitude: 39.95, Longitude: -112.30, ElevationMeters: 1700},
		"UU.TCU": {Latitude: 40.45, Longitude: -112.05, ElevationMeters: 1600},
		"UU.SRU": {Latitude: 40.05, Longitude: -111.70, ElevationMeters: 1900},
	}
}

// Scenario S6: a 5-pick request with identifier 42 associates into a
// single origin carrying every input pick.
func TestScenarioS6AssociationRoundTrip(t *testing.T) {
	region := testRegion()
	stations := testStations()
	model, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)

	a, err := New(region, stations, model)
	require.NoError(t, err)
	a.Source = rand.NewSource(11)

	trueLat, trueLon, trueDepth := 40.15, -112.05, 6000.0
	originTime := time.Unix(1700000000, 0).UTC()

	var picks []CandidatePick
	i := uint64(1)
	for key, loc := range stations {
		net, sta := splitKey(key)
		distanceKM := hypocentralDistanceKM(loc, trueLat, trueLon, trueDepth)
		tt := model.TravelTime(net, sta, pick.PhaseP, distanceKM, trueLat, trueLon)
		picks = append(picks, CandidatePick{
			ChannelID:  waveform.ChannelID{Network: net, Station: sta, Channel: "EHZ", LocationCode: "01"},
			Time:       originTime.Add(tt),
			PhaseHint:  pick.PhaseP,
			Identifier: i,
		})
		i++
	}

	req := Request{Identifier: 42, Picks: picks}
	resp := a.Associate(req)

	assert.Equal(t, uint64(42), resp.Identifier)
	assert.Equal(t, Success, resp.ReturnCode)
	require.Len(t, resp.Origins, 1)
	assert.Empty(t, resp.Unassociated)

	gotArrivals := resp.Origins[0].Arrivals()
	require.Len(t, gotArrivals, 5)

	byIdentifier := make(map[uint64]CandidatePick)
	for _, p := range picks {
		byIdentifier[p.Identifier] = p
	}
	for _, arrival := range gotArrivals {
		want, ok := byIdentifier[arrival.Identifier]
		require.True(t, ok)
		assert.Equal(t, want.ChannelID, arrival.ChannelID)
		assert.Equal(t, want.PhaseHint, arrival.Phase)
	}
}

func TestAssociateRejectsEmptyRequest(t *testing.T) {
	region := testRegion()
	stations := testStations()
	model, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)
	a, err := New(region, stations, model)
	require.NoError(t, err)

	resp := a.Associate(Request{Identifier: 1})
	assert.Equal(t, InvalidRequest, resp.ReturnCode)
}

func TestAssociateRecordsMetricsByReturnCode(t *testing.T) {
	region := testRegion()
	stations := testStations()
	model, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)
	a, err := New(region, stations, model)
	require.NoError(t, err)
	a.Metrics = metrics.New(prometheus.NewRegistry())

	a.Associate(Request{Identifier: 1})

	count := testutilCounterValue(t, a.Metrics.AssociationsTotal.WithLabelValues(InvalidRequest.String()))
	assert.Equal(t, float64(1), count)
}

func TestAssociateReturnsUnknownStationPicksUnassociated(t *testing.T) {
	region := testRegion()
	stations := testStations()
	model, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)
	a, err := New(region, stations, model)
	require.NoError(t, err)

	req := Request{
		Identifier: 2,
		Picks: []CandidatePick{
			{
				ChannelID: waveform.ChannelID{Network: "XX", Station: "ZZZ", Channel: "EHZ", LocationCode: "01"},
				Time:      time.Unix(1700000000, 0).UTC(),
				PhaseHint: pick.PhaseP,
			},
		},
	}
	resp := a.Associate(req)
	assert.Equal(t, Success, resp.ReturnCode)
	assert.Len(t, resp.Unassociated, 1)
	assert.Empty(t, resp.Origins)
}

func splitKey(key string) (string, string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
