package picker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/packetcache"
	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/queue"
	"github.com/uofuseismo/urts-core/waveform"
)

func testOptions() Options {
	return Options{
		PreWindow:       1 * time.Second,
		PostWindow:      1 * time.Second,
		Pad:             250 * time.Millisecond,
		ExpectedSamples: 20,
		SamplingRate:    100,
		GapTolerance:    20 * time.Millisecond,
		PollTimeout:     5 * time.Millisecond,
	}
}

func seedBuffer(t *testing.T, registry *packetcache.Registry, channel waveform.ChannelID, start time.Time, nSamples int) {
	data := make([]float64, nSamples)
	for i := range data {
		data[i] = float64(i)
	}
	packet, err := waveform.NewPacket(channel, 100, start, data)
	require.NoError(t, err)
	require.NoError(t, registry.Add(packet))
}

type fakeRegression struct {
	shift     time.Duration
	failEvery bool
}

func (f *fakeRegression) Refine(_ context.Context, _ waveform.ChannelID, _ []float64, _ float64, initial time.Time) (RegressionResult, error) {
	if f.failEvery {
		return RegressionResult{}, assert.AnError
	}
	return RegressionResult{
		CorrectedTime: initial.Add(f.shift),
		Uncertainty:   &pick.UncertaintyBound{LowerPercentile: 5, UpperPercentile: 95},
		Algorithm:     "testRegression",
	}, nil
}

type fakeFirstMotion struct {
	motion pick.FirstMotion
}

func (f *fakeFirstMotion) Classify(_ context.Context, _ waveform.ChannelID, _ []float64, _ float64) (FirstMotionResult, error) {
	return FirstMotionResult{FirstMotion: f.motion, Algorithm: "testFirstMotion"}, nil
}

func TestPipelineRefinesPick(t *testing.T) {
	channel := waveform.ChannelID{Network: "UU", Station: "FSU", Channel: "EHZ", LocationCode: "01"}
	registry := packetcache.NewRegistry(100)
	start := time.Unix(1700000000, 0).UTC()
	seedBuffer(t, registry, channel, start, 500)

	input := queue.NewBounded[pick.Pick](10)
	output := queue.NewBounded[pick.Pick](10)

	p, err := NewPipeline(testOptions(), registry, input, output)
	require.NoError(t, err)
	p.Regression = &fakeRegression{shift: 5 * time.Millisecond}
	p.FirstMotion = &fakeFirstMotion{motion: pick.FirstMotionUp}

	initial := pick.Pick{
		ChannelID: channel,
		Time:      start.Add(2 * time.Second),
		PhaseHint: pick.PhaseP,
	}
	refined, err := p.process(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, initial.Time.Add(5*time.Millisecond), refined.Time)
	require.NotNil(t, refined.Uncertainty)
	assert.Equal(t, pick.FirstMotionUp, refined.FirstMotion)
	assert.Contains(t, refined.ProcessingAlgorithms, "testRegression")
	assert.Contains(t, refined.ProcessingAlgorithms, "testFirstMotion")
}

func TestPipelineFailedRegressionKeepsInitialPickTagged(t *testing.T) {
	channel := waveform.ChannelID{Network: "UU", Station: "FSU", Channel: "EHZ", LocationCode: "01"}
	registry := packetcache.NewRegistry(100)
	start := time.Unix(1700000000, 0).UTC()
	seedBuffer(t, registry, channel, start, 500)

	input := queue.NewBounded[pick.Pick](10)
	output := queue.NewBounded[pick.Pick](10)
	p, err := NewPipeline(testOptions(), registry, input, output)
	require.NoError(t, err)
	p.Regression = &fakeRegression{failEvery: true}

	initial := pick.Pick{ChannelID: channel, Time: start.Add(2 * time.Second), PhaseHint: pick.PhaseS}
	refined, err := p.process(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, initial.Time, refined.Time)
	assert.Contains(t, refined.ProcessingAlgorithms, "algorithm failed")
}

func TestPipelineRejectsPickTooCloseToWindowEdge(t *testing.T) {
	channel := waveform.ChannelID{Network: "UU", Station: "FSU", Channel: "EHZ", LocationCode: "01"}
	registry := packetcache.NewRegistry(100)
	start := time.Unix(1700000000, 0).UTC()
	seedBuffer(t, registry, channel, start, 500)

	input := queue.NewBounded[pick.Pick](10)
	output := queue.NewBounded[pick.Pick](10)
	p, err := NewPipeline(testOptions(), registry, input, output)
	require.NoError(t, err)

	initial := pick.Pick{ChannelID: channel, Time: start.Add(10 * time.Millisecond), PhaseHint: pick.PhaseP}
	_, err = p.process(context.Background(), initial)
	assert.Error(t, err)
}

func TestPipelineRunForwardsToOutputQueue(t *testing.T) {
	channel := waveform.ChannelID{Network: "UU", Station: "FSU", Channel: "EHZ", LocationCode: "01"}
	registry := packetcache.NewRegistry(100)
	start := time.Unix(1700000000, 0).UTC()
	seedBuffer(t, registry, channel, start, 500)

	input := queue.NewBounded[pick.Pick](10)
	output := queue.NewBounded[pick.Pick](10)
	p, err := NewPipeline(testOptions(), registry, input, output)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	input.Push(pick.Pick{ChannelID: channel, Time: start.Add(2 * time.Second), PhaseHint: pick.PhaseS})

	got := output.WaitAndPop()
	assert.Equal(t, channel, got.ChannelID)

	cancel()
}

func TestProcessRecordsPicksTotalByOutcome(t *testing.T) {
	channel := waveform.ChannelID{Network: "UU", Station: "FSU", Channel: "EHZ", LocationCode: "01"}
	registry := packetcache.NewRegistry(100)
	start := time.Unix(1700000000, 0).UTC()
	seedBuffer(t, registry, channel, start, 500)

	input := queue.NewBounded[pick.Pick](10)
	output := queue.NewBounded[pick.Pick](10)
	p, err := NewPipeline(testOptions(), registry, input, output)
	require.NoError(t, err)
	p.Metrics = metrics.New(prometheus.NewRegistry())

	// A valid pick refines successfully.
	_, err = p.process(context.Background(), pick.Pick{ChannelID: channel, Time: start.Add(2 * time.Second), PhaseHint: pick.PhaseS})
	require.NoError(t, err)
	// A pick too close to the window edge is rejected.
	_, err = p.process(context.Background(), pick.Pick{ChannelID: channel, Time: start.Add(10 * time.Millisecond), PhaseHint: pick.PhaseP})
	require.Error(t, err)

	refinedCount := testutil.ToFloat64(p.Metrics.PicksTotal.WithLabelValues(channel.String(), "refined"))
	assert.Equal(t, float64(1), refinedCount)
}
