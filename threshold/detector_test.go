package threshold

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/urts-core/metrics"
)

func newDetector(t *testing.T, on, off float64) *Detector {
	opts := *NewOptions()
	opts.SetOnThreshold(on)
	opts.SetOffThreshold(off)
	d, err := New(opts)
	require.NoError(t, err)
	return d
}

// Scenario S3: one trigger opens at sample 1 and closes at sample 3.
func TestScenarioS3ThresholdOnOff(t *testing.T) {
	d := newDetector(t, 0.8, 0.5)
	start := time.Unix(0, 0).UTC()
	signal := []float64{0.1, 0.9, 0.7, 0.3, 0.2}

	windows, err := d.apply(signal, 100, start)
	require.NoError(t, err)
	require.Len(t, windows, 1)

	startPoint, err := windows[0].Start()
	require.NoError(t, err)
	assert.Equal(t, start.Add(10*time.Millisecond), startPoint.Time)
	assert.InDelta(t, 0.9, startPoint.Value, 1e-9)

	endPoint, err := windows[0].End()
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Millisecond), endPoint.Time)
	assert.InDelta(t, 0.3, endPoint.Value, 1e-9)
}

// Scenario S4 / Property 3: a gap larger than minimum_gap_size drops the
// unterminated trigger from packet A and opens a fresh one in packet B,
// which packet B's 0.2 sample then closes.
func TestScenarioS4GapReset(t *testing.T) {
	d := newDetector(t, 0.8, 0.5)
	require.NoError(t, d.options.SetMinimumGapSize(2))

	start := time.Unix(0, 0).UTC()
	windowsA, err := d.apply([]float64{0.9, 0.9}, 100, start)
	require.NoError(t, err)
	assert.Empty(t, windowsA)
	assert.Equal(t, stateOn, d.state)

	packetBStart := start.Add(500 * time.Millisecond)
	windowsB, err := d.apply([]float64{0.9, 0.2}, 100, packetBStart)
	require.NoError(t, err)
	require.Len(t, windowsB, 1)
	assert.Equal(t, stateOff, d.state)

	startPoint, err := windowsB[0].Start()
	require.NoError(t, err)
	assert.Equal(t, packetBStart, startPoint.Time)
}

// Property 4: splitting one continuous signal across packet boundaries
// yields the same trigger windows as feeding it in one call.
func TestPropertyIdempotenceAcrossPacketBoundaries(t *testing.T) {
	signal := []float64{0.1, 0.9, 0.95, 0.7, 0.4, 0.3, 0.2, 0.9, 0.6, 0.1}
	start := time.Unix(0, 0).UTC()

	whole := newDetector(t, 0.8, 0.5)
	wantWindows, err := whole.apply(signal, 100, start)
	require.NoError(t, err)
	require.NotEmpty(t, wantWindows)

	split := newDetector(t, 0.8, 0.5)
	var gotWindows []TriggerWindow
	period := 10 * time.Millisecond
	chunks := [][]float64{signal[0:3], signal[3:6], signal[6:10]}
	offset := 0
	for _, chunk := range chunks {
		chunkStart := start.Add(time.Duration(offset) * period)
		got, err := split.apply(chunk, 100, chunkStart)
		require.NoError(t, err)
		gotWindows = append(gotWindows, got...)
		offset += len(chunk)
	}

	require.Equal(t, len(wantWindows), len(gotWindows))
	for i := range wantWindows {
		wantStart, _ := wantWindows[i].Start()
		gotStart, _ := gotWindows[i].Start()
		assert.Equal(t, wantStart, gotStart)

		assert.Equal(t, wantWindows[i].HaveEnd(), gotWindows[i].HaveEnd())
		if wantWindows[i].HaveEnd() && gotWindows[i].HaveEnd() {
			wantEnd, _ := wantWindows[i].End()
			gotEnd, _ := gotWindows[i].End()
			assert.Equal(t, wantEnd, gotEnd)
		}
	}
}

func TestNewRequiresBothThresholds(t *testing.T) {
	_, err := New(*NewOptions())
	assert.Error(t, err)

	opts := *NewOptions()
	opts.SetOnThreshold(0.8)
	_, err = New(opts)
	assert.Error(t, err)
}

func TestApplyEmptySignalReturnsNoWindows(t *testing.T) {
	d := newDetector(t, 0.8, 0.5)
	windows, err := d.apply(nil, 100, time.Now())
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestApplyRejectsNonPositiveSamplingRate(t *testing.T) {
	d := newDetector(t, 0.8, 0.5)
	_, err := d.apply([]float64{0.1}, 0, time.Now())
	assert.Error(t, err)
}

func TestMaximumTriggerDurationClosesStuckWindow(t *testing.T) {
	d := newDetector(t, 0.8, 0.5)
	d.options.SetMaximumTriggerDuration(15 * time.Millisecond)

	// Three samples at 100 Hz: opens at sample 0, forced closed at sample 2
	// (20ms elapsed > 15ms), with the loop ending before it can reopen.
	signal := []float64{0.9, 0.9, 0.9}
	_, err := d.apply(signal, 100, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, stateOff, d.state)
}

func TestResetInitialConditionsClearsState(t *testing.T) {
	d := newDetector(t, 0.8, 0.5)
	_, err := d.apply([]float64{0.9}, 100, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, stateOn, d.state)

	d.ResetInitialConditions()
	assert.Equal(t, stateOff, d.state)
	assert.False(t, d.current.HaveStart())
}

func TestApplyIncrementsTriggersTotalOnWindowClose(t *testing.T) {
	d := newDetector(t, 0.8, 0.5)
	d.Metrics = metrics.New(prometheus.NewRegistry())
	d.ChannelLabel = "UU.FSU.EHZ.01"

	signal := []float64{0.9, 0.9, 0.1}
	_, err := d.apply(signal, 100, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	counter := d.Metrics.TriggersTotal.WithLabelValues(d.ChannelLabel)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}
