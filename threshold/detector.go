package threshold

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/waveform"
)

// state toggles the detector between waiting to cross the on threshold and
// waiting to drop back below the off threshold.
type state int

const (
	stateOff state = iota
	stateOn
)

// packetCategory classifies an incoming packet relative to the detector's
// last evaluated sample.
type packetCategory int

const (
	categoryNormal packetCategory = iota
	categoryGap
	categoryExpired
	categoryAlgorithmicFailure
)

// sentinelLastEvaluation stands in for "no sample has been evaluated yet";
// any packet is necessarily ahead of it.
var sentinelLastEvaluation = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Detector implements an on/off amplitude threshold trigger. A single
// Detector tracks one channel's state across calls to Apply; samples must
// be submitted in time order.
type Detector struct {
	mu             sync.Mutex
	options        Options
	current        TriggerWindow
	lastEvaluation time.Time
	state          state
	initialized    bool

	// Metrics, if set, is bumped every time a trigger window closes.
	// ChannelLabel identifies this detector's channel in that metric;
	// it is otherwise unused.
	Metrics      *metrics.Metrics
	ChannelLabel string
}

// New constructs a Detector from options. Both the on and off thresholds
// must already be set.
func New(options Options) (*Detector, error) {
	if _, ok := options.OnThreshold(); !ok {
		return nil, errors.New("on threshold not set")
	}
	if _, ok := options.OffThreshold(); !ok {
		return nil, errors.New("off threshold not set")
	}
	d := &Detector{options: options}
	d.ResetInitialConditions()
	d.initialized = true
	return d, nil
}

// ResetInitialConditions clears the current trigger window and state,
// forgetting the last evaluated sample. Use this after a data gap.
func (d *Detector) ResetInitialConditions() {
	d.current.Clear()
	d.lastEvaluation = sentinelLastEvaluation
	d.state = stateOff
}

// Apply evaluates a data packet's samples and returns any trigger windows
// that closed during this call.
func (d *Detector) Apply(packet waveform.Packet) ([]TriggerWindow, error) {
	return d.apply(packet.Data, packet.SamplingRate, packet.StartTime)
}

// ApplyProbability evaluates a probability packet's samples and returns any
// trigger windows that closed during this call.
func (d *Detector) ApplyProbability(packet waveform.ProbabilityPacket) ([]TriggerWindow, error) {
	return d.apply(packet.Data, packet.SamplingRate, packet.StartTime)
}

func (d *Detector) apply(signal []float64, samplingRate float64, startTime time.Time) ([]TriggerWindow, error) {
	if len(signal) == 0 {
		return nil, nil
	}
	if !d.initialized {
		return nil, errors.New("detector not initialized")
	}
	if samplingRate <= 0 {
		return nil, errors.New("sampling rate not positive")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	nSamples := len(signal)
	samplingPeriodUS := int64(math.Round(1000000.0 / samplingRate))
	endTime := startTime.Add(time.Duration(int64(nSamples-1)*samplingPeriodUS) * time.Microsecond)
	timeToleranceUS := computeTimeTolerance(samplingPeriodUS)

	iStart, category := getStartSample(
		startTime.UnixMicro(),
		endTime.UnixMicro(),
		d.lastEvaluation.UnixMicro(),
		nSamples,
		samplingPeriodUS,
		timeToleranceUS,
		d.options.MinimumGapSize(),
	)

	switch category {
	case categoryExpired:
		return nil, nil
	case categoryGap:
		d.ResetInitialConditions()
	case categoryAlgorithmicFailure:
		return nil, errors.New("algorithmic failure locating next sample")
	}

	onThreshold, _ := d.options.OnThreshold()
	offThreshold, _ := d.options.OffThreshold()
	maxDuration := d.options.MaximumTriggerDuration()
	checkDuration := maxDuration > 0

	var triggerWindows []TriggerWindow
	startIStartTimeUS := startTime.UnixMicro()

	var startPair, maxPair TimedValue
	if d.state == stateOn {
		startPair, _ = d.current.Start()
		maxPair, _ = d.current.Maximum()
	}

	for i := iStart; i < nSamples; i++ {
		iNow := startIStartTimeUS + int64(i)*samplingPeriodUS
		iNow = roundToNearestDigit(iNow, 1)
		tNow := time.UnixMicro(iNow).UTC()
		d.lastEvaluation = tNow

		if d.state == stateOff {
			if signal[i] >= onThreshold {
				d.current.Clear()
				startPair = TimedValue{Time: tNow, Value: signal[i]}
				maxPair = startPair
				d.current.SetStart(startPair)
				d.current.SetMaximum(maxPair)
				d.state = stateOn
			}
			continue
		}

		// Looking to end the window.
		if signal[i] < offThreshold {
			endPair := TimedValue{Time: tNow, Value: signal[i]}
			d.current.SetEnd(endPair)
			if endPair.Value > maxPair.Value {
				d.current.SetMaximum(endPair)
			}
			triggerWindows = append(triggerWindows, d.current)
			d.state = stateOff
			if d.Metrics != nil {
				d.Metrics.TriggersTotal.WithLabelValues(d.ChannelLabel).Inc()
			}
			continue
		}

		if signal[i] > maxPair.Value {
			maxPair = TimedValue{Time: tNow, Value: signal[i]}
			d.current.SetMaximum(maxPair)
		}
		if checkDuration && tNow.Sub(startPair.Time) > maxDuration {
			d.state = stateOff
		}
	}

	return triggerWindows, nil
}

// roundToNearestDigit rounds x to the nearest power of ten given by digit;
// digit=1 rounds to the nearest ten, matching the microsecond-rounding the
// detector applies to compensate for floating point sampling period error.
func roundToNearestDigit(x int64, digit int) int64 {
	if digit == 0 {
		return x
	}
	scale := int64(math.Pow(10, float64(digit)))
	return int64(math.Round(float64(x)/float64(scale))) * scale
}

func computeTimeTolerance(samplingPeriodUS int64) int64 {
	return int64(math.Round(float64(samplingPeriodUS) / 4.0))
}

func isClose(a, b, tol int64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < tol
}

// getStartSample locates the sample in an incoming packet at which to
// resume threshold evaluation, accounting for gaps, overlaps, and expired
// (stale) packets relative to the last evaluated sample.
func getStartSample(
	packetStartUS, packetEndUS, lastEvaluationUS int64,
	nSamples int,
	samplingPeriodUS, timeToleranceUS int64,
	gapSizeInSamples int,
) (int, packetCategory) {
	desiredNextUS := roundToNearestDigit(lastEvaluationUS+samplingPeriodUS, 1)

	if packetEndUS < desiredNextUS-timeToleranceUS {
		return nSamples, categoryExpired
	}

	if isClose(packetStartUS, desiredNextUS, timeToleranceUS) {
		return 0, categoryNormal
	}

	if packetStartUS > desiredNextUS+samplingPeriodUS {
		gapSlack := gapSizeInSamples
		if gapSlack < 0 {
			gapSlack = 0
		}
		if packetStartUS > desiredNextUS+int64(gapSlack)*samplingPeriodUS {
			return 0, categoryGap
		}
		return 0, categoryNormal
	}

	// Overlap: the desired sample lies within this packet. Guess near the
	// expected offset first, then fall back to a brute-force scan.
	dt := float64(desiredNextUS - packetStartUS)
	guess := int(math.Round(dt / float64(samplingPeriodUS)))
	if guess > nSamples-2 {
		guess = nSamples - 2
	}
	if guess < 1 {
		guess = 1
	}
	offsets := [3]int{guess, guess - 1, guess + 1}

	offset := -1
	for _, candidate := range offsets {
		estimateUS := packetStartUS + int64(candidate)*samplingPeriodUS
		if isClose(desiredNextUS, estimateUS, timeToleranceUS) {
			offset = candidate
			break
		}
	}
	if offset >= 0 {
		estimateUS := packetStartUS + int64(offset)*samplingPeriodUS
		if isClose(desiredNextUS, estimateUS, timeToleranceUS) {
			return offset, categoryNormal
		}
	}

	for i := 0; i < nSamples; i++ {
		sampleUS := packetStartUS + int64(i)*samplingPeriodUS
		if isClose(desiredNextUS, sampleUS, timeToleranceUS) {
			return i, categoryNormal
		}
	}
	return nSamples, categoryAlgorithmicFailure
}
