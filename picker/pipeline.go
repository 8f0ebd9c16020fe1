// Package picker implements the per-channel pick-refinement pipeline: query
// the packet cache around an initial trigger, interpolate and cut a signal
// segment, ask the regression and first-motion services to refine it, and
// publish the result.
package picker

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/packetcache"
	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/queue"
	"github.com/uofuseismo/urts-core/urtslog"
	"github.com/uofuseismo/urts-core/waveform"
)

// Options tunes the window geometry and polling cadence shared by every
// channel's processing item.
type Options struct {
	// PreWindow and PostWindow bound the signal cut around the pick, before
	// the perturbation pad is added to the cache query.
	PreWindow  time.Duration
	PostWindow time.Duration

	// Pad covers the model's allowable sub-sample perturbation; the cache
	// query widens by this much on both sides of PreWindow/PostWindow.
	Pad time.Duration

	// ExpectedSamples is the fixed-length signal segment length the
	// regression and first-motion models expect.
	ExpectedSamples int

	// SamplingRate is the channel's nominal sampling rate in Hz.
	SamplingRate float64

	// GapTolerance is forwarded to the channel's waveform.Interpolator.
	GapTolerance time.Duration

	// PollTimeout bounds how long Run blocks on the input queue between
	// checks of ctx.Done(), keeping shutdown responsive.
	PollTimeout time.Duration
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.PreWindow <= 0 || o.PostWindow <= 0 {
		return errors.New("pre/post window must be positive")
	}
	if o.Pad < 0 {
		return errors.New("pad must be non-negative")
	}
	if o.ExpectedSamples <= 0 {
		return errors.New("expected samples must be positive")
	}
	if o.SamplingRate <= 0 {
		return errors.New("sampling rate must be positive")
	}
	if o.PollTimeout <= 0 {
		return errors.New("poll timeout must be positive")
	}
	return nil
}

// RegressionResult is the pick-regression service's answer: a sub-sample
// time correction plus the uncertainty bound to attach to the refined pick.
type RegressionResult struct {
	CorrectedTime time.Time
	Uncertainty   *pick.UncertaintyBound
	Algorithm     string
}

// RegressionClient refines an initial pick's time given a cut signal
// segment. Implementations dispatch to the pick-regression inference
// service; the transport is external to this package.
type RegressionClient interface {
	Refine(ctx context.Context, channel waveform.ChannelID, segment []float64, samplingRate float64, initialPick time.Time) (RegressionResult, error)
}

// FirstMotionResult is the first-motion service's answer.
type FirstMotionResult struct {
	FirstMotion pick.FirstMotion
	Algorithm   string
}

// FirstMotionClient classifies the polarity of a P arrival's first break.
type FirstMotionClient interface {
	Classify(ctx context.Context, channel waveform.ChannelID, segment []float64, samplingRate float64) (FirstMotionResult, error)
}

// ProcessingItem holds the per-channel state threaded through every pick
// refined on that channel: an interpolator tuned to the channel's nominal
// sampling rate and a pick template pre-populated with channel identifiers.
type ProcessingItem struct {
	Channel      waveform.ChannelID
	Interpolator *waveform.Interpolator
	Template     pick.Pick
}

// NewProcessingItem constructs a ProcessingItem for channel using options'
// sampling rate and gap tolerance.
func NewProcessingItem(channel waveform.ChannelID, options Options) (*ProcessingItem, error) {
	interpolator, err := waveform.NewInterpolator(options.SamplingRate, options.GapTolerance)
	if err != nil {
		return nil, err
	}
	return &ProcessingItem{
		Channel:      channel,
		Interpolator: interpolator,
		Template: pick.Pick{
			ChannelID: channel,
		},
	}, nil
}

// Pipeline reads initial picks from an input queue, refines each one
// against the packet cache, and writes the refined pick to an output
// queue. One Pipeline serves every channel registered via Register; Run is
// intended to be driven by a single dedicated worker goroutine.
type Pipeline struct {
	Options Options
	Cache   *packetcache.Registry

	Regression RegressionClient
	FirstMotion FirstMotionClient

	Input  *queue.Bounded[pick.Pick]
	Output *queue.Bounded[pick.Pick]

	Logger urtslog.Logger

	// Metrics, if set, is bumped once per pick processed by process, with an
	// outcome label of "refined" or "rejected".
	Metrics *metrics.Metrics

	items map[waveform.ChannelID]*ProcessingItem
}

// NewPipeline constructs a Pipeline. Regression and FirstMotion may be nil,
// in which case those refinement steps are skipped entirely.
func NewPipeline(options Options, cache *packetcache.Registry, input, output *queue.Bounded[pick.Pick]) (*Pipeline, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, errors.New("cache registry required")
	}
	if input == nil || output == nil {
		return nil, errors.New("input and output queues required")
	}
	return &Pipeline{
		Options: options,
		Cache:   cache,
		Input:   input,
		Output:  output,
		Logger:  urtslog.NoOp,
		items:   make(map[waveform.ChannelID]*ProcessingItem),
	}, nil
}

// Register creates the ProcessingItem for channel, if one does not already
// exist.
func (p *Pipeline) Register(channel waveform.ChannelID) error {
	if _, ok := p.items[channel]; ok {
		return nil
	}
	item, err := NewProcessingItem(channel, p.Options)
	if err != nil {
		return err
	}
	p.items[channel] = item
	return nil
}

// Run drains Input until ctx is cancelled, refining and forwarding each
// pick to Output. Every suspension point (the queue pop) is bounded by
// Options.PollTimeout, so cancellation is observed within one poll.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		initial, ok := p.Input.WaitUntilAndPop(p.Options.PollTimeout)
		if !ok {
			continue
		}

		refined, err := p.process(ctx, initial)
		if err != nil {
			p.Logger.Warnf("pick refinement failed for %s: %v", initial.ChannelID, err)
			continue
		}
		p.Output.Push(refined)
	}
}

// recordOutcome bumps PicksTotal for channel with the given outcome label,
// if Metrics is set.
func (p *Pipeline) recordOutcome(channel waveform.ChannelID, outcome string) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.PicksTotal.WithLabelValues(channel.String(), outcome).Inc()
}

// process implements the query/interpolate/cut/infer/classify/publish
// sequence for a single initial pick.
func (p *Pipeline) process(ctx context.Context, initial pick.Pick) (refined pick.Pick, err error) {
	defer func() {
		if err != nil {
			p.recordOutcome(initial.ChannelID, "rejected")
		} else {
			p.recordOutcome(initial.ChannelID, "refined")
		}
	}()

	if err := p.Register(initial.ChannelID); err != nil {
		return pick.Pick{}, err
	}
	item := p.items[initial.ChannelID]

	pad := p.Options.Pad
	queryStart := initial.Time.Add(-p.Options.PreWindow - pad)
	queryEnd := initial.Time.Add(p.Options.PostWindow + pad)

	buffer, ok := p.Cache.Get(initial.ChannelID)
	if !ok {
		return pick.Pick{}, errors.Errorf("no cached packets for %s", initial.ChannelID)
	}
	packets := buffer.Query(queryStart, queryEnd)

	result, err := item.Interpolator.Interpolate(packets, queryStart, queryEnd)
	if err != nil || result.HasGaps {
		return pick.Pick{}, errors.New("interpolation gapped or unavailable")
	}

	// Reject if the pick lies too close to the queried window's edges:
	// the cut below would run off the end of the interpolated segment.
	tolerance := p.Options.PreWindow + pad
	if initial.Time.Sub(result.StartTime) < tolerance {
		return pick.Pick{}, errors.New("pick too close to window start")
	}
	if result.EndTime.Sub(initial.Time) < tolerance {
		return pick.Pick{}, errors.New("pick too close to window end")
	}

	segment, err := cutSegment(result, initial.Time, p.Options.ExpectedSamples)
	if err != nil {
		return pick.Pick{}, err
	}

	refined = initial
	if p.Regression != nil {
		regResult, err := p.Regression.Refine(ctx, initial.ChannelID, segment, result.SamplingRate, initial.Time)
		if err != nil {
			p.Logger.Debugf("regression failed for %s: %v", initial.ChannelID, err)
			refined = refined.WithAlgorithm("algorithm failed")
		} else {
			refined.Time = regResult.CorrectedTime
			refined.Uncertainty = regResult.Uncertainty
			refined = refined.WithAlgorithm(regResult.Algorithm)
		}
	}

	if refined.PhaseHint == pick.PhaseP && p.FirstMotion != nil {
		fmResult, err := p.FirstMotion.Classify(ctx, initial.ChannelID, segment, result.SamplingRate)
		if err != nil {
			p.Logger.Debugf("first motion classification failed for %s: %v", initial.ChannelID, err)
			refined.FirstMotion = pick.FirstMotionUnknown
		} else {
			refined.FirstMotion = fmResult.FirstMotion
			refined = refined.WithAlgorithm(fmResult.Algorithm)
		}
	}

	return refined, nil
}

// cutSegment extracts a fixed-length window of nSamples centered on
// centerTime from an interpolated result.
func cutSegment(result waveform.Result, centerTime time.Time, nSamples int) ([]float64, error) {
	if len(result.Data) == 0 {
		return nil, errors.New("empty interpolated signal")
	}
	period := time.Duration(float64(time.Second) / result.SamplingRate)
	centerIndex := int(centerTime.Sub(result.StartTime) / period)
	half := nSamples / 2
	start := centerIndex - half
	end := start + nSamples
	if start < 0 || end > len(result.Data) {
		return nil, errors.New("insufficient samples for fixed-length cut")
	}
	segment := make([]float64, nSamples)
	copy(segment, result.Data[start:end])
	return segment, nil
}
