package waveform

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Result is a dense, gap-free signal resampled onto an evenly spaced time
// grid running from StartTime to EndTime at SamplingRate. Callers must
// check HasGaps; a gapped result is still populated (best effort) but
// should be discarded per the component contract in the specification.
type Result struct {
	StartTime    time.Time
	EndTime      time.Time
	SamplingRate float64
	Data         []float64
	HasGaps      bool
}

type timedSample struct {
	t time.Time
	v float64
}

// Interpolator resamples one channel's packets onto a dense grid at a
// fixed nominal sampling rate, flagging any inter-packet gap that exceeds
// the configured tolerance.
type Interpolator struct {
	SamplingRate float64
	GapTolerance time.Duration
}

// NewInterpolator builds an interpolator for a channel with the given
// nominal sampling rate. gapTolerance is typically
// floor((gapSamples-1)/Fs), expressed directly as a duration here.
func NewInterpolator(samplingRate float64, gapTolerance time.Duration) (*Interpolator, error) {
	if samplingRate <= 0 {
		return nil, errors.New("sampling rate must be positive")
	}
	if gapTolerance <= 0 {
		return nil, errors.New("gap tolerance must be positive")
	}
	return &Interpolator{SamplingRate: samplingRate, GapTolerance: gapTolerance}, nil
}

// Interpolate produces a dense signal covering [t0, t1] at the
// interpolator's nominal sampling rate. The packets need not be sorted or
// free of overlap; they must all belong to the same channel.
func (ip *Interpolator) Interpolate(packets []Packet, t0, t1 time.Time) (Result, error) {
	if !t1.After(t0) {
		return Result{}, errors.New("t1 must be after t0")
	}
	samples, hasGaps := ip.flatten(packets)
	res := Result{StartTime: t0, EndTime: t1, SamplingRate: ip.SamplingRate}

	n := int(t1.Sub(t0).Seconds()*ip.SamplingRate) + 1
	if n < 1 {
		n = 1
	}
	period := time.Duration(1e9/ip.SamplingRate) * time.Nanosecond
	res.Data = make([]float64, n)

	if len(samples) == 0 {
		res.HasGaps = true
		return res, nil
	}
	if hasGaps || samples[0].t.After(t0) || samples[len(samples)-1].t.Before(t1) {
		res.HasGaps = true
	}

	for i := 0; i < n; i++ {
		t := t0.Add(time.Duration(i) * period)
		v, ok := interpAt(samples, t)
		if !ok {
			res.HasGaps = true
		}
		res.Data[i] = v
	}
	return res, nil
}

// flatten merges every packet's samples into one time-ordered slice,
// dropping duplicate instants and flagging a gap whenever the boundary
// between consecutive packets exceeds the tolerance.
func (ip *Interpolator) flatten(packets []Packet) ([]timedSample, bool) {
	sorted := make([]Packet, 0, len(packets))
	for _, p := range packets {
		if p.NumSamples() > 0 {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	hasGaps := false
	samples := make([]timedSample, 0)
	var lastEnd time.Time
	haveLastEnd := false
	for _, p := range sorted {
		period := p.SamplingPeriod()
		end, _ := p.EndTime()
		if haveLastEnd {
			gap := p.StartTime.Sub(lastEnd)
			if gap > ip.GapTolerance {
				hasGaps = true
			}
		}
		for i, v := range p.Data {
			t := p.StartTime.Add(time.Duration(i) * period)
			if len(samples) > 0 && !t.After(samples[len(samples)-1].t) {
				continue // duplicate/overlapping instant; keep earliest arrival
			}
			samples = append(samples, timedSample{t: t, v: v})
		}
		lastEnd = end
		haveLastEnd = true
	}
	return samples, hasGaps
}

// interpAt linearly interpolates the value at t from a sorted sample
// slice. ok is false when t falls outside the covered range.
func interpAt(samples []timedSample, t time.Time) (float64, bool) {
	if t.Before(samples[0].t) || t.After(samples[len(samples)-1].t) {
		return 0, false
	}
	idx := sort.Search(len(samples), func(i int) bool {
		return samples[i].t.After(t)
	})
	if idx == 0 {
		return samples[0].v, true
	}
	if idx == len(samples) {
		return samples[len(samples)-1].v, true
	}
	left, right := samples[idx-1], samples[idx]
	if !right.t.After(left.t) {
		return left.v, true
	}
	frac := t.Sub(left.t).Seconds() / right.t.Sub(left.t).Seconds()
	return left.v + frac*(right.v-left.v), true
}

// ThreeComponentInterpolator aligns vertical, north, and east channels to a
// common time grid. Per the specification, if any channel lacks data or has
// gaps in the requested window the whole window is rejected.
type ThreeComponentInterpolator struct {
	Vertical *Interpolator
	North    *Interpolator
	East     *Interpolator
}

// ThreeComponentResult bundles the three aligned, gap-free components.
type ThreeComponentResult struct {
	Vertical Result
	North    Result
	East     Result
}

// Interpolate resamples all three components over [t0, t1]. HasGaps (via
// the returned bool) is true if any one of the three channels is gapped or
// missing data for the window.
func (t3 *ThreeComponentInterpolator) Interpolate(
	vertical, north, east []Packet,
	t0, t1 time.Time,
) (ThreeComponentResult, bool, error) {
	v, err := t3.Vertical.Interpolate(vertical, t0, t1)
	if err != nil {
		return ThreeComponentResult{}, true, err
	}
	n, err := t3.North.Interpolate(north, t0, t1)
	if err != nil {
		return ThreeComponentResult{}, true, err
	}
	e, err := t3.East.Interpolate(east, t0, t1)
	if err != nil {
		return ThreeComponentResult{}, true, err
	}
	hasGaps := v.HasGaps || n.HasGaps || e.HasGaps
	return ThreeComponentResult{Vertical: v, North: n, East: e}, hasGaps, nil
}
