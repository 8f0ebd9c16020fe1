// Package pick defines the Pick domain type produced by the threshold
// detector and refined by the picker pipeline, plus its CBOR wire codec.
package pick

import (
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/waveform"
)

// PhaseHint is the wave type a pick is believed to represent.
type PhaseHint int

const (
	PhaseUnknown PhaseHint = iota
	PhaseP
	PhaseS
)

func (p PhaseHint) String() string {
	switch p {
	case PhaseP:
		return "P"
	case PhaseS:
		return "S"
	default:
		return "Unknown"
	}
}

// FirstMotion is the initial polarity of the P-wave arrival.
type FirstMotion int

const (
	FirstMotionUnknown FirstMotion = iota
	FirstMotionUp
	FirstMotionDown
)

func (f FirstMotion) String() string {
	switch f {
	case FirstMotionUp:
		return "Up"
	case FirstMotionDown:
		return "Down"
	default:
		return "Unknown"
	}
}

// ReviewStatus distinguishes machine-generated picks from analyst-reviewed
// ones.
type ReviewStatus int

const (
	Automatic ReviewStatus = iota
	Manual
)

func (r ReviewStatus) String() string {
	if r == Manual {
		return "Manual"
	}
	return "Automatic"
}

// UncertaintyBound is a lower/upper pair of (percentile, time
// perturbation) describing the confidence interval around a pick time.
// The invariant is LowerPercentile <= UpperPercentile and
// LowerPerturbation <= UpperPerturbation.
type UncertaintyBound struct {
	LowerPercentile   float64
	LowerPerturbation time.Duration
	UpperPercentile   float64
	UpperPerturbation time.Duration
}

// Validate checks the ordering invariant between the lower and upper
// bounds and that percentiles fall in [0, 100].
func (u UncertaintyBound) Validate() error {
	if u.LowerPercentile < 0 || u.LowerPercentile > 100 ||
		u.UpperPercentile < 0 || u.UpperPercentile > 100 {
		return errors.New("uncertainty percentiles must lie in [0, 100]")
	}
	if u.LowerPercentile > u.UpperPercentile {
		return errors.New("lower percentile must not exceed upper percentile")
	}
	if u.LowerPerturbation > u.UpperPerturbation {
		return errors.New("lower perturbation must not exceed upper perturbation")
	}
	return nil
}

// Pick is a single detection on one channel at one time.
type Pick struct {
	ChannelID waveform.ChannelID
	Time      time.Time
	// Identifier is a monotonic, process-unique pick identifier minted by
	// the incrementer service.
	Identifier uint64

	PhaseHint   PhaseHint
	FirstMotion FirstMotion
	Review      ReviewStatus

	// Uncertainty is optional; nil means no uncertainty estimate is
	// attached yet.
	Uncertainty *UncertaintyBound

	// OriginalChannels lists channels this pick was derived from (e.g. the
	// three components an ML picker consumed), when it differs from
	// ChannelID alone.
	OriginalChannels []string

	// ProcessingAlgorithms tags every algorithm that touched this pick, in
	// application order, e.g. ["uNetOneComponentP", "cnnOneComponentP"].
	ProcessingAlgorithms []string
}

// Validate checks the pick's structural invariants.
func (p Pick) Validate() error {
	if p.ChannelID.Network == "" || p.ChannelID.Station == "" || p.ChannelID.Channel == "" {
		return errors.New("pick channel must be set")
	}
	if p.Time.IsZero() {
		return errors.New("pick time must be set")
	}
	if p.Uncertainty != nil {
		if err := p.Uncertainty.Validate(); err != nil {
			return errors.Wrap(err, "invalid uncertainty bound")
		}
	}
	return nil
}

// WithAlgorithm returns a copy of the pick with algorithm appended to its
// processing algorithm tags.
func (p Pick) WithAlgorithm(algorithm string) Pick {
	out := p
	out.ProcessingAlgorithms = append(append([]string{}, p.ProcessingAlgorithms...), algorithm)
	return out
}
