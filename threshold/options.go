package threshold

import (
	"time"

	"github.com/pkg/errors"
)

// DefaultMinimumGapSize is the default number of sample periods of slack
// allowed between consecutive packets before a gap is declared.
const DefaultMinimumGapSize = 5

// DefaultMaximumTriggerDuration safety-nets a stuck-on detector: if a
// trigger window has been open this long without the signal dropping below
// the off threshold, it is forcibly closed.
const DefaultMaximumTriggerDuration = 10 * time.Second

// Options configures a Detector's on/off thresholds and gap handling.
type Options struct {
	onThreshold             float64
	haveOnThreshold         bool
	offThreshold            float64
	haveOffThreshold        bool
	minimumGapSize          int
	maximumTriggerDuration  time.Duration
}

// NewOptions returns Options with the package default gap size and maximum
// trigger duration; on/off thresholds still must be set before use.
func NewOptions() *Options {
	return &Options{
		minimumGapSize:         DefaultMinimumGapSize,
		maximumTriggerDuration: DefaultMaximumTriggerDuration,
	}
}

// SetOnThreshold sets the value the signal must meet or exceed to open a
// trigger window.
func (o *Options) SetOnThreshold(threshold float64) {
	o.onThreshold = threshold
	o.haveOnThreshold = true
}

// OnThreshold returns the configured on threshold.
func (o *Options) OnThreshold() (float64, bool) { return o.onThreshold, o.haveOnThreshold }

// SetOffThreshold sets the value the signal must drop below to close a
// trigger window.
func (o *Options) SetOffThreshold(threshold float64) {
	o.offThreshold = threshold
	o.haveOffThreshold = true
}

// OffThreshold returns the configured off threshold.
func (o *Options) OffThreshold() (float64, bool) { return o.offThreshold, o.haveOffThreshold }

// SetMinimumGapSize sets, in sample periods, how much slack between
// consecutive packets is tolerated before a gap is declared.
func (o *Options) SetMinimumGapSize(samples int) error {
	if samples < 0 {
		return errors.New("minimum gap size must be non-negative")
	}
	o.minimumGapSize = samples
	return nil
}

// MinimumGapSize returns the configured gap tolerance in sample periods.
func (o *Options) MinimumGapSize() int { return o.minimumGapSize }

// SetMaximumTriggerDuration sets the safety-net duration after which an
// open trigger window is forcibly closed regardless of the off threshold.
// A non-positive duration disables the safety net.
func (o *Options) SetMaximumTriggerDuration(d time.Duration) {
	o.maximumTriggerDuration = d
}

// MaximumTriggerDuration returns the configured safety-net duration.
func (o *Options) MaximumTriggerDuration() time.Duration { return o.maximumTriggerDuration }

// Validate requires both thresholds to have been set.
func (o Options) Validate() error {
	if !o.haveOnThreshold {
		return errors.New("on threshold not set")
	}
	if !o.haveOffThreshold {
		return errors.New("off threshold not set")
	}
	return nil
}
