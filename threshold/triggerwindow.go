// Package threshold implements an on/off amplitude threshold trigger over a
// stream of data or probability packets, translating sample-accurate
// real-time detector state across packet boundaries, gaps, and overlaps.
package threshold

import (
	"time"

	"github.com/pkg/errors"
)

// TimedValue pairs a timestamp with a sample value, used for the start, end,
// and maximum points of a TriggerWindow.
type TimedValue struct {
	Time  time.Time
	Value float64
}

// TriggerWindow describes a single on/off excursion: the time the signal
// crossed the on threshold, the time it dropped back below the off
// threshold, and the time/value of the peak observed while triggered.
type TriggerWindow struct {
	start      TimedValue
	haveStart  bool
	end        TimedValue
	haveEnd    bool
	maximum    TimedValue
	haveMaximum bool
}

// SetStart records the window's onset.
func (w *TriggerWindow) SetStart(start TimedValue) {
	w.start = start
	w.haveStart = true
}

// Start returns the window's onset.
func (w *TriggerWindow) Start() (TimedValue, error) {
	if !w.haveStart {
		return TimedValue{}, errors.New("start not set")
	}
	return w.start, nil
}

// HaveStart indicates whether the onset has been set.
func (w *TriggerWindow) HaveStart() bool { return w.haveStart }

// SetEnd records the window's termination.
func (w *TriggerWindow) SetEnd(end TimedValue) {
	w.end = end
	w.haveEnd = true
}

// End returns the window's termination.
func (w *TriggerWindow) End() (TimedValue, error) {
	if !w.haveEnd {
		return TimedValue{}, errors.New("end not set")
	}
	return w.end, nil
}

// HaveEnd indicates whether the termination has been set.
func (w *TriggerWindow) HaveEnd() bool { return w.haveEnd }

// SetMaximum records the peak value observed during the window.
func (w *TriggerWindow) SetMaximum(maximum TimedValue) {
	w.maximum = maximum
	w.haveMaximum = true
}

// Maximum returns the peak value observed during the window.
func (w *TriggerWindow) Maximum() (TimedValue, error) {
	if !w.haveMaximum {
		return TimedValue{}, errors.New("maximum not set")
	}
	return w.maximum, nil
}

// HaveMaximum indicates whether a maximum has been set.
func (w *TriggerWindow) HaveMaximum() bool { return w.haveMaximum }

// Clear resets the window to its zero value.
func (w *TriggerWindow) Clear() { *w = TriggerWindow{} }
