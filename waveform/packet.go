// Package waveform defines the continuous ground-motion data types (data
// packets and probability packets) and the gap-aware interpolator that
// resamples them onto a dense time grid.
package waveform

import (
	"time"

	"github.com/pkg/errors"
)

// ChannelID identifies a single seismic stream by its four-part SEED name.
type ChannelID struct {
	Network      string
	Station      string
	Channel      string
	LocationCode string
}

// String renders the identifier as "NET.STA.CHAN.LOC", the conventional
// SEED channel name.
func (c ChannelID) String() string {
	return c.Network + "." + c.Station + "." + c.Channel + "." + c.LocationCode
}

// Packet is a contiguous run of samples from one channel at a fixed
// sampling rate. A zero-length packet is legal, but its EndTime is
// undefined (see EndTime).
type Packet struct {
	ChannelID
	SamplingRate float64
	StartTime    time.Time
	Data         []float64
}

// NewPacket validates and constructs a Packet. Validation matches the
// invariants in the data model: the sampling rate must be strictly
// positive, and the network, station, and channel codes must be non-blank
// (the location code may be empty).
func NewPacket(id ChannelID, samplingRate float64, start time.Time, data []float64) (Packet, error) {
	p := Packet{ChannelID: id, SamplingRate: samplingRate, StartTime: start, Data: data}
	if err := p.Validate(); err != nil {
		return Packet{}, err
	}
	return p, nil
}

// Validate checks the packet's invariants without inspecting sample count,
// since a zero-length packet is explicitly legal.
func (p Packet) Validate() error {
	if p.Network == "" || p.Station == "" || p.Channel == "" {
		return errors.New("network, station, and channel must be set")
	}
	if p.SamplingRate <= 0 {
		return errors.New("sampling rate must be positive")
	}
	return nil
}

// NumSamples returns the number of samples in the packet.
func (p Packet) NumSamples() int {
	return len(p.Data)
}

// SamplingPeriod returns the nominal time between samples.
func (p Packet) SamplingPeriod() time.Duration {
	return samplingPeriod(p.SamplingRate)
}

func samplingPeriod(samplingRate float64) time.Duration {
	return time.Duration(roundToNearestMicrosecond(1e6 / samplingRate)) * time.Microsecond
}

// EndTime returns the time of the final sample: start + (n-1)/Fs. The
// result is undefined (ok is false) for a zero-length packet.
func (p Packet) EndTime() (end time.Time, ok bool) {
	if len(p.Data) == 0 {
		return time.Time{}, false
	}
	offset := time.Duration(int64(len(p.Data)-1) * p.SamplingPeriod().Nanoseconds())
	return p.StartTime.Add(offset), true
}

// SameChannel reports whether two packets share a (network, station,
// channel, location) identity.
func (p Packet) SameChannel(o Packet) bool {
	return p.ChannelID == o.ChannelID
}

func roundToNearestMicrosecond(x float64) int64 {
	if x >= 0 {
		return int64(x + 0.5)
	}
	return int64(x - 0.5)
}

// ProbabilityPacket is a Packet whose samples are class-membership
// probabilities emitted by an inference model, annotated with the class
// names, algorithm tag, and originating channels it was derived from.
type ProbabilityPacket struct {
	Packet

	// PositiveClassName and NegativeClassName name the binary classes the
	// probability refers to, e.g. "P" and "Noise".
	PositiveClassName string
	NegativeClassName string

	// Algorithm tags the model that produced this packet.
	Algorithm string

	// OriginalChannels lists the raw channel names the packet was derived
	// from (e.g. the three components an ML detector consumed).
	OriginalChannels []string
}

// Validate additionally requires both class names and the algorithm tag to
// be set, and that every sample lies within [0, 1].
func (p ProbabilityPacket) Validate() error {
	if err := p.Packet.Validate(); err != nil {
		return err
	}
	if p.PositiveClassName == "" || p.NegativeClassName == "" {
		return errors.New("positive and negative class names must be set")
	}
	if p.Algorithm == "" {
		return errors.New("algorithm must be set")
	}
	for _, v := range p.Data {
		if v < 0 || v > 1 {
			return errors.Errorf("probability sample %v out of [0,1]", v)
		}
	}
	return nil
}
