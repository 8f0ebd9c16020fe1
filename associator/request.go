// Package associator clusters unassociated picks into candidate origins
// and locates them via particle-swarm optimization over travel-time
// residuals.
package associator

import (
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/waveform"
)

// ReturnCode classifies the outcome of an association request.
type ReturnCode int

const (
	Success ReturnCode = iota
	InvalidRequest
	AlgorithmicFailure
)

func (r ReturnCode) String() string {
	switch r {
	case Success:
		return "Success"
	case InvalidRequest:
		return "InvalidRequest"
	case AlgorithmicFailure:
		return "AlgorithmicFailure"
	default:
		return "Unknown"
	}
}

// CandidatePick is the reduced pick representation an association request
// carries: just enough to cluster and locate, plus the identifier needed
// to echo it back field-for-field in the response.
type CandidatePick struct {
	ChannelID     waveform.ChannelID
	Time          time.Time
	PhaseHint     pick.PhaseHint
	StandardError time.Duration
	Identifier    uint64
}

// Validate requires a channel, a non-zero time, and a definite phase hint.
func (p CandidatePick) Validate() error {
	if p.ChannelID.Network == "" || p.ChannelID.Station == "" {
		return errors.New("candidate pick channel must be set")
	}
	if p.Time.IsZero() {
		return errors.New("candidate pick time must be set")
	}
	if p.PhaseHint != pick.PhaseP && p.PhaseHint != pick.PhaseS {
		return errors.New("candidate pick phase hint must be P or S")
	}
	return nil
}

// Request asks the associator to cluster and locate a batch of
// unassociated picks.
type Request struct {
	Identifier uint64
	Picks      []CandidatePick
}

// Validate requires at least one pick, each individually valid.
func (r Request) Validate() error {
	if len(r.Picks) == 0 {
		return errors.New("request has no picks")
	}
	for i, p := range r.Picks {
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "pick %d invalid", i)
		}
	}
	return nil
}
