// Package origin defines the Origin and Arrival domain types produced by
// the associator service, plus their CBOR wire codec.
package origin

import (
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/pick"
)

// Arrival is a Pick promoted to membership in an origin: it carries a
// definite phase (P or S, never unknown), an optional back-reference to
// its owning origin, and optional travel-time/residual/signal-to-noise
// attributes filled in once the origin is located.
type Arrival struct {
	pick.Pick

	Phase pick.PhaseHint

	// OriginIdentifier is nil until the arrival is attached to an origin,
	// at which point Origin.SetIdentifier/SetArrivals keeps it in sync.
	OriginIdentifier *uint64

	TravelTime *time.Duration
	Residual   *time.Duration
	SNR        *float64
}

// Validate requires a definite phase in addition to the embedded pick's
// invariants.
func (a Arrival) Validate() error {
	if err := a.Pick.Validate(); err != nil {
		return err
	}
	if a.Phase != pick.PhaseP && a.Phase != pick.PhaseS {
		return errors.New("arrival phase must be P or S")
	}
	return nil
}

// setOriginIdentifier stamps id onto the arrival; used internally by
// Origin when propagating its identifier to attached arrivals.
func (a *Arrival) setOriginIdentifier(id uint64) {
	v := id
	a.OriginIdentifier = &v
}
