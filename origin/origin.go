package origin

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/pick"
)

// Depth bounds in meters, per the data model invariant.
const (
	MinDepthMeters = -8900.0
	MaxDepthMeters = 800000.0
)

// Origin is a hypothesized earthquake location and time, supported by one
// or more arrivals.
type Origin struct {
	time          time.Time
	latitude      float64
	haveLatitude  bool
	longitude     float64
	haveLongitude bool
	depth         float64
	haveDepth     bool
	identifier    uint64
	haveID        bool
	review        pick.ReviewStatus
	algorithms    []string
	arrivals      []Arrival
}

// New constructs an empty Origin ready to be populated via its setters.
func New() *Origin {
	return &Origin{}
}

// SetTime sets the origin time.
func (o *Origin) SetTime(t time.Time) { o.time = t }

// Time returns the origin time.
func (o *Origin) Time() time.Time { return o.time }

// SetLatitude sets the latitude in degrees; must lie in [-90, 90].
func (o *Origin) SetLatitude(lat float64) error {
	if lat < -90 || lat > 90 {
		return errors.Errorf("latitude %v out of [-90, 90]", lat)
	}
	o.latitude = lat
	o.haveLatitude = true
	return nil
}

// Latitude returns the latitude in degrees.
func (o *Origin) Latitude() (float64, bool) { return o.latitude, o.haveLatitude }

// SetLongitude sets the longitude, normalizing it into [-180, 180) via
// lonTo180. Per the design notes, +180 normalizes to -180.
func (o *Origin) SetLongitude(lon float64) {
	o.longitude = lonTo180(lon)
	o.haveLongitude = true
}

// Longitude returns the normalized longitude in degrees.
func (o *Origin) Longitude() (float64, bool) { return o.longitude, o.haveLongitude }

// lonTo180 normalizes a longitude in degrees into [-180, 180).
func lonTo180(lon float64) float64 {
	result := math.Mod(lon+180, 360)
	if result < 0 {
		result += 360
	}
	return result - 180
}

// SetDepth sets the depth in meters below sea level; must lie within the
// closed interval [MinDepthMeters, MaxDepthMeters].
func (o *Origin) SetDepth(depth float64) error {
	if depth < MinDepthMeters || depth > MaxDepthMeters {
		return errors.Errorf("depth %v out of [%v, %v]", depth, MinDepthMeters, MaxDepthMeters)
	}
	o.depth = depth
	o.haveDepth = true
	return nil
}

// Depth returns the depth in meters.
func (o *Origin) Depth() (float64, bool) { return o.depth, o.haveDepth }

// SetIdentifier sets the origin's monotonic identifier and propagates it
// to every currently attached arrival's OriginIdentifier.
func (o *Origin) SetIdentifier(id uint64) {
	o.identifier = id
	o.haveID = true
	for i := range o.arrivals {
		o.arrivals[i].setOriginIdentifier(id)
	}
}

// Identifier returns the origin's identifier.
func (o *Origin) Identifier() (uint64, bool) { return o.identifier, o.haveID }

// SetReviewStatus sets whether this origin is automatic or analyst
// reviewed.
func (o *Origin) SetReviewStatus(r pick.ReviewStatus) { o.review = r }

// ReviewStatus returns the origin's review status.
func (o *Origin) ReviewStatus() pick.ReviewStatus { return o.review }

// SetAlgorithms sets the tags of every algorithm that contributed to this
// origin.
func (o *Origin) SetAlgorithms(algorithms []string) {
	o.algorithms = append([]string{}, algorithms...)
}

// Algorithms returns the generating-algorithm tags.
func (o *Origin) Algorithms() []string { return o.algorithms }

// SetArrivals replaces the origin's arrivals. If the origin's identifier
// has already been set, it is immediately stamped onto every arrival.
func (o *Origin) SetArrivals(arrivals []Arrival) {
	o.arrivals = append([]Arrival{}, arrivals...)
	if o.haveID {
		for i := range o.arrivals {
			o.arrivals[i].setOriginIdentifier(o.identifier)
		}
	}
}

// Arrivals returns a copy of the origin's attached arrivals.
func (o *Origin) Arrivals() []Arrival {
	out := make([]Arrival, len(o.arrivals))
	copy(out, o.arrivals)
	return out
}

// Validate checks that every required field is set and every attached
// arrival is itself valid.
func (o *Origin) Validate() error {
	if o.time.IsZero() {
		return errors.New("origin time must be set")
	}
	if !o.haveLatitude {
		return errors.New("origin latitude must be set")
	}
	if !o.haveLongitude {
		return errors.New("origin longitude must be set")
	}
	if !o.haveDepth {
		return errors.New("origin depth must be set")
	}
	for i, a := range o.arrivals {
		if err := a.Validate(); err != nil {
			return errors.Wrapf(err, "invalid arrival %d", i)
		}
	}
	return nil
}
