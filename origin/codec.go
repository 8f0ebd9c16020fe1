package origin

import (
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/waveform"
	"github.com/uofuseismo/urts-core/wire"
)

type wireArrival struct {
	Network      string `cbor:"network"`
	Station      string `cbor:"station"`
	Channel      string `cbor:"channel"`
	LocationCode string `cbor:"locationCode"`

	TimeUS     int64  `cbor:"time"`
	Identifier uint64 `cbor:"identifier"`

	Phase string `cbor:"phase"`

	FirstMotion  int8 `cbor:"firstMotion"`
	ReviewStatus int8 `cbor:"reviewStatus"`

	OriginIdentifier *uint64 `cbor:"originIdentifier,omitempty"`
	TravelTimeUS     *int64  `cbor:"travelTime,omitempty"`
	ResidualUS       *int64  `cbor:"residual,omitempty"`
	SNR              *float64 `cbor:"snr,omitempty"`

	ProcessingAlgorithms []string `cbor:"processingAlgorithms,omitempty"`
}

type wireOrigin struct {
	Latitude     float64 `cbor:"latitude"`
	Longitude    float64 `cbor:"longitude"`
	Depth        float64 `cbor:"depth"`
	TimeUS       int64   `cbor:"time"`
	Identifier   uint64  `cbor:"identifier"`
	ReviewStatus int8    `cbor:"reviewStatus"`
	Algorithms   []string `cbor:"algorithms,omitempty"`
	Arrivals     []wireArrival `cbor:"arrivals,omitempty"`
}

// MessageType identifies this as an Origin message on the wire.
func (o *Origin) MessageType() string { return wire.TypeOrigin }

// MessageVersion is the shared wire format version.
func (o *Origin) MessageVersion() string { return wire.MessageVersion }

// Marshal encodes o as a CBOR-framed Origin message.
func (o *Origin) Marshal() ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "cannot marshal invalid origin")
	}
	wo := wireOrigin{
		Latitude:     o.latitude,
		Longitude:    o.longitude,
		Depth:        o.depth,
		TimeUS:       o.time.UnixMicro(),
		Identifier:   o.identifier,
		ReviewStatus: reviewStatusToWire(o.review),
		Algorithms:   o.algorithms,
	}
	for _, a := range o.arrivals {
		wo.Arrivals = append(wo.Arrivals, arrivalToWire(a))
	}
	return wire.Marshal(wire.TypeOrigin, wo)
}

// Unmarshal decodes a CBOR-framed Origin message produced by Marshal.
func Unmarshal(data []byte) (*Origin, error) {
	var wo wireOrigin
	if err := wire.Unmarshal(data, wire.TypeOrigin, &wo); err != nil {
		return nil, err
	}
	o := New()
	o.time = time.UnixMicro(wo.TimeUS).UTC()
	if err := o.SetLatitude(wo.Latitude); err != nil {
		return nil, err
	}
	o.SetLongitude(wo.Longitude)
	if err := o.SetDepth(wo.Depth); err != nil {
		return nil, err
	}
	o.identifier = wo.Identifier
	o.haveID = true
	o.review = reviewStatusFromWire(wo.ReviewStatus)
	o.algorithms = wo.Algorithms

	arrivals := make([]Arrival, 0, len(wo.Arrivals))
	for _, wa := range wo.Arrivals {
		arrivals = append(arrivals, arrivalFromWire(wa))
	}
	o.arrivals = arrivals
	return o, o.Validate()
}

func arrivalToWire(a Arrival) wireArrival {
	wa := wireArrival{
		Network:              a.ChannelID.Network,
		Station:              a.ChannelID.Station,
		Channel:              a.ChannelID.Channel,
		LocationCode:         a.ChannelID.LocationCode,
		TimeUS:               a.Time.UnixMicro(),
		Identifier:           a.Identifier,
		Phase:                a.Phase.String(),
		FirstMotion:          firstMotionToWire(a.FirstMotion),
		ReviewStatus:         reviewStatusToWire(a.Review),
		OriginIdentifier:     a.OriginIdentifier,
		ProcessingAlgorithms: a.ProcessingAlgorithms,
	}
	if a.TravelTime != nil {
		us := a.TravelTime.Microseconds()
		wa.TravelTimeUS = &us
	}
	if a.Residual != nil {
		us := a.Residual.Microseconds()
		wa.ResidualUS = &us
	}
	if a.SNR != nil {
		v := *a.SNR
		wa.SNR = &v
	}
	return wa
}

func arrivalFromWire(wa wireArrival) Arrival {
	a := Arrival{
		Pick: pick.Pick{
			ChannelID: waveform.ChannelID{
				Network:      wa.Network,
				Station:      wa.Station,
				Channel:      wa.Channel,
				LocationCode: wa.LocationCode,
			},
			Time:                 time.UnixMicro(wa.TimeUS).UTC(),
			Identifier:           wa.Identifier,
			FirstMotion:          firstMotionFromWire(wa.FirstMotion),
			Review:               reviewStatusFromWire(wa.ReviewStatus),
			ProcessingAlgorithms: wa.ProcessingAlgorithms,
		},
		Phase:            phaseFromWire(wa.Phase),
		OriginIdentifier: wa.OriginIdentifier,
	}
	if wa.TravelTimeUS != nil {
		d := time.Duration(*wa.TravelTimeUS) * time.Microsecond
		a.TravelTime = &d
	}
	if wa.ResidualUS != nil {
		d := time.Duration(*wa.ResidualUS) * time.Microsecond
		a.Residual = &d
	}
	if wa.SNR != nil {
		v := *wa.SNR
		a.SNR = &v
	}
	return a
}

func phaseFromWire(s string) pick.PhaseHint {
	switch s {
	case "P":
		return pick.PhaseP
	case "S":
		return pick.PhaseS
	default:
		return pick.PhaseUnknown
	}
}

func firstMotionToWire(f pick.FirstMotion) int8 {
	switch f {
	case pick.FirstMotionUp:
		return 1
	case pick.FirstMotionDown:
		return -1
	default:
		return 0
	}
}

func firstMotionFromWire(v int8) pick.FirstMotion {
	switch v {
	case 1:
		return pick.FirstMotionUp
	case -1:
		return pick.FirstMotionDown
	default:
		return pick.FirstMotionUnknown
	}
}

func reviewStatusToWire(r pick.ReviewStatus) int8 {
	if r == pick.Manual {
		return 1
	}
	return 0
}

func reviewStatusFromWire(v int8) pick.ReviewStatus {
	if v == 1 {
		return pick.Manual
	}
	return pick.Automatic
}
