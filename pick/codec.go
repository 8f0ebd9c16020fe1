package pick

import (
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/waveform"
	"github.com/uofuseismo/urts-core/wire"
)

// wireUncertaintyBound mirrors the CBOR shape in the external interface
// section: {LowerPercentile, LowerPerturbation, UpperPercentile,
// UpperPerturbation}, with perturbations carried as microseconds.
type wireUncertaintyBound struct {
	LowerPercentile     float64 `cbor:"lowerPercentile"`
	LowerPerturbationUS int64   `cbor:"lowerPerturbation"`
	UpperPercentile     float64 `cbor:"upperPercentile"`
	UpperPerturbationUS int64   `cbor:"upperPerturbation"`
}

// wirePick is the CBOR payload shape for a Pick message.
type wirePick struct {
	Network      string `cbor:"network"`
	Station      string `cbor:"station"`
	Channel      string `cbor:"channel"`
	LocationCode string `cbor:"locationCode"`

	TimeUS     int64  `cbor:"time"`
	Identifier uint64 `cbor:"identifier"`

	UncertaintyBounds *wireUncertaintyBound `cbor:"uncertaintyBounds,omitempty"`
	OriginalChannels  []string              `cbor:"originalChannels,omitempty"`

	PhaseHint *string `cbor:"phaseHint,omitempty"`

	// FirstMotion is -1 (down), 0 (unknown), or +1 (up).
	FirstMotion int8 `cbor:"firstMotion"`
	// ReviewStatus is 0 (automatic) or 1 (manual).
	ReviewStatus int8 `cbor:"reviewStatus"`

	ProcessingAlgorithms []string `cbor:"processingAlgorithms,omitempty"`
}

// MessageType identifies this as a Pick message on the wire.
func (Pick) MessageType() string { return wire.TypePick }

// MessageVersion is the shared wire format version.
func (Pick) MessageVersion() string { return wire.MessageVersion }

// Marshal encodes p as a CBOR-framed Pick message.
func (p Pick) Marshal() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "cannot marshal invalid pick")
	}
	wp := wirePick{
		Network:              p.ChannelID.Network,
		Station:              p.ChannelID.Station,
		Channel:              p.ChannelID.Channel,
		LocationCode:         p.ChannelID.LocationCode,
		TimeUS:               p.Time.UnixMicro(),
		Identifier:           p.Identifier,
		OriginalChannels:     p.OriginalChannels,
		FirstMotion:          firstMotionToWire(p.FirstMotion),
		ReviewStatus:         reviewStatusToWire(p.Review),
		ProcessingAlgorithms: p.ProcessingAlgorithms,
	}
	if p.PhaseHint != PhaseUnknown {
		hint := p.PhaseHint.String()
		wp.PhaseHint = &hint
	}
	if p.Uncertainty != nil {
		wp.UncertaintyBounds = &wireUncertaintyBound{
			LowerPercentile:     p.Uncertainty.LowerPercentile,
			LowerPerturbationUS: p.Uncertainty.LowerPerturbation.Microseconds(),
			UpperPercentile:     p.Uncertainty.UpperPercentile,
			UpperPerturbationUS: p.Uncertainty.UpperPerturbation.Microseconds(),
		}
	}
	return wire.Marshal(wire.TypePick, wp)
}

// Unmarshal decodes a CBOR-framed Pick message produced by Marshal.
func Unmarshal(data []byte) (Pick, error) {
	var wp wirePick
	if err := wire.Unmarshal(data, wire.TypePick, &wp); err != nil {
		return Pick{}, err
	}
	p := Pick{
		ChannelID: waveform.ChannelID{
			Network:      wp.Network,
			Station:      wp.Station,
			Channel:      wp.Channel,
			LocationCode: wp.LocationCode,
		},
		Time:                 time.UnixMicro(wp.TimeUS).UTC(),
		Identifier:           wp.Identifier,
		FirstMotion:          firstMotionFromWire(wp.FirstMotion),
		Review:               reviewStatusFromWire(wp.ReviewStatus),
		OriginalChannels:     wp.OriginalChannels,
		ProcessingAlgorithms: wp.ProcessingAlgorithms,
	}
	if wp.PhaseHint != nil {
		p.PhaseHint = phaseHintFromString(*wp.PhaseHint)
	}
	if wp.UncertaintyBounds != nil {
		p.Uncertainty = &UncertaintyBound{
			LowerPercentile:   wp.UncertaintyBounds.LowerPercentile,
			LowerPerturbation: time.Duration(wp.UncertaintyBounds.LowerPerturbationUS) * time.Microsecond,
			UpperPercentile:   wp.UncertaintyBounds.UpperPercentile,
			UpperPerturbation: time.Duration(wp.UncertaintyBounds.UpperPerturbationUS) * time.Microsecond,
		}
	}
	return p, p.Validate()
}

func firstMotionToWire(f FirstMotion) int8 {
	switch f {
	case FirstMotionUp:
		return 1
	case FirstMotionDown:
		return -1
	default:
		return 0
	}
}

func firstMotionFromWire(v int8) FirstMotion {
	switch v {
	case 1:
		return FirstMotionUp
	case -1:
		return FirstMotionDown
	default:
		return FirstMotionUnknown
	}
}

func reviewStatusToWire(r ReviewStatus) int8 {
	if r == Manual {
		return 1
	}
	return 0
}

func reviewStatusFromWire(v int8) ReviewStatus {
	if v == 1 {
		return Manual
	}
	return Automatic
}

func phaseHintFromString(s string) PhaseHint {
	switch s {
	case "P":
		return PhaseP
	case "S":
		return PhaseS
	default:
		return PhaseUnknown
	}
}
