package associator

import (
	"time"

	"github.com/uofuseismo/urts-core/origin"
	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/waveform"
	"github.com/uofuseismo/urts-core/wire"
)

type wireCandidatePick struct {
	Network         string `cbor:"network"`
	Station         string `cbor:"station"`
	Channel         string `cbor:"channel"`
	LocationCode    string `cbor:"locationCode"`
	TimeUS          int64  `cbor:"time"`
	PhaseHint       string `cbor:"phaseHint"`
	StandardErrorUS int64  `cbor:"standardError"`
	Identifier      uint64 `cbor:"identifier"`
}

type wireRequest struct {
	Identifier uint64              `cbor:"identifier"`
	Picks      []wireCandidatePick `cbor:"picks"`
}

// MessageType identifies this as an AssociationRequest message on the wire.
func (r Request) MessageType() string { return wire.TypeAssociationRequest }

// MessageVersion is the shared wire format version.
func (r Request) MessageVersion() string { return wire.MessageVersion }

// Marshal encodes r as a CBOR-framed AssociationRequest message.
func (r Request) Marshal() ([]byte, error) {
	wr := wireRequest{Identifier: r.Identifier}
	for _, p := range r.Picks {
		wr.Picks = append(wr.Picks, wireCandidatePick{
			Network:         p.ChannelID.Network,
			Station:         p.ChannelID.Station,
			Channel:         p.ChannelID.Channel,
			LocationCode:    p.ChannelID.LocationCode,
			TimeUS:          p.Time.UnixMicro(),
			PhaseHint:       p.PhaseHint.String(),
			StandardErrorUS: p.StandardError.Microseconds(),
			Identifier:      p.Identifier,
		})
	}
	return wire.Marshal(wire.TypeAssociationRequest, wr)
}

// UnmarshalRequest decodes a CBOR-framed AssociationRequest message
// produced by Marshal.
func UnmarshalRequest(data []byte) (Request, error) {
	var wr wireRequest
	if err := wire.Unmarshal(data, wire.TypeAssociationRequest, &wr); err != nil {
		return Request{}, err
	}
	req := Request{Identifier: wr.Identifier}
	for _, wp := range wr.Picks {
		req.Picks = append(req.Picks, CandidatePick{
			ChannelID: waveform.ChannelID{
				Network:      wp.Network,
				Station:      wp.Station,
				Channel:      wp.Channel,
				LocationCode: wp.LocationCode,
			},
			Time:          time.UnixMicro(wp.TimeUS).UTC(),
			PhaseHint:     phaseFromString(wp.PhaseHint),
			StandardError: time.Duration(wp.StandardErrorUS) * time.Microsecond,
			Identifier:    wp.Identifier,
		})
	}
	return req, req.Validate()
}

func phaseFromString(s string) pick.PhaseHint {
	switch s {
	case "P":
		return pick.PhaseP
	case "S":
		return pick.PhaseS
	default:
		return pick.PhaseUnknown
	}
}

type wireResponse struct {
	Identifier   uint64              `cbor:"identifier"`
	ReturnCode   int8                `cbor:"returnCode"`
	Origins      [][]byte            `cbor:"origins"`
	Unassociated []wireCandidatePick `cbor:"unassociated"`
}

// MessageType identifies this as an AssociationResponse message on the
// wire.
func (r Response) MessageType() string { return wire.TypeAssociationResponse }

// MessageVersion is the shared wire format version.
func (r Response) MessageVersion() string { return wire.MessageVersion }

// Marshal encodes r as a CBOR-framed AssociationResponse message. Origins
// are nested by reusing their own Origin wire encoding.
func (r Response) Marshal() ([]byte, error) {
	wr := wireResponse{Identifier: r.Identifier, ReturnCode: int8(r.ReturnCode)}
	for _, o := range r.Origins {
		encoded, err := o.Marshal()
		if err != nil {
			return nil, err
		}
		wr.Origins = append(wr.Origins, encoded)
	}
	for _, p := range r.Unassociated {
		wr.Unassociated = append(wr.Unassociated, wireCandidatePick{
			Network:         p.ChannelID.Network,
			Station:         p.ChannelID.Station,
			Channel:         p.ChannelID.Channel,
			LocationCode:    p.ChannelID.LocationCode,
			TimeUS:          p.Time.UnixMicro(),
			PhaseHint:       p.PhaseHint.String(),
			StandardErrorUS: p.StandardError.Microseconds(),
			Identifier:      p.Identifier,
		})
	}
	return wire.Marshal(wire.TypeAssociationResponse, wr)
}

// UnmarshalResponse decodes a CBOR-framed AssociationResponse message
// produced by Marshal.
func UnmarshalResponse(data []byte) (Response, error) {
	var wr wireResponse
	if err := wire.Unmarshal(data, wire.TypeAssociationResponse, &wr); err != nil {
		return Response{}, err
	}
	resp := Response{Identifier: wr.Identifier, ReturnCode: ReturnCode(wr.ReturnCode)}
	for _, encoded := range wr.Origins {
		o, err := origin.Unmarshal(encoded)
		if err != nil {
			return Response{}, err
		}
		resp.Origins = append(resp.Origins, o)
	}
	for _, wp := range wr.Unassociated {
		resp.Unassociated = append(resp.Unassociated, CandidatePick{
			ChannelID: waveform.ChannelID{
				Network:      wp.Network,
				Station:      wp.Station,
				Channel:      wp.Channel,
				LocationCode: wp.LocationCode,
			},
			Time:          time.UnixMicro(wp.TimeUS).UTC(),
			PhaseHint:     phaseFromString(wp.PhaseHint),
			StandardError: time.Duration(wp.StandardErrorUS) * time.Microsecond,
			Identifier:    wp.Identifier,
		})
	}
	return resp, nil
}
