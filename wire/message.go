// Package wire defines the CBOR wire envelope shared by every URTS message
// type (packets, probability packets, picks, origins, and the associator's
// request/response pair), grounded on the source project's
// UMPS::MessageFormats::IMessage contract: every message knows its own
// type tag and version and can round-trip itself to and from bytes.
package wire

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// MessageVersion is the wire format version stamped on every message in
// this package. Bumping it is a breaking-change signal to subscribers.
const MessageVersion = "1.0.0"

// Message types, one per CBOR schema in the external interface section.
const (
	TypeDataPacket          = "URTS::Broadcasts::Internal::DataPacket"
	TypeProbabilityPacket   = "URTS::Broadcasts::Internal::ProbabilityPacket"
	TypePick                = "URTS::Broadcasts::Internal::Pick"
	TypeOrigin              = "URTS::Broadcasts::Internal::Origin"
	TypeAssociationRequest  = "URTS::Services::Scalable::Associators::AssociationRequest"
	TypeAssociationResponse = "URTS::Services::Scalable::Associators::AssociationResponse"
	TypeIncrementRequest    = "URTS::Services::Standalone::Incrementer::IncrementRequest"
	TypeIncrementResponse   = "URTS::Services::Standalone::Incrementer::IncrementResponse"
	TypeItemsRequest        = "URTS::Services::Standalone::Incrementer::ItemsRequest"
	TypeItemsResponse       = "URTS::Services::Standalone::Incrementer::ItemsResponse"
)

// Message describes a wire type's own type/version tag, mirroring the
// source project's getMessageType/getMessageVersion contract. pick.Pick,
// origin.Origin, and the associator Request and Response implement it; the
// incrementer types do not. CBOR serialization is each type's own Marshal.
type Message interface {
	MessageType() string
	MessageVersion() string
}

// Envelope is the outermost CBOR map every message is wrapped in: a
// MessageType/MessageVersion pair followed by the type-specific payload.
// Subscribers decode the envelope first to dispatch on MessageType before
// decoding Payload into the concrete Go type.
type Envelope struct {
	MessageType    string          `cbor:"messageType"`
	MessageVersion string          `cbor:"messageVersion"`
	Payload        cbor.RawMessage `cbor:"payload"`
}

// Marshal wraps payload (any CBOR-taggable struct) in an Envelope carrying
// msgType and MessageVersion, then encodes the whole thing to bytes.
func Marshal(msgType string, payload interface{}) ([]byte, error) {
	body, err := cbor.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}
	env := Envelope{
		MessageType:    msgType,
		MessageVersion: MessageVersion,
		Payload:        body,
	}
	out, err := cbor.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal envelope")
	}
	return out, nil
}

// Unmarshal decodes the outer envelope and, if its MessageType matches
// wantType, decodes Payload into out.
func Unmarshal(data []byte, wantType string, out interface{}) error {
	var env Envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "malformed message envelope")
	}
	if env.MessageType != wantType {
		return errors.Errorf("unexpected message type %q (wanted %q)", env.MessageType, wantType)
	}
	if err := cbor.Unmarshal(env.Payload, out); err != nil {
		return errors.Wrap(err, "malformed message payload")
	}
	return nil
}

// PeekType decodes only the envelope header, letting a subscriber route
// the message to the right decoder without parsing the full payload
// twice.
func PeekType(data []byte) (msgType string, err error) {
	var env Envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return "", errors.Wrap(err, "malformed message envelope")
	}
	return env.MessageType, nil
}
