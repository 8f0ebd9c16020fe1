package incrementer

import (
	"github.com/uofuseismo/urts-core/wire"
)

type wireIncrementRequest struct {
	Item string `cbor:"item"`
}

type wireIncrementResponse struct {
	Item       string `cbor:"item"`
	Value      uint64 `cbor:"value"`
	ReturnCode int8   `cbor:"returnCode"`
}

type wireItemsResponse struct {
	Items []string `cbor:"items"`
}

// Marshal encodes r as a CBOR-framed IncrementRequest message.
func (r IncrementRequest) Marshal() ([]byte, error) {
	return wire.Marshal(wire.TypeIncrementRequest, wireIncrementRequest{Item: r.Item})
}

// UnmarshalIncrementRequest decodes a CBOR-framed IncrementRequest message.
func UnmarshalIncrementRequest(data []byte) (IncrementRequest, error) {
	var wr wireIncrementRequest
	if err := wire.Unmarshal(data, wire.TypeIncrementRequest, &wr); err != nil {
		return IncrementRequest{}, err
	}
	return IncrementRequest{Item: wr.Item}, nil
}

// Marshal encodes r as a CBOR-framed IncrementResponse message.
func (r IncrementResponse) Marshal() ([]byte, error) {
	return wire.Marshal(wire.TypeIncrementResponse, wireIncrementResponse{
		Item:       r.Item,
		Value:      r.Value,
		ReturnCode: int8(r.ReturnCode),
	})
}

// UnmarshalIncrementResponse decodes a CBOR-framed IncrementResponse
// message.
func UnmarshalIncrementResponse(data []byte) (IncrementResponse, error) {
	var wr wireIncrementResponse
	if err := wire.Unmarshal(data, wire.TypeIncrementResponse, &wr); err != nil {
		return IncrementResponse{}, err
	}
	return IncrementResponse{Item: wr.Item, Value: wr.Value, ReturnCode: ReturnCode(wr.ReturnCode)}, nil
}

// Marshal encodes r as a CBOR-framed ItemsRequest message.
func (r ItemsRequest) Marshal() ([]byte, error) {
	return wire.Marshal(wire.TypeItemsRequest, struct{}{})
}

// UnmarshalItemsRequest decodes a CBOR-framed ItemsRequest message.
func UnmarshalItemsRequest(data []byte) (ItemsRequest, error) {
	var payload struct{}
	if err := wire.Unmarshal(data, wire.TypeItemsRequest, &payload); err != nil {
		return ItemsRequest{}, err
	}
	return ItemsRequest{}, nil
}

// Marshal encodes r as a CBOR-framed ItemsResponse message.
func (r ItemsResponse) Marshal() ([]byte, error) {
	return wire.Marshal(wire.TypeItemsResponse, wireItemsResponse{Items: r.Items})
}

// UnmarshalItemsResponse decodes a CBOR-framed ItemsResponse message.
func UnmarshalItemsResponse(data []byte) (ItemsResponse, error) {
	var wr wireItemsResponse
	if err := wire.Unmarshal(data, wire.TypeItemsResponse, &wr); err != nil {
		return ItemsResponse{}, err
	}
	return ItemsResponse{Items: wr.Items}, nil
}
