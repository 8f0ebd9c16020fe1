package associator

import (
	"github.com/uofuseismo/urts-core/origin"
)

// Response is the associator's answer to a Request: the same identifier,
// a return code, the origins it formed, and any picks it could not
// associate with one.
type Response struct {
	Identifier   uint64
	ReturnCode   ReturnCode
	Origins      []*origin.Origin
	Unassociated []CandidatePick
}
