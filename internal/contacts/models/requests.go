package models

import (
	"encoding/json"
	"regexp"

	dErrors "contacts/pkg/domain-errors"

	"github.com/microcosm-cc/bluemonday"
)

var (
	accountNumPattern = regexp.MustCompile(`^[0-9]{10}$`)
	routingNumPattern = regexp.MustCompile(`^[0-9]{9}$`)
	// Labels are 1-30 chars, alphanumeric and spaces, no leading space.
	labelPattern = regexp.MustCompile(`^[0-9a-zA-Z][0-9a-zA-Z ]{0,29}$`)

	// strict strips all markup from free-text fields. Policies are safe for
	// concurrent use.
	strict = bluemonday.StrictPolicy()
)

// NewContactRequest is a candidate contact decoded from a request body.
// Pointer fields distinguish an explicit null (or wrong-typed value) from a
// usable value; hasAllFields records whether every required key was present.
type NewContactRequest struct {
	Label      *string
	AccountNum *string
	RoutingNum *string
	IsExternal *bool

	hasAllFields bool
}

// DecodeNewContact decodes a JSON payload into a NewContactRequest and
// sanitizes every string field. Only the four contact fields are carried
// over; anything else in the payload is dropped. A field whose value cannot
// be decoded into its expected type is treated the same as null, so it fails
// the corresponding validation rule rather than leaking a decode error.
func DecodeNewContact(body []byte) (*NewContactRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid request body")
	}

	req := &NewContactRequest{hasAllFields: true}
	for _, field := range []string{"label", "account_num", "routing_num", "is_external"} {
		if _, ok := raw[field]; !ok {
			req.hasAllFields = false
		}
	}

	req.Label = decodeString(raw["label"])
	req.AccountNum = decodeString(raw["account_num"])
	req.RoutingNum = decodeString(raw["routing_num"])
	if v, ok := raw["is_external"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			req.IsExternal = &b
		}
	}

	req.Sanitize()
	return req, nil
}

func decodeString(v json.RawMessage) *string {
	if v == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil
	}
	return &s
}

// Sanitize strips markup and script content from every string field. It runs
// before validation so the patterns see cleaned text, and before persistence
// so stored labels cannot carry injected content.
func (r *NewContactRequest) Sanitize() {
	for _, f := range []**string{&r.Label, &r.AccountNum, &r.RoutingNum} {
		if *f != nil {
			cleaned := strict.Sanitize(**f)
			*f = &cleaned
		}
	}
}

// Validate enforces the structural rules on a candidate contact. Rules are
// checked in a fixed order and short-circuit on the first failure so error
// messages are deterministic.
func (r *NewContactRequest) Validate(localRoutingNum string) error {
	if !r.hasAllFields {
		return dErrors.New(dErrors.CodeValidation, "missing required field(s)")
	}
	if r.AccountNum == nil || !accountNumPattern.MatchString(*r.AccountNum) {
		return dErrors.New(dErrors.CodeValidation, "invalid account number")
	}
	if r.RoutingNum == nil || !routingNumPattern.MatchString(*r.RoutingNum) {
		return dErrors.New(dErrors.CodeValidation, "invalid routing number")
	}
	// External accounts cannot claim the local institution's routing number.
	if r.IsExternal != nil && *r.IsExternal && *r.RoutingNum == localRoutingNum {
		return dErrors.New(dErrors.CodeValidation, "invalid routing number")
	}
	if r.Label == nil || !labelPattern.MatchString(*r.Label) {
		return dErrors.New(dErrors.CodeValidation, "invalid account label")
	}
	return nil
}

// ToContact builds the persistable Contact owned by username. It must only
// be called after Validate has passed.
func (r *NewContactRequest) ToContact(username string) Contact {
	isExternal := false
	if r.IsExternal != nil {
		isExternal = *r.IsExternal
	}
	return Contact{
		Username:   username,
		Label:      *r.Label,
		AccountNum: *r.AccountNum,
		RoutingNum: *r.RoutingNum,
		IsExternal: isExternal,
	}
}
