package gateway

import (
	"encoding/json"

	"WProject/tools/errs"
)

// Frame categories. The wire shape is a JSON array [category, payload].
const (
	CategoryAuth = "0"
	CategoryData = "1"
)

// Auth notice statuses.
const (
	StatusWhoAreYou    = "WHOAREYOU"
	StatusSuccess      = "SUCCESS"
	StatusTokenExpired = "TOKENEXPIRED"
)

// Frame is one decoded inbound message. Payload stays raw until the
// category layer decides how to read it.
type Frame struct {
	Category string
	Payload  json.RawMessage
}

// ParseFrame decodes the 2-element array framing. Anything that is not an
// array of at least two elements is a protocol violation. A non-string
// category is not a violation: it decodes to the empty category and is
// passed to the next layer untouched.
func ParseFrame(raw []byte) (*Frame, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, errs.ErrInvalidData.WithDetail(err.Error())
	}
	if len(parts) < 2 {
		return nil, errs.ErrInvalidData.WithDetail("frame needs [category, payload]")
	}
	var category string
	if err := json.Unmarshal(parts[0], &category); err != nil {
		category = ""
	}
	return &Frame{Category: category, Payload: parts[1]}, nil
}

// Request is the decoded payload of a data frame.
type Request struct {
	Request string
	Data    any
	HasData bool
}

// ParseRequest validates the data-frame schema: "request" must be present
// and a string; "data" is optional. Violations are protocol violations.
func ParseRequest(payload json.RawMessage) (*Request, error) {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, errs.ErrInvalidData.WithDetail(err.Error())
	}
	v, ok := m["request"]
	if !ok {
		return nil, errs.ErrInvalidData.WithDetail("missing request field")
	}
	name, ok := v.(string)
	if !ok {
		return nil, errs.ErrInvalidData.WithDetail("request field not a string")
	}
	data, hasData := m["data"]
	return &Request{Request: name, Data: data, HasData: hasData}, nil
}

// EncodeAuth builds an outbound auth notice ["0", status].
func EncodeAuth(status string) []byte {
	b, _ := json.Marshal([2]any{CategoryAuth, status})
	return b
}

// EncodeData builds an outbound data frame ["1", envelope].
func EncodeData(r *Response) ([]byte, error) {
	return json.Marshal([2]any{CategoryData, r})
}
