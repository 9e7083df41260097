package gateway

import (
	"encoding/json"
	"reflect"

	"WProject/tools/errs"
)

// Result tags an outbound envelope.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailed  Result = "failed"
)

// Response is the outbound envelope for data frames: a name, a data
// mapping, and a success/failure tag. Created per message, never mutated.
type Response struct {
	Response string         `json:"response"`
	Data     map[string]any `json:"data"`
	Result   Result         `json:"result"`
}

func NewSuccess(name string, data map[string]any) *Response {
	return &Response{Response: name, Data: data, Result: ResultSuccess}
}

func NewFailed(name string, data map[string]any) *Response {
	return &Response{Response: name, Data: data, Result: ResultFailed}
}

// Equal compares envelopes by structural value.
func (r *Response) Equal(o *Response) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Response == o.Response && r.Result == o.Result &&
		reflect.DeepEqual(r.Data, o.Data)
}

// ParseResponse decodes a serialized envelope.
func ParseResponse(raw []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, errs.ErrInvalidData.WithDetail(err.Error())
	}
	return &r, nil
}
