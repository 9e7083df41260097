package decode

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// To decodes a dynamic payload (as produced by encoding/json into any)
// into a typed struct T. Field names follow the `json` tag. Input is
// weakly typed: "123" -> int, 1.0 -> int64, and so on.
func To[T any](v any) (*T, error) {
	if v == nil {
		return nil, errors.New("payload is nil")
	}
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new decoder")
	}
	if err := dec.Decode(v); err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	return &out, nil
}
