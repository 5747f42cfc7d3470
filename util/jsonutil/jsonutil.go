package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"
)

var errInvalidJSON = errors.New("invalid JSON")

// Unmarshal decodes data into v. Errors are stripped of the Go type names that
// encoding/json puts in them, so they can be returned to publishers as-is.
func Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return tidyError(err)
	}
	return nil
}

// UnmarshalValid is like Unmarshal but rejects malformed documents before decoding,
// so a partially valid payload never leaves v half populated.
func UnmarshalValid(data []byte, v interface{}) error {
	if !json.Valid(data) {
		return errInvalidJSON
	}
	return Unmarshal(data, v)
}

// Marshal is json.Marshal without HTML escaping. Ad markup must survive untouched.
func Marshal(v interface{}) ([]byte, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, tidyError(err)
	}
	return []byte(strings.TrimSuffix(b.String(), "\n")), nil
}

func tidyError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			return errors.New("cannot unmarshal " + typeErr.Field + ": unexpected " + typeErr.Value)
		}
		return errors.New("cannot unmarshal: unexpected " + typeErr.Value)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return errors.New("malformed JSON: " + syntaxErr.Error())
	}
	return err
}
