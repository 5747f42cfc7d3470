package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// IntString accepts either a JSON string or a JSON integer and keeps it as a string.
// Publishers send placement ids both ways.
type IntString string

func (st *IntString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return errors.New("expected a string or an integer, got null")
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*st = IntString(s)
		return nil
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return errors.New("expected a string or an integer, got " + string(b))
	}
	*st = IntString(strconv.FormatInt(i, 10))
	return nil
}
