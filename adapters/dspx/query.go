package dspx

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// queryBuilder keeps query parameters in insertion order. The dspx buyer reads some
// parameters positionally, so url.Values (which sorts on Encode) cannot be used.
type queryBuilder struct {
	keys   []string
	values map[string]string
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{values: make(map[string]string)}
}

// Set replaces the value of an existing key in place, or appends a new key.
func (q *queryBuilder) Set(key, value string) {
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
}

// SetIfEmpty only writes keys which are not present yet.
func (q *queryBuilder) SetIfEmpty(key, value string) {
	if !q.Has(key) {
		q.Set(key, value)
	}
}

func (q *queryBuilder) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

func (q *queryBuilder) Encode() string {
	var sb strings.Builder
	for i, key := range q.keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(encodeURIComponent(key))
		sb.WriteByte('=')
		sb.WriteString(encodeURIComponent(q.values[key]))
	}
	return sb.String()
}

var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s the way browsers do for a single query component:
// spaces become %20 and !'()*~ are left alone.
func encodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}

// flattenJSON walks value in document order and emits one bracketed key per scalar,
// e.g. {"geo":{"country":"DE"}} under "pfilter" emits pfilter[geo][country]=DE.
// Nulls and undecodable strings are skipped.
func flattenJSON(prefix string, value []byte, dataType jsonparser.ValueType, emit func(key, value string)) {
	switch dataType {
	case jsonparser.Object:
		jsonparser.ObjectEach(value, func(key []byte, v []byte, dt jsonparser.ValueType, _ int) error {
			flattenJSON(prefix+"["+string(key)+"]", v, dt, emit)
			return nil
		})
	case jsonparser.Array:
		i := 0
		jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
			flattenJSON(prefix+"["+strconv.Itoa(i)+"]", v, dt, emit)
			i++
		})
	case jsonparser.String:
		if s, err := jsonparser.ParseString(value); err == nil {
			emit(prefix, s)
		}
	case jsonparser.Number, jsonparser.Boolean:
		emit(prefix, string(value))
	}
}

// flattenObject flattens a raw JSON object under prefix. Anything else is ignored.
func flattenObject(prefix string, raw []byte, emit func(key, value string)) {
	if len(raw) == 0 {
		return
	}
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil || dataType != jsonparser.Object {
		return
	}
	flattenJSON(prefix, value, dataType, emit)
}
