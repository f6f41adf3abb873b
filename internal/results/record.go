// Package results models the rows a query returns: ordered records, the
// dotted-key flattener, and the CSV rendering of a result set.
package results

import (
	"bytes"
	"encoding/json"
)

// Record is an ordered column→value mapping. Column order is the order keys
// were first set, which for driver rows is the database's column order.
type Record struct {
	keys   []string
	values map[string]any
}

func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r Record) Get(key string) (any, bool) {
	value, ok := r.values[key]
	return value, ok
}

func (r Record) Keys() []string {
	return r.keys
}

func (r Record) Len() int {
	return len(r.keys)
}

// MarshalJSON emits a JSON object with keys in record order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
