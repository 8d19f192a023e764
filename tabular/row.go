/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package tabular holds the schema-less rows returned by upstream sources.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

// Row is a single upstream record. Keys keep the order in which the source
// produced them; values are string, json.Number, float64, bool, nil or a
// nested JSON value.
type Row struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewRow returns an empty row.
func NewRow() Row {
	return Row{m: orderedmap.NewOrderedMap[string, any]()}
}

// RowOf builds a row from alternating key/value arguments.
func RowOf(pairs ...any) Row {
	row := NewRow()

	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}

		row.Set(key, pairs[i+1])
	}

	return row
}

// Set stores a value, keeping the original position of an existing key.
func (r *Row) Set(key string, value any) {
	if r.m == nil {
		r.m = orderedmap.NewOrderedMap[string, any]()
	}

	r.m.Set(key, value)
}

// Get returns the value stored under the exact key.
func (r Row) Get(key string) (any, bool) {
	if r.m == nil {
		return nil, false
	}

	return r.m.Get(key)
}

// Lookup finds a key case-insensitively and returns the stored key with its value.
func (r Row) Lookup(key string) (string, any, bool) {
	if value, ok := r.Get(key); ok {
		return key, value, true
	}

	if r.m == nil {
		return "", nil, false
	}

	for el := r.m.Front(); el != nil; el = el.Next() {
		if strings.EqualFold(el.Key, key) {
			return el.Key, el.Value, true
		}
	}

	return "", nil, false
}

// Len returns the number of columns.
func (r Row) Len() int {
	if r.m == nil {
		return 0
	}

	return r.m.Len()
}

// Keys returns the column names in source order.
func (r Row) Keys() []string {
	if r.m == nil {
		return nil
	}

	keys := make([]string, 0, r.m.Len())
	for el := r.m.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}

	return keys
}

// Each calls fn for every column in source order.
func (r Row) Each(fn func(key string, value any)) {
	if r.m == nil {
		return
	}

	for el := r.m.Front(); el != nil; el = el.Next() {
		fn(el.Key, el.Value)
	}
}

// MarshalJSON encodes the row as an object with keys in source order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	first := true
	var encodeErr error

	r.Each(func(key string, value any) {
		if encodeErr != nil {
			return
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := json.Marshal(key)
		if err != nil {
			encodeErr = err
			return
		}

		v, err := json.Marshal(value)
		if err != nil {
			encodeErr = err
			return
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	})

	if encodeErr != nil {
		return nil, encodeErr
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order and numbers as json.Number.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read row: %w", err)
	}

	if tok == nil {
		*r = Row{}
		return nil
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrRowNotObject
	}

	row := NewRow()

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read row key: %w", err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return ErrRowNotObject
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to read value of %q: %w", key, err)
		}

		row.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to close row: %w", err)
	}

	*r = row

	return nil
}

// IsNull reports whether a cell holds no usable value.
func IsNull(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

// Text renders scalar cells as strings. Nested values and nil yield false.
func Text(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
