/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tabular

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeRows reads a JSON array of objects, stopping after limit rows when
// limit is positive. The remainder of the stream is left unread.
func DecodeRows(r io.Reader, limit int) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, ErrRowsNotArray
	}

	var rows []Row

	for dec.More() {
		if limit > 0 && len(rows) >= limit {
			break
		}

		var row Row
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", len(rows), err)
		}

		if row.Len() == 0 {
			continue
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// DecodeRow decodes a single JSON object.
func DecodeRow(data []byte) (Row, error) {
	var row Row
	if err := row.UnmarshalJSON(data); err != nil {
		return Row{}, err
	}

	return row, nil
}
