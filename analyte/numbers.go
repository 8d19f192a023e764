/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumber reads a finite number from a cell. Strings may use a comma as
// the decimal separator.
func ParseNumber(value any) (float64, bool) {
	var f float64

	switch v := value.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.ContainsAny(s, "xXpP_") {
			return 0, false
		}

		parsed, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}
