/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"regexp"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

// rangeTextPattern matches "low - high" (hyphen or en dash) that is not part
// of a longer numeric token such as a date.
var rangeTextPattern = regexp.MustCompile(`(?:^|[^0-9.,/\-–])(\d+(?:[.,]\d+)?)\s*[-–]\s*(\d+(?:[.,]\d+)?)(?:$|[^0-9/\-–])`)

// RangeExtractor recovers a reference range from resolved rows.
type RangeExtractor struct {
	Keys KeyNames
}

// Extract looks for explicit low/high columns first. The scan stops at the
// first row where either side is present, so the result can be half-open even
// if a later row carries the other side. Without explicit columns it takes the
// first "low - high" text found in any string cell. Returns nil when nothing
// was found.
func (x RangeExtractor) Extract(rows []tabular.Row) (rr *ReferenceRange) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("reference range scan panicked", "panic", r)
			rr = nil
		}
	}()

	if found := x.explicit(rows); found != nil {
		return found
	}

	return x.fromText(rows)
}

func (x RangeExtractor) explicit(rows []tabular.Row) *ReferenceRange {
	for _, row := range rows {
		low, hasLow := firstNumber(row, x.Keys.Low)
		high, hasHigh := firstNumber(row, x.Keys.High)

		if !hasLow && !hasHigh {
			continue
		}

		var rr ReferenceRange
		if hasLow {
			rr.Low = &low
		}
		if hasHigh {
			rr.High = &high
		}

		return &rr
	}

	return nil
}

func (x RangeExtractor) fromText(rows []tabular.Row) *ReferenceRange {
	for _, row := range rows {
		var found *ReferenceRange

		row.Each(func(_ string, value any) {
			if found != nil {
				return
			}

			text, ok := value.(string)
			if !ok {
				return
			}

			found = ParseRangeText(text)
		})

		if found != nil {
			return found
		}
	}

	return nil
}

// ParseRangeText extracts the first "low - high" pair from free text.
func ParseRangeText(text string) *ReferenceRange {
	m := rangeTextPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	low, okLow := ParseNumber(m[1])
	high, okHigh := ParseNumber(m[2])

	if !okLow || !okHigh {
		return nil
	}

	return &ReferenceRange{Low: &low, High: &high}
}

func firstNumber(row tabular.Row, keys []string) (float64, bool) {
	for _, key := range keys {
		_, value, ok := row.Lookup(key)
		if !ok {
			continue
		}

		if f, ok := ParseNumber(value); ok {
			return f, true
		}
	}

	return 0, false
}
