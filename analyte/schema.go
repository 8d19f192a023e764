/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"regexp"
	"strings"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

var (
	pivotHeaderPattern = regexp.MustCompile(`^\d{1,4}[/-]\d{1,4}[/-]\d{1,4}$`)

	// A standalone number inside a label, e.g. "Progesterone 0.4 ng/mL".
	// "B12" does not qualify.
	embeddedValuePattern = regexp.MustCompile(`(?:^|\s)([-+]?\d+(?:[.,]\d+)?)(?:\s|$)`)
)

// minColumnScore is the share of non-null samples that must parse for a
// column to qualify as a time or value column.
const minColumnScore = 0.5

// DateColumns returns the headers of row that look like numeric dates.
func DateColumns(row tabular.Row) []string {
	var cols []string

	for _, key := range row.Keys() {
		if pivotHeaderPattern.MatchString(strings.TrimSpace(key)) {
			cols = append(cols, key)
		}
	}

	return cols
}

// DateScore returns the share of non-null values of key, among the first
// limit rows, that parse as dates, along with the number of non-null samples.
func DateScore(rows []tabular.Row, key string, limit int, dates DateParser) (float64, int) {
	return columnScore(rows, key, limit, func(v any) bool {
		_, ok := dates.ParseValue(v)
		return ok
	})
}

// NumericScore returns the share of non-null values of key, among the first
// limit rows, that parse as finite numbers, along with the number of non-null samples.
func NumericScore(rows []tabular.Row, key string, limit int) (float64, int) {
	return columnScore(rows, key, limit, func(v any) bool {
		_, ok := ParseNumber(v)
		return ok
	})
}

func columnScore(rows []tabular.Row, key string, limit int, accept func(any) bool) (float64, int) {
	if limit > len(rows) || limit <= 0 {
		limit = len(rows)
	}

	samples, hits := 0, 0

	for _, row := range rows[:limit] {
		value, ok := row.Get(key)
		if !ok || tabular.IsNull(value) {
			continue
		}

		samples++

		if accept(value) {
			hits++
		}
	}

	if samples == 0 {
		return 0, 0
	}

	return float64(hits) / float64(samples), samples
}

// EmbeddedMeasurement splits a label such as "Progesterone 0.4 ng/mL" into
// the text before the first standalone number and that number.
func EmbeddedMeasurement(value any) (string, float64, bool) {
	text, ok := value.(string)
	if !ok {
		return "", 0, false
	}

	loc := embeddedValuePattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, false
	}

	number, ok := ParseNumber(text[loc[2]:loc[3]])
	if !ok {
		return "", 0, false
	}

	return strings.TrimSpace(text[:loc[2]]), number, true
}

// Inferencer classifies rows as pivoted or longform.
type Inferencer struct {
	Keys  KeyNames
	Dates DateParser
}

// Infer classifies rows using the headers of the first row.
func (in Inferencer) Infer(rows []tabular.Row) (Schema, error) {
	if len(rows) == 0 {
		return Schema{}, ErrNoNumericSeries
	}

	if cols := DateColumns(rows[0]); len(cols) > 0 {
		return Schema{Kind: Pivoted, DateColumns: cols}, nil
	}

	headers := rows[0].Keys()

	timeKey := in.timeKey(rows, headers)

	if valueKey, ok := in.valueKey(rows, headers, timeKey); ok {
		return Schema{Kind: Longform, TimeKey: timeKey, ValueKey: valueKey}, nil
	}

	if labelKey, ok := in.embeddedKey(rows, headers, timeKey); ok {
		return Schema{Kind: Longform, TimeKey: timeKey, ValueKey: labelKey, Embedded: true}, nil
	}

	return Schema{Kind: Longform, TimeKey: timeKey}, ErrNoNumericSeries
}

func (in Inferencer) timeKey(rows []tabular.Row, headers []string) string {
	if key, ok := matchName(headers, in.Keys.Time, ""); ok {
		return key
	}

	for _, header := range headers {
		lower := strings.ToLower(header)
		for _, hint := range in.Keys.TimeHints {
			if strings.Contains(lower, strings.ToLower(hint)) {
				return header
			}
		}
	}

	for _, header := range headers {
		if score, samples := DateScore(rows, header, timeSampleRows, in.Dates); samples > 0 && score >= minColumnScore {
			return header
		}
	}

	if len(headers) == 0 {
		return ""
	}

	// Last resort: the first column. This is a guess and may pick a
	// non-temporal column; rows whose time cell does not parse are dropped
	// during assembly.
	return headers[0]
}

func (in Inferencer) valueKey(rows []tabular.Row, headers []string, timeKey string) (string, bool) {
	if key, ok := matchName(headers, in.Keys.Value, timeKey); ok {
		return key, true
	}

	for _, header := range headers {
		if header == timeKey || in.describesMeasurement(header) {
			continue
		}

		if score, samples := NumericScore(rows, header, valueSampleRows); samples >= 2 && score >= minColumnScore {
			return header, true
		}
	}

	return "", false
}

// describesMeasurement reports whether header holds metadata about the
// measurement (range bounds, unit, label, ids) rather than the value itself.
func (in Inferencer) describesMeasurement(header string) bool {
	for _, names := range [][]string{in.Keys.Ignore, in.Keys.Low, in.Keys.High, in.Keys.Unit, in.Keys.Label} {
		if containsFold(names, header) {
			return true
		}
	}

	return false
}

// embeddedKey finds a label column whose text carries the measurement.
func (in Inferencer) embeddedKey(rows []tabular.Row, headers []string, timeKey string) (string, bool) {
	for _, candidate := range in.Keys.Label {
		for _, header := range headers {
			if header == timeKey || !strings.EqualFold(header, candidate) {
				continue
			}

			score, samples := columnScore(rows, header, valueSampleRows, func(v any) bool {
				_, _, ok := EmbeddedMeasurement(v)
				return ok
			})
			if samples > 0 && score >= minColumnScore {
				return header, true
			}
		}
	}

	return "", false
}

// matchName returns the header equal to the highest-priority candidate.
func matchName(headers, candidates []string, exclude string) (string, bool) {
	for _, candidate := range candidates {
		for _, header := range headers {
			if header != exclude && strings.EqualFold(header, candidate) {
				return header, true
			}
		}
	}

	return "", false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}

	return false
}
