/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"sort"
	"strings"
	"time"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

const unknownAnalyte = "unknown"

// Assembler turns classified rows into series.
type Assembler struct {
	Keys  KeyNames
	Dates DateParser
}

// Pivoted reads one point per row and date column, grouping rows by their
// analyte label. Series come out in the order their label first appears.
func (a Assembler) Pivoted(rows []tabular.Row, dateColumns []string) ([]Series, error) {
	headerDates := make(map[string]time.Time, len(dateColumns))

	for _, col := range dateColumns {
		date, err := a.Dates.Parse(col)
		if err != nil {
			logger.Debug("skipping date column", "column", col, "error", err)
			continue
		}

		headerDates[col] = date
	}

	var order []string
	groups := make(map[string]*Series)

	for _, row := range rows {
		label, ok := textField(row, a.Keys.Label)
		if !ok {
			label = unknownAnalyte
		}

		group, exists := groups[label]
		if !exists {
			group = &Series{Name: label}
			groups[label] = group
			order = append(order, label)
		}

		if group.Unit == nil {
			if unit, ok := textField(row, a.Keys.Unit); ok {
				group.Unit = &unit
			}
		}

		for _, col := range dateColumns {
			date, ok := headerDates[col]
			if !ok {
				continue
			}

			cell, _ := row.Get(col)

			value, ok := ParseNumber(cell)
			if !ok {
				continue
			}

			group.Points = append(group.Points, Point{Date: date, Value: value})
		}
	}

	series := make([]Series, 0, len(order))

	for _, label := range order {
		group := groups[label]
		if len(group.Points) == 0 {
			continue
		}

		sortPoints(group.Points)
		series = append(series, *group)
	}

	if len(series) == 0 {
		return nil, ErrNoNumericPoints
	}

	return series, nil
}

// Longform reads one point per row. The series is named after the first
// row's label, else fallbackName.
func (a Assembler) Longform(rows []tabular.Row, timeKey, valueKey, fallbackName string) (Series, error) {
	name := fallbackName
	if len(rows) > 0 {
		if label, ok := textField(rows[0], a.Keys.Label); ok {
			name = label
		}
	}

	return a.longform(rows, timeKey, name, func(row tabular.Row) (float64, bool) {
		raw, _ := row.Get(valueKey)
		return ParseNumber(raw)
	})
}

// LongformEmbedded reads values written inside the labelKey text, as in
// "Progesterone 0.4 ng/mL". The series is named after the text before the
// number in the first row, else fallbackName.
func (a Assembler) LongformEmbedded(rows []tabular.Row, timeKey, labelKey, fallbackName string) (Series, error) {
	name := fallbackName
	if len(rows) > 0 {
		raw, _ := rows[0].Get(labelKey)
		if label, _, ok := EmbeddedMeasurement(raw); ok && label != "" {
			name = label
		}
	}

	return a.longform(rows, timeKey, name, func(row tabular.Row) (float64, bool) {
		raw, _ := row.Get(labelKey)
		_, value, ok := EmbeddedMeasurement(raw)
		return value, ok
	})
}

func (a Assembler) longform(rows []tabular.Row, timeKey, name string, read func(tabular.Row) (float64, bool)) (Series, error) {
	series := Series{Name: name}
	if series.Name == "" {
		series.Name = unknownAnalyte
	}

	for _, row := range rows {
		rawTime, _ := row.Get(timeKey)

		date, ok := a.Dates.ParseValue(rawTime)
		if !ok {
			continue
		}

		value, ok := read(row)
		if !ok {
			continue
		}

		if series.Unit == nil {
			if unit, ok := textField(row, a.Keys.Unit); ok {
				series.Unit = &unit
			}
		}

		series.Points = append(series.Points, Point{Date: date, Value: value})
	}

	if len(series.Points) == 0 {
		return series, ErrNoNumericPoints
	}

	sortPoints(series.Points)

	return series, nil
}

// sortPoints orders by date; same-day points keep their source order.
func sortPoints(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}

func textField(row tabular.Row, keys []string) (string, bool) {
	for _, key := range keys {
		_, value, ok := row.Lookup(key)
		if !ok {
			continue
		}

		text, ok := tabular.Text(value)
		if !ok {
			continue
		}

		if text = strings.TrimSpace(text); text != "" {
			return text, true
		}
	}

	return "", false
}
