/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

// Request describes which analytes to resolve and how.
type Request struct {
	// Analytes are matched case-insensitively, in order.
	Analytes []string
	// CardID selects a saved query on the BI service.
	CardID *int
	// SkipPrimary bypasses the BI card source and goes straight to the fallback tables.
	SkipPrimary bool
	Debug       bool
	// Prompt enables summarization of the assembled series.
	Prompt string
	// CustomData is summarized as-is instead of resolving sources.
	CustomData   any
	CustomPrompt string
}

// Names returns the requested analytes with blanks and case-insensitive duplicates removed.
func (r Request) Names() []string {
	seen := make(map[string]struct{}, len(r.Analytes))
	names := make([]string, 0, len(r.Analytes))

	for _, name := range r.Analytes {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}

		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		names = append(names, trimmed)
	}

	return names
}

// Point is a single dated observation.
type Point struct {
	Date  time.Time
	Value float64
}

type pointJSON struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{Date: p.Date.Format(isoDateLayout), Value: p.Value})
}

// UnmarshalJSON accepts the format produced by MarshalJSON.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw pointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := time.Parse(isoDateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, raw.Date)
	}

	p.Date = date
	p.Value = raw.Value

	return nil
}

// Series is the chronological set of points for one analyte.
type Series struct {
	Name   string  `json:"name"`
	Unit   *string `json:"unit,omitempty"`
	Points []Point `json:"points"`
}

// ReferenceRange holds clinical bounds; either side may be missing.
type ReferenceRange struct {
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
}

// String formats the range the way it is shown to the completion service.
func (r ReferenceRange) String() string {
	switch {
	case r.Low != nil && r.High != nil:
		return fmt.Sprintf("%g - %g", *r.Low, *r.High)
	case r.Low != nil:
		return fmt.Sprintf("> %g", *r.Low)
	case r.High != nil:
		return fmt.Sprintf("< %g", *r.High)
	default:
		return ""
	}
}

// SchemaKind tells how measurements are laid out in the rows.
type SchemaKind int

const (
	// Pivoted rows carry one column per date.
	Pivoted SchemaKind = iota
	// Longform rows carry one observation each, with time and value columns.
	Longform
)

func (k SchemaKind) String() string {
	switch k {
	case Pivoted:
		return "pivoted"
	case Longform:
		return "longform"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the kind by name.
func (k SchemaKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Schema is the layout inferred from a row sample.
type Schema struct {
	Kind        SchemaKind `json:"kind"`
	DateColumns []string   `json:"dateColumns,omitempty"`
	TimeKey     string     `json:"timeKey,omitempty"`
	ValueKey    string     `json:"valueKey,omitempty"`
	// Embedded means ValueKey is a label column with the value inside its text.
	Embedded    bool       `json:"embedded,omitempty"`
}
