/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

var (
	isoDatePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	numericDatePattern = regexp.MustCompile(`^(\d{1,4})[/-](\d{1,4})[/-](\d{1,4})$`)
	unixSecondsPattern = regexp.MustCompile(`^\d{10}$`)
)

// Timestamp layouts tried before falling back to numeric date disambiguation.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04",
}

// DateParser turns date-like strings into calendar dates at UTC midnight.
//
// Numeric dates A/B/C (or A-B-C) are read day-first unless B is greater than
// 12, in which case B must be the day and the string is read month-first. A
// four-digit A is read year-first. Two-digit years are taken as 20xx. With
// Strict set, strings where both A and B could be a month are rejected with
// ErrAmbiguousDate instead of defaulting to day-first.
type DateParser struct {
	Strict bool
}

// ParseDate parses s with the default, non-strict rules.
func ParseDate(s string) (time.Time, error) {
	return DateParser{}.Parse(s)
}

// Parse resolves s to a calendar date.
func (p DateParser) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if isoDatePattern.MatchString(s) {
		t, err := time.Parse(isoDateLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}

		return t, nil
	}

	m := numericDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	c, _ := strconv.Atoi(m[3])

	if len(m[1]) == 4 {
		return civilDate(a, b, c)
	}

	year := c

	switch len(m[3]) {
	case 1, 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	if b > 12 {
		return civilDate(year, a, b)
	}

	if p.Strict && a <= 12 && a != b {
		return time.Time{}, fmt.Errorf("%w: %q", ErrAmbiguousDate, s)
	}

	return civilDate(year, b, a)
}

// ParseValue resolves a time cell: ten-digit numbers are UNIX seconds,
// timestamps keep the calendar date they were written with, anything else
// goes through Parse.
func (p DateParser) ParseValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case json.Number, float64, int, int64:
		text, _ := tabular.Text(v)
		if unixSecondsPattern.MatchString(text) {
			return unixDate(text)
		}

		return time.Time{}, false
	case string:
		return p.parseText(v)
	default:
		return time.Time{}, false
	}
}

func (p DateParser) parseText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if unixSecondsPattern.MatchString(s) {
		return unixDate(s)
	}

	if t, err := p.Parse(s); err == nil {
		return t, true
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOf(t), true
		}
	}

	// "15/03/2024 08:30" and similar: the leading token carries the date.
	if fields := strings.Fields(s); len(fields) > 1 {
		if t, err := p.Parse(fields[0]); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func unixDate(text string) (time.Time, bool) {
	secs, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return dateOf(time.Unix(secs, 0).UTC()), true
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func civilDate(year, month, day int) (time.Time, error) {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}

	return t, nil
}
