// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package analyte

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2024-01-31", want: day(2024, time.January, 31)},
		{input: "15/03/2024", want: day(2024, time.March, 15)},
		{input: "03/05/2024", want: day(2024, time.May, 3)},
		{input: "03/15/2024", want: day(2024, time.March, 15)},
		{input: "6-8-11", want: day(2011, time.August, 6)},
		{input: "31-12-24", want: day(2024, time.December, 31)},
		{input: "2024/1/5", want: day(2024, time.January, 5)},
		{input: " 01/02/2023 ", want: day(2023, time.February, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDate(tt.input)
			if err != nil {
				t.Fatalf("ParseDate(%q) failed: %v", tt.input, err)
			}

			if !got.Equal(tt.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDateISORoundTrip(t *testing.T) {
	t.Parallel()

	got, err := ParseDate("2024-01-31")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}

	if s := got.Format("2006-01-02"); s != "2024-01-31" {
		t.Fatalf("round trip produced %q", s)
	}
}

func TestParseDateRejectsImpossibleDates(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"31/02/2024", "13/13/2024", "2024-13-01", "00/01/2024", "1/2/345", "hello", "2024-02-30", ""} {
		if _, err := ParseDate(input); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) expected ErrInvalidDate, got %v", input, err)
		}
	}
}

func TestStrictDateParserRejectsAmbiguousDates(t *testing.T) {
	t.Parallel()

	strict := DateParser{Strict: true}

	if _, err := strict.Parse("03/05/2024"); !errors.Is(err, ErrAmbiguousDate) {
		t.Fatalf("expected ErrAmbiguousDate, got %v", err)
	}

	for input, want := range map[string]time.Time{
		"15/03/2024": day(2024, time.March, 15),
		"03/15/2024": day(2024, time.March, 15),
		"05/05/2024": day(2024, time.May, 5),
		"2024-03-05": day(2024, time.March, 5),
	} {
		got, err := strict.Parse(input)
		if err != nil {
			t.Fatalf("strict Parse(%q) failed: %v", input, err)
		}

		if !got.Equal(want) {
			t.Fatalf("strict Parse(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  time.Time
		ok    bool
	}{
		{name: "unix seconds string", value: "1700000000", want: day(2023, time.November, 14), ok: true},
		{name: "unix seconds number", value: json.Number("1700000000"), want: day(2023, time.November, 14), ok: true},
		{name: "unix seconds float", value: float64(1700000000), want: day(2023, time.November, 14), ok: true},
		{name: "rfc3339 keeps written date", value: "2024-03-01T23:30:00-03:00", want: day(2024, time.March, 1), ok: true},
		{name: "sql timestamp", value: "2024-03-01 08:15:00", want: day(2024, time.March, 1), ok: true},
		{name: "date with time", value: "15/03/2024 08:30", want: day(2024, time.March, 15), ok: true},
		{name: "plain iso", value: "2011-08-06", want: day(2011, time.August, 6), ok: true},
		{name: "short number", value: json.Number("120"), ok: false},
		{name: "text", value: "Progesterone", ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := DateParser{}.ParseValue(tt.value)
			if ok != tt.ok {
				t.Fatalf("ParseValue(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}

			if ok && !got.Equal(tt.want) {
				t.Fatalf("ParseValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
