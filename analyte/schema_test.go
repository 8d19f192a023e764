// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package analyte

import (
	"errors"
	"reflect"
	"testing"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

func newInferencer() Inferencer {
	return Inferencer{Keys: DefaultKeyNames()}
}

func TestInferPivoted(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("exam", "LDL", "2011-08-06", "120", "01/01/2012", "140", "notes", "fasting"),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.Kind != Pivoted {
		t.Fatalf("expected pivoted schema, got %v", schema.Kind)
	}

	want := []string{"2011-08-06", "01/01/2012"}
	if !reflect.DeepEqual(schema.DateColumns, want) {
		t.Fatalf("DateColumns = %v, want %v", schema.DateColumns, want)
	}
}

func TestInferLongformByName(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("id", 1, "Resultado", "0,4", "Data", "2024-01-10"),
		tabular.RowOf("id", 2, "Resultado", "0,6", "Data", "2024-02-10"),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.Kind != Longform || schema.TimeKey != "Data" || schema.ValueKey != "Resultado" {
		t.Fatalf("unexpected schema %+v", schema)
	}
}

func TestInferLongformTimeKeyByHint(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("label", "TSH", "sampled_date_utc", "2024-01-10", "reading", "2.1"),
		tabular.RowOf("label", "TSH", "sampled_date_utc", "2024-03-10", "reading", "2.4"),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.TimeKey != "sampled_date_utc" {
		t.Fatalf("TimeKey = %q", schema.TimeKey)
	}

	if schema.ValueKey != "reading" {
		t.Fatalf("ValueKey = %q", schema.ValueKey)
	}
}

func TestInferLongformTimeKeyByScore(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("label", "TSH", "when", "10/01/2024", "reading", "2.1"),
		tabular.RowOf("label", "TSH", "when", "garbage", "reading", "2.4"),
		tabular.RowOf("label", "TSH", "when", "1700000000", "reading", "2.2"),
		tabular.RowOf("label", "TSH", "when", nil, "reading", "2.3"),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.TimeKey != "when" {
		t.Fatalf("TimeKey = %q", schema.TimeKey)
	}
}

func TestInferLongformFallsBackToFirstColumn(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("label", "TSH", "reading", "2.1"),
		tabular.RowOf("label", "TSH", "reading", "2.4"),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.TimeKey != "label" || schema.ValueKey != "reading" {
		t.Fatalf("unexpected schema %+v", schema)
	}
}

func TestInferValueKeySkipsIdentifiers(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("id", 10, "date", "2024-01-10", "reading", "2.1"),
		tabular.RowOf("id", 11, "date", "2024-02-10", "reading", "2.4"),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.ValueKey != "reading" {
		t.Fatalf("ValueKey = %q", schema.ValueKey)
	}
}

func TestInferValueKeyNeedsTwoSamples(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("date", "2024-01-10", "reading", "2.1"),
		tabular.RowOf("date", "2024-02-10", "reading", nil),
	}

	_, err := newInferencer().Infer(rows)
	if !errors.Is(err, ErrNoNumericSeries) {
		t.Fatalf("expected ErrNoNumericSeries, got %v", err)
	}
}

func TestInferWithoutNumericColumn(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("date", "2024-01-10", "comment", "positive"),
		tabular.RowOf("date", "2024-02-10", "comment", "negative"),
	}

	_, err := newInferencer().Infer(rows)
	if !errors.Is(err, ErrNoNumericSeries) {
		t.Fatalf("expected ErrNoNumericSeries, got %v", err)
	}
}

func TestNumericScore(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("v", "1,5"),
		tabular.RowOf("v", "n/a"),
		tabular.RowOf("v", nil),
		tabular.RowOf("v", 3),
		tabular.RowOf("other", 3),
	}

	score, samples := NumericScore(rows, "v", 100)
	if samples != 3 {
		t.Fatalf("expected 3 samples, got %d", samples)
	}

	assertFloatClose(t, score, 2.0/3.0)

	score, samples = NumericScore(rows, "v", 1)
	if samples != 1 {
		t.Fatalf("expected limit to cap samples, got %d", samples)
	}

	assertFloatClose(t, score, 1)
}

func TestDateScore(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("d", "2024-01-01"),
		tabular.RowOf("d", "soon"),
	}

	score, samples := DateScore(rows, "d", 50, DateParser{})
	if samples != 2 {
		t.Fatalf("expected 2 samples, got %d", samples)
	}

	assertFloatClose(t, score, 0.5)
}

func TestInferValueKeySkipsRangeAndUnitColumns(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("exam", "LDL", "date", "2024-01-10", "ref_low", 0, "ref_high", 130, "unit", "1", "measured", "120"),
		tabular.RowOf("exam", "LDL", "date", "2024-02-10", "ref_low", 0, "ref_high", 130, "unit", "1", "measured", "140"),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.ValueKey != "measured" || schema.Embedded {
		t.Fatalf("unexpected schema %+v", schema)
	}
}

func TestInferEmbeddedValueInLabel(t *testing.T) {
	t.Parallel()

	rows := []tabular.Row{
		tabular.RowOf("exam", "Progesterone 0.4 ng/mL", "date", "2024-03-01", "ref_low", 0.1, "ref_high", 3.3),
		tabular.RowOf("exam", "Progesterone 0,9 ng/mL", "date", "2024-04-01", "ref_low", 0.1, "ref_high", 3.3),
	}

	schema, err := newInferencer().Infer(rows)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if schema.Kind != Longform || schema.TimeKey != "date" || schema.ValueKey != "exam" || !schema.Embedded {
		t.Fatalf("unexpected schema %+v", schema)
	}
}

func TestEmbeddedMeasurement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    any
		name  string
		value float64
		ok    bool
	}{
		{in: "Progesterone 0.4 ng/mL", name: "Progesterone", value: 0.4, ok: true},
		{in: "Ferritina 85,2 ng/mL", name: "Ferritina", value: 85.2, ok: true},
		{in: "Vitamin B12 450 pg/mL", name: "Vitamin B12", value: 450, ok: true},
		{in: "12.5", name: "", value: 12.5, ok: true},
		{in: "Vitamin B12", ok: false},
		{in: "Progesterone", ok: false},
		{in: 4.2, ok: false},
	}

	for _, tt := range tests {
		name, value, ok := EmbeddedMeasurement(tt.in)
		if ok != tt.ok {
			t.Fatalf("EmbeddedMeasurement(%v) ok = %v, want %v", tt.in, ok, tt.ok)
		}

		if !ok {
			continue
		}

		if name != tt.name {
			t.Fatalf("EmbeddedMeasurement(%v) name = %q, want %q", tt.in, name, tt.name)
		}

		assertFloatClose(t, value, tt.value)
	}
}
