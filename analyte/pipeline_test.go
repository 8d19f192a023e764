// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package analyte

import (
	"context"
	"errors"
	"testing"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

func progesteroneStore() *fakeStore {
	return &fakeStore{tables: map[string][]tabular.Row{
		"lab_results": {
			tabular.RowOf("exam", "Glucose", "date", "2024-03-01", "value", "90"),
			tabular.RowOf(
				"exam", "Progesterone 0.4 ng/mL",
				"date", "2024-03-01",
				"value", "0.4",
				"ref_low", 0.1,
				"ref_high", 3.3,
			),
		},
	}}
}

func TestPipelineFallbackWithReferenceRange(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{text: "Within range."}
	p := New(DefaultConfig(), Dependencies{Store: progesteroneStore(), Completer: completer})

	result, err := p.Run(context.Background(), Request{
		Analytes: []string{"Progesterone"},
		Prompt:   "comment on the trend",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != OutcomeSeries {
		t.Fatalf("expected series outcome, got %s", result.Outcome)
	}

	if result.RequestID == "" {
		t.Fatalf("expected request id")
	}

	if result.Source != "table:lab_results" || result.Schema.Kind != Longform {
		t.Fatalf("unexpected source %q / schema %s", result.Source, result.Schema.Kind)
	}

	if result.RefRange == nil || result.RefRange.Low == nil || result.RefRange.High == nil {
		t.Fatalf("expected closed reference range, got %+v", result.RefRange)
	}

	assertFloatClose(t, *result.RefRange.Low, 0.1)
	assertFloatClose(t, *result.RefRange.High, 3.3)

	if len(result.Series) != 1 || len(result.Series[0].Points) != 1 {
		t.Fatalf("expected a single one-point series, got %+v", result.Series)
	}

	point := result.Series[0].Points[0]
	if !point.Date.Equal(day(2024, 3, 1)) {
		t.Fatalf("unexpected date %v", point.Date)
	}

	assertFloatClose(t, point.Value, 0.4)

	if result.Summary != "Within range." {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
}

func TestPipelinePivotedCard(t *testing.T) {
	t.Parallel()

	cards := &fakeCards{rows: []tabular.Row{
		tabular.RowOf("exam", "LDL", "unit", "mg/dL", "15/03/2024", "130", "01/02/2024", "120"),
	}}
	store := &fakeStore{}

	p := New(DefaultConfig(), Dependencies{Cards: cards, Store: store})

	result, err := p.Run(context.Background(), Request{Analytes: []string{"LDL"}, CardID: intPtr(7)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Schema.Kind != Pivoted {
		t.Fatalf("expected pivoted schema, got %s", result.Schema.Kind)
	}

	points := result.Series[0].Points
	if len(points) != 2 || !points[0].Date.Equal(day(2024, 2, 1)) || !points[1].Date.Equal(day(2024, 3, 15)) {
		t.Fatalf("unexpected points %+v", points)
	}

	if store.callCount() != 0 {
		t.Fatalf("fallback store should not be queried")
	}

	if result.Summary != "" {
		t.Fatalf("expected no summary without prompt")
	}
}

func TestPipelineNoData(t *testing.T) {
	t.Parallel()

	p := New(DefaultConfig(), Dependencies{Store: progesteroneStore()})

	result, err := p.Run(context.Background(), Request{Analytes: []string{"Ferritin"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != OutcomeNoData || !errors.Is(result.Reason, ErrNoDataFound) {
		t.Fatalf("expected no data outcome, got %s (%v)", result.Outcome, result.Reason)
	}
}

func TestPipelineNoNumeric(t *testing.T) {
	t.Parallel()

	store := &fakeStore{tables: map[string][]tabular.Row{
		"lab_results": {tabular.RowOf("exam", "Ferritin", "comment", "pending")},
	}}

	result, err := New(DefaultConfig(), Dependencies{Store: store}).Run(context.Background(), Request{
		Analytes: []string{"Ferritin"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != OutcomeNoNumeric {
		t.Fatalf("expected no numeric outcome, got %s", result.Outcome)
	}

	if len(result.Rows) != 1 {
		t.Fatalf("expected resolved rows to be kept for debugging")
	}
}

func TestPipelineSourcesUnavailable(t *testing.T) {
	t.Parallel()

	store := &fakeStore{errs: map[string]error{"lab_results": errUnreachable}}

	_, err := New(DefaultConfig(), Dependencies{Store: store}).Run(context.Background(), Request{
		Analytes: []string{"Ferritin"},
	})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestPipelineSummaryFailureKeepsSeries(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{err: errUnreachable}
	p := New(DefaultConfig(), Dependencies{Store: progesteroneStore(), Completer: completer})

	result, err := p.Run(context.Background(), Request{Analytes: []string{"progesterone"}, Prompt: "comment"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != OutcomeSeries || len(result.Series) != 1 {
		t.Fatalf("expected series despite summary failure")
	}

	if result.Summary != "" {
		t.Fatalf("expected empty summary, got %q", result.Summary)
	}
}

func TestPipelineCustomData(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{text: "Looks fine."}
	store := &fakeStore{}
	p := New(DefaultConfig(), Dependencies{Store: store, Completer: completer})

	result, err := p.Run(context.Background(), Request{
		CustomData:   map[string]any{"ldl": 120},
		CustomPrompt: "explain",
		Prompt:       "ignored",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != OutcomeCustom || result.Summary != "Looks fine." {
		t.Fatalf("unexpected result %s / %q", result.Outcome, result.Summary)
	}

	if completer.prompt != "explain" || completer.payload != `{"ldl":120}` {
		t.Fatalf("unexpected completion input %q / %q", completer.prompt, completer.payload)
	}

	if store.callCount() != 0 {
		t.Fatalf("custom data must not touch sources")
	}
}

func TestPipelineValueEmbeddedInLabel(t *testing.T) {
	t.Parallel()

	store := &fakeStore{tables: map[string][]tabular.Row{
		"lab_results": {
			tabular.RowOf("exam", "Progesterone 0.4 ng/mL", "date", "2024-03-01", "ref_low", 0.1, "ref_high", 3.3),
			tabular.RowOf("exam", "Progesterone 1.2 ng/mL", "date", "2024-04-01", "ref_low", 0.1, "ref_high", 3.3),
		},
	}}

	result, err := New(DefaultConfig(), Dependencies{Store: store}).Run(context.Background(), Request{
		Analytes: []string{"Progesterone"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != OutcomeSeries {
		t.Fatalf("expected series outcome, got %s", result.Outcome)
	}

	if result.Schema.ValueKey != "exam" || !result.Schema.Embedded {
		t.Fatalf("expected value read from the exam text, got %+v", result.Schema)
	}

	if result.RefRange == nil || result.RefRange.Low == nil || result.RefRange.High == nil {
		t.Fatalf("expected closed reference range, got %+v", result.RefRange)
	}

	assertFloatClose(t, *result.RefRange.Low, 0.1)
	assertFloatClose(t, *result.RefRange.High, 3.3)

	if len(result.Series) != 1 || len(result.Series[0].Points) != 2 {
		t.Fatalf("expected one two-point series, got %+v", result.Series)
	}

	series := result.Series[0]
	if series.Name != "Progesterone" {
		t.Fatalf("unexpected series name %q", series.Name)
	}

	assertFloatClose(t, series.Points[0].Value, 0.4)
	assertFloatClose(t, series.Points[1].Value, 1.2)
}

func TestPipelineValueColumnIsNotReferenceBound(t *testing.T) {
	t.Parallel()

	store := &fakeStore{tables: map[string][]tabular.Row{
		"lab_results": {
			tabular.RowOf("exam", "LDL", "date", "2024-03-01", "ref_low", 0, "ref_high", 130, "measured", 120),
			tabular.RowOf("exam", "LDL", "date", "2024-04-01", "ref_low", 0, "ref_high", 130, "measured", 140),
		},
	}}

	result, err := New(DefaultConfig(), Dependencies{Store: store}).Run(context.Background(), Request{
		Analytes: []string{"LDL"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != OutcomeSeries || result.Schema.ValueKey != "measured" {
		t.Fatalf("unexpected result %s / %+v", result.Outcome, result.Schema)
	}

	points := result.Series[0].Points
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %+v", points)
	}

	assertFloatClose(t, points[0].Value, 120)
	assertFloatClose(t, points[1].Value, 140)
}
