// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package analyte

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

var errUnreachable = errors.New("connection refused")

type fakeCards struct {
	rows  []tabular.Row
	err   error
	calls int
}

func (f *fakeCards) QueryCard(_ context.Context, _ int, _ int) ([]tabular.Row, error) {
	f.calls++
	return f.rows, f.err
}

type fakeStore struct {
	mu     sync.Mutex
	tables map[string][]tabular.Row
	errs   map[string]error
	calls  []string
	limits []int
}

func (f *fakeStore) FetchRows(_ context.Context, table string, limit int) ([]tabular.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, table)
	f.limits = append(f.limits, limit)

	if err := f.errs[table]; err != nil {
		return nil, err
	}

	return f.tables[table], nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

type fakeCompleter struct {
	text    string
	err     error
	prompt  string
	payload string
	calls   int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, payload string) (string, error) {
	f.calls++
	f.prompt = prompt
	f.payload = payload

	return f.text, f.err
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func assertFloatClose(t *testing.T, got, want float64) {
	t.Helper()

	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func intPtr(v int) *int {
	return &v
}
