/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

// CardSource runs a saved BI query and returns its rows.
type CardSource interface {
	QueryCard(ctx context.Context, cardID, limit int) ([]tabular.Row, error)
}

// RowStore fetches unprojected rows from a relational table.
type RowStore interface {
	FetchRows(ctx context.Context, table string, limit int) ([]tabular.Row, error)
}

// AttemptStatus is the outcome of a single source attempt.
type AttemptStatus int

const (
	AttemptSuccess AttemptStatus = iota
	AttemptEmpty
	AttemptError
)

func (s AttemptStatus) String() string {
	switch s {
	case AttemptSuccess:
		return "success"
	case AttemptEmpty:
		return "empty"
	case AttemptError:
		return "error"
	default:
		return "unknown"
	}
}

// AttemptResult is what a SourceAttempt reports.
type AttemptResult struct {
	Source  string
	Status  AttemptStatus
	Rows    []tabular.Row
	Err     error
	Relaxed bool
}

// SourceAttempt is one step of the source cascade.
type SourceAttempt interface {
	Name() string
	Attempt(ctx context.Context) AttemptResult
}

// Resolution is the winning source and its rows, plus every attempt made.
type Resolution struct {
	Source   string
	Rows     []tabular.Row
	Attempts []AttemptResult
}

// Evaluate runs attempts in order and stops at the first success. When none
// succeeds it returns ErrNoDataFound if any source was reachable, otherwise
// ErrSourceUnavailable.
func Evaluate(ctx context.Context, attempts []SourceAttempt) (*Resolution, error) {
	res := &Resolution{}
	reachable := false

	for _, attempt := range attempts {
		result := attempt.Attempt(ctx)
		result.Source = attempt.Name()
		res.Attempts = append(res.Attempts, result)

		switch result.Status {
		case AttemptSuccess:
			logger.Info("source resolved", "row_source", result.Source, "rows", len(result.Rows), "relaxed", result.Relaxed)
			res.Source = result.Source
			res.Rows = result.Rows
			return res, nil
		case AttemptEmpty:
			reachable = true
			logger.Debug("source empty", "row_source", result.Source)
		case AttemptError:
			logger.Warn("source failed", "row_source", result.Source, "error", result.Err)
		}
	}

	if reachable {
		return res, ErrNoDataFound
	}

	if len(attempts) == 0 {
		return res, fmt.Errorf("%w: no source configured", ErrSourceUnavailable)
	}

	return res, fmt.Errorf("%w: %w", ErrSourceUnavailable, lastError(res.Attempts))
}

func lastError(results []AttemptResult) error {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Err != nil {
			return results[i].Err
		}
	}

	return errors.New("all sources failed")
}

// Resolver builds the cascade for a request: the BI card first, then the
// fallback tables in priority order.
type Resolver struct {
	Cards         CardSource
	Store         RowStore
	Tables        []string
	RowCap        int
	ParallelFetch bool
	GenericWords  []string
}

// Resolve returns the rows of the first source that yields any.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	return Evaluate(ctx, r.Attempts(req))
}

// Attempts lists the sources to try for req, in order.
func (r *Resolver) Attempts(req Request) []SourceAttempt {
	var attempts []SourceAttempt

	if req.CardID != nil && !req.SkipPrimary {
		if r.Cards != nil {
			attempts = append(attempts, &cardAttempt{source: r.Cards, cardID: *req.CardID, limit: r.RowCap})
		} else {
			logger.Debug("card requested but no card source configured", "card_id", *req.CardID)
		}
	}

	if r.Store == nil || len(r.Tables) == 0 {
		return attempts
	}

	matcher := NewMatcher(req.Names(), r.GenericWords)

	var shared *prefetch
	if r.ParallelFetch && len(r.Tables) > 1 {
		shared = &prefetch{store: r.Store, tables: r.Tables, limit: r.RowCap}
	}

	for i, table := range r.Tables {
		attempts = append(attempts, &tableAttempt{
			store:    r.Store,
			table:    table,
			index:    i,
			limit:    r.RowCap,
			matcher:  matcher,
			prefetch: shared,
		})
	}

	return attempts
}

type cardAttempt struct {
	source CardSource
	cardID int
	limit  int
}

func (a *cardAttempt) Name() string {
	return "card:" + strconv.Itoa(a.cardID)
}

func (a *cardAttempt) Attempt(ctx context.Context) AttemptResult {
	rows, err := a.source.QueryCard(ctx, a.cardID, a.limit)
	if err != nil {
		return AttemptResult{Status: AttemptError, Err: err}
	}

	if len(rows) == 0 {
		return AttemptResult{Status: AttemptEmpty}
	}

	return AttemptResult{Status: AttemptSuccess, Rows: rows}
}

type tableAttempt struct {
	store    RowStore
	table    string
	index    int
	limit    int
	matcher  *Matcher
	prefetch *prefetch
}

func (a *tableAttempt) Name() string {
	return "table:" + a.table
}

func (a *tableAttempt) Attempt(ctx context.Context) AttemptResult {
	var (
		rows []tabular.Row
		err  error
	)

	if a.prefetch != nil {
		rows, err = a.prefetch.get(ctx, a.index)
	} else {
		rows, err = a.store.FetchRows(ctx, a.table, a.limit)
	}

	if err != nil {
		return AttemptResult{Status: AttemptError, Err: err}
	}

	matched, relaxed := a.matcher.Filter(rows)
	if len(matched) == 0 {
		return AttemptResult{Status: AttemptEmpty}
	}

	return AttemptResult{Status: AttemptSuccess, Rows: matched, Relaxed: relaxed}
}

type fetchResult struct {
	rows []tabular.Row
	err  error
}

// prefetch loads every fallback table concurrently on first use. Results are
// still consumed in table order by the attempts.
type prefetch struct {
	store   RowStore
	tables  []string
	limit   int
	once    sync.Once
	results []fetchResult
}

func (p *prefetch) get(ctx context.Context, index int) ([]tabular.Row, error) {
	p.once.Do(func() {
		p.results = make([]fetchResult, len(p.tables))

		var g errgroup.Group
		g.SetLimit(len(p.tables))

		for i, table := range p.tables {
			g.Go(func() error {
				rows, err := p.store.FetchRows(ctx, table, p.limit)
				p.results[i] = fetchResult{rows: rows, err: err}
				return nil
			})
		}

		_ = g.Wait()
	})

	result := p.results[index]

	return result.rows, result.err
}
