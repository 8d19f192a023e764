/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

// Outcome classifies what the pipeline produced.
type Outcome int

const (
	// OutcomeSeries means at least one series was assembled.
	OutcomeSeries Outcome = iota
	// OutcomeNoData means sources were reachable but nothing matched.
	OutcomeNoData
	// OutcomeNoNumeric means rows were found without usable date/value pairs.
	OutcomeNoNumeric
	// OutcomeCustom means caller-supplied data was summarized.
	OutcomeCustom
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSeries:
		return "series"
	case OutcomeNoData:
		return "no_data"
	case OutcomeNoNumeric:
		return "no_numeric"
	case OutcomeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Result is everything one run produced.
type Result struct {
	RequestID string
	Outcome   Outcome
	// Reason is the soft error behind OutcomeNoData and OutcomeNoNumeric.
	Reason     error
	Source     string
	Schema     *Schema
	Series     []Series
	RefRange   *ReferenceRange
	Summary    string
	Rows       []tabular.Row
	CustomData any
}

// Dependencies are the collaborators a Pipeline talks to. Any may be nil.
type Dependencies struct {
	Cards     CardSource
	Store     RowStore
	Completer Completer
}

// Pipeline resolves, classifies and assembles analyte series. It holds only
// configuration and collaborator handles and is safe for concurrent use.
type Pipeline struct {
	resolver   *Resolver
	inferencer Inferencer
	extractor  RangeExtractor
	assembler  Assembler
	summarizer *Summarizer
}

// New builds a pipeline from static configuration and collaborators.
func New(cfg Config, deps Dependencies) *Pipeline {
	dates := DateParser{Strict: cfg.StrictDates}

	return &Pipeline{
		resolver: &Resolver{
			Cards:         deps.Cards,
			Store:         deps.Store,
			Tables:        cfg.FallbackTables,
			RowCap:        cfg.RowCap,
			ParallelFetch: cfg.ParallelFetch,
			GenericWords:  cfg.Keys.GenericWords,
		},
		inferencer: Inferencer{Keys: cfg.Keys, Dates: dates},
		extractor:  RangeExtractor{Keys: cfg.Keys},
		assembler:  Assembler{Keys: cfg.Keys, Dates: dates},
		summarizer: &Summarizer{Completer: deps.Completer, PayloadLimit: cfg.PayloadLimit},
	}
}

// Run executes the pipeline for req. Only ErrSourceUnavailable is returned as
// an error; every other shortfall is reported through Result.Outcome.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{RequestID: uuid.NewString()}
	log := logger.With("request_id", result.RequestID)

	if req.CustomData != nil {
		return p.runCustom(ctx, req, result)
	}

	names := req.Names()

	res, err := p.resolver.Resolve(ctx, req)
	if res != nil {
		result.Source = res.Source
		result.Rows = res.Rows
	}

	if err != nil {
		if errors.Is(err, ErrNoDataFound) {
			log.Info("no data found", "analytes", names)
			result.Outcome = OutcomeNoData
			result.Reason = err
			return result, nil
		}

		log.Error("sources unavailable", "analytes", names, "error", err)

		return nil, err
	}

	schema, err := p.inferencer.Infer(res.Rows)
	result.Schema = &schema

	if err != nil {
		log.Info("no numeric series", "row_source", res.Source, "rows", len(res.Rows))
		result.Outcome = OutcomeNoNumeric
		result.Reason = err
		return result, nil
	}

	result.RefRange = p.extractor.Extract(res.Rows)

	switch schema.Kind {
	case Pivoted:
		result.Series, err = p.assembler.Pivoted(res.Rows, schema.DateColumns)
	default:
		fallbackName := ""
		if len(names) > 0 {
			fallbackName = names[0]
		}

		var series Series
		if schema.Embedded {
			series, err = p.assembler.LongformEmbedded(res.Rows, schema.TimeKey, schema.ValueKey, fallbackName)
		} else {
			series, err = p.assembler.Longform(res.Rows, schema.TimeKey, schema.ValueKey, fallbackName)
		}
		if err == nil {
			result.Series = []Series{series}
		}
	}

	if err != nil {
		log.Info("no numeric points", "row_source", res.Source, "schema", schema.Kind)
		result.Outcome = OutcomeNoNumeric
		result.Reason = err
		return result, nil
	}

	result.Outcome = OutcomeSeries
	result.Summary = p.summarizer.Summarize(ctx, req.Prompt, result.Series, result.RefRange)

	log.Info("series assembled",
		"row_source", res.Source,
		"schema", schema.Kind,
		"series", len(result.Series),
		"has_range", result.RefRange != nil,
		"has_summary", result.Summary != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (p *Pipeline) runCustom(ctx context.Context, req Request, result *Result) (*Result, error) {
	result.Outcome = OutcomeCustom
	result.CustomData = req.CustomData

	prompt := req.CustomPrompt
	if prompt == "" {
		prompt = req.Prompt
	}

	payload, err := json.Marshal(req.CustomData)
	if err != nil {
		logger.Warn("custom data not serializable", "request_id", result.RequestID, "error", err)
		return result, nil
	}

	result.Summary = p.summarizer.SummarizeText(ctx, prompt, string(payload))

	return result, nil
}

