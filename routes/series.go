/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flamego/flamego"

	"github.com/evesallesleite-cell/lab-site-sub000/analyte"
	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

const (
	noDataMessage    = "No data returned."
	noNumericMessage = "No numeric data points found."

	debugSampleRows = 5
)

// SeriesRunner produces analyte series for a request.
type SeriesRunner interface {
	Run(ctx context.Context, req analyte.Request) (*analyte.Result, error)
}

// Options configures the series handlers.
type Options struct {
	// RequestTimeout bounds a whole pipeline run. Zero means no limit.
	RequestTimeout time.Duration
}

type seriesRequest struct {
	CardID        *int     `json:"cardId"`
	Analyte       string   `json:"analyte"`
	Analytes      []string `json:"analytes"`
	ForceSupabase bool     `json:"forceSupabase"`
	AIPrompt      string   `json:"aiPrompt"`
	Debug         bool     `json:"debug"`
	CustomData    any      `json:"customData"`
	CustomPrompt  string   `json:"customPrompt"`
}

func (r seriesRequest) toRequest() analyte.Request {
	analytes := make([]string, 0, len(r.Analytes)+1)
	if r.Analyte != "" {
		analytes = append(analytes, r.Analyte)
	}
	analytes = append(analytes, r.Analytes...)

	return analyte.Request{
		Analytes:     analytes,
		CardID:       r.CardID,
		SkipPrimary:  r.ForceSupabase,
		Debug:        r.Debug,
		Prompt:       r.AIPrompt,
		CustomData:   r.CustomData,
		CustomPrompt: r.CustomPrompt,
	}
}

type debugInfo struct {
	RequestID string          `json:"requestId"`
	Outcome   string          `json:"outcome"`
	Source    string          `json:"source,omitempty"`
	Schema    *analyte.Schema `json:"schema,omitempty"`
	RowCount  int             `json:"rowCount"`
	Sample    []tabular.Row   `json:"sample"`
}

type pivotedResponse struct {
	Data     []analyte.Series        `json:"data"`
	RefRange *analyte.ReferenceRange `json:"refRange,omitempty"`
	AI       string                  `json:"ai,omitempty"`
	Debug    *debugInfo              `json:"debug,omitempty"`
}

type longformResponse struct {
	Data     []analyte.Point         `json:"data"`
	Name     string                  `json:"name"`
	Unit     *string                 `json:"unit,omitempty"`
	RefRange *analyte.ReferenceRange `json:"refRange,omitempty"`
	AI       string                  `json:"ai,omitempty"`
	Debug    *debugInfo              `json:"debug,omitempty"`
}

type softResponse struct {
	Summary string     `json:"summary"`
	Debug   *debugInfo `json:"debug,omitempty"`
}

type customResponse struct {
	Data any    `json:"data"`
	AI   string `json:"ai,omitempty"`
}

// AnalyteSeries resolves the requested analytes and returns their series.
func AnalyteSeries(c flamego.Context, runner SeriesRunner, opts Options) {
	var body seriesRequest
	if err := json.NewDecoder(c.Request().Body().ReadCloser()).Decode(&body); err != nil {
		logger.Warn("Rejected series request", "error", err)
		writeJSONError(c, http.StatusBadRequest, errInvalidRequestBody.Error())
		return
	}

	req := body.toRequest()
	if len(req.Names()) == 0 && req.CardID == nil && req.CustomData == nil {
		writeJSONError(c, http.StatusBadRequest, errAnalyteRequired.Error())
		return
	}

	ctx, cancel := requestContext(c, opts)
	defer cancel()

	result, err := runner.Run(ctx, req)
	if err != nil {
		logger.Error("Series request failed", "analytes", req.Names(), "error", err)
		writeJSONError(c, http.StatusInternalServerError, seriesErrorMessage(err))
		return
	}

	writeJSON(c, http.StatusOK, seriesResponse(result, req.Debug))
}

func seriesErrorMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out while loading analyte data"
	case errors.Is(err, analyte.ErrSourceUnavailable):
		return "analyte data sources are unavailable"
	default:
		return "failed to load analyte data"
	}
}

func seriesResponse(result *analyte.Result, debug bool) any {
	var info *debugInfo
	if debug {
		info = newDebugInfo(result)
	}

	switch result.Outcome {
	case analyte.OutcomeCustom:
		return customResponse{Data: result.CustomData, AI: result.Summary}
	case analyte.OutcomeNoData:
		return softResponse{Summary: noDataMessage, Debug: info}
	case analyte.OutcomeNoNumeric:
		return softResponse{Summary: noNumericMessage, Debug: info}
	}

	if result.Schema != nil && result.Schema.Kind == analyte.Longform && len(result.Series) == 1 {
		series := result.Series[0]

		return longformResponse{
			Data:     series.Points,
			Name:     series.Name,
			Unit:     series.Unit,
			RefRange: result.RefRange,
			AI:       result.Summary,
			Debug:    info,
		}
	}

	return pivotedResponse{
		Data:     result.Series,
		RefRange: result.RefRange,
		AI:       result.Summary,
		Debug:    info,
	}
}

func newDebugInfo(result *analyte.Result) *debugInfo {
	sample := result.Rows
	if len(sample) > debugSampleRows {
		sample = sample[:debugSampleRows]
	}

	if sample == nil {
		sample = []tabular.Row{}
	}

	return &debugInfo{
		RequestID: result.RequestID,
		Outcome:   result.Outcome.String(),
		Source:    result.Source,
		Schema:    result.Schema,
		RowCount:  len(result.Rows),
		Sample:    sample,
	}
}
