/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Completer is the text-completion service used for commentary.
type Completer interface {
	Complete(ctx context.Context, prompt, payload string) (string, error)
}

// Summarizer hands assembled series to a Completer. It never fails the
// caller: every problem is logged and yields an empty summary.
type Summarizer struct {
	Completer    Completer
	PayloadLimit int
}

// Summarize asks for commentary on series and the optional reference range.
func (s *Summarizer) Summarize(ctx context.Context, prompt string, series []Series, rr *ReferenceRange) string {
	if strings.TrimSpace(prompt) == "" {
		return ""
	}

	return s.SummarizeText(ctx, prompt, BuildPayload(series, rr, s.PayloadLimit))
}

// SummarizeText submits an already serialized payload, truncated to PayloadLimit.
func (s *Summarizer) SummarizeText(ctx context.Context, prompt, payload string) (summary string) {
	if strings.TrimSpace(prompt) == "" {
		return ""
	}

	if s == nil || s.Completer == nil {
		logger.Warn("skipping summary", "error", fmt.Errorf("%w: completion service not configured", ErrSummarizationUnavailable))
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("summary panicked", "panic", r)
			summary = ""
		}
	}()

	text, err := s.Completer.Complete(ctx, prompt, truncateBytes(payload, s.PayloadLimit))
	if err != nil {
		logger.Warn("summary failed", "error", fmt.Errorf("%w: %w", ErrSummarizationUnavailable, err))
		return ""
	}

	return strings.TrimSpace(text)
}

// BuildPayload renders series as plain text no longer than limit bytes.
// When the full history does not fit, the oldest points are dropped first.
func BuildPayload(series []Series, rr *ReferenceRange, limit int) string {
	keep := 0
	for _, s := range series {
		if len(s.Points) > keep {
			keep = len(s.Points)
		}
	}

	for {
		payload := renderPayload(series, rr, keep)
		if limit <= 0 || len(payload) <= limit || keep <= 1 {
			return truncateBytes(payload, limit)
		}

		keep /= 2
	}
}

func renderPayload(series []Series, rr *ReferenceRange, keep int) string {
	var sb strings.Builder

	if rr != nil {
		if text := rr.String(); text != "" {
			sb.WriteString("Reference range: " + text + "\n\n")
		}
	}

	for _, s := range series {
		sb.WriteString("Analyte: " + s.Name)
		if s.Unit != nil && *s.Unit != "" {
			sb.WriteString(" (" + *s.Unit + ")")
		}
		sb.WriteString("\n")

		points := s.Points
		if keep > 0 && len(points) > keep {
			fmt.Fprintf(&sb, "(%d earlier points omitted)\n", len(points)-keep)
			points = points[len(points)-keep:]
		}

		for _, p := range points {
			sb.WriteString("- " + p.Date.Format(isoDateLayout) + ": " + strconv.FormatFloat(p.Value, 'f', -1, 64) + "\n")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func truncateBytes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
