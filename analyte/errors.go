/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import "errors"

var (
	ErrSourceUnavailable        = errors.New("no configured source is reachable")
	ErrNoDataFound              = errors.New("no rows matched the requested analytes")
	ErrNoNumericSeries          = errors.New("no numeric value column found")
	ErrNoNumericPoints          = errors.New("no numeric points found")
	ErrSummarizationUnavailable = errors.New("summarization unavailable")
	ErrInvalidDate              = errors.New("invalid date")
	ErrAmbiguousDate            = errors.New("ambiguous day/month order")
	ErrInvalidRowCap            = errors.New("row cap must be positive")
)
