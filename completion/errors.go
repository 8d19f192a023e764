/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package completion

import "errors"

var (
	ErrAPIKeyRequired   = errors.New("completion API key is required")
	ErrEmptyCompletion  = errors.New("completion service returned no text")
	ErrCompletionFailed = errors.New("completion request failed")
)
