/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package supabase

import "errors"

var (
	ErrURLRequired    = errors.New("supabase URL is required")
	ErrAPIKeyRequired = errors.New("supabase API key is required")
	ErrInvalidTable   = errors.New("invalid table name")
	ErrRequestFailed  = errors.New("supabase request failed")
)
