/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package metabase

import "errors"

var (
	ErrURLRequired         = errors.New("metabase URL is required")
	ErrCredentialsRequired = errors.New("metabase username and password are required")
	ErrLoginFailed         = errors.New("metabase login failed")
	ErrQueryFailed         = errors.New("metabase card query failed")
	ErrUnauthorized        = errors.New("metabase session rejected")
)
