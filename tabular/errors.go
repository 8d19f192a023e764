/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tabular

import "errors"

var (
	ErrRowNotObject = errors.New("row is not a JSON object")
	ErrRowsNotArray = errors.New("rows payload is not a JSON array")
)
