/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errAnalyteRequired    = errors.New("analyte, analytes, cardId or customData is required")
	errInvalidCardID      = errors.New("invalid cardId")
)
