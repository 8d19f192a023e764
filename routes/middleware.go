/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/flamego/flamego"
)

// NoCacheHeaders disables caching for all responses and blocks indexing.
func NoCacheHeaders() flamego.Handler {
	return func(c flamego.Context) {
		header := c.ResponseWriter().Header()
		header.Set("X-Robots-Tag", "noindex, nofollow, noarchive, nosnippet")
		header.Set("Cache-Control", "no-store, max-age=0")
		header.Set("Pragma", "no-cache")
		header.Set("Expires", "0")

		c.Next()
	}
}

// NotFound answers unknown routes with a JSON error.
func NotFound(c flamego.Context) {
	writeJSONError(c, http.StatusNotFound, "not found")
}

// Healthz reports liveness.
func Healthz(c flamego.Context) {
	writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func requestContext(c flamego.Context, opts Options) (context.Context, context.CancelFunc) {
	if opts.RequestTimeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}

	return context.WithTimeout(c.Request().Context(), opts.RequestTimeout)
}

func writeJSON(c flamego.Context, status int, payload any) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(payload); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}

func writeJSONError(c flamego.Context, status int, message string) {
	writeJSON(c, status, map[string]string{"error": message})
}
