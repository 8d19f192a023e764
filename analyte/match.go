/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"regexp"
	"strings"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

// Matcher selects rows mentioning any of the requested analytes.
type Matcher struct {
	strict  *regexp.Regexp
	relaxed *regexp.Regexp
}

// NewMatcher builds the strict and relaxed patterns for names. The relaxed
// pattern drops generic words and allows anything between remaining tokens.
func NewMatcher(names, genericWords []string) *Matcher {
	m := &Matcher{}

	var strict, relaxed []string

	for _, name := range names {
		strict = append(strict, regexp.QuoteMeta(name))

		if tokens := significantTokens(name, genericWords); len(tokens) > 0 {
			relaxed = append(relaxed, strings.Join(tokens, ".*"))
		}
	}

	if len(strict) > 0 {
		m.strict = regexp.MustCompile(`(?i)(?:` + strings.Join(strict, "|") + `)`)
	}

	if len(relaxed) > 0 {
		m.relaxed = regexp.MustCompile(`(?i)(?:` + strings.Join(relaxed, "|") + `)`)
	}

	return m
}

// Filter returns the rows with a string cell matching the strict pattern, or
// failing that the relaxed one. relaxed reports which pattern matched.
func (m *Matcher) Filter(rows []tabular.Row) (matched []tabular.Row, relaxed bool) {
	if m.strict == nil {
		return nil, false
	}

	if matched = filterRows(rows, m.strict); len(matched) > 0 {
		return matched, false
	}

	if m.relaxed == nil {
		return nil, false
	}

	matched = filterRows(rows, m.relaxed)

	return matched, len(matched) > 0
}

func filterRows(rows []tabular.Row, re *regexp.Regexp) []tabular.Row {
	var matched []tabular.Row

	for _, row := range rows {
		if rowMatches(row, re) {
			matched = append(matched, row)
		}
	}

	return matched
}

func rowMatches(row tabular.Row, re *regexp.Regexp) bool {
	found := false

	row.Each(func(_ string, value any) {
		if found {
			return
		}

		if text, ok := value.(string); ok && re.MatchString(text) {
			found = true
		}
	})

	return found
}

func significantTokens(name string, genericWords []string) []string {
	var tokens []string

	for _, field := range strings.Fields(strings.ToLower(name)) {
		field = strings.Trim(field, "()[]{},;:")
		if field == "" || containsFold(genericWords, field) {
			continue
		}

		tokens = append(tokens, regexp.QuoteMeta(field))
	}

	return tokens
}
