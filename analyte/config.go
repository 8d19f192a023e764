/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyte

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sample sizes used while scoring columns.
const (
	timeSampleRows  = 50
	valueSampleRows = 100
)

// KeyNames lists the column names the pipeline recognizes. All matching is
// case-insensitive and lists are in priority order.
type KeyNames struct {
	Time         []string `yaml:"time"`
	TimeHints    []string `yaml:"time_hints"`
	Value        []string `yaml:"value"`
	Label        []string `yaml:"label"`
	Unit         []string `yaml:"unit"`
	Low          []string `yaml:"ref_low"`
	High         []string `yaml:"ref_high"`
	Ignore       []string `yaml:"ignore"`
	GenericWords []string `yaml:"generic_words"`
}

// DefaultKeyNames returns the built-in candidate lists.
func DefaultKeyNames() KeyNames {
	return KeyNames{
		Time: []string{
			"date", "data", "collected_at", "collection_date", "sample_date",
			"data_coleta", "dia", "exam_date", "timestamp", "time", "datetime", "created_at",
		},
		TimeHints: []string{"date", "data", "time", "dt_", "timestamp"},
		Value: []string{
			"value", "valor", "result", "resultado", "numeric_value", "measurement", "result_value",
		},
		Label: []string{
			"analyte", "exam", "exame", "test", "test_name", "analito", "marker", "parameter", "name", "nome",
		},
		Unit: []string{"unit", "units", "unidade", "test_unit"},
		Low: []string{
			"ref_low", "reference_low", "ref_min", "reference_min", "low", "min", "lower", "valor_minimo",
		},
		High: []string{
			"ref_high", "reference_high", "ref_max", "reference_max", "high", "max", "upper", "valor_maximo",
		},
		Ignore: []string{"id", "uuid", "user_id", "patient_id", "profile_id", "card_id", "row_id"},
		GenericWords: []string{
			"total", "serum", "plasma", "blood", "level", "levels", "soro", "sangue",
			"mg/dl", "g/dl", "ng/ml", "ng/dl", "pg/ml", "ui/ml", "mui/ml", "miu/ml", "u/l", "ui/l",
			"mmol/l", "umol/l", "µmol/l", "mcg/dl", "%",
		},
	}
}

// Config is the static pipeline configuration loaded once at start.
type Config struct {
	// FallbackTables are queried in this order when the primary source has no rows.
	FallbackTables []string `yaml:"fallback_tables"`
	// RowCap bounds every source query.
	RowCap int `yaml:"row_cap"`
	// ParallelFetch prefetches all fallback tables concurrently.
	ParallelFetch bool `yaml:"parallel_fetch"`
	// StrictDates rejects dates whose day/month order cannot be decided.
	StrictDates bool `yaml:"strict_dates"`
	// PayloadLimit bounds the text sent to the completion service, in bytes.
	PayloadLimit int      `yaml:"payload_limit"`
	Keys         KeyNames `yaml:"keys"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		FallbackTables: []string{"lab_results"},
		RowCap:         1000,
		PayloadLimit:   12000,
		Keys:           DefaultKeyNames(),
	}
}

// LoadConfig overlays a YAML file on top of DefaultConfig. Lists present in
// the file replace the defaults entirely.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open pipeline config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	if c.RowCap <= 0 {
		return ErrInvalidRowCap
	}

	return nil
}
