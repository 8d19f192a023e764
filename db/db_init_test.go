// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
)

func TestOpenRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(testContext(), ""); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestOpenInvalidDatabaseURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(testContext(), "postgres://"); err == nil {
		t.Fatalf("expected error for invalid database url")
	}
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	var store *Store

	if _, err := store.FetchRows(testContext(), "lab_results", 10); !errors.Is(err, ErrDatabaseConnectionNotInitialized) {
		t.Fatalf("expected ErrDatabaseConnectionNotInitialized, got %v", err)
	}

	if err := store.SyncSchema(testContext()); !errors.Is(err, ErrDatabaseConnectionNotInitialized) {
		t.Fatalf("expected ErrDatabaseConnectionNotInitialized, got %v", err)
	}

	store.Close()
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	if err := Migrate(testContext(), ""); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := GetEmbeddedMigrations().ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	if len(entries) == 0 {
		t.Fatalf("expected at least one migration")
	}
}

func TestParseTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "lab_results", want: `"lab_results"`},
		{input: "public.lab_results", want: `"public"."lab_results"`},
		{input: `weird"name`, want: `"weird""name"`},
		{input: "", wantErr: true},
		{input: "a..b", wantErr: true},
		{input: "a.b.c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			ident, err := ParseTableName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTableName) {
					t.Fatalf("expected ErrInvalidTableName, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseTableName failed: %v", err)
			}

			if got := ident.Sanitize(); got != tt.want {
				t.Fatalf("Sanitize() = %s, want %s", got, tt.want)
			}
		})
	}
}
