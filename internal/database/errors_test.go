package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestConstraintViolations(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true, false},
		{"wrapped foreign key violation", fmt.Errorf("insert line: %w", &pgconn.PgError{Code: "23503"}), false, true},
		{"check violation", &pgconn.PgError{Code: "23514"}, false, false},
		{"plain error", errors.New("boom"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.unique {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.unique)
			}
			if got := IsForeignKeyViolation(tt.err); got != tt.foreignKey {
				t.Errorf("IsForeignKeyViolation() = %v, want %v", got, tt.foreignKey)
			}
		})
	}
}

func TestIsUndefinedTable(t *testing.T) {
	wrapped := fmt.Errorf("read schema version: %w", &pgconn.PgError{Code: "42P01"})

	if !IsUndefinedTable(wrapped) {
		t.Error("expected wrapped 42P01 to match")
	}
	if IsUndefinedTable(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected unique violation not to match")
	}
}
