package errs

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestWrap_MatchesKindAndCause(t *testing.T) {
	err := Wrap(ErrStore, "upsert transactions", sql.ErrConnDone)

	if !errors.Is(err, ErrStore) {
		t.Errorf("errors.Is(err, ErrStore) = false, want true")
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("errors.Is(err, sql.ErrConnDone) = false, want true")
	}
	if errors.Is(err, ErrUpstream) {
		t.Errorf("errors.Is(err, ErrUpstream) = true, want false")
	}
}

func TestWrap_NilCause(t *testing.T) {
	err := Wrap(ErrNotFound, "get connection", nil)

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false, want true")
	}
	if got, want := err.Error(), "get connection: not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"wrapped kind", Wrap(ErrValidation, "op", errors.New("bad date")), ErrValidation},
		{"fmt wrapped", fmt.Errorf("sync: %w", Wrap(ErrUpstream, "op", nil)), ErrUpstream},
		{"plain sentinel", ErrDecryption, ErrDecryption},
		{"unknown", errors.New("boom"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
