package errs

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. Callers classify with errors.Is.
var (
	ErrUpstream   = errors.New("upstream aggregator error")
	ErrDecryption = errors.New("token decryption failed")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store error")
	ErrValidation = errors.New("validation error")
)

// Error attaches an operation name and a kind to an underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns err tagged with kind. A nil err still produces an error of that kind.
func Wrap(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrValidation, ErrDecryption, ErrUpstream, ErrStore} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
