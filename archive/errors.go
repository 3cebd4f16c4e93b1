package archive

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the query and search operations.
type Kind int

const (
	KindQueryFailed Kind = iota
	KindInvalidQuery
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidQuery:
		return "invalid query"
	case KindStoreUnavailable:
		return "store unavailable"
	default:
		return "query failed"
	}
}

// Sentinels for errors.Is checks against an *Error of the matching kind.
var (
	ErrInvalidQuery     = errors.New("invalid query")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrQueryFailed      = errors.New("query failed")
)

// Error is returned by every archive operation and store backend.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidQuery:
		return e.Kind == KindInvalidQuery
	case ErrStoreUnavailable:
		return e.Kind == KindStoreUnavailable
	case ErrQueryFailed:
		return e.Kind == KindQueryFailed
	}
	return false
}

func InvalidQuery(op, msg string) error {
	return &Error{Kind: KindInvalidQuery, Op: op, Err: errors.New(msg)}
}

func StoreUnavailable(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Op: op, Err: err}
}

func QueryFailed(op string, err error) error {
	return &Error{Kind: KindQueryFailed, Op: op, Err: err}
}

// KindOf reports the kind of err. Errors that did not come from the archive
// are treated as query failures.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindQueryFailed
}

// wrap leaves archive errors untouched and classifies anything else as a
// query failure for op.
func wrap(op string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return QueryFailed(op, err)
}
