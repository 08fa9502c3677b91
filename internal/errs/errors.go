// Package errs defines the store-level error taxonomy. Driver errors never reach callers
// directly; they are classified once, at the point a statement fails, into a StoreError.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the classification of a store error.
type Kind int

// Error kinds.
const (
	General Kind = iota
	Lock
	Query
	ObjectExists
	ObjectNotFound
	Optimistic
	ReferentialIntegrity
)

var kindNames = [...]string{
	General:              "general",
	Lock:                 "lock",
	Query:                "query",
	ObjectExists:         "object-exists",
	ObjectNotFound:       "object-not-found",
	Optimistic:           "optimistic",
	ReferentialIntegrity: "referential-integrity",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels matched by errors.Is against a StoreError of the same kind.
var (
	ErrGeneral              = errors.New("store error")
	ErrLock                 = errors.New("lock error")
	ErrQuery                = errors.New("query error")
	ErrObjectExists         = errors.New("object exists")
	ErrObjectNotFound       = errors.New("object not found")
	ErrOptimistic           = errors.New("optimistic lock failure")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	// ErrUnique matches any StoreError flagged as a uniqueness violation.
	ErrUnique = errors.New("unique constraint violation")
)

var kindSentinels = [...]error{
	General:              ErrGeneral,
	Lock:                 ErrLock,
	Query:                ErrQuery,
	ObjectExists:         ErrObjectExists,
	ObjectNotFound:       ErrObjectNotFound,
	Optimistic:           ErrOptimistic,
	ReferentialIntegrity: ErrReferentialIntegrity,
}

// Predefined usage errors.
var (
	// ErrInvalidUsage is returned when the caller violates an API contract.
	ErrInvalidUsage = errors.New("invalid usage")
	// ErrUnsupportedDialect is returned when no dictionary matches a product, URL or driver.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	// ErrConversion is returned when a column value cannot be read as the requested type.
	ErrConversion = errors.New("value conversion failed")
	// ErrClosed is returned when reading from a closed result.
	ErrClosed = errors.New("result closed")
)

// StoreError is a classified failure of a database operation.
type StoreError struct {
	Kind  Kind
	Msg   string
	Fatal bool
	// Unique marks a uniqueness violation within its kind.
	Unique     bool
	SQLState   string
	VendorCode int
	// Failed is the managed object whose flush failed, if known.
	Failed any
	Cause  error
}

// New returns a fatal store error of the given kind.
func New(kind Kind, msg string, cause error) *StoreError {
	return &StoreError{Kind: kind, Msg: msg, Fatal: true, Cause: cause}
}

func (e *StoreError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = kindSentinels[General].Error()
		if int(e.Kind) < len(kindSentinels) {
			msg = kindSentinels[e.Kind].Error()
		}
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind and ErrUnique for unique violations.
func (e *StoreError) Is(target error) bool {
	if target == ErrUnique {
		return e.Unique
	}
	return int(e.Kind) < len(kindSentinels) && kindSentinels[e.Kind] == target
}

// WithFailed records the failed object and returns e.
func (e *StoreError) WithFailed(failed any) *StoreError {
	e.Failed = failed
	return e
}

// Causes returns the nested causes of e, nearest first.
func (e *StoreError) Causes() []error {
	if e.Cause == nil {
		return nil
	}
	return Chain(e.Cause)
}

// KindOf returns the kind of the first StoreError in err's chain, General otherwise.
func KindOf(err error) Kind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return General
}

// IsFatal reports whether err must abort the current operation. Errors that were never
// classified are fatal.
func IsFatal(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Fatal
	}
	return err != nil
}

// WrapError wraps an error with additional context message.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
