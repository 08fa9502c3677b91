package errs

import (
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// MaxChainDepth bounds how far nested causes are followed.
const MaxChainDepth = 10

// SQLError is a driver-neutral error carrying a SQLSTATE and vendor code.
type SQLError struct {
	State   string
	Code    int
	Message string
	Err     error
}

func (e *SQLError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "sql error " + e.State + " (" + strconv.Itoa(e.Code) + ")"
}

func (e *SQLError) Unwrap() error {
	return e.Err
}

// sqlStateError is implemented by pgx and other drivers exposing SQLSTATE.
type sqlStateError interface {
	SQLState() string
}

// intCoder is implemented by modernc.org/sqlite errors.
type intCoder interface {
	Code() int
}

// errorNumberer is implemented by MySQL-family drivers.
type errorNumberer interface {
	Number() uint16
}

// errorCoder is implemented by drivers whose code is a string, often a SQLSTATE.
type errorCoder interface {
	Code() string
}

// driverInspectors read driver error types that are only available in some builds.
var driverInspectors []func(error) (Details, bool)

// Details is what inspection extracted from a driver error.
type Details struct {
	SQLState   string
	VendorCode int
	Message    string
	// Source is the error in the chain the details were read from.
	Source error
}

// Inspect walks err's chain and returns the first SQLSTATE or vendor code found.
func Inspect(err error) (Details, bool) {
	for _, e := range Chain(err) {
		if d, ok := inspectOne(e); ok {
			d.Source = e
			return d, true
		}
	}
	return Details{}, false
}

func inspectOne(err error) (Details, bool) {
	switch e := err.(type) {
	case *pq.Error:
		return Details{SQLState: string(e.Code), Message: e.Message}, true
	case *pgconn.PgError:
		return Details{SQLState: e.Code, Message: e.Message}, true
	case *mysql.MySQLError:
		return Details{
			SQLState:   strings.TrimRight(string(e.SQLState[:]), "\x00"),
			VendorCode: int(e.Number),
			Message:    e.Message,
		}, true
	case *SQLError:
		return Details{SQLState: e.State, VendorCode: e.Code, Message: e.Error()}, true
	}
	for _, inspect := range driverInspectors {
		if d, ok := inspect(err); ok {
			return d, true
		}
	}

	var d Details
	found := false
	if e, ok := err.(sqlStateError); ok && e.SQLState() != "" {
		d.SQLState = e.SQLState()
		found = true
	}
	if e, ok := err.(intCoder); ok {
		d.VendorCode = e.Code()
		found = true
	}
	if e, ok := err.(errorNumberer); ok {
		d.VendorCode = int(e.Number())
		found = true
	}
	if e, ok := err.(errorCoder); ok && e.Code() != "" {
		if n, convErr := strconv.Atoi(e.Code()); convErr == nil {
			d.VendorCode = n
		} else if d.SQLState == "" {
			d.SQLState = e.Code()
		}
		found = true
	}
	if found {
		d.Message = err.Error()
	}
	return d, found
}

// Chain returns err followed by its nested causes in breadth-first order, up to
// MaxChainDepth levels deep. Both Unwrap() error and Unwrap() []error are followed.
func Chain(err error) []error {
	if err == nil {
		return nil
	}
	out := []error{err}
	level := []error{err}
	for depth := 1; depth < MaxChainDepth && len(level) > 0; depth++ {
		var next []error
		for _, e := range level {
			switch u := e.(type) {
			case interface{ Unwrap() []error }:
				for _, c := range u.Unwrap() {
					if c != nil {
						next = append(next, c)
					}
				}
			case interface{ Unwrap() error }:
				if c := u.Unwrap(); c != nil {
					next = append(next, c)
				}
			}
		}
		out = append(out, next...)
		level = next
	}
	return out
}

// MessageContains reports whether any error in err's chain mentions one of subs.
func MessageContains(err error, subs ...string) bool {
	for _, e := range Chain(err) {
		msg := e.Error()
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
	}
	return false
}

// As returns the first error in the bounded chain of err that is a T.
func As[T any](err error) (T, bool) {
	var target T
	for _, e := range Chain(err) {
		if t, ok := e.(T); ok {
			return t, true
		}
	}
	return target, false
}
