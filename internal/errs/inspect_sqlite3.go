//go:build cgo

package errs

import "github.com/mattn/go-sqlite3"

func init() {
	driverInspectors = append(driverInspectors, inspectSQLite3)
}

// inspectSQLite3 reads mattn/go-sqlite3 errors, which carry their codes as fields. The
// extended code is preferred since it separates UNIQUE from other constraint failures.
func inspectSQLite3(err error) (Details, bool) {
	var e sqlite3.Error
	switch v := err.(type) {
	case sqlite3.Error:
		e = v
	case *sqlite3.Error:
		if v == nil {
			return Details{}, false
		}
		e = *v
	default:
		return Details{}, false
	}
	code := int(e.ExtendedCode)
	if code == 0 {
		code = int(e.Code)
	}
	return Details{VendorCode: code, Message: e.Error()}, true
}
