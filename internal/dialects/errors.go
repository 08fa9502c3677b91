package dialects

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/coregx/ormsql/internal/errs"
)

//go:embed error_codes.yaml
var errorCodesYAML []byte

const defaultCodeSet = "sql92"

type errorCodes struct {
	Lock                 []string `yaml:"lock"`
	Query                []string `yaml:"query"`
	Optimistic           []string `yaml:"optimistic"`
	ObjectExists         []string `yaml:"object-exists"`
	ObjectNotFound       []string `yaml:"object-not-found"`
	ReferentialIntegrity []string `yaml:"referential-integrity"`
	Unique               []string `yaml:"unique"`
}

func (c *errorCodes) categories() []struct {
	kind  errs.Kind
	codes []string
} {
	return []struct {
		kind  errs.Kind
		codes []string
	}{
		{errs.Lock, c.Lock},
		{errs.Query, c.Query},
		{errs.Optimistic, c.Optimistic},
		{errs.ObjectExists, c.ObjectExists},
		{errs.ObjectNotFound, c.ObjectNotFound},
		{errs.ReferentialIntegrity, c.ReferentialIntegrity},
	}
}

// classify returns the first category listing the SQLSTATE or vendor code of det.
func (c *errorCodes) classify(det errs.Details) (errs.Kind, bool) {
	for _, cat := range c.categories() {
		if matchesCode(cat.codes, det) {
			return cat.kind, true
		}
	}
	return errs.General, false
}

func (c *errorCodes) isUnique(det errs.Details) bool {
	return matchesCode(c.Unique, det)
}

func matchesCode(codes []string, det errs.Details) bool {
	vendor := ""
	if det.VendorCode != 0 {
		vendor = strconv.Itoa(det.VendorCode)
	}
	for _, code := range codes {
		if (det.SQLState != "" && code == det.SQLState) || (vendor != "" && code == vendor) {
			return true
		}
	}
	return false
}

var loadErrorCodes = sync.OnceValue(func() map[string]*errorCodes {
	sets := make(map[string]*errorCodes)
	if err := yaml.Unmarshal(errorCodesYAML, &sets); err != nil {
		panic(fmt.Sprintf("dialects: embedded error codes: %v", err))
	}
	return sets
})

// errorCodesFor returns the code set of the given name, or the sql92 set.
func errorCodesFor(name string) *errorCodes {
	sets := loadErrorCodes()
	if c, ok := sets[strings.ToLower(name)]; ok {
		return c
	}
	return sets[defaultCodeSet]
}

// messageKinds classify driver errors that carry no usable code.
var messageKinds = []struct {
	kind   errs.Kind
	unique bool
	subs   []string
}{
	{errs.Lock, false, []string{"database is locked", "deadlock", "lock wait timeout", "could not obtain lock"}},
	{errs.Query, false, []string{"canceling statement due to statement timeout", "query execution was interrupted"}},
	{errs.ReferentialIntegrity, true, []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed", "duplicate key"}},
	{errs.ReferentialIntegrity, false, []string{
		"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed",
		"violates not-null constraint", "NOT NULL constraint failed", "violates check constraint",
		"CHECK constraint failed",
	}},
}

// NewStoreError classifies err into a store error. The error chain is inspected to a
// bounded depth for a SQLSTATE or vendor code, which is matched against the product's code
// table; messages of well-known drivers are the fallback. Errors are fatal unless the
// product's IsFatal hook says otherwise. failed is the object whose flush failed, if any.
func (d *Dictionary) NewStoreError(msg string, err error, failed any) *errs.StoreError {
	if err == nil {
		return nil
	}
	if se, ok := errs.As[*errs.StoreError](err); ok {
		if se.Failed == nil && failed != nil {
			se.Failed = failed
		}
		return se
	}

	se := &errs.StoreError{Kind: errs.General, Msg: msg, Fatal: true, Failed: failed, Cause: err}
	det, found := errs.Inspect(err)
	matched := false
	if found {
		se.SQLState = det.SQLState
		se.VendorCode = det.VendorCode
		se.Kind, matched = d.codes.classify(det)
		se.Unique = d.codes.isUnique(det)
	}
	if !matched {
		for _, mk := range messageKinds {
			if errs.MessageContains(err, mk.subs...) {
				se.Kind, matched = mk.kind, true
				se.Unique = se.Unique || mk.unique
				break
			}
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		se.Kind = errs.Query
		se.Fatal = false
		return se
	case errors.Is(err, context.Canceled):
		se.Kind = errs.Query
		return se
	}
	if !matched && se.Unique {
		se.Kind = errs.ReferentialIntegrity
	}
	if d.hooks.IsFatal != nil {
		se.Fatal = d.hooks.IsFatal(se.Kind, det)
	}
	return se
}
