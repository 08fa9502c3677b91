package dialects

import (
	"database/sql/driver"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"

	"github.com/coregx/ormsql/internal/errs"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Dictionary)
)

// Register registers d under its name and the given aliases, replacing earlier entries.
func Register(d *Dictionary, aliases ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(d.Name())] = d
	for _, a := range aliases {
		registry[strings.ToLower(a)] = d
	}
}

// Get returns the dictionary registered under name.
func Get(name string) (*Dictionary, error) {
	registryMu.RLock()
	d, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, errs.WrapError(errs.ErrUnsupportedDialect, name)
	}
	return d, nil
}

// MustGet returns the dictionary registered under name, panics if not found.
func MustGet(name string) *Dictionary {
	d, err := Get(name)
	if err != nil {
		panic("unsupported dialect: " + name)
	}
	return d
}

// productRules are tried in order against the lower-cased product string. Earlier rules
// win, so products whose names contain others come first.
var productRules = []struct {
	name string
	subs []string
}{
	{"oracle", []string{"oracle"}},
	{"sqlserver", []string{"sql server", "sqlserver", "jsqlconnect"}},
	{"mariadb", []string{"mariadb"}},
	{"mysql", []string{"mysql"}},
	{"postgres", []string{"postgres"}},
	{"hsql", []string{"hsql"}},
	{"empress", []string{"empress"}},
	{"derby", []string{"derby"}},
	{"h2", []string{"jdbc:h2:", "h2 database"}},
	{"db2", []string{"db2", "as/400", "as400"}},
	{"sqlite", []string{"sqlite"}},
}

// ProductName returns the registered dictionary name for a product string, as reported by
// a database's metadata or found in a connection URL.
func ProductName(product string) (string, bool) {
	p := strings.ToLower(product)
	for _, r := range productRules {
		for _, s := range r.subs {
			if strings.Contains(p, s) {
				return r.name, true
			}
		}
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	for name, d := range registry {
		if strings.Contains(p, name) {
			return d.Name(), true
		}
	}
	return "", false
}

// ForProduct returns the dictionary for a product string, falling back to sql92.
func ForProduct(product string) *Dictionary {
	if name, ok := ProductName(product); ok {
		if d, err := Get(name); err == nil {
			return d
		}
	}
	return MustGet("sql92")
}

// ForURL returns the dictionary for a connection URL. Both jdbc:<product>: and
// <scheme>:// forms are recognized.
func ForURL(url string) (*Dictionary, error) {
	if proto := protocol(url); proto != "" {
		if name, ok := ProductName(proto); ok {
			return Get(name)
		}
		return nil, errs.WrapError(errs.ErrUnsupportedDialect, proto)
	}
	if i := strings.Index(url, "://"); i > 0 {
		scheme := strings.ToLower(url[:i])
		if d, err := Get(scheme); err == nil {
			return d, nil
		}
		if name, ok := ProductName(scheme); ok {
			return Get(name)
		}
		return nil, errs.WrapError(errs.ErrUnsupportedDialect, scheme)
	}
	if strings.HasPrefix(url, "file:") || strings.HasSuffix(url, ".db") || url == ":memory:" {
		return Get("sqlite")
	}
	return nil, errs.WrapError(errs.ErrUnsupportedDialect, url)
}

// protocol returns the jdbc: prefix of url up to and including its third colon, stopping
// early at '@', '/' or '\'. It is empty for other URLs.
func protocol(url string) string {
	if !strings.HasPrefix(strings.ToLower(url), "jdbc:") {
		return ""
	}
	colons := 0
	for i := 0; i < len(url); i++ {
		switch url[i] {
		case ':':
			colons++
			if colons == 3 {
				return url[:i+1]
			}
		case '@', '/', '\\':
			return url[:i]
		}
	}
	return url
}

// ForDriver returns the dictionary for a database/sql driver.
func ForDriver(drv driver.Driver) (*Dictionary, error) {
	switch drv.(type) {
	case *pq.Driver, *stdlib.Driver:
		return Get("postgres")
	case *mysql.MySQLDriver:
		return Get("mysql")
	case *sqlite.Driver, *sqlite3.SQLiteDriver:
		return Get("sqlite")
	}
	return nil, errs.WrapError(errs.ErrUnsupportedDialect, "unknown driver")
}
