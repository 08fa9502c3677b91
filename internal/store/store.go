// Package store executes rendered SQL against a database/sql handle. It turns buffers into
// results, flushes staged rows, draws sequence values and classifies driver failures
// through the dictionary. Prepared statements are cached; every statement is logged with
// masked parameters and traced.
package store

import (
	"context"
	"database/sql"

	"github.com/coregx/ormsql/internal/cache"
	"github.com/coregx/ormsql/internal/config"
	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/logger"
	"github.com/coregx/ormsql/internal/tracer"
)

// Store runs statements for one database through one dictionary. It is safe for
// concurrent use; the results and row managers it works with are not.
type Store struct {
	db     *sql.DB
	ownsDB bool

	dict      *dialects.Dictionary
	props     map[string]any
	fetch     *fetch.Config
	log       logger.Logger
	sanitizer *logger.Sanitizer
	tracer    tracer.Tracer
	stmts     *cache.StmtCache
	cacheCap  int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the statement logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithTracer sets the tracer. The default records nothing.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// WithSanitizer sets the parameter sanitizer used for logs and spans.
func WithSanitizer(san *logger.Sanitizer) Option {
	return func(s *Store) { s.sanitizer = san }
}

// WithStmtCacheCapacity sets the prepared statement cache capacity.
func WithStmtCacheCapacity(capacity int) Option {
	return func(s *Store) { s.cacheCap = capacity }
}

// WithDictionary fixes the dictionary instead of choosing one from the driver.
func WithDictionary(d *dialects.Dictionary) Option {
	return func(s *Store) { s.dict = d }
}

// WithDictionaryProperties overrides dictionary settings by name.
func WithDictionaryProperties(props map[string]any) Option {
	return func(s *Store) { s.props = props }
}

// WithFetch sets the default fetch configuration.
func WithFetch(f *fetch.Config) Option {
	return func(s *Store) { s.fetch = f }
}

// Open wraps db. Without WithDictionary the dictionary is chosen from db's driver. The
// dictionary's initialization SQL, if any, runs before Open returns. The caller keeps
// ownership of db.
func Open(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}

	if s.dict == nil {
		d, err := dialects.ForDriver(db.Driver())
		if err != nil {
			return nil, err
		}
		s.dict = d
	}
	if len(s.props) > 0 {
		d, err := s.dict.WithOverrides(s.props)
		if err != nil {
			return nil, errs.WrapError(err, "invalid dictionary properties")
		}
		s.dict = d
	}
	if s.fetch == nil {
		s.fetch = fetch.Default()
	}
	if s.sanitizer == nil {
		s.sanitizer = logger.NewSanitizer(nil)
	}
	s.log = logger.OrNoop(s.log)
	s.tracer = tracer.OrNoop(s.tracer)
	s.stmts = cache.New(s.cacheCap)

	if init := s.dict.InitializationSQL(); init != "" {
		if _, err := db.ExecContext(ctx, init); err != nil {
			return nil, s.storeError("initialization failed", err, nil)
		}
		s.log.Debug("initialization statement executed", "sql", init, "database", s.dict.Name())
	}
	return s, nil
}

// OpenConfig opens the database described by cfg and wraps it. The store owns the
// database and closes it on Close. opts are applied after the configured settings.
func OpenConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []Option{
		WithFetch(cfg.FetchConfig()),
		WithStmtCacheCapacity(cfg.StmtCacheCapacity),
		WithDictionaryProperties(cfg.DictionaryProperties),
	}
	if cfg.Dictionary != "" {
		d, err := dialects.Get(cfg.Dictionary)
		if err != nil {
			return nil, err
		}
		base = append(base, WithDictionary(d))
	}
	if len(cfg.SensitiveColumns) > 0 {
		base = append(base, WithSanitizer(logger.NewSanitizer(cfg.SensitiveColumns)))
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errs.WrapError(err, "failed to open database")
	}
	s, err := Open(ctx, db, append(base, opts...)...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// Close releases cached statements and, for stores from OpenConfig, the database.
func (s *Store) Close() error {
	s.stmts.Clear()
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Dictionary returns the dictionary statements are rendered and classified with.
func (s *Store) Dictionary() *dialects.Dictionary { return s.dict }

// Fetch returns a copy of the default fetch configuration.
func (s *Store) Fetch() *fetch.Config { return s.fetch.Clone() }

// CacheStats returns prepared statement cache statistics.
func (s *Store) CacheStats() cache.Stats { return s.stmts.Stats() }

// storeError classifies err and logs the outcome.
func (s *Store) storeError(msg string, err error, failed any) *errs.StoreError {
	se := s.dict.NewStoreError(msg, err, failed)
	s.log.Debug("classified store error",
		"kind", se.Kind.String(),
		"unique", se.Unique,
		"fatal", se.Fatal,
		"sqlstate", se.SQLState,
		"vendor_code", se.VendorCode,
	)
	return se
}
