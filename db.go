// Package ormsql is the SQL layer of an object-relational mapper. It renders selects and
// row changes through per-database dictionaries, flushes changed rows in dependency order,
// classifies driver errors, and reads results by column or select-list position, including
// unions of several selects.
package ormsql

import (
	"github.com/coregx/ormsql/internal/config"
	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/logger"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/query"
	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/row"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/store"
	"github.com/coregx/ormsql/internal/tracer"
	"github.com/coregx/ormsql/internal/union"
)

type (
	// Store executes statements against one database with statement caching and tracing.
	Store = store.Store
	// Option configures a Store.
	Option = store.Option
	// QueryOption configures one query.
	QueryOption = store.QueryOption
	// Config is the file or environment configuration of a Store.
	Config = config.Config
	// FetchConfig holds lock levels, timeouts and batch size.
	FetchConfig = fetch.Config

	// Dictionary renders SQL for one database product.
	Dictionary = dialects.Dictionary

	// Table, Column and ForeignKey describe the schema.
	Table      = schema.Table
	Column     = schema.Column
	ForeignKey = schema.ForeignKey

	// ClassMapping maps a class to its table.
	ClassMapping = meta.ClassMapping
	// Instance is the state of one managed object.
	Instance = meta.Instance

	// RowManager collects the row changes of a flush.
	RowManager = row.Manager

	// Select builds one SELECT statement.
	Select = query.Select
	// Union runs several selects as one result.
	Union = union.Union
	// Result reads the rows of a select.
	Result = result.Result

	// StoreError is a classified store failure.
	StoreError = errs.StoreError
)

// Re-export constructors and options.
var (
	Open       = store.Open
	OpenConfig = store.OpenConfig
	LoadConfig = config.Load
	ConfigEnv  = config.FromEnv

	WithLogger               = store.WithLogger
	WithTracer               = store.WithTracer
	WithSanitizer            = store.WithSanitizer
	WithStmtCacheCapacity    = store.WithStmtCacheCapacity
	WithDictionary           = store.WithDictionary
	WithDictionaryProperties = store.WithDictionaryProperties
	WithFetch                = store.WithFetch

	NewSlogLogger = logger.NewSlogAdapter
	NewSanitizer  = logger.NewSanitizer
	NewOtelTracer = tracer.NewOtelTracer
	DefaultFetch  = fetch.Default
	DictionaryFor = dialects.Get
	DictionaryURL = dialects.ForURL
	NewTable      = schema.NewTable
	NewColumn     = schema.NewColumn
	NewForeignKey = schema.NewForeignKey
	NewMapping    = meta.NewClassMapping
	NewInstance   = meta.NewInstance
	NewRowManager = row.NewManager
	NewSelect     = query.New
	NewUnion      = union.New
	At            = result.At
	KindOf        = errs.KindOf
	IsFatal       = errs.IsFatal
)

// Sentinel errors matched with errors.Is.
var (
	ErrOptimistic           = errs.ErrOptimistic
	ErrUnique               = errs.ErrUnique
	ErrLock                 = errs.ErrLock
	ErrQuery                = errs.ErrQuery
	ErrInvalidUsage         = errs.ErrInvalidUsage
	ErrReferentialIntegrity = errs.ErrReferentialIntegrity
	ErrObjectNotFound       = errs.ErrObjectNotFound
	ErrUnsupportedDialect   = errs.ErrUnsupportedDialect
)
