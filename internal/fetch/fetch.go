// Package fetch holds the per-operation fetch configuration handed to select rendering
// and statement execution.
package fetch

import "time"

// LockLevel is the pessimistic lock requested while reading.
type LockLevel int

// Lock levels.
const (
	LockNone LockLevel = iota
	LockRead
	LockWrite
)

// NoTimeout disables a timeout.
const NoTimeout time.Duration = -1

// Config is the fetch configuration of one select or flush.
type Config struct {
	// BatchSize is the driver fetch size hint; -1 leaves the driver default.
	BatchSize int `mapstructure:"batch_size" yaml:"batchSize"`
	// QueryTimeout bounds each statement; NoTimeout disables it.
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"queryTimeout"`
	// LockTimeout bounds locking selects when larger than QueryTimeout.
	LockTimeout time.Duration `mapstructure:"lock_timeout" yaml:"lockTimeout"`
	// ReadLockLevel selects FOR UPDATE rendering when not LockNone.
	ReadLockLevel LockLevel `mapstructure:"read_lock_level" yaml:"readLockLevel"`
	// Hint is spliced after SELECT by dialects that support optimizer hints.
	Hint string `mapstructure:"hint" yaml:"hint"`
}

// Default returns a configuration with no timeouts and no locking.
func Default() *Config {
	return &Config{
		BatchSize:    -1,
		QueryTimeout: NoTimeout,
		LockTimeout:  NoTimeout,
	}
}

// Clone returns a copy of c; a nil receiver clones the default.
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}
	cp := *c
	return &cp
}

// ForUpdate reports whether selects under c must lock the rows they read.
func (c *Config) ForUpdate() bool {
	return c != nil && c.ReadLockLevel != LockNone
}
