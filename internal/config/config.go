// Package config loads store settings from a file and ORMSQL_* environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
)

// EnvPrefix prefixes every environment variable, e.g. ORMSQL_DSN or
// ORMSQL_FETCH_QUERY_TIMEOUT.
const EnvPrefix = "ORMSQL"

// Config describes how to open a store.
type Config struct {
	// Driver is the database/sql driver name.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// Dictionary names the SQL dictionary. Empty selects one from the driver.
	Dictionary string `mapstructure:"dictionary"`
	// DictionaryProperties override dictionary settings by name, e.g. delimitIdentifiers.
	DictionaryProperties map[string]any `mapstructure:"dictionary_properties"`
	Fetch                fetch.Config   `mapstructure:"fetch"`
	StmtCacheCapacity    int            `mapstructure:"stmt_cache_capacity"`
	// SensitiveColumns are masked in statement logs; empty uses the default list.
	SensitiveColumns []string `mapstructure:"sensitive_columns"`
}

func setDefaults(v *viper.Viper) {
	def := fetch.Default()
	v.SetDefault("driver", "")
	v.SetDefault("dsn", "")
	v.SetDefault("dictionary", "")
	v.SetDefault("stmt_cache_capacity", 0)
	v.SetDefault("sensitive_columns", []string{})
	v.SetDefault("fetch.batch_size", def.BatchSize)
	v.SetDefault("fetch.query_timeout", def.QueryTimeout)
	v.SetDefault("fetch.lock_timeout", def.LockTimeout)
	v.SetDefault("fetch.read_lock_level", int(def.ReadLockLevel))
	v.SetDefault("fetch.hint", def.Hint)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, whose format follows its extension (yaml, toml or json), then applies
// environment overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.WrapError(err, "failed to read config "+path)
		}
	}
	return decode(v)
}

// FromEnv reads the configuration from the environment only.
func FromEnv() (*Config, error) {
	return decode(newViper())
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.WrapError(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var problems []error
	if c.Driver == "" {
		problems = append(problems, errors.New("driver is required"))
	}
	if c.DSN == "" {
		problems = append(problems, errors.New("dsn is required"))
	}
	if c.StmtCacheCapacity < 0 {
		problems = append(problems, errors.New("stmt_cache_capacity must not be negative"))
	}
	if c.Fetch.ReadLockLevel < fetch.LockNone || c.Fetch.ReadLockLevel > fetch.LockWrite {
		problems = append(problems, errors.New("fetch.read_lock_level is out of range"))
	}
	if len(problems) > 0 {
		return errs.WrapError(errors.Join(problems...), "invalid config")
	}
	return nil
}

// FetchConfig returns a copy of the fetch settings.
func (c *Config) FetchConfig() *fetch.Config {
	f := c.Fetch
	return &f
}
