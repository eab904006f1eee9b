// Package config loads supportree settings from a TOML file, SUPPORTREE_*
// environment variables and built-in defaults, in that order of precedence
// (environment first).
//
//	[server]
//	port = 8080
//	max_body_size = "2MB"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
// Nested keys map to environment variables with underscores, so
// cache.redis_addr is SUPPORTREE_CACHE_REDIS_ADDR.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/matzehuels/supportree/pkg/cache"
	"github.com/matzehuels/supportree/pkg/store"
)

// Sentinel validation errors.
var (
	ErrInvalidPort         = errors.New("invalid server port")
	ErrInvalidBodySize     = errors.New("invalid max body size")
	ErrInvalidCacheBackend = errors.New("invalid cache backend")
	ErrInvalidStoreBackend = errors.New("invalid store backend")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidSearch       = errors.New("invalid search defaults")
	ErrMissingBackendAddr  = errors.New("backend address required")
)

const (
	appName   = "supportree"
	envPrefix = "SUPPORTREE"
	maxPort   = 65535
)

// Backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config holds all supportree settings.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Store   StoreConfig   `mapstructure:"store"`
	Search  SearchConfig  `mapstructure:"search"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodySize    string        `mapstructure:"max_body_size"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// MaxBodyBytes parses MaxBodySize ("1MB", "512KiB", ...).
func (s ServerConfig) MaxBodyBytes() (int64, error) {
	n, err := humanize.ParseBytes(s.MaxBodySize)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBodySize, s.MaxBodySize)
	}
	return int64(n), nil
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend   string `mapstructure:"backend"`
	Directory string `mapstructure:"directory"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`

	// Scope prefixes every key, so several deployments can share a backend.
	Scope string `mapstructure:"scope"`
}

// Open connects the configured cache backend.
func (c CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(c.Directory)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// Keyer returns the key builder for this cache, scoped when Scope is set.
func (c CacheConfig) Keyer() cache.Keyer {
	k := cache.NewDefaultKeyer()
	if c.Scope != "" {
		return cache.NewScopedKeyer(k, c.Scope)
	}
	return k
}

// StoreConfig selects and configures the run archive.
type StoreConfig struct {
	Backend         string `mapstructure:"backend"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection"`
}

// Open connects the configured store backend.
func (s StoreConfig) Open(ctx context.Context) (store.Store, error) {
	if s.Backend != StoreMongo {
		return store.NewMemoryStore(), nil
	}
	ms, err := store.NewMongoStore(ctx, store.MongoOptions{
		URI:        s.MongoURI,
		Database:   s.MongoDatabase,
		Collection: s.MongoCollection,
	})
	if err != nil {
		return nil, err
	}
	return ms, nil
}

// SearchConfig holds default search options for server requests.
type SearchConfig struct {
	MaxDepth      int  `mapstructure:"max_depth"`
	L1Quota       int  `mapstructure:"l1_quota"`
	Escalate      bool `mapstructure:"escalate"`
	MaxCandidates int  `mapstructure:"max_candidates"`
	Workers       int  `mapstructure:"workers"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParsedLevel returns the charm log level.
func (l LoggingConfig) ParsedLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(l.Level)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return lvl, nil
}

// Formatter returns the charm log formatter.
func (l LoggingConfig) Formatter() log.Formatter {
	switch l.Format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// DefaultCacheDir returns the cache directory using the XDG standard
// (~/.cache/supportree/).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads configuration. If path is empty, supportree.toml is searched in
// the working directory and ~/.config/supportree; a missing file is not an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "2m")
	v.SetDefault("server.max_body_size", "1MB")

	dir, err := DefaultCacheDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), appName)
	}
	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.directory", dir)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", appName+":")
	v.SetDefault("cache.scope", "")

	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", store.DefaultMongoDatabase)
	v.SetDefault("store.mongo_collection", store.DefaultMongoCollection)

	v.SetDefault("search.max_depth", 0)
	v.SetDefault("search.l1_quota", 0)
	v.SetDefault("search.escalate", true)
	v.SetDefault("search.max_candidates", 10000)
	v.SetDefault("search.workers", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if _, err := c.Server.MaxBodyBytes(); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redis_addr", ErrMissingBackendAddr)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCacheBackend, c.Cache.Backend)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("%w: store.mongo_uri", ErrMissingBackendAddr)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStoreBackend, c.Store.Backend)
	}

	s := c.Search
	if s.MaxDepth < 0 || s.L1Quota < 0 || s.MaxCandidates < 0 || s.Workers < 0 {
		return fmt.Errorf("%w: values must not be negative", ErrInvalidSearch)
	}

	if _, err := c.Logging.ParsedLevel(); err != nil {
		return err
	}
	if !slices.Contains([]string{"text", "json", "logfmt"}, c.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	return nil
}
