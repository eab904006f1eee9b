package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/supportree/pkg/cache"
	"github.com/matzehuels/supportree/pkg/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supportree.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Addr() != "127.0.0.1:8080" {
		t.Errorf("server addr = %s", cfg.Server.Addr())
	}
	if cfg.Server.WriteTimeout != 5*time.Minute {
		t.Errorf("WriteTimeout = %v, want 5m", cfg.Server.WriteTimeout)
	}
	if n, _ := cfg.Server.MaxBodyBytes(); n != 1000*1000 {
		t.Errorf("MaxBodyBytes() = %d, want 1MB", n)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Cache.Directory == "" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != StoreMemory || cfg.Store.MongoDatabase != store.DefaultMongoDatabase {
		t.Errorf("store = %+v", cfg.Store)
	}
	if !cfg.Search.Escalate || cfg.Search.MaxCandidates != 10000 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if lvl, _ := cfg.Logging.ParsedLevel(); lvl != log.InfoLevel {
		t.Errorf("log level = %v, want info", lvl)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
max_body_size = "2MiB"

[cache]
backend = "none"
scope = "tenant-a"

[search]
max_depth = 5
escalate = false

[logging]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if n, _ := cfg.Server.MaxBodyBytes(); n != 2<<20 {
		t.Errorf("MaxBodyBytes() = %d, want 2MiB", n)
	}
	if cfg.Search.MaxDepth != 5 || cfg.Search.Escalate {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Logging.Formatter() != log.JSONFormatter {
		t.Error("Formatter() should be JSON")
	}

	c, err := cfg.Cache.Open(context.Background())
	if err != nil {
		t.Fatalf("Cache.Open() error = %v", err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("Cache.Open() = %T, want NullCache", c)
	}
	if _, ok := cfg.Cache.Keyer().(*cache.ScopedKeyer); !ok {
		t.Errorf("Keyer() = %T, want *ScopedKeyer", cfg.Cache.Keyer())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SUPPORTREE_SERVER_PORT", "7070")
	t.Setenv("SUPPORTREE_CACHE_DIRECTORY", t.TempDir())

	cfg, err := Load(writeConfig(t, "[server]\nport = 9090\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env value 7070", cfg.Server.Port)
	}

	c, err := cfg.Cache.Open(context.Background())
	if err != nil {
		t.Fatalf("Cache.Open() error = %v", err)
	}
	if fc, ok := c.(*cache.FileCache); !ok || fc.Dir() != cfg.Cache.Directory {
		t.Errorf("Cache.Open() = %T, want FileCache in %s", c, cfg.Cache.Directory)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"port", "[server]\nport = 70000\n", ErrInvalidPort},
		{"body size", "[server]\nmax_body_size = \"lots\"\n", ErrInvalidBodySize},
		{"cache backend", "[cache]\nbackend = \"s3\"\n", ErrInvalidCacheBackend},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", ErrMissingBackendAddr},
		{"store backend", "[store]\nbackend = \"sql\"\n", ErrInvalidStoreBackend},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n", ErrMissingBackendAddr},
		{"negative depth", "[search]\nmax_depth = -1\n", ErrInvalidSearch},
		{"log level", "[logging]\nlevel = \"loud\"\n", ErrInvalidLogLevel},
		{"log format", "[logging]\nformat = \"xml\"\n", ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStoreOpenMemory(t *testing.T) {
	s, err := StoreConfig{Backend: StoreMemory}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*store.MemoryStore); !ok {
		t.Errorf("Open() = %T, want *MemoryStore", s)
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultCacheDir()
	if err != nil {
		t.Fatalf("DefaultCacheDir() error = %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "supportree") {
		t.Errorf("DefaultCacheDir() = %s", dir)
	}
}
