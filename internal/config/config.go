// Package config loads hiergraph settings from a TOML file.
//
// Lookup order for the file is an explicit path, then ./hiergraph.toml,
// then $XDG_CONFIG_HOME/hiergraph/config.toml. A missing file is not an
// error; defaults apply. Command-line flags override file values.
//
//	[project]
//	name = "shop"
//
//	[view]
//	level = 2
//	chunk_size = 1000
//
//	[cache]
//	backend = "redis"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	session_ttl = "30m"
//
//	[watch]
//	debounce = "250ms"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pyview/hiergraph/pkg/cache"
	hgerrors "github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/session"
	"github.com/pyview/hiergraph/pkg/transform"
)

const (
	// FileName is the project-local config file name.
	FileName = "hiergraph.toml"

	appName = "hiergraph"

	DefaultServerAddr = "127.0.0.1:8080"
	DefaultDebounce   = 300 * time.Millisecond
)

// Config is the decoded configuration file.
type Config struct {
	Project ProjectConfig `toml:"project"`
	View    ViewConfig    `toml:"view"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Watch   WatchConfig   `toml:"watch"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
}

type ViewConfig struct {
	Level     int `toml:"level"`
	ChunkSize int `toml:"chunk_size"`
}

type CacheConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Addr        string        `toml:"addr"`
	Password    string        `toml:"password"`
	DB          int           `toml:"db"`
	DialTimeout time.Duration `toml:"dial_timeout"`
	// KeyPrefix namespaces keys when several projects share one server.
	KeyPrefix string `toml:"key_prefix"`
}

type ServerConfig struct {
	Addr       string        `toml:"addr"`
	SessionTTL time.Duration `toml:"session_ttl"`
	// StateDir persists session view state across restarts when set.
	StateDir string `toml:"state_dir"`
}

type WatchConfig struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		View: ViewConfig{
			Level:     pipeline.DefaultLevel,
			ChunkSize: transform.DefaultChunkSize,
		},
		Cache:  CacheConfig{Backend: cache.BackendFile, Redis: RedisConfig{KeyPrefix: "hiergraph:"}},
		Server: ServerConfig{Addr: DefaultServerAddr, SessionTTL: session.DefaultTTL},
		Watch:  WatchConfig{Debounce: DefaultDebounce},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, hgerrors.Wrap(hgerrors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes TOML data. path is only recorded for messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, hgerrors.Wrap(hgerrors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, hgerrors.New(hgerrors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the config file that applies to the current directory, or
// "" when there is none.
func Find() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	path := filepath.Join(dir, appName, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// Resolve loads path if given, otherwise the file found by Find, otherwise
// the defaults.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = Find()
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// normalize fills values a file may have set to empty.
func (c *Config) normalize() {
	if c.View.ChunkSize == 0 {
		c.View.ChunkSize = transform.DefaultChunkSize
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = cache.BackendFile
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = session.DefaultTTL
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := hgerrors.ValidateViewLevel(c.View.Level); err != nil {
		return err
	}
	if c.View.ChunkSize < 0 || c.View.ChunkSize > transform.MaxChunkSize {
		return hgerrors.New(hgerrors.ErrCodeInvalidInput, "view.chunk_size %d out of range (must be 1-%d)", c.View.ChunkSize, transform.MaxChunkSize)
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone, "off", "null":
	default:
		return hgerrors.New(hgerrors.ErrCodeInvalidInput, "cache.backend %q must be file, redis or none", c.Cache.Backend)
	}
	if c.Server.SessionTTL < 0 {
		return hgerrors.New(hgerrors.ErrCodeInvalidInput, "server.session_ttl must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return hgerrors.New(hgerrors.ErrCodeInvalidInput, "watch.debounce must not be negative")
	}
	return nil
}

// Keyer returns the cache key scheme. Redis keys are prefixed with
// cache.redis.key_prefix; other backends use the default scheme.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Backend == cache.BackendRedis && c.Cache.Redis.KeyPrefix != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Redis.KeyPrefix)
	}
	return cache.NewDefaultKeyer()
}

// CacheConfig converts the [cache] table for cache.Open.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:        c.Cache.Redis.Addr,
			Password:    c.Cache.Redis.Password,
			DB:          c.Cache.Redis.DB,
			DialTimeout: c.Cache.Redis.DialTimeout,
		},
	}
}
