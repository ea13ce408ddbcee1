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
	"github.com/danmuck/where/internal/client"
	"github.com/danmuck/where/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	FileName      = "where.toml"
	DefaultSource = "Local"
	maxPort       = 65535
)

// Global is the [global] table with defaults applied.
type Global struct {
	Timeout         time.Duration
	MaxRetries      int
	IncludeInactive bool
	Port            int
	Source          string
}

// Server is one [[server]] entry. Nil fields inherit from Global.
type Server struct {
	Endpoint   string
	Label      string
	Timeout    *time.Duration
	MaxRetries *int
	Failsafe   *bool
}

type Config struct {
	Path    string
	Global  Global
	Servers []Server
}

func DefaultGlobal() Global {
	return Global{
		Timeout:         client.DefaultTimeout,
		MaxRetries:      client.DefaultMaxRetries,
		IncludeInactive: true,
		Port:            protocol.DefaultPort,
		Source:          DefaultSource,
	}
}

type fileConfig struct {
	Global fileGlobal   `toml:"global"`
	Server []fileServer `toml:"server"`
}

type fileGlobal struct {
	TimeoutMS       int64  `toml:"timeout"`
	MaxRetries      int    `toml:"max_retries"`
	IncludeInactive bool   `toml:"include_inactive"`
	Port            int    `toml:"port"`
	Source          string `toml:"source"`
}

type fileServer struct {
	Endpoint   string `toml:"endpoint"`
	Label      string `toml:"label"`
	TimeoutMS  *int64 `toml:"timeout"`
	MaxRetries *int   `toml:"max_retries"`
	Failsafe   *bool  `toml:"failsafe"`
}

// NotFoundError reports that no candidate location held a config file.
type NotFoundError struct {
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("valid configuration file found nowhere, tried: %s", strings.Join(e.Tried, ", "))
}

// GenerateError reports that the default config could not be written anywhere.
type GenerateError struct {
	Tried []string
	Err   error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("failed to generate the default configuration file, tried: %s", strings.Join(e.Tried, ", "))
}

func (e *GenerateError) Unwrap() error { return e.Err }

// Load decodes one file and fills keys it leaves out with defaults.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		log.Warn().Str("path", path).Str("key", key.String()).Msg("config: unknown key ignored")
	}

	cfg := Config{Path: path, Global: DefaultGlobal()}
	if meta.IsDefined("global", "timeout") {
		cfg.Global.Timeout = millis(raw.Global.TimeoutMS)
	}
	if meta.IsDefined("global", "max_retries") {
		cfg.Global.MaxRetries = raw.Global.MaxRetries
	}
	if meta.IsDefined("global", "include_inactive") {
		cfg.Global.IncludeInactive = raw.Global.IncludeInactive
	}
	if meta.IsDefined("global", "port") {
		cfg.Global.Port = raw.Global.Port
	}
	if meta.IsDefined("global", "source") {
		cfg.Global.Source = raw.Global.Source
	}

	cfg.Servers = make([]Server, 0, len(raw.Server))
	for _, s := range raw.Server {
		srv := Server{
			Endpoint:   strings.TrimSpace(s.Endpoint),
			Label:      strings.TrimSpace(s.Label),
			MaxRetries: s.MaxRetries,
			Failsafe:   s.Failsafe,
		}
		if s.TimeoutMS != nil {
			d := millis(*s.TimeoutMS)
			srv.Timeout = &d
		}
		cfg.Servers = append(cfg.Servers, srv)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Discover loads the first of paths that exists. A file that exists but
// fails to parse or validate is an error, not a reason to keep looking.
func Discover(paths []string) (Config, error) {
	for _, path := range paths {
		cfg, err := Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", path).Msg("config: not found")
			continue
		}
		if err != nil {
			return Config{}, err
		}
		log.Debug().Str("path", path).Int("servers", len(cfg.Servers)).Msg("config: loaded")
		return cfg, nil
	}
	return Config{}, &NotFoundError{Tried: append([]string(nil), paths...)}
}

func Validate(cfg Config) error {
	g := cfg.Global
	if g.Timeout <= 0 {
		return fmt.Errorf("global timeout must be positive")
	}
	if g.MaxRetries < 0 {
		return fmt.Errorf("global max_retries must not be negative")
	}
	if g.Port <= 0 || g.Port > maxPort {
		return fmt.Errorf("global port out of range: %d", g.Port)
	}
	for i, s := range cfg.Servers {
		if err := validateServer(s); err != nil {
			return fmt.Errorf("server[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func validateServer(s Server) error {
	if strings.TrimSpace(s.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if s.Timeout != nil && *s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if s.MaxRetries != nil && *s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}

// GenerateDefault writes DefaultTemplate to the first location that accepts
// it, trying system-wide locations before per-user ones. Existing files are
// overwritten.
func GenerateDefault(paths []string) (string, error) {
	tried := make([]string, 0, len(paths))
	var lastErr error
	for i := len(paths) - 1; i >= 0; i-- {
		path := paths[i]
		tried = append(tried, path)
		if err := writeTemplate(path); err != nil {
			log.Debug().Str("path", path).Err(err).Msg("config: generate skipped")
			lastErr = err
			continue
		}
		return path, nil
	}
	return "", &GenerateError{Tried: tried, Err: lastErr}
}

func writeTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(DefaultTemplate), 0o644)
}

// Defaults is the global section in the form the client merges targets with.
func (c Config) Defaults() client.Global {
	return client.Global{
		Timeout:    c.Global.Timeout,
		MaxRetries: c.Global.MaxRetries,
		Port:       c.Global.Port,
	}
}

func (c Config) Targets() []client.Target {
	targets := make([]client.Target, 0, len(c.Servers))
	for _, s := range c.Servers {
		targets = append(targets, client.Target{
			Endpoint:   s.Endpoint,
			Label:      s.Label,
			Timeout:    s.Timeout,
			MaxRetries: s.MaxRetries,
			Failsafe:   s.Failsafe,
		})
	}
	return targets
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
