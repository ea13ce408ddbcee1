package client

import (
	"time"

	"github.com/danmuck/where/internal/protocol"
)

const (
	DefaultTimeout    = 2000 * time.Millisecond
	DefaultMaxRetries = 3
)

// Global holds the defaults every target falls back to.
type Global struct {
	Timeout    time.Duration
	MaxRetries int
	Port       int
}

func DefaultGlobal() Global {
	return Global{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		Port:       protocol.DefaultPort,
	}
}

// Target is one configured host. Nil fields fall back to Global.
type Target struct {
	Endpoint   string
	Label      string
	Timeout    *time.Duration
	MaxRetries *int
	Failsafe   *bool
}

// Settings is a target with every field resolved.
type Settings struct {
	Endpoint   string
	Label      string
	Port       int
	Timeout    time.Duration
	MaxRetries int
	Failsafe   bool
}

// Merge resolves t against g. It runs once per target before querying.
func Merge(t Target, g Global) Settings {
	s := Settings{
		Endpoint:   t.Endpoint,
		Label:      t.Label,
		Port:       g.Port,
		Timeout:    g.Timeout,
		MaxRetries: g.MaxRetries,
	}
	if s.Label == "" {
		s.Label = t.Endpoint
	}
	if t.Timeout != nil {
		s.Timeout = *t.Timeout
	}
	if t.MaxRetries != nil {
		s.MaxRetries = *t.MaxRetries
	}
	if t.Failsafe != nil {
		s.Failsafe = *t.Failsafe
	}
	return s
}

// attempts is the number of probes sent before giving up.
func (s Settings) attempts() int {
	if s.MaxRetries < 1 {
		return 1
	}
	return s.MaxRetries
}
