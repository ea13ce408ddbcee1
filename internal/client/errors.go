package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimeout = errors.New("client: timed out")
	ErrNoIPv4  = errors.New("client: no IPv4 address found")
)

// TimeoutError is returned when every attempt on a target timed out.
type TimeoutError struct {
	Target   string
	Address  string
	Attempts int
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for data from %s (%s) after %d attempts every %d ms",
		e.Target, e.Address, e.Attempts, e.Timeout.Milliseconds())
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ResolveError reports a failed address lookup.
type ResolveError struct {
	Endpoint string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("unable to resolve %s: %v", e.Endpoint, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// TransportError reports a socket failure other than a receive timeout.
type TransportError struct {
	Op      string
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a reply that did not parse.
type DecodeError struct {
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bad reply from %s: %v", e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// AbortError ends a run when a target without failsafe fails.
type AbortError struct {
	Target string
	Err    error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }
