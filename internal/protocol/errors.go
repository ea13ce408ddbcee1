package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic        = errors.New("protocol: bad magic")
	ErrTruncated       = errors.New("protocol: truncated data")
	ErrStringTooLong   = errors.New("protocol: string exceeds length limit")
	ErrInvalidBool     = errors.New("protocol: boolean value is not 0 or 1")
	ErrEmptyRemote     = errors.New("protocol: remote tag set but remote is empty")
	ErrInvalidUTF8     = errors.New("protocol: string is not valid utf-8")
	ErrEntryTooLarge   = errors.New("protocol: entry too large")
	ErrPayloadTooLarge = errors.New("protocol: payload too large")
	ErrTooManyEntries  = errors.New("protocol: too many entries")
)

// MagicError reports the magic actually received.
type MagicError struct {
	Got [4]byte
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("protocol: bad magic %q, possible corruption or invalid server", e.Got[:])
}

func (e *MagicError) Unwrap() error { return ErrBadMagic }

// LengthError reports a string field whose length exceeds its ceiling.
type LengthError struct {
	Field  string
	Length uint32
	Max    int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("protocol: %s length %d exceeds limit %d", e.Field, e.Length, e.Max)
}

func (e *LengthError) Unwrap() error { return ErrStringTooLong }

// SizeError reports an entry or payload over its capacity.
type SizeError struct {
	Kind   error
	Length int
	Max    int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%v: %d bytes but maximum is %d", e.Kind, e.Length, e.Max)
}

func (e *SizeError) Unwrap() error { return e.Kind }
