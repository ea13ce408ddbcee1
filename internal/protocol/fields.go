package protocol

import (
	"encoding/binary"
	"unicode/utf8"
)

// cursor reads fixed-width big-endian fields from a bounded buffer.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrTruncated
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) int32() (int32, error) {
	v, err := c.uint32()
	return int32(v), err
}

func (c *cursor) int64() (int64, error) {
	b, err := c.next(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (c *cursor) bool() (bool, error) {
	b, err := c.next(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// string reads a u32 length prefix and rejects it against max before
// consuming any of the string bytes.
func (c *cursor) string(field string, max int) (string, error) {
	n, err := c.uint32()
	if err != nil {
		return "", err
	}
	if n > uint32(max) {
		return "", &LengthError{Field: field, Length: n, Max: max}
	}
	b, err := c.next(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendString(buf []byte, field, s string, max int) ([]byte, error) {
	if len(s) > max {
		return nil, &LengthError{Field: field, Length: uint32(min(len(s), int(^uint32(0)))), Max: max}
	}
	if !utf8.ValidString(s) {
		return nil, ErrInvalidUTF8
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...), nil
}
