package protocol

// Decode parses one payload and labels every session with host. Any
// violation aborts the whole decode; no partial collection is returned.
//
// Bytes after the last declared entry are ignored, since a receive buffer
// is usually larger than the datagram it holds.
func Decode(buf []byte, host string) (Collection, error) {
	if len(buf) > MaxPayloadLength {
		return nil, &SizeError{Kind: ErrPayloadTooLarge, Length: len(buf), Max: MaxPayloadLength}
	}
	c := &cursor{buf: buf}

	magic, err := c.next(len(Magic))
	if err != nil {
		return nil, err
	}
	if [4]byte(magic) != Magic {
		return nil, &MagicError{Got: [4]byte(magic)}
	}

	count, err := c.uint16()
	if err != nil {
		return nil, err
	}
	// Capacity is bounded by what the buffer can hold, not by the
	// declared count.
	out := make(Collection, 0, min(int(count), c.remaining()/minEntryLength))
	for i := 0; i < int(count); i++ {
		s, err := decodeEntry(c)
		if err != nil {
			return nil, err
		}
		s.Host = host
		out = append(out, s)
	}
	return out, nil
}

// pid, login_time, two length prefixes, two flags.
const minEntryLength = 4 + 8 + 4 + 4 + 1 + 1

func decodeEntry(c *cursor) (Session, error) {
	var (
		s   Session
		err error
	)
	if s.PID, err = c.int32(); err != nil {
		return Session{}, err
	}
	if s.LoginTime, err = c.int64(); err != nil {
		return Session{}, err
	}
	if s.User, err = c.string("user", MaxUserTTYLength); err != nil {
		return Session{}, err
	}
	if s.TTY, err = c.string("tty", MaxUserTTYLength); err != nil {
		return Session{}, err
	}
	if s.HasRemote, err = c.bool(); err != nil {
		return Session{}, err
	}
	if s.HasRemote {
		if s.Remote, err = c.string("remote", MaxRemoteLength); err != nil {
			return Session{}, err
		}
		if s.Remote == "" {
			return Session{}, ErrEmptyRemote
		}
	}
	if s.Active, err = c.bool(); err != nil {
		return Session{}, err
	}
	return s, nil
}
