package protocol

import (
	"encoding/binary"
)

// Encode writes sessions into one payload. It fails rather than truncate
// when any field, entry or the whole payload exceeds its ceiling.
func Encode(sessions Collection) ([]byte, error) {
	if len(sessions) > maxEntries {
		return nil, ErrTooManyEntries
	}

	buf := make([]byte, 0, headerLength+len(sessions)*MaxEntryLength)
	buf = append(buf, Magic[:]...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(sessions)))

	for _, s := range sessions {
		start := len(buf)
		var err error
		buf, err = appendEntry(buf, s)
		if err != nil {
			return nil, err
		}
		if n := len(buf) - start; n > MaxEntryLength {
			return nil, &SizeError{Kind: ErrEntryTooLarge, Length: n, Max: MaxEntryLength}
		}
	}

	if len(buf) > MaxPayloadLength {
		return nil, &SizeError{Kind: ErrPayloadTooLarge, Length: len(buf), Max: MaxPayloadLength}
	}
	return buf, nil
}

func appendEntry(buf []byte, s Session) ([]byte, error) {
	var err error
	buf = binary.BigEndian.AppendUint32(buf, uint32(s.PID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.LoginTime))
	if buf, err = appendString(buf, "user", s.User, MaxUserTTYLength); err != nil {
		return nil, err
	}
	if buf, err = appendString(buf, "tty", s.TTY, MaxUserTTYLength); err != nil {
		return nil, err
	}
	buf = appendBool(buf, s.HasRemote)
	if s.HasRemote {
		if s.Remote == "" {
			return nil, ErrEmptyRemote
		}
		if buf, err = appendString(buf, "remote", s.Remote, MaxRemoteLength); err != nil {
			return nil, err
		}
	}
	return appendBool(buf, s.Active), nil
}
