package protocol

import (
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleSessions() Collection {
	return Collection{
		{PID: 4120, LoginTime: 1700000000, User: "alice", TTY: "pts/0", Remote: "10.0.0.7", HasRemote: true, Active: true},
		{PID: 0, LoginTime: 1690000000, User: "bob", TTY: "tty1", Active: false},
		{PID: -3, LoginTime: -1, User: "", TTY: "", Remote: "jump.example.org", HasRemote: true, Active: true},
		{PID: 77, LoginTime: 1710000000, User: "émilie", TTY: "pts/12", Active: true},
	}
}

func TestRoundTripEncodeDecode(t *testing.T) {
	in := sampleSessions()
	buf, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(buf, "alpha")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d sessions, got %d", len(in), len(out))
	}
	for i := range in {
		want := in[i]
		want.Host = "alpha"
		if !reflect.DeepEqual(out[i], want) {
			t.Fatalf("session %d mismatch: got=%+v want=%+v", i, out[i], want)
		}
	}
}

func TestRoundTripEmptyCollection(t *testing.T) {
	buf, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(buf) != headerLength {
		t.Fatalf("expected header-only payload, got %d bytes", len(buf))
	}
	out, err := Decode(buf, "alpha")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no sessions, got %d", len(out))
	}
}

func TestDecodeIgnoresTrailingBuffer(t *testing.T) {
	buf, err := Encode(sampleSessions())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	padded := make([]byte, MaxPayloadLength)
	copy(padded, buf)

	out, err := Decode(padded, "alpha")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(sampleSessions()) {
		t.Fatalf("unexpected session count: %d", len(out))
	}
}

func TestDecodeBadMagic(t *testing.T) {
	buf, err := Encode(sampleSessions())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf[0] ^= 0xff

	out, err := Decode(buf, "alpha")
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no partial result, got %+v", out)
	}
	var magic *MagicError
	if !errors.As(err, &magic) {
		t.Fatalf("expected MagicError, got %T", err)
	}
	if magic.Got[0] != 'W'^0xff {
		t.Fatalf("unexpected magic bytes: %v", magic.Got)
	}
}

func TestDecodeShortBufferIsTruncated(t *testing.T) {
	for _, buf := range [][]byte{nil, {'W', 'H'}, {'W', 'H', 'R', 'D', 0}} {
		if _, err := Decode(buf, "alpha"); !errors.Is(err, ErrTruncated) {
			t.Fatalf("expected ErrTruncated for %v, got %v", buf, err)
		}
	}
}

func TestDecodeEntryCountBeyondData(t *testing.T) {
	buf, err := Encode(sampleSessions()[:1])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	binary.BigEndian.PutUint16(buf[4:6], 2)

	out, err := Decode(buf, "alpha")
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no partial result")
	}
}

func TestEncodeRejectsLongUser(t *testing.T) {
	in := Collection{{User: strings.Repeat("u", MaxUserTTYLength+1), TTY: "pts/0"}}
	buf, err := Encode(in)
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
	if buf != nil {
		t.Fatalf("expected no payload")
	}
	var length *LengthError
	if !errors.As(err, &length) || length.Field != "user" || length.Max != MaxUserTTYLength {
		t.Fatalf("unexpected length error: %+v", err)
	}
}

func TestEncodeRejectsLongRemote(t *testing.T) {
	in := Collection{{User: "a", TTY: "b", Remote: strings.Repeat("r", MaxRemoteLength+1), HasRemote: true}}
	if _, err := Encode(in); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
}

func TestEncodeRejectsFullWidthEntry(t *testing.T) {
	in := Collection{{
		User:      strings.Repeat("u", MaxUserTTYLength),
		TTY:       strings.Repeat("t", MaxUserTTYLength),
		Remote:    strings.Repeat("r", MaxRemoteLength),
		HasRemote: true,
	}}
	_, err := Encode(in)
	if !errors.Is(err, ErrEntryTooLarge) {
		t.Fatalf("expected ErrEntryTooLarge, got %v", err)
	}
}

func TestEncodeAcceptsEntryAtBound(t *testing.T) {
	in := Collection{{
		User:      strings.Repeat("u", MaxUserTTYLength),
		TTY:       strings.Repeat("t", MaxUserTTYLength),
		Remote:    strings.Repeat("r", MaxRemoteLength-1),
		HasRemote: true,
	}}
	buf, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(buf) != headerLength+MaxEntryLength {
		t.Fatalf("unexpected payload length: %d", len(buf))
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	entry := Session{
		User:      strings.Repeat("u", MaxUserTTYLength),
		TTY:       strings.Repeat("t", MaxUserTTYLength),
		Remote:    strings.Repeat("r", MaxRemoteLength-1),
		HasRemote: true,
	}
	in := make(Collection, MaxPayloadEntries+2)
	for i := range in {
		in[i] = entry
	}
	_, err := Encode(in)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestEncodeRejectsEntryCountOverflow(t *testing.T) {
	in := make(Collection, maxEntries+1)
	if _, err := Encode(in); !errors.Is(err, ErrTooManyEntries) {
		t.Fatalf("expected ErrTooManyEntries, got %v", err)
	}
}

func TestEncodeRejectsTaggedEmptyRemote(t *testing.T) {
	in := Collection{{User: "a", TTY: "b", HasRemote: true}}
	if _, err := Encode(in); !errors.Is(err, ErrEmptyRemote) {
		t.Fatalf("expected ErrEmptyRemote, got %v", err)
	}
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	in := Collection{{User: "a\xffb", TTY: "b"}}
	if _, err := Encode(in); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestDecodeLengthCeilingBeforeRead(t *testing.T) {
	// Oversized user length followed by nothing: the ceiling must be
	// reported, not an underrun.
	buf := payload(1)
	buf = header(buf, 1, 1)
	buf = binary.BigEndian.AppendUint32(buf, MaxUserTTYLength+1)

	_, err := Decode(buf, "alpha")
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
	if errors.Is(err, ErrTruncated) {
		t.Fatalf("ceiling check must precede read")
	}
}

func TestDecodeRemoteCeiling(t *testing.T) {
	buf := payload(1)
	buf = header(buf, 1, 1)
	buf = str(buf, "alice")
	buf = str(buf, "pts/0")
	buf = append(buf, 1)
	buf = binary.BigEndian.AppendUint32(buf, MaxRemoteLength+1)

	var length *LengthError
	_, err := Decode(buf, "alpha")
	if !errors.As(err, &length) || length.Field != "remote" {
		t.Fatalf("expected remote LengthError, got %v", err)
	}
}

func TestDecodeRejectsNonBinaryBooleans(t *testing.T) {
	t.Run("has_remote", func(t *testing.T) {
		buf := payload(1)
		buf = header(buf, 1, 1)
		buf = str(buf, "alice")
		buf = str(buf, "pts/0")
		buf = append(buf, 2, 1)
		if _, err := Decode(buf, "alpha"); !errors.Is(err, ErrInvalidBool) {
			t.Fatalf("expected ErrInvalidBool, got %v", err)
		}
	})
	t.Run("active", func(t *testing.T) {
		buf := payload(1)
		buf = header(buf, 1, 1)
		buf = str(buf, "alice")
		buf = str(buf, "pts/0")
		buf = append(buf, 0, 2)
		if _, err := Decode(buf, "alpha"); !errors.Is(err, ErrInvalidBool) {
			t.Fatalf("expected ErrInvalidBool, got %v", err)
		}
	})
}

func TestDecodeRejectsEmptyRemote(t *testing.T) {
	buf := payload(1)
	buf = header(buf, 1, 1)
	buf = str(buf, "alice")
	buf = str(buf, "pts/0")
	buf = append(buf, 1)
	buf = str(buf, "")
	buf = append(buf, 1)

	out, err := Decode(buf, "alpha")
	if !errors.Is(err, ErrEmptyRemote) {
		t.Fatalf("expected ErrEmptyRemote, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no partial result")
	}
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	buf := payload(1)
	buf = header(buf, 1, 1)
	buf = str(buf, "a\xc3")
	buf = str(buf, "pts/0")
	buf = append(buf, 0, 1)
	if _, err := Decode(buf, "alpha"); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestDecodeBadSecondEntryDiscardsFirst(t *testing.T) {
	buf, err := Encode(sampleSessions()[:2])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Last byte is the second entry's active flag.
	buf[len(buf)-1] = 9

	out, err := Decode(buf, "alpha")
	if !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("expected ErrInvalidBool, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no partial result, got %d sessions", len(out))
	}
}

func TestDecodeRejectsOversizedInput(t *testing.T) {
	buf := make([]byte, MaxPayloadLength+1)
	copy(buf, Magic[:])
	if _, err := Decode(buf, "alpha"); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	p := Probe()
	if !IsProbe(p) {
		t.Fatalf("probe not recognised: %q", p)
	}
	p[0] = 'X'
	if Magic[0] != 'W' {
		t.Fatalf("probe aliases magic")
	}
	if IsProbe(p) || IsProbe(nil) || IsProbe([]byte("WHRDx")) {
		t.Fatalf("unexpected probe match")
	}
}

func payload(count uint16) []byte {
	buf := append([]byte{}, Magic[:]...)
	return binary.BigEndian.AppendUint16(buf, count)
}

func header(buf []byte, pid int32, loginTime int64) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(pid))
	return binary.BigEndian.AppendUint64(buf, uint64(loginTime))
}

func str(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
