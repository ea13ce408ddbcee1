package sessions

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/danmuck/where/internal/protocol"
)

const DefaultPath = "/var/run/utmp"

const (
	typeUserProcess = 7
	typeDeadProcess = 8
)

var ErrShortRecord = errors.New("sessions: truncated utmp record")

// record mirrors glibc struct utmp on linux (384 bytes).
type record struct {
	Type    int16
	_       [2]byte
	PID     int32
	Line    [32]byte
	ID      [4]byte
	User    [32]byte
	Host    [256]byte
	Exit    [2]int16
	Session int32
	TvSec   int32
	TvUsec  int32
	AddrV6  [4]int32
	_       [20]byte
}

// RecordSize is the on-disk size of one utmp entry.
var RecordSize = binary.Size(record{})

// Utmp reads sessions from a utmp file on every call.
type Utmp struct {
	Path  string
	Alive func(pid int32) bool
}

func NewUtmp(path string) *Utmp {
	if path == "" {
		path = DefaultPath
	}
	return &Utmp{Path: path, Alive: ProcessAlive}
}

func (u *Utmp) Sessions() (protocol.Collection, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("open utmp: %w", err)
	}
	defer f.Close()
	sessions, err := Parse(f, u.Alive)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Path, err)
	}
	return sessions, nil
}

// Parse decodes utmp records from r. A session is active only when its
// record is a live user process and alive reports the leader running;
// killed sessions can linger as user process records.
func Parse(r io.Reader, alive func(pid int32) bool) (protocol.Collection, error) {
	if alive == nil {
		alive = func(int32) bool { return true }
	}
	var out protocol.Collection
	for {
		var rec record
		err := binary.Read(r, binary.NativeEndian, &rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortRecord
		}
		if err != nil {
			return nil, err
		}
		if rec.Type != typeUserProcess && rec.Type != typeDeadProcess {
			continue
		}
		out = append(out, rec.session(alive))
	}
}

func (rec record) session(alive func(pid int32) bool) protocol.Session {
	remote := field(rec.Host[:], protocol.MaxRemoteLength)
	return protocol.Session{
		PID:       rec.PID,
		LoginTime: int64(rec.TvSec),
		User:      field(rec.User[:], protocol.MaxUserTTYLength),
		TTY:       field(rec.Line[:], protocol.MaxUserTTYLength),
		Remote:    remote,
		HasRemote: remote != "",
		Active:    rec.Type == typeUserProcess && alive(rec.PID),
	}
}

// field converts a NUL-padded C string into valid UTF-8 of at most max
// bytes, cutting on a rune boundary.
func field(b []byte, max int) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s := strings.ToValidUTF8(string(b), "")
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
