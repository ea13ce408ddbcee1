package protocol

// Magic identifies the protocol. It doubles as the probe datagram.
var Magic = [4]byte{'W', 'H', 'R', 'D'}

const (
	MaxUserTTYLength  = 32
	MaxRemoteLength   = 64
	MaxEntryLength    = MaxRemoteLength + MaxUserTTYLength*2 + 25
	MaxPayloadLength  = 65501
	MaxPayloadEntries = MaxPayloadLength / MaxEntryLength

	// DefaultPort is the well-known whered service port.
	DefaultPort = 15
)

const (
	headerLength = len(Magic) + 2
	maxEntries   = int(^uint16(0))
)

// Session is one login session on a host.
//
// Host is assigned by the client after decode and never travels on the
// wire. Remote is only meaningful when HasRemote is set.
type Session struct {
	Host      string
	PID       int32
	LoginTime int64
	User      string
	TTY       string
	Remote    string
	HasRemote bool
	Active    bool
}

// Collection is a sequence of sessions in encounter order.
type Collection []Session

// Probe returns a fresh probe datagram.
func Probe() []byte {
	buf := make([]byte, len(Magic))
	copy(buf, Magic[:])
	return buf
}

// IsProbe reports whether b is exactly the probe datagram.
func IsProbe(b []byte) bool {
	return len(b) == len(Magic) && [4]byte(b) == Magic
}
