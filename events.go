package uvw

import (
	"os"
	"strings"
)

// MessageKind identifies the WebSocket frame type a DataEvent was read
// from, or the one a payload should be written as. Values match the
// RFC 6455 opcodes.
type MessageKind byte

const (
	TextMessage   MessageKind = 1
	BinaryMessage MessageKind = 2
	CloseMessage  MessageKind = 8
	PingMessage   MessageKind = 9
	PongMessage   MessageKind = 10
)

func (k MessageKind) Is(other MessageKind) bool {
	return k == other
}

func (k MessageKind) IsText() bool {
	return k.Is(TextMessage)
}

func (k MessageKind) IsBinary() bool {
	return k.Is(BinaryMessage)
}

func (k MessageKind) IsPing() bool {
	return k.Is(PingMessage)
}

func (k MessageKind) IsPong() bool {
	return k.Is(PongMessage)
}

func (k MessageKind) IsClose() bool {
	return k.Is(CloseMessage)
}

// PollFlags is the readiness bitmask reported by PollEvent and requested
// through PollHandle.Start.
type PollFlags uint32

const (
	// PollReadable indicates the descriptor is ready for reading.
	PollReadable PollFlags = 1 << iota
	// PollWritable indicates the descriptor is ready for writing.
	PollWritable
	// PollDisconnect indicates the peer shut down its end.
	PollDisconnect
)

// Has returns true if the bitmask includes the given flags.
func (f PollFlags) Has(o PollFlags) bool {
	return f&o == o
}

// String returns a human-readable representation of the bitmask.
func (f PollFlags) String() string {
	if f == 0 {
		return "NONE"
	}
	var parts []string
	if f.Has(PollReadable) {
		parts = append(parts, "READABLE")
	}
	if f.Has(PollWritable) {
		parts = append(parts, "WRITABLE")
	}
	if f.Has(PollDisconnect) {
		parts = append(parts, "DISCONNECT")
	}
	return strings.Join(parts, "|")
}

// FsOp is the bitmask of filesystem operations carried by an FsEvent.
type FsOp uint32

const (
	// FsCreate indicates a file or directory was created.
	FsCreate FsOp = 1 << iota
	// FsWrite indicates a file was written to.
	FsWrite
	// FsRemove indicates a file or directory was removed.
	FsRemove
	// FsRename indicates a file or directory was renamed.
	FsRename
	// FsChmod indicates permissions were changed.
	FsChmod
)

// Has returns true if the bitmask includes the given operations.
func (op FsOp) Has(o FsOp) bool {
	return op&o == o
}

// String returns a human-readable representation of the bitmask.
func (op FsOp) String() string {
	if op == 0 {
		return "NONE"
	}
	var parts []string
	if op.Has(FsCreate) {
		parts = append(parts, "CREATE")
	}
	if op.Has(FsWrite) {
		parts = append(parts, "WRITE")
	}
	if op.Has(FsRemove) {
		parts = append(parts, "REMOVE")
	}
	if op.Has(FsRename) {
		parts = append(parts, "RENAME")
	}
	if op.Has(FsChmod) {
		parts = append(parts, "CHMOD")
	}
	return strings.Join(parts, "|")
}

// Event payloads. Their fields are plain data; all behavior lives in the
// handles that publish them.

// CloseEvent is published exactly once when a handle is closed, right
// before it detaches from its loop.
type CloseEvent struct{}

// ErrorEvent reports a failure observed by a handle or by the loop.
type ErrorEvent struct {
	Err error
}

func (e ErrorEvent) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e ErrorEvent) Unwrap() error {
	return e.Err
}

// TimerEvent is published by a TimerHandle on expiry.
type TimerEvent struct{}

// PrepareEvent is published by a started PrepareHandle once per loop
// iteration, right before the loop blocks in the poller.
type PrepareEvent struct{}

// CheckEvent is published by a started CheckHandle once per loop
// iteration, right after the poller returns.
type CheckEvent struct{}

// IdleEvent is published by a started IdleHandle once per loop
// iteration. Active idle handles keep the loop from blocking.
type IdleEvent struct{}

// PollEvent reports I/O readiness on the descriptor a PollHandle wraps.
type PollEvent struct {
	Flags PollFlags
}

// SignalEvent reports delivery of the signal a SignalHandle subscribed to.
type SignalEvent struct {
	Sig os.Signal
}

// FsEvent reports a filesystem change on a watched path.
type FsEvent struct {
	Path string
	Op   FsOp
}

// ConnectEvent is published by a WebSocketHandle once its connection is
// established.
type ConnectEvent struct{}

// DataEvent carries one WebSocket message read from the peer.
type DataEvent struct {
	Kind MessageKind
	Data []byte
}

// EndEvent reports the close frame received from the WebSocket peer.
type EndEvent struct {
	Code   int
	Reason string
}
