package uvw

import (
	"net/http"
	"time"

	"github.com/fasthttp/websocket"
)

type (
	// LoopOption configures a Loop at construction.
	LoopOption func(*Loop)

	// WebSocketOption configures a WebSocketHandle at construction.
	WebSocketOption func(*WebSocketHandle)
)

// WithLogger routes the loop's and its handles' logging through l.
func WithLogger(l Logger) LoopOption {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithPollBatch caps how many poller events a single iteration
// consumes.
func WithPollBatch(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.pollBatch = n
		}
	}
}

// WithDialer substitutes the dialer used by Dial.
func WithDialer(d *websocket.Dialer) WebSocketOption {
	return func(h *WebSocketHandle) {
		if d != nil {
			h.dialer = d
		}
	}
}

// WithRequestHeader sets the handshake request header sent by Dial.
func WithRequestHeader(header http.Header) WebSocketOption {
	return func(h *WebSocketHandle) {
		h.header = header
	}
}

// WithAutoPong toggles automatic pong replies to incoming pings. On by
// default.
func WithAutoPong(on bool) WebSocketOption {
	return func(h *WebSocketHandle) {
		h.autoPong = on
	}
}

// WithPingInterval makes a connected handle send a ping every d to keep
// the connection alive.
func WithPingInterval(d time.Duration) WebSocketOption {
	return func(h *WebSocketHandle) {
		h.pingInterval = d
	}
}

// WithPingPayload sets the factory producing each keep alive ping's
// payload.
func WithPingPayload(fn func() []byte) WebSocketOption {
	return func(h *WebSocketHandle) {
		if fn != nil {
			h.pingPayload = fn
		}
	}
}

// WithWriteTimeout bounds each frame write. One second by default.
func WithWriteTimeout(d time.Duration) WebSocketOption {
	return func(h *WebSocketHandle) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}
