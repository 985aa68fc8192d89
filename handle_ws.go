package uvw

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

type (
	// WebSocketConn is the connection surface the handle drives. It is
	// satisfied by *websocket.Conn; tests substitute their own.
	WebSocketConn interface {
		ReadMessage() (messageType int, p []byte, err error)
		WriteMessage(messageType int, data []byte) error
		WriteControl(messageType int, data []byte, deadline time.Time) error
		SetWriteDeadline(t time.Time) error
		SetPingHandler(h func(appData string) error)
		SetPongHandler(h func(appData string) error)
		SetCloseHandler(h func(code int, text string) error)
		Close() error
	}

	// WebSocketHandle drives a WebSocket connection from the loop. A
	// reader goroutine owns the wire and marshals everything through
	// Post, so listeners observe ConnectEvent, DataEvent, EndEvent and
	// ErrorEvent on the loop goroutine; Send and SendKind must be
	// called there too.
	//
	// When the transport dies, after EndEvent (peer close frame) or a
	// read ErrorEvent, the handle closes itself and CloseEvent follows.
	WebSocketHandle struct {
		Resource[WebSocketHandle]

		logger Logger
		dialer *websocket.Dialer
		header http.Header

		conn    WebSocketConn
		quit    chan struct{}
		dialing bool

		autoPong     bool
		pingInterval time.Duration
		pingPayload  func() []byte
		writeTimeout time.Duration
		pinger       *TimerHandle
	}
)

// NewWebSocket creates a WebSocket handle attached to l. Connect it
// with Dial or Adopt.
func NewWebSocket(l *Loop, opts ...WebSocketOption) (*WebSocketHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	h := &WebSocketHandle{
		logger:       l.logger.WithField("handle", "websocket"),
		dialer:       websocket.DefaultDialer,
		autoPong:     true,
		pingPayload:  func() []byte { return nil },
		writeTimeout: time.Second,
	}
	h.Resource = newResource(l, h)
	h.teardown = func() {
		h.stopPinger()
		if h.quit != nil {
			close(h.quit)
			h.quit = nil
		}
		if h.conn != nil {
			deadline := time.Now().Add(h.writeTimeout)
			_ = h.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = h.conn.Close()
			h.conn = nil
		}
	}

	for _, opt := range opts {
		opt(h)
	}

	l.attach(h)
	return h, nil
}

// Dial opens the connection in the background. Success publishes
// ConnectEvent; a failed handshake publishes ErrorEvent wrapping
// ErrRateLimit or ErrCannotConnect, and the handle may dial again.
func (h *WebSocketHandle) Dial(rawURL string) error {
	if h.closing {
		return ErrHandleClosed
	}
	if h.conn != nil || h.dialing {
		return ErrAlreadyConnected
	}
	h.dialing = true
	h.markActive(true)

	go func() {
		conn, resp, err := h.dialer.Dial(rawURL, h.header)
		if err = wsDialError(resp, err); err != nil {
			h.loop.Post(func() {
				h.dialing = false
				if h.closing {
					return
				}
				h.logger.Errorf("connection err to %s: %s", rawURL, err)
				h.markActive(false)
				Publish(h.Emitter, ErrorEvent{Err: err})
			})
			return
		}
		h.loop.Post(func() {
			h.dialing = false
			if h.closing {
				_ = conn.Close()
				return
			}
			h.logger.Debugf("success opening connection to %s", rawURL)
			h.adopt(conn)
		})
	}()
	return nil
}

// Adopt wires an already established connection into the handle and
// publishes ConnectEvent. Must be called on the loop goroutine.
func (h *WebSocketHandle) Adopt(conn WebSocketConn) error {
	if h.closing {
		return ErrHandleClosed
	}
	if h.conn != nil || h.dialing {
		return ErrAlreadyConnected
	}
	h.adopt(conn)
	return nil
}

// Connected reports whether a connection is currently attached.
func (h *WebSocketHandle) Connected() bool {
	return h.conn != nil
}

// Send writes a text frame.
func (h *WebSocketHandle) Send(data []byte) error {
	return h.SendKind(TextMessage, data)
}

// SendKind writes a frame of the given kind. Control frames go through
// WriteControl under the write timeout; a ping that fails with a
// temporary network error counts as sent.
func (h *WebSocketHandle) SendKind(kind MessageKind, data []byte) error {
	if h.closing {
		return ErrHandleClosed
	}
	if h.conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(h.writeTimeout)
	_ = h.conn.SetWriteDeadline(deadline)

	var err error
	switch {
	case kind.IsPing():
		h.logger.Debugln("=> [PING]")
		err = h.conn.WriteControl(websocket.PingMessage, data, deadline)
		if e, ok := err.(net.Error); ok && e.Temporary() {
			err = nil
		}
	case kind.IsPong():
		h.logger.Debugln("=> [PONG]")
		err = h.conn.WriteControl(websocket.PongMessage, data, deadline)
	case kind.IsClose():
		h.logger.Debugln("=> [CLOSE]")
		err = h.conn.WriteControl(websocket.CloseMessage, data, deadline)
	case kind.IsBinary():
		h.logger.Debugln("=> [BIN]")
		err = h.conn.WriteMessage(websocket.BinaryMessage, data)
	default:
		h.logger.Debugf("=> [DATA] %s", data)
		err = h.conn.WriteMessage(websocket.TextMessage, data)
	}

	if err != nil {
		if websocket.IsCloseError(err,
			websocket.CloseGoingAway,
			websocket.CloseAbnormalClosure,
		) {
			return ErrConnectionClosed
		}
		return errors.Wrap(ErrConnectionClosed, err.Error())
	}
	return nil
}

// adopt takes ownership of conn: control frame handlers are overridden
// to keep full control over them, the reader goroutine starts and
// ConnectEvent goes out.
func (h *WebSocketHandle) adopt(conn WebSocketConn) {
	h.conn = conn
	h.quit = make(chan struct{})
	h.markActive(true)

	conn.SetPingHandler(func(appData string) error {
		h.logger.Debugln("<= [PING]")
		data := []byte(appData)
		h.post(func() {
			if h.autoPong {
				if err := h.SendKind(PongMessage, data); err != nil {
					h.logger.Warnf("auto pong failed: %s", err)
				}
			}
			Publish(h.Emitter, DataEvent{Kind: PingMessage, Data: data})
		})
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		h.logger.Debugln("<= [PONG]")
		data := []byte(appData)
		h.post(func() {
			Publish(h.Emitter, DataEvent{Kind: PongMessage, Data: data})
		})
		return nil
	})

	Publish(h.Emitter, ConnectEvent{})

	go h.readLoop(conn, h.quit)
	h.startPinger()
}

// readLoop owns the wire until it breaks or the handle tears down.
func (h *WebSocketHandle) readLoop(conn WebSocketConn, quit chan struct{}) {
	var peerClosed bool
	conn.SetCloseHandler(func(code int, text string) error {
		peerClosed = true
		h.logger.Debugln("<= [CLOSE]")
		h.post(func() {
			Publish(h.Emitter, EndEvent{Code: code, Reason: text})
		})
		return nil
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-quit:
				// torn down from our side
			default:
				if !peerClosed {
					h.logger.Errorf("error occurred on websocket read: %s", err)
					readErr := errors.Wrap(ErrConnectionClosed, err.Error())
					h.post(func() {
						Publish(h.Emitter, ErrorEvent{Err: readErr})
					})
				}
				h.post(h.disconnect)
			}
			return
		}

		if MessageKind(kind).IsBinary() {
			h.logger.Debugln("<= [BIN]")
		} else {
			h.logger.Debugf("<= [DATA] %s", string(data))
		}
		evt := DataEvent{Kind: MessageKind(kind), Data: data}
		h.post(func() {
			Publish(h.Emitter, evt)
		})
	}
}

// disconnect drops a connection the peer side already killed, then
// closes the handle.
func (h *WebSocketHandle) disconnect() {
	h.stopPinger()
	if h.conn != nil {
		_ = h.conn.Close()
		h.conn = nil
	}
	h.Close()
}

func (h *WebSocketHandle) startPinger() {
	if h.pingInterval <= 0 {
		return
	}
	t, err := NewTimer(h.loop)
	if err != nil {
		return
	}
	On(t.Emitter, func(_ *TimerEvent, _ *TimerHandle) {
		if err := h.SendKind(PingMessage, h.pingPayload()); err != nil {
			h.logger.Warnf("keep alive ping failed: %s", err)
		}
	})
	if err := t.Start(h.pingInterval, h.pingInterval); err != nil {
		t.Close()
		return
	}
	h.pinger = t
}

func (h *WebSocketHandle) stopPinger() {
	if h.pinger == nil {
		return
	}
	h.pinger.Close()
	h.pinger = nil
}

// post marshals fn to the loop goroutine, dropping it when the handle
// is already closing by the time it runs.
func (h *WebSocketHandle) post(fn func()) {
	h.loop.Post(func() {
		if h.closing {
			return
		}
		fn()
	})
}

// wsDialError classifies a failed handshake: HTTP 429 means the peer
// rate limited us, anything else is a connectivity problem.
func wsDialError(resp *http.Response, err error) error {
	var msg string
	if resp != nil {
		if resp.Body != nil {
			if bts, rerr := io.ReadAll(resp.Body); rerr == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}
	return nil
}
