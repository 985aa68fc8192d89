package uvw

import (
	"net"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/mock"
)

// mockWebSocketConn scripts the read side through a frame queue and
// records the write side with testify. Control frames run their
// handlers on the reader goroutine the way the real conn does.
type mockWebSocketConn struct {
	mock.Mock

	reads chan mockRead
	done  chan struct{}
	once  sync.Once

	pingHandler  func(appData string) error
	pongHandler  func(appData string) error
	closeHandler func(code int, text string) error
}

type mockRead struct {
	kind      int
	data      []byte
	err       error
	closeCode int
	closeText string
}

func newMockWebSocketConn() *mockWebSocketConn {
	return &mockWebSocketConn{
		reads: make(chan mockRead, 16),
		done:  make(chan struct{}),
	}
}

func (m *mockWebSocketConn) queueRead(kind int, data []byte) {
	m.reads <- mockRead{kind: kind, data: data}
}

func (m *mockWebSocketConn) queueReadErr(err error) {
	m.reads <- mockRead{err: err}
}

func (m *mockWebSocketConn) peerPing(data string) {
	m.reads <- mockRead{kind: websocket.PingMessage, data: []byte(data)}
}

func (m *mockWebSocketConn) peerPong(data string) {
	m.reads <- mockRead{kind: websocket.PongMessage, data: []byte(data)}
}

func (m *mockWebSocketConn) peerClose(code int, text string) {
	m.reads <- mockRead{kind: websocket.CloseMessage, closeCode: code, closeText: text}
}

func (m *mockWebSocketConn) ReadMessage() (int, []byte, error) {
	for {
		select {
		case <-m.done:
			return 0, nil, net.ErrClosed
		case r := <-m.reads:
			if r.err != nil {
				return 0, nil, r.err
			}
			switch r.kind {
			case websocket.PingMessage:
				if m.pingHandler != nil {
					_ = m.pingHandler(string(r.data))
				}
			case websocket.PongMessage:
				if m.pongHandler != nil {
					_ = m.pongHandler(string(r.data))
				}
			case websocket.CloseMessage:
				if m.closeHandler != nil {
					_ = m.closeHandler(r.closeCode, r.closeText)
				}
				return 0, nil, &websocket.CloseError{Code: r.closeCode, Text: r.closeText}
			default:
				return r.kind, r.data, nil
			}
		}
	}
}

func (m *mockWebSocketConn) WriteMessage(messageType int, data []byte) error {
	args := m.Called(messageType, data)
	return args.Error(0)
}

func (m *mockWebSocketConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	args := m.Called(messageType, data, deadline)
	return args.Error(0)
}

func (m *mockWebSocketConn) SetWriteDeadline(time.Time) error {
	return nil
}

func (m *mockWebSocketConn) SetPingHandler(h func(appData string) error) {
	m.pingHandler = h
}

func (m *mockWebSocketConn) SetPongHandler(h func(appData string) error) {
	m.pongHandler = h
}

func (m *mockWebSocketConn) SetCloseHandler(h func(code int, text string) error) {
	m.closeHandler = h
}

func (m *mockWebSocketConn) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *mockWebSocketConn) Closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}
