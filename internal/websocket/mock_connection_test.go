package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("connection closed")

// MockConnection is an in-memory Connection. ReadMessage blocks until a
// message is pushed or the connection is closed.
type MockConnection struct {
	mu       sync.Mutex
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once

	written  [][]byte
	writtenC chan []byte

	ReadLimit int64
}

func NewMockConnection() *MockConnection {
	return &MockConnection{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
		writtenC: make(chan []byte, 64),
	}
}

// Push queues a message for ReadMessage
func (m *MockConnection) Push(data string) {
	m.incoming <- []byte(data)
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.closed:
		return errConnClosed
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	m.mu.Lock()
	m.written = append(m.written, data)
	m.mu.Unlock()
	m.writtenC <- data
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case data := <-m.incoming:
		return websocket.TextMessage, data, nil
	case <-m.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (m *MockConnection) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *MockConnection) IsClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func (m *MockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *MockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *MockConnection) SetPongHandler(func(string) error) {}
func (m *MockConnection) RemoteAddr() string                { return "127.0.0.1:50000" }

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	m.ReadLimit = limit
	m.mu.Unlock()
}

// Next waits for the next text message written by the server
func (m *MockConnection) Next(timeout time.Duration) ([]byte, bool) {
	select {
	case data := <-m.writtenC:
		return data, true
	case <-time.After(timeout):
		return nil, false
	}
}
