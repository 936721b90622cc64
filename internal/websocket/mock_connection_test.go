package websocket

import (
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// mockConnection feeds queued reads and records writes. ReadMessage blocks
// until a message is queued or the connection is closed.
type mockConnection struct {
	mu      sync.Mutex
	cond    *sync.Cond
	reads   [][]byte
	written []writtenFrame
	closed  bool
}

type writtenFrame struct {
	Type int
	Data []byte
}

func newMockConnection() *mockConnection {
	m := &mockConnection{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *mockConnection) queueRead(data string) {
	m.mu.Lock()
	m.reads = append(m.reads, []byte(data))
	m.mu.Unlock()
	m.cond.Broadcast()
}

func (m *mockConnection) textFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for _, f := range m.written {
		if f.Type == websocket.TextMessage {
			out = append(out, f.Data)
		}
	}
	return out
}

func (m *mockConnection) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return websocket.ErrCloseSent
	}
	m.written = append(m.written, writtenFrame{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.reads) == 0 && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return 0, nil, io.EOF
	}
	msg := m.reads[0]
	m.reads = m.reads[1:]
	return websocket.TextMessage, msg, nil
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConnection) SetReadLimit(int64)               {}
func (m *mockConnection) SetPongHandler(func(string) error) {}
func (m *mockConnection) RemoteAddr() string                { return "127.0.0.1:9999" }
