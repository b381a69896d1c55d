package client

import (
	"sync"

	"github.com/leitstand/leitstand/pkg/protocol"
)

// MockConn is a test implementation of SessionConn. Incoming traffic is
// injected with the Simulate helpers; sent payloads are recorded for
// verification.
type MockConn struct {
	mu       sync.Mutex
	open     bool
	sent     []string
	incoming chan protocol.Message
	states   chan ConnStateUpdate
}

// NewMockConn creates a disconnected mock connection.
func NewMockConn() *MockConn {
	return &MockConn{
		incoming: make(chan protocol.Message, 100),
		states:   make(chan ConnStateUpdate, 10),
	}
}

func (m *MockConn) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	return nil
}

func (m *MockConn) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open && m.incoming == nil {
		return
	}
	m.open = false
	close(m.incoming)
	close(m.states)
	m.incoming = nil
	m.states = nil
}

func (m *MockConn) Send(payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.sent = append(m.sent, payload)
}

func (m *MockConn) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *MockConn) Incoming() <-chan protocol.Message { return m.incoming }
func (m *MockConn) States() <-chan ConnStateUpdate    { return m.states }

// Sent returns a copy of all recorded payloads.
func (m *MockConn) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// ClearSent discards recorded payloads.
func (m *MockConn) ClearSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// SimulateMessage injects an inbound decoded message.
func (m *MockConn) SimulateMessage(msg protocol.Message) {
	m.incoming <- msg
}

// SimulateSnapshot injects a snapshot broadcast.
func (m *MockConn) SimulateSnapshot(snap *protocol.Snapshot) {
	m.incoming <- protocol.Message{Snapshot: snap}
}

// SimulateState injects a connection state change.
func (m *MockConn) SimulateState(u ConnStateUpdate) {
	m.states <- u
}
