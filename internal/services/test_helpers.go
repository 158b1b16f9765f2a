package services

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"creditpulse/pkg/contracts/events"
)

// MockPublisher is a mock for EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(msgType events.MessageType, data interface{}) {
	m.Called(msgType, data)
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.MessageType
	last   events.DatasetChanged
}

func (p *recordingPublisher) Publish(msgType events.MessageType, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msgType)
	if changed, ok := data.(events.DatasetChanged); ok {
		p.last = changed
	}
}

func (p *recordingPublisher) types() []events.MessageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.MessageType(nil), p.events...)
}

// MockClientCounter is a mock for ClientCounter
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}
