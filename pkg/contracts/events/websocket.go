// Package events defines the messages pushed to dashboard WebSocket clients.
package events

import (
	"time"

	"creditpulse/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Dataset lifecycle
	MessageTypeDatasetLoaded  MessageType = "dataset:loaded"
	MessageTypeFiltersChanged MessageType = "filters:changed"
	MessageTypeFiltersCleared MessageType = "filters:cleared"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"

	// MessageTypeHeartbeat is the only message clients send.
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// DatasetChanged is the payload of every dataset and filter event. Clients
// refetch distributions when Revision moves.
type DatasetChanged struct {
	Revision      uint64                 `json:"revision"`
	Source        string                 `json:"source,omitempty"`
	Selection     domain.FilterSelection `json:"selection"`
	Metrics       domain.KpiMetrics      `json:"metrics"`
	FilteredCount int                    `json:"filtered_count"`
	TotalCount    int                    `json:"total_count"`
}

// NewMessage stamps a message of the given type.
func NewMessage(msgType MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{Type: msgType, Timestamp: time.Now().UTC()},
		Data:        data,
	}
}
