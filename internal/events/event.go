// Package events defines the request event emitted to Kafka for each handled
// HTTP request and the producer that carries it.
package events

import (
	"encoding/json"
	"time"
)

// Event is one emitted event. Metadata holds the event-type specific payload
// as raw JSON.
type Event struct {
	UserID    string          `json:"userId,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
