package domain

import "time"

type EventType string

const (
	EventDraftCreated       EventType = "draft_created"
	EventPriceChanged       EventType = "price_changed"
	EventOrderSubmitted     EventType = "order_submitted"
	EventOrderCancelled     EventType = "order_cancelled"
	EventOrderStatusChanged EventType = "order_status_changed"
)

// Event is a fire-and-forget notification for downstream consumers.
type Event struct {
	Type    EventType `json:"type"`
	UserID  string    `json:"user_id"`
	OrderID string    `json:"order_id,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}
