package eventbus

import (
	"time"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
)

type EventType string

const (
	EventTypeCategorization EventType = "categorization"
)

type Event struct {
	ID        string
	Type      EventType
	Payload   interface{}
	Timestamp time.Time
}

// CategorizationEvent asks for one extracted transaction to be categorized.
// Index identifies the transaction within its invoice.
type CategorizationEvent struct {
	InvoiceID   string
	Index       int
	Transaction domain.Transaction
}
