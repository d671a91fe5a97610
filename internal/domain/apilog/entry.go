package apilog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry records the terminal outcome of one outbound provider call: a
// success, or the final failure after the retry budget is spent.
// Intermediate retried attempts are not logged separately. Append-only.
type Entry struct {
	ID         uuid.UUID `json:"id" bson:"id"`
	UserID     int64     `json:"user_id" bson:"user_id"`
	Endpoint   string    `json:"endpoint" bson:"endpoint"`
	Method     string    `json:"method" bson:"method"`
	Request    []byte    `json:"request" bson:"request"`   // JSON body as sent
	Response   []byte    `json:"response" bson:"response"` // JSON body as received, may be empty on network failure
	StatusCode int       `json:"status_code" bson:"status_code"`
	DurationMS int64     `json:"duration_ms" bson:"duration_ms"` // First attempt to terminal outcome
	IPAddress  string    `json:"ip_address" bson:"ip_address"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Repository persists API call log entries
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
}
