package provider

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/betting-ledger/internal/domain/apilog"
)

// DeadLetterPublisher receives API log entries that could not be persisted,
// so log-write failures are observable instead of silently dropped.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
}

// CallLog persists API call log entries. A failed write never aborts the
// enclosing provider call; the entry is published to the dead letter queue
// instead, when one is configured.
type CallLog struct {
	logger *slog.Logger
	repo   apilog.Repository
	dlq    DeadLetterPublisher // May be nil when the DLQ is disabled
}

// NewCallLog creates a call log recorder. Pass a nil dlq to disable
// dead-lettering; failures are then only logged.
func NewCallLog(logger *slog.Logger, repo apilog.Repository, dlq DeadLetterPublisher) *CallLog {
	return &CallLog{
		logger: logger,
		repo:   repo,
		dlq:    dlq,
	}
}

// Record writes the entry, dead-lettering it on persistence failure.
// Synchronous: the entry is durable (or dead-lettered) before Record returns.
func (l *CallLog) Record(ctx context.Context, entry *apilog.Entry) {
	err := l.repo.Create(ctx, entry)
	if err == nil {
		return
	}

	l.logger.Error("Failed to persist API call log entry",
		"entry_id", entry.ID.String(), "endpoint", entry.Endpoint, "error", err)

	if l.dlq == nil {
		return
	}

	raw, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		l.logger.Error("Failed to marshal API call log entry for DLQ",
			"entry_id", entry.ID.String(), "error", marshalErr)
		return
	}

	if dlqErr := l.dlq.PublishToDLQ(ctx, entry.ID.String(), raw, err.Error()); dlqErr != nil {
		l.logger.Error("Failed to dead-letter API call log entry",
			"entry_id", entry.ID.String(), "error", dlqErr)
	}
}
