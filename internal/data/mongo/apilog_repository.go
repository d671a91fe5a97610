// Package mongo provides MongoDB implementations of the domain repositories.
// Only the API call log lives here: it is append-only and write-heavy, and
// its request/response payloads have no fixed shape.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/betting-ledger/internal/domain/apilog"
)

const (
	// APILogCollectionName is the name of the API call log collection in MongoDB
	APILogCollectionName = "api_call_log"
)

// APILogRepository implements the apilog.Repository interface for MongoDB
type APILogRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAPILogRepository creates a new MongoDB API call log repository
func NewAPILogRepository(logger *slog.Logger, db *mongo.Database) apilog.Repository {
	return &APILogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an API call log entry
func (r *APILogRepository) Create(ctx context.Context, entry *apilog.Entry) error {
	collection := r.db.Collection(APILogCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to insert API call log entry",
			"entry_id", entry.ID.String(),
			"endpoint", entry.Endpoint,
			"error", err)
		return fmt.Errorf("failed to insert API call log entry: %w", err)
	}

	return nil
}
