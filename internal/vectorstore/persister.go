package vectorstore

import (
	"context"

	"docchat/internal/models"
)

// Persister stores the full ordered record collection as one snapshot.
type Persister interface {
	// Load returns the persisted records in insertion order.
	Load(ctx context.Context) ([]models.Record, error)

	// Save replaces the snapshot with records.
	Save(ctx context.Context, records []models.Record) error

	Close() error
}
