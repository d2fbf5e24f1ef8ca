package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

// Sequencer hands out an increasing per-partition counter. Consumers use it
// to order events for the same order.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type SequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(sqlDB *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: sqlDB}
}

func (r *SequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}

	const query = `
INSERT INTO event_sequences (partition_key, last_sequence, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (partition_key) DO UPDATE
SET last_sequence = event_sequences.last_sequence + 1,
    updated_at = NOW()
RETURNING last_sequence
`
	var next int64
	if err := db.Conn(ctx, r.db).QueryRowContext(ctx, query, partitionKey).Scan(&next); err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return next, nil
}
