package memory

import (
	"context"

	"sentinel_bot/internal/models"
)

// Store is the durable side of the tracker. Writes are synchronous.
type Store interface {
	// Load returns every record in insertion order.
	Load(ctx context.Context) ([]models.TradeRecord, error)
	Append(ctx context.Context, rec models.TradeRecord) error
	Update(ctx context.Context, rec models.TradeRecord) error
}
