package port

import (
	"context"

	"queueWatch/internal/modules/queue/domain"
)

// SourceFetcher retrieves the target store's current queue record from the provider.
type SourceFetcher interface {
	FetchTargetStore(ctx context.Context) (*domain.StoreRecord, error)
}
