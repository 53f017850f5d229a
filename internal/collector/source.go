package collector

import (
	"context"

	"SwapSentinel/internal/model"
)

// Source fetches a complete market snapshot for one instrument. Any failing
// sub-request fails the whole fetch.
type Source interface {
	FetchAll(ctx context.Context, instID string) (*model.MarketSnapshot, error)
	Name() string
}
