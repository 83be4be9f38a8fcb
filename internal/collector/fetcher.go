package collector

import (
	"context"

	"CycleSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data from a quote provider.
// symbol and interval are provider values, already remapped with ProviderSymbol and ProviderInterval.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol, interval, rng string) ([]model.Candle, error)
	FetchLatest(ctx context.Context, symbol, interval string) (model.Observation, error)
	Name() string
}

// Source supplies the live observation of the instrument being watched.
type Source interface {
	Observe(ctx context.Context) (model.Observation, error)
}
