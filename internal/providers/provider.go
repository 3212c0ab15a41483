package providers

import (
	"context"

	"sleeper-players-service/internal/domain/players"
)

// PlayerProvider fetches the full normalized player dictionary for a sport.
// Implementations return a wrapped error on network, status or decode failures.
type PlayerProvider interface {
	FetchPlayers(ctx context.Context, sport string) (players.Dictionary, error)
}

// ProviderFunc adapts a plain function to PlayerProvider.
type ProviderFunc func(ctx context.Context, sport string) (players.Dictionary, error)

func (f ProviderFunc) FetchPlayers(ctx context.Context, sport string) (players.Dictionary, error) {
	return f(ctx, sport)
}
