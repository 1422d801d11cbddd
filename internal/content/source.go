package content

import (
	"context"
	"log/slog"

	"crustline/internal/catalog"
	"crustline/internal/config"
)

// Source is anything that can answer catalog queries: the live API client or
// the development mock.
type Source interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	Categories(ctx context.Context) ([]catalog.CategoryTile, error)
	ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
	Invalidate()
	Ping(ctx context.Context) error
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*Mock)(nil)
)

// NewSource returns the mock when mocks are enabled and the API client otherwise.
func NewSource(cfg *config.Config) (Source, error) {
	if cfg.Mocks.Enable {
		slog.Info("serving mock content")
		mock, err := NewMock(cfg.Content.Placeholder)
		if err != nil {
			return nil, err
		}
		return mock, nil
	}
	client, err := NewClient(cfg.Content)
	if err != nil {
		return nil, err
	}
	return client, nil
}
