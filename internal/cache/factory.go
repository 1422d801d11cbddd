package cache

import (
	"log/slog"

	"crustline/internal/config"
)

// MakeCache picks Azure Blob Storage when an account is configured and a
// local directory otherwise.
func MakeCache(cfg config.StorageConfig) (ListCache, error) {
	if cfg.AzureAccountName != "" {
		slog.Info("Using Azure Blob Storage for cache", "account", cfg.AzureAccountName, "container", cfg.Container)
		return NewBlobCache(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.Container)
	}
	slog.Info("Using file cache", "dir", cfg.Dir)
	return NewFileCache(cfg.Dir), nil
}
