package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"CONTENT_API_URL", "CONTENT_TIMEOUT", "CONTENT_RETRY_MAX", "CONTENT_CATEGORY_TTL", "CATALOG_PAGE_SIZE", "MOCKS_ENABLE", "LOG_FORMAT", "OTEL_SERVICE_NAME"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultContentAPIURL, cfg.Content.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Content.Timeout)
	assert.Equal(t, 1, cfg.Content.RetryMax)
	assert.Equal(t, 10*time.Minute, cfg.Content.CategoryTTL)
	assert.Zero(t, cfg.Content.ProductTTL)
	assert.Equal(t, DefaultPageSize, cfg.Catalog.PageSize)
	assert.Equal(t, DefaultPlaceholder, cfg.Content.Placeholder)
	assert.False(t, cfg.Mocks.Enable)
	assert.Equal(t, "json", cfg.Telemetry.LogFormat)
	assert.Equal(t, "crustline", cfg.Telemetry.ServiceName)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CONTENT_API_URL", "https://cms.example.com/api/")
	t.Setenv("CONTENT_RETRY_MAX", "0")
	t.Setenv("CONTENT_CATEGORY_TTL", "90s")
	t.Setenv("CATALOG_PAGE_SIZE", "12")
	t.Setenv("MOCKS_ENABLE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://cms.example.com/api", cfg.Content.BaseURL)
	assert.Equal(t, 0, cfg.Content.RetryMax)
	assert.Equal(t, 90*time.Second, cfg.Content.CategoryTTL)
	assert.Equal(t, 12, cfg.Catalog.PageSize)
	assert.True(t, cfg.Mocks.Enable)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("CONTENT_TIMEOUT", "soon")
	t.Setenv("CATALOG_PAGE_SIZE", "0")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTENT_TIMEOUT")
	assert.Contains(t, err.Error(), "CATALOG_PAGE_SIZE")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
