// Package content fetches products and categories from the headless content
// API and hands back canonical catalog records.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crustline/internal/catalog"
	"crustline/internal/config"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	opProducts   = "products"
	opCategories = "categories"
	opProduct    = "product"

	maxBodyBytes = 8 << 20
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "content_requests_total",
	Help: "Content API requests by operation and outcome.",
}, []string{"operation", "outcome"})

var tracer = otel.Tracer("crustline/internal/content")

// Client calls the content API. Lists returned by Products and Categories may
// be shared between callers and must not be modified.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	normalizer *catalog.Normalizer

	products   *window[[]catalog.Product]
	categories *window[[]catalog.CategoryTile]
}

// NewClient creates a content API client.
func NewClient(cfg config.ContentConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("content API base URL is required")
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid content API base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = max(cfg.RetryMax, 0)
	rc.RetryWaitMin = cfg.RetryWait
	rc.RetryWaitMax = 4 * cfg.RetryWait
	rc.Logger = slog.Default()
	// hand back the last response so non-2xx statuses surface as StatusError
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:    baseURL,
		httpClient: rc,
		normalizer: catalog.NewNormalizer(catalog.NormalizerConfig{
			APIBaseURL:  baseURL,
			Placeholder: cfg.Placeholder,
		}),
		products:   newWindow[[]catalog.Product](cfg.ProductTTL),
		categories: newWindow[[]catalog.CategoryTile](cfg.CategoryTTL),
	}, nil
}

// Products returns every product, normalized.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	return c.products.Get(ctx, opProducts, func(ctx context.Context) ([]catalog.Product, error) {
		records, err := c.get(ctx, opProducts, url.Values{"populate": {"*"}})
		if err != nil {
			return nil, err
		}
		return c.normalizer.Products(decodeRecords[catalog.RawProduct](records)), nil
	})
}

// Categories returns every category with its carousel image.
func (c *Client) Categories(ctx context.Context) ([]catalog.CategoryTile, error) {
	return c.categories.Get(ctx, opCategories, func(ctx context.Context) ([]catalog.CategoryTile, error) {
		records, err := c.get(ctx, opCategories, url.Values{"populate": {"Image"}})
		if err != nil {
			return nil, err
		}
		return c.normalizer.Tiles(decodeRecords[catalog.RawCategory](records)), nil
	})
}

// ProductBySlug returns the product whose slug matches. A numeric value that
// matches no slug is tried as a product id. ErrNotFound is returned when
// neither matches.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("empty product slug: %w", ErrNotFound)
	}

	records, err := c.get(ctx, opProduct, url.Values{
		"filters[slug][$eq]": {slug},
		"populate":           {"*"},
	})
	if err != nil {
		return nil, err
	}
	if id, convErr := strconv.Atoi(slug); len(records) == 0 && convErr == nil && id > 0 {
		records, err = c.get(ctx, opProduct, url.Values{
			"filters[id][$eq]": {strconv.Itoa(id)},
			"populate":         {"*"},
		})
		if err != nil {
			return nil, err
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}

	product := c.normalizer.Product(decodeRecords[catalog.RawProduct](records[:1])[0])
	return &product, nil
}

// Invalidate drops cached lists. Fetches already in flight still answer their
// callers but their results are not cached.
func (c *Client) Invalidate() {
	c.products.Invalidate(opProducts)
	c.categories.Invalidate(opCategories)
}

// Ping checks the content API answers a minimal category query.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "ping", url.Values{"pagination[pageSize]": {"1"}})
	return err
}

func (c *Client) get(ctx context.Context, operation string, params url.Values) ([]json.RawMessage, error) {
	requestID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "content."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("content.operation", operation),
		attribute.String("request.id", requestID),
	)

	records, err := c.do(ctx, operation, params, requestID)
	outcome := outcomeOf(err)
	requestsTotal.WithLabelValues(operation, outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		slog.WarnContext(ctx, "content request failed", "operation", operation, "request_id", requestID, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("content.records", len(records)))
	return records, nil
}

func (c *Client) do(ctx context.Context, operation string, params url.Values, requestID string) ([]json.RawMessage, error) {
	endpoint := c.baseURL + "/" + endpointFor(operation)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", operation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	slog.DebugContext(ctx, "content response", "operation", operation, "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), 512),
		}
	}

	records, err := ParseRecords(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w: %w", operation, ErrMalformed, err)
	}
	return records, nil
}

func endpointFor(operation string) string {
	switch operation {
	case opCategories, "ping":
		return "categories"
	default:
		return "products"
	}
}

func outcomeOf(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &statusErr):
		return "status_" + strconv.Itoa(statusErr.StatusCode/100) + "xx"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrMalformed):
		return "decode"
	default:
		return "transport"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
