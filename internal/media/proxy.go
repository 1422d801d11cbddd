package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	ProxyPath     = "/media"
	maxImageBytes = 10 << 20
	maxRedirects  = 5

	// proxied bytes are served from our origin, so nothing in them may run
	imageCSP = "default-src 'none'; script-src 'none'; sandbox"
)

var errRedirectNotAllowed = errors.New("redirect target not in media allow-list")

// Proxy serves allow-listed remote images from the storefront's own origin.
type Proxy struct {
	allow  *AllowList
	client *retryablehttp.Client
}

// NewProxy builds a proxy. A nil httpClient gets a 15 second timeout. The
// client is copied and only follows redirects that stay inside the allow-list.
func NewProxy(allow *AllowList, httpClient *http.Client) *Proxy {
	var hc http.Client
	if httpClient != nil {
		hc = *httpClient
	} else {
		hc.Timeout = 15 * time.Second
	}
	hc.CheckRedirect = allowedRedirect(allow)

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &hc
	rc.RetryMax = 1
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 400 * time.Millisecond
	rc.Logger = slog.Default()
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if errors.Is(err, errRedirectNotAllowed) {
			return false, err
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Proxy{allow: allow, client: rc}
}

func allowedRedirect(allow *AllowList) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if !allow.Allows(req.URL.String()) {
			return fmt.Errorf("%w: %s", errRedirectNotAllowed, req.URL.Redacted())
		}
		return nil
	}
}

func (p *Proxy) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+ProxyPath, p.handleImage)
}

// Src returns the URL templates should render for an image: allow-listed
// remote images go through the proxy, anything else is returned unchanged.
func (p *Proxy) Src(raw string) string {
	if p == nil || !p.allow.Allows(raw) {
		return raw
	}
	return ProxyPath + "?url=" + url.QueryEscape(raw)
}

func (p *Proxy) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target := r.URL.Query().Get("url")
	if !p.allow.Allows(target) {
		slog.WarnContext(ctx, "media host not allowed", "url", target)
		http.Error(w, "image host not allowed", http.StatusBadRequest)
		return
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "bad image url", http.StatusBadRequest)
		return
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch image", "url", target, "error", err)
		http.Error(w, "failed to fetch image", http.StatusBadGateway)
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "image upstream returned error", "url", target, "status", resp.StatusCode)
		http.Error(w, "image unavailable", http.StatusBadGateway)
		return
	}
	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") || mediaType == "image/svg+xml" {
		slog.WarnContext(ctx, "image upstream returned unsupported type", "url", target, "content_type", contentType)
		http.Error(w, "not a raster image", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", imageCSP)
	if etag := resp.Header.Get("ETag"); etag != "" {
		w.Header().Set("ETag", etag)
	}
	if _, err := io.Copy(w, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		slog.ErrorContext(ctx, "failed to stream image", "url", target, "error", err)
	}
}
