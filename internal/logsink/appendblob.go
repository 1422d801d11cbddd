// Package logsink appends JSON log lines to an Azure append blob, one blob per
// host and day.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

var errClosed = errors.New("logsink: handler closed")

type Config struct {
	AccountName string
	AccountKey  string
	Container   string
	// BlobName defaults to <yyyy/mm/dd>/<hostname>.jsonl for the current day.
	BlobName   string
	FlushEvery time.Duration // default 2s
}

func (c Config) Enabled() bool {
	return c.AccountName != "" && c.AccountKey != "" && c.Container != ""
}

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

type Handler struct {
	ab     appender
	ch     chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ticker *time.Ticker

	mu     sync.RWMutex
	closed bool
}

func New(ctx context.Context, cfg Config) (*Handler, error) {
	if !cfg.Enabled() {
		return nil, errors.New("logsink: AccountName, AccountKey and Container are required")
	}
	if cfg.BlobName == "" {
		host, _ := os.Hostname()
		now := time.Now().UTC()
		cfg.BlobName = FormatDateFolder(now.Year(), int(now.Month()), now.Day()) + "/" + host + ".jsonl"
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("logsink credential: %w", err)
	}
	// BlobName may include slashes; only the container is escaped.
	blobURL := "https://" + cfg.AccountName + ".blob.core.windows.net/" +
		url.PathEscape(cfg.Container) + "/" + cfg.BlobName

	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("logsink client: %w", err)
	}
	if _, err := ab.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists) {
		return nil, fmt.Errorf("create log blob %s: %w", cfg.BlobName, err)
	}
	return newHandler(ctx, ab, cfg.FlushEvery), nil
}

func newHandler(ctx context.Context, ab appender, flushEvery time.Duration) *Handler {
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handler{
		ab:     ab,
		ch:     make(chan []byte, 1024),
		ctx:    ctx,
		cancel: cancel,
		ticker: time.NewTicker(flushEvery),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Close flushes buffered lines and stops the background writer.
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.ch)
	h.mu.Unlock()

	h.wg.Wait()
	h.cancel()
	h.ticker.Stop()
	return nil
}

func (h *Handler) Enabled(context.Context, slog.Level) bool { return true }

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	ev := make(map[string]any, r.NumAttrs()+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["ts"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		addAttr(ev, a)
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errClosed
	}
	h.ch <- b.Bytes()
	return nil
}

func addAttr(ev map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup {
		if err, ok := a.Value.Any().(error); ok {
			ev[a.Key] = err.Error()
			return
		}
		ev[a.Key] = a.Value.Any()
		return
	}
	// one level deep
	m := map[string]any{}
	for _, aa := range a.Value.Group() {
		aa.Value = aa.Value.Resolve()
		m[aa.Key] = aa.Value.Any()
	}
	ev[a.Key] = m
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: h, attrs: attrs}
}

func (h *Handler) WithGroup(string) slog.Handler { return h }

func (h *Handler) loop() {
	defer h.wg.Done()
	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if _, err := h.ab.AppendBlock(h.ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			// logging here would recurse into this handler
			fmt.Fprintf(os.Stderr, "logsink: append failed: %v\n", err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case line, ok := <-h.ch:
			if !ok {
				flush()
				return
			}
			buf = append(buf, line...)
		case <-h.ticker.C:
			flush()
		}
	}
}

type withAttrs struct {
	*Handler
	attrs []slog.Attr
}

func (w *withAttrs) Handle(ctx context.Context, r slog.Record) error {
	r2 := r.Clone()
	r2.AddAttrs(w.attrs...)
	return w.Handler.Handle(ctx, r2)
}

func (w *withAttrs) WithGroup(string) slog.Handler { return w }

func (w *withAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: w.Handler, attrs: append(append([]slog.Attr{}, w.attrs...), attrs...)}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
