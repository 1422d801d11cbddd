package logsink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
)

type fakeAppender struct {
	mu     sync.Mutex
	blocks []string
}

func (f *fakeAppender) AppendBlock(_ context.Context, body io.ReadSeekCloser, _ *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return appendblob.AppendBlockResponse{}, err
	}
	f.mu.Lock()
	f.blocks = append(f.blocks, string(b))
	f.mu.Unlock()
	return appendblob.AppendBlockResponse{}, nil
}

func (f *fakeAppender) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Split(strings.TrimSpace(strings.Join(f.blocks, "")), "\n")
}

func TestHandlerFlushesOnClose(t *testing.T) {
	ab := &fakeAppender{}
	h := newHandler(context.Background(), ab, time.Hour)
	logger := slog.New(h).With("service", "crustline")

	logger.Info("served page", "path", "/products", "status", 200, "error", errors.New("boom"))
	logger.Warn("retrying", slog.Group("request", "attempt", 2))
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := ab.lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not json: %v", err)
	}
	if first["msg"] != "served page" || first["path"] != "/products" || first["service"] != "crustline" || first["level"] != "INFO" {
		t.Fatalf("unexpected first line %v", first)
	}
	if first["error"] != "boom" {
		t.Fatalf("expected error message, got %v", first["error"])
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line is not json: %v", err)
	}
	group, ok := second["request"].(map[string]any)
	if !ok || group["attempt"] != float64(2) {
		t.Fatalf("unexpected group %v", second["request"])
	}
}

func TestHandleAfterClose(t *testing.T) {
	h := newHandler(context.Background(), &fakeAppender{}, time.Hour)
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "late", 0)); !errors.Is(err, errClosed) {
		t.Fatalf("expected errClosed, got %v", err)
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{AccountName: "acct", Container: "logs"}).Enabled() {
		t.Fatal("expected disabled without key")
	}
	if !(Config{AccountName: "acct", AccountKey: "a2V5", Container: "logs"}).Enabled() {
		t.Fatal("expected enabled")
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestFormatDateFolder(t *testing.T) {
	if got := FormatDateFolder(2026, 3, 7); got != "2026/03/07" {
		t.Fatalf("unexpected folder %q", got)
	}
}
