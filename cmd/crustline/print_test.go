package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"crustline/internal/catalog"
	"crustline/internal/content"
)

type staticProducts struct {
	products []catalog.Product
	err      error
}

func (s staticProducts) Products(context.Context) ([]catalog.Product, error) {
	return s.products, s.err
}

func TestPrintCatalogMock(t *testing.T) {
	mock, err := content.NewMock("https://placeholder.test/none.png")
	if err != nil {
		t.Fatalf("mock: %v", err)
	}
	var buf bytes.Buffer
	if err := printCatalog(context.Background(), &buf, mock, catalog.ViewState{Page: 1}, 3); err != nil {
		t.Fatalf("print: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "All Products (page 1 of 4, 12 products)") {
		t.Fatalf("unexpected heading %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected heading and 3 products, got %q", lines)
	}
	if !strings.Contains(lines[1], "Rs. ") || !strings.Contains(lines[1], "/products/") {
		t.Fatalf("unexpected product line %q", lines[1])
	}
}

func TestPrintCatalogEmptyAndError(t *testing.T) {
	var buf bytes.Buffer
	id := 9
	state := catalog.ViewState{}.SelectCategory(&id)
	if err := printCatalog(context.Background(), &buf, staticProducts{}, state, 6); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "No products found.") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}

	err := printCatalog(context.Background(), &buf, staticProducts{err: errors.New("refused")}, state, 6)
	if err == nil || !strings.Contains(err.Error(), "failed to load products") {
		t.Fatalf("expected load error, got %v", err)
	}
}

type flakyPinger struct {
	calls int
	err   error
}

func (f *flakyPinger) Ping(context.Context) error {
	f.calls++
	return f.err
}

func TestReadyOnceLatches(t *testing.T) {
	p := &flakyPinger{err: errors.New("down")}
	ro := &readyOnce{}
	ro.Add(p)

	if err := ro.Ready(context.Background()); err == nil {
		t.Fatal("expected not ready")
	}
	p.err = nil
	if err := ro.Ready(context.Background()); err != nil {
		t.Fatalf("expected ready: %v", err)
	}
	p.err = errors.New("down again")
	if err := ro.Ready(context.Background()); err != nil {
		t.Fatalf("expected ready to latch: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 pings, got %d", p.calls)
	}
}
