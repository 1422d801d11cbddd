package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crustline/internal/cache"
	"crustline/internal/config"
	"crustline/internal/content"
	"crustline/internal/media"
	"crustline/internal/newsletter"
	"crustline/internal/sitemap"
	"crustline/internal/static"
	"crustline/internal/storefront"
	"crustline/internal/templates"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func runServer(cfg *config.Config, addr string) error {
	store, err := cache.MakeCache(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	source, err := content.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to create content source: %w", err)
	}
	handler, err := newHandler(cfg, source, store, newsletter.NewMailer(cfg.Newsletter))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Serving Crustline", "address", addr, "content_api", cfg.Content.BaseURL, "mocks", cfg.Mocks.Enable)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server)
	}
}

// newHandler wires every route onto one mux behind the middleware chain.
func newHandler(cfg *config.Config, source content.Source, store cache.ListCache, mailer newsletter.Mailer) (http.Handler, error) {
	allow, err := media.LoadAllowList(cfg.Media.AllowListFile, cfg.Content.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load media allow-list: %w", err)
	}
	proxy := media.NewProxy(allow, nil)

	static.Init()
	if err := templates.Init(cfg, static.StylesheetPath, proxy.Src); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	mux := http.NewServeMux()
	static.Register(mux, cfg.Site.PublicDir)
	proxy.Register(mux)
	storefront.New(source, cfg.Catalog.PageSize).Register(mux)
	newsletter.NewHandler(newsletter.NewStorage(store), mailer).Register(mux)
	content.NewWebhook(source, cfg.Content.WebhookToken).Register(mux)
	sitemap.New(source, cfg.Site.URL).Register(mux)

	ro := &readyOnce{}
	ro.Add(source)
	mux.Handle("GET /ready", ro)
	mux.Handle("GET /metrics", promhttp.Handler())

	return WithMiddleware(mux), nil
}

func gracefulShutdown(svr *http.Server) error {
	// Give outstanding requests 25 seconds to complete (kubernetes has 30 second grace period)
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	slog.Info("Server stopped")
	return nil
}
