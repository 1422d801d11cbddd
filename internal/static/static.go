// Package static serves the stylesheet, favicon and the bundled /public
// artwork used by the storefront sections.
package static

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
)

//go:embed style.css
var styleCSS []byte

//go:embed favicon.svg
var favicon []byte

//go:embed public
var publicFiles embed.FS

const immutable = "public, max-age=31536000, immutable"

// StylesheetPath is content addressed so it can be cached forever.
var StylesheetPath string

func Init() {
	hash := fmt.Sprintf("%x", sha256.Sum256(styleCSS))
	StylesheetPath = fmt.Sprintf("/static/style.%s.css", hash[:12])
}

// Register serves static assets. Files under publicDir override the bundled
// artwork when the directory exists.
func Register(mux *http.ServeMux, publicDir string) {
	if StylesheetPath == "" {
		Init()
	}

	mux.HandleFunc("GET "+StylesheetPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", immutable)
		if _, err := w.Write(styleCSS); err != nil {
			slog.ErrorContext(r.Context(), "failed to write stylesheet", "error", err)
		}
	})

	serveFavicon := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := w.Write(favicon); err != nil {
			slog.ErrorContext(r.Context(), "failed to write favicon", "error", err)
		}
	}
	mux.HandleFunc("GET /favicon.ico", serveFavicon)
	mux.HandleFunc("GET /favicon.svg", serveFavicon)

	mux.Handle("GET /public/", http.StripPrefix("/public/", publicHandler(publicDir)))
}

func publicHandler(publicDir string) http.Handler {
	if publicDir != "" {
		if info, err := os.Stat(publicDir); err == nil && info.IsDir() {
			slog.Info("serving public assets from disk", "dir", publicDir)
			return http.FileServer(http.Dir(publicDir))
		}
	}
	sub, err := fs.Sub(publicFiles, "public")
	if err != nil {
		// only fails on an invalid path literal
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
