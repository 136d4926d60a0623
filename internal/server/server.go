// internal/server/server.go
//
// Development server: serves the build directory over chi with
// directory-index resolution (/blog/ → blog/index.html), exposes
// Prometheus metrics on /metrics, and optionally rebuilds the site when
// sources change (see watch.go).
//
// This is a preview surface, not a production host — generated sites are
// meant to be served by a CDN or any static file server.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/metrics"
	vmw "github.com/yanizio/vellum/internal/middleware"
)

// Handler builds the dev-server router over the build directory.
func Handler(buildDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(vmw.Security)
	r.Use(requestLog)

	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(staticHandler(buildDir))
	return r
}

// staticHandler serves files from the build tree, mapping clean URLs to
// their index.html the same way the generator laid them out.
func staticHandler(buildDir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(buildDir))
	return func(w http.ResponseWriter, req *http.Request) {
		p := filepath.Join(buildDir, filepath.FromSlash(strings.TrimPrefix(req.URL.Path, "/")))
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(p, "index.html")); err == nil && !strings.HasSuffix(req.URL.Path, "/") {
				http.Redirect(w, req, req.URL.Path+"/", http.StatusMovedPermanently)
				return
			}
		}
		fs.ServeHTTP(w, req)
	}
}

// requestLog counts and logs each request with its response code.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		metrics.RequestsTotal.WithLabelValues(strconv.Itoa(ww.Status())).Inc()
		zap.S().Debugw("request", "method", req.Method, "path", req.URL.Path, "status", ww.Status())
	})
}
