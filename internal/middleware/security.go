// internal/middleware/security.go
//
// Security-header middleware for the dev server.
//
// Injects standard headers on every response:
//
//   • Content-Security-Policy   –  self-only default, inline styles allowed
//     (generated pages carry chroma's inline highlight styles)
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP — the header map freezes on
//   the first body write, so anything set afterwards is dropped.  A
//   handler that runs later can still overwrite a value before writing.
// • No HSTS: the preview server is plain HTTP on localhost.  Production
//   hosting of the generated site sets its own transport policy.

package middleware

import "net/http"

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		csp = "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; " +
			"object-src 'none'; base-uri 'self'"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Frame-Options", xfo)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)

		next.ServeHTTP(w, r)
	})
}
