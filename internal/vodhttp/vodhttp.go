// Package vodhttp serves the engine's debug HTTP surface: /healthz,
// /metrics (Prometheus exposition), and /catalog.json (the media catalog
// as JSON). It mirrors the teacher's cmd/plex-tuner/main.go pattern of
// wiring a plain http.ServeMux by hand rather than a router framework, and
// adds a brotli compression layer plus a connection cap via
// golang.org/x/net/netutil, both of which the teacher's go.mod carries but
// never exercises.
package vodhttp

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/snapetech/rtspvod/internal/mediacatalog"
	"github.com/snapetech/rtspvod/internal/registry"
)

// Server is the debug HTTP surface.
type Server struct {
	mux *http.ServeMux
}

// New builds the handler. reg is consulted for /healthz's active-session
// count, catalog for /catalog.json, and promReg for /metrics.
func New(reg *registry.Registry, catalog *mediacatalog.Catalog, promReg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	s := &Server{mux: mux}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":          "ok",
			"active_sessions": reg.ActiveCount(),
		})
	})

	mux.HandleFunc("/catalog.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(catalog.All())
	})

	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	return s
}

// Handler returns the compressing wrapper around the mux, selecting brotli
// over gzip when the client advertises both (br tends to win on size for
// the small JSON/text payloads this server produces).
func (s *Server) Handler() http.Handler {
	return compress(s.mux)
}

// Serve listens on addr, capping concurrent connections at maxConns via
// netutil.LimitListener so a misbehaving debug-surface client can't starve
// the process of file descriptors the media workers need.
func (s *Server) Serve(addr string, maxConns int) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ln = netutil.LimitListener(ln, maxConns)
	return http.Serve(ln, s.Handler())
}

func compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept-Encoding")
		switch {
		case strings.Contains(accept, "br"):
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			defer bw.Close()
			next.ServeHTTP(&writerResponseWriter{ResponseWriter: w, w: bw}, r)
		case strings.Contains(accept, "gzip"):
			w.Header().Set("Content-Encoding", "gzip")
			gw := gzip.NewWriter(w)
			defer gw.Close()
			next.ServeHTTP(&writerResponseWriter{ResponseWriter: w, w: gw}, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// writerResponseWriter redirects Write through an alternate io.Writer
// (a brotli or gzip encoder) while preserving header/status-code behavior.
type writerResponseWriter struct {
	http.ResponseWriter
	w io.Writer
}

func (w *writerResponseWriter) Write(b []byte) (int, error) {
	return w.w.Write(b)
}
