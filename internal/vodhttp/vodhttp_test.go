package vodhttp

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/snapetech/rtspvod/internal/mediacatalog"
	"github.com/snapetech/rtspvod/internal/registry"
)

func TestHealthzReportsActiveSessions(t *testing.T) {
	reg := registry.New()
	cat := mediacatalog.New()
	s := New(reg, cat, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected ok status, got %+v", body)
	}
}

func TestCatalogJSONListsEntries(t *testing.T) {
	reg := registry.New()
	cat := mediacatalog.New()
	cat.Add(mediacatalog.Entry{StreamPath: "/a.aac", Codec: mediacatalog.AAC})
	s := New(reg, cat, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/catalog.json", nil)
	s.Handler().ServeHTTP(rec, req)

	var entries []mediacatalog.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].StreamPath != "/a.aac" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestGzipCompressionWhenRequested(t *testing.T) {
	reg := registry.New()
	cat := mediacatalog.New()
	s := New(reg, cat, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	s.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip content-encoding, got %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.Unmarshal(plain, &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected ok status after decompression, got %+v", body)
	}
}
