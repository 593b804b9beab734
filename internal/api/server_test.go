package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/pagetree/internal/config"
	"github.com/dgallion1/pagetree/internal/pipeline"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		APIKey:         "test-key",
		OutputDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, log)
	return NewServer(orch, log, cfg)
}

func TestServer_HealthIsPublic(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"queue_depth":0`) {
		t.Errorf("expected queue depth in health body, got %q", rec.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestServer_RequiresAPIKey(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/extract/abc/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/extract/abc/status", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rec.Code)
	}
}

func TestServer_UnknownJobIs404(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/extract/nope/status", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_UnknownRunIs404(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/documents/01ARZ3NDEKTSV4RRFFQ69G5FAV", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_RejectsMalformedRunID(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/documents/..%2fescape", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
		t.Errorf("expected rejection, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chapter6.pdf", "chapter6.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/file.pdf", "file.pdf"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRewriteImageTokens(t *testing.T) {
	in := []byte("<p>before [IMAGE: /data/runs/x/images/fig_6_7.png] after</p>")
	out, err := rewriteImageTokens(in, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `<img src="/api/documents/01ARZ3NDEKTSV4RRFFQ69G5FAV/images/fig_6_7.png"`) {
		t.Errorf("expected img tag in output, got %q", html)
	}
	if strings.Contains(html, "[IMAGE:") {
		t.Errorf("expected token removed, got %q", html)
	}
	if !strings.Contains(html, "before ") || !strings.Contains(html, " after") {
		t.Errorf("expected surrounding text preserved, got %q", html)
	}
}

func TestRewriteImageTokens_NoToken(t *testing.T) {
	in := []byte("<p>plain paragraph</p>")
	out, err := rewriteImageTokens(in, "run")
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if !strings.Contains(string(out), "plain paragraph") {
		t.Errorf("expected content preserved, got %q", out)
	}
}

func TestRewriteImageTokens_MultipleTokens(t *testing.T) {
	in := []byte("<p>[IMAGE: a/fig_6_1.png] and [IMAGE: a/fig_6_2.png]</p>")
	out, err := rewriteImageTokens(in, "run")
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	html := string(out)
	if strings.Count(html, "<img ") != 2 {
		t.Errorf("expected 2 img tags, got %q", html)
	}
}
