// Package server 路由与指标单元测试
package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookshelf-api/internal/apiserver/auth"
	"bookshelf-api/internal/shared/cache"
	"bookshelf-api/internal/shared/storage/memstore"
)

// 指标在默认注册表注册一次，测试共享同一个 Handler
var testRouterOnce = func() http.Handler {
	h := NewHandler(memstore.NewStore(), cache.NewMemoryCache(), auth.Config{
		CookieName: "session_id",
	})
	return h.Router()
}()

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return testRouterOnce
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestRouter_GatedEndpointRedirects(t *testing.T) {
	// 经过完整中间件链的匿名写入请求应 302 到登录入口
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/books/b1", nil)
	testRouter(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != auth.LoginPath {
		t.Errorf("Location = %q, want %q", loc, auth.LoginPath)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/books", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/books", "/books"},
		{"/books/7f3c2d9a", "/books/{id}"},
		{"/books/7f3c2d9a/reservations", "/books/{id}/reservations"},
		{"/books/7f3c2d9a/reservations/a91e4b", "/books/{id}/reservations/{rid}"},
		{"/reservations", "/reservations"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
