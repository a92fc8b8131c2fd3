package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tu "github.com/desertthunder/imgmatch/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		custom := &http.Client{}
		srv := NewAPIService("http://example.com/", custom)
		if srv.baseURL != "http://example.com" {
			t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
		}
		if srv.httpClient != custom {
			t.Error("expected custom client to be used")
		}

		srv = NewAPIService("", nil)
		if srv.baseURL != defaultMatcherBaseURL {
			t.Errorf("expected default baseURL, got %s", srv.baseURL)
		}
		if srv.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
	})

	t.Run("Requests", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Method", r.Method)
			w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)

			switch r.URL.Path {
			case "/json":
				w.Write([]byte(`{"echo":"` + string(body) + `"}`))
			case "/created":
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`["https://x/a.jpg"]`))
			case "/broken":
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream down"))
			default:
				w.Write([]byte("plain text response"))
			}
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)

		tests := []struct {
			name   string
			post   bool
			path   string
			status int
			isJSON bool
			ok     bool
		}{
			{name: "Get JSON", path: "/json", status: http.StatusOK, isJSON: true, ok: true},
			{name: "Get plain text", path: "/text", status: http.StatusOK, ok: true},
			{name: "Post array", post: true, path: "/created", status: http.StatusCreated, isJSON: true, ok: true},
			{name: "Post to failing upstream", post: true, path: "/broken", status: http.StatusBadGateway},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var resp *APIResponse
				var err error
				if tt.post {
					resp, err = srv.Post(context.Background(), tt.path, []byte("data"))
				} else {
					resp, err = srv.Get(context.Background(), tt.path)
				}

				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if resp.StatusCode != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
				}
				if json.Valid(resp.Body) != tt.isJSON {
					t.Errorf("expected JSON body=%v, got %q", tt.isJSON, resp.Body)
				}
				if resp.OK() != tt.ok {
					t.Errorf("expected OK()=%v", tt.ok)
				}
				if tt.post && resp.Headers.Get("X-Content-Type") != "application/json" {
					t.Errorf("expected JSON content type, got %s", resp.Headers.Get("X-Content-Type"))
				}
			})
		}
	})

	t.Run("Failures", func(t *testing.T) {
		tests := []struct {
			name      string
			transport http.RoundTripper
			path      string
			canceled  bool
			want      string
		}{
			{name: "Invalid URL", path: "/test\x00invalid", want: "failed to create request"},
			{
				name:      "Transport error",
				transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
				path:      "/test",
				want:      "request failed",
			},
			{
				name: "Body read error",
				transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
				path: "/test",
				want: "failed to read response",
			},
			{name: "Canceled context", path: "/test", canceled: true, want: "request failed"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()
				if tt.canceled {
					cancel()
				}

				srv := NewAPIService("http://example.com", &http.Client{Transport: tt.transport})

				for _, call := range []func() (*APIResponse, error){
					func() (*APIResponse, error) { return srv.Get(ctx, tt.path) },
					func() (*APIResponse, error) { return srv.Post(ctx, tt.path, nil) },
				} {
					_, err := call()
					if err == nil {
						t.Fatal("expected error")
					}
					if !strings.Contains(err.Error(), tt.want) {
						t.Errorf("expected %q error, got %v", tt.want, err)
					}
				}
			})
		}
	})
}
