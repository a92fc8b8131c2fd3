package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/imgmatch/internal/shared"
)

func TestNewHTTPClient(t *testing.T) {
	t.Run("Plain client", func(t *testing.T) {
		client := NewHTTPClient(context.Background(), shared.MatcherConfig{}, 3*time.Second)
		if client.Timeout != 3*time.Second {
			t.Errorf("expected timeout 3s, got %v", client.Timeout)
		}
		if client.Transport != nil {
			t.Error("expected default transport")
		}
	})

	t.Run("Client credentials", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if r.Form.Get("grant_type") != "client_credentials" {
				t.Errorf("expected client_credentials grant, got %s", r.Form.Get("grant_type"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
		}))
		defer tokenServer.Close()

		var auth string
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.Write([]byte(`[]`))
		}))
		defer api.Close()

		cfg := shared.MatcherConfig{OAuth: shared.OAuthConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenURL:     tokenServer.URL,
		}}
		client := NewHTTPClient(context.Background(), cfg, 0)

		svc := NewMatchService(NewAPIService(api.URL, client), "", nil)
		if _, err := svc.Match(context.Background(), "https://x/a.jpg", nil); err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if auth != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", auth)
		}
	})
}
