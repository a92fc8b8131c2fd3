package services

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/imgmatch/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

// NewHTTPClient builds the client used for the match service.
//
// When cfg.OAuth.TokenURL is set the client fetches and refreshes a client-credentials token for every
// request. A zero timeout leaves requests unbounded.
func NewHTTPClient(ctx context.Context, cfg shared.MatcherConfig, timeout time.Duration) *http.Client {
	if cfg.OAuth.TokenURL == "" {
		return &http.Client{Timeout: timeout}
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		TokenURL:     cfg.OAuth.TokenURL,
		Scopes:       cfg.OAuth.Scopes,
	}

	client := cc.Client(ctx)
	client.Timeout = timeout
	return client
}
