package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
)

const defaultMatchPath string = "/match"

// MatchRequest is the body sent to the match endpoint.
type MatchRequest struct {
	ReferenceURL string   `json:"reference_url"`
	GalleryURLs  []string `json:"gallery_urls"`
}

// MatchService implements [Matcher] against an HTTP endpoint that answers with a bare JSON array of URLs.
type MatchService struct {
	api    *APIService
	path   string
	logger *log.Logger
}

var _ Matcher = (*MatchService)(nil)

// NewMatchService creates a MatchService posting to path (default "/match") through api.
func NewMatchService(api *APIService, path string, logger *log.Logger) *MatchService {
	if path == "" {
		path = defaultMatchPath
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &MatchService{api: api, path: path, logger: shared.WithLogger(logger, "component", "matcher")}
}

// Match implements [Matcher].
//
// A non-2xx status, a "null" body, a non-array body or non-string elements are all failures wrapping
// [shared.ErrMatchRequest].
func (m *MatchService) Match(ctx context.Context, reference models.ImageReference, gallery []models.ImageReference) ([]models.ImageReference, error) {
	body, err := json.Marshal(MatchRequest{
		ReferenceURL: string(reference),
		GalleryURLs:  models.Strings(gallery),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", shared.ErrMatchRequest, err)
	}

	m.logger.Debug("posting match request", "path", m.path, "gallery", len(gallery))

	resp, err := m.api.Post(ctx, m.path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMatchRequest, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d %s", shared.ErrMatchRequest, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return decodeMatches(resp.Body)
}

func decodeMatches(body []byte) ([]models.ImageReference, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: response is not a JSON array", shared.ErrMatchRequest)
	}

	var urls []*string
	if err := json.Unmarshal(trimmed, &urls); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrMatchRequest, err)
	}

	refs := make([]models.ImageReference, len(urls))
	for i, u := range urls {
		if u == nil {
			return nil, fmt.Errorf("%w: element %d is null", shared.ErrMatchRequest, i)
		}
		refs[i] = models.ImageReference(*u)
	}
	return refs, nil
}

// Health reports whether the match service answers GET / with a non-5xx status.
func (m *MatchService) Health(ctx context.Context) error {
	resp, err := m.api.Get(ctx, "/")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}
