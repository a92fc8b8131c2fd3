// Cloudinary unsigned upload [UploadCapability] implementation
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
)

const defaultCloudinaryBaseURL string = "https://api.cloudinary.com"

// CloudinaryUploadResponse holds the fields read from an upload response.
type CloudinaryUploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Bytes     int    `json:"bytes"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CloudinaryService implements [UploadCapability] with unsigned uploads to an upload preset.
type CloudinaryService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

var _ UploadCapability = (*CloudinaryService)(nil)

// NewCloudinaryService creates a CloudinaryService (default base URL https://api.cloudinary.com).
func NewCloudinaryService(baseURL string, client *http.Client, logger *log.Logger) *CloudinaryService {
	if baseURL == "" {
		baseURL = defaultCloudinaryBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CloudinaryService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     shared.WithLogger(logger, "component", "cloudinary"),
	}
}

// Upload implements [UploadCapability]. Items are uploaded one at a time in order.
func (c *CloudinaryService) Upload(ctx context.Context, opts models.UploadOptions, sources []models.UploadSource) <-chan models.UploadOutcome {
	out := make(chan models.UploadOutcome)

	go func() {
		defer close(out)
		for _, src := range sources {
			if ctx.Err() != nil {
				return
			}

			outcome := models.UploadOutcome{Source: src}
			outcome.Ref, outcome.Err = c.uploadOne(ctx, opts, src)

			select {
			case out <- outcome:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (c *CloudinaryService) uploadOne(ctx context.Context, opts models.UploadOptions, src models.UploadSource) (models.ImageReference, error) {
	if opts.CloudName == "" || opts.UploadPreset == "" {
		return "", fmt.Errorf("%w: cloud name and upload preset are required", shared.ErrMissingConfig)
	}
	if !opts.Allows(src.Kind) {
		return "", fmt.Errorf("%w: %s is not permitted", shared.ErrUnsupportedSource, src.Kind)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := writeFileField(mw, src); err != nil {
		return "", err
	}
	if err := mw.WriteField("upload_preset", opts.UploadPreset); err != nil {
		return "", fmt.Errorf("failed to write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to write form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.baseURL, opts.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("uploading", "source", src.Label(), "kind", src.Kind)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	var result CloudinaryUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", shared.ErrUploadFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", shared.ErrUploadFailed, resp.StatusCode, msg)
	}

	return models.ImageReference(result.SecureURL), nil
}

func writeFileField(mw *multipart.Writer, src models.UploadSource) error {
	switch src.Kind {
	case models.SourceURL:
		if err := mw.WriteField("file", src.URL); err != nil {
			return fmt.Errorf("failed to write form: %w", err)
		}
		return nil
	case models.SourceLocal:
		r := src.Data
		name := src.Name
		if r == nil {
			f, err := os.Open(src.Path)
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
			}
			defer f.Close()
			r = f
		}
		if name == "" {
			name = filepath.Base(src.Path)
		}

		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			return fmt.Errorf("failed to write form: %w", err)
		}
		if _, err := io.Copy(part, r); err != nil {
			return fmt.Errorf("%w: failed to read %s: %v", shared.ErrUploadFailed, name, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s sources need an interactive widget", shared.ErrUnsupportedSource, src.Kind)
	}
}
