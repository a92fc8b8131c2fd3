// package formatter provides functions to export match runs to various formats (CSV, Markdown, plain text, JSON, YAML)
// and to download matched images
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
	"gopkg.in/yaml.v3"
)

// Supported export formats.
const (
	FormatText     = "txt"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Formats lists the accepted values for [Export].
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON, FormatYAML}

// RunRecord is the serialized form of a match run.
type RunRecord struct {
	ID        string    `json:"id" yaml:"id"`
	Reference string    `json:"reference_url" yaml:"reference_url"`
	Gallery   []string  `json:"gallery_urls" yaml:"gallery_urls"`
	Matches   []string  `json:"matched_urls" yaml:"matched_urls"`
	State     string    `json:"state" yaml:"state"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	ElapsedMS float64   `json:"elapsed_ms" yaml:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewRunRecord converts a run for serialization.
func NewRunRecord(run *models.MatchRun) RunRecord {
	return RunRecord{
		ID:        run.ID(),
		Reference: string(run.Reference),
		Gallery:   models.Strings(run.Gallery),
		Matches:   models.Strings(run.Matches),
		State:     run.State.String(),
		Error:     run.Error,
		ElapsedMS: run.ElapsedMS,
		CreatedAt: run.CreatedAt(),
	}
}

// ParseFormat normalizes format, accepting "text", "md" and "yml" as aliases.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(format); f {
	case FormatText, "text":
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidInput, format, strings.Join(Formats, ", "))
	}
}

// Export renders run in the format named by format (see [ParseFormat]).
func Export(run *models.MatchRun, format string) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	switch f {
	case FormatText:
		return ExportToText(run)
	case FormatMarkdown:
		return ExportToMarkdown(run)
	case FormatCSV:
		return ExportToCSV(run)
	case FormatJSON:
		return shared.MarshalJSON(NewRunRecord(run), true)
	default:
		return ExportToYAML(run)
	}
}

// ExportToCSV converts a run to CSV with columns: Position, URL, Role. The reference row has position 0.
func ExportToCSV(run *models.MatchRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "URL", "Role"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	records := [][]string{{"0", string(run.Reference), "reference"}}
	for i, ref := range run.Matches {
		records = append(records, []string{strconv.Itoa(i + 1), string(ref), "match"})
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a run to Markdown with the reference and matches as images.
func ExportToMarkdown(run *models.MatchRun) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Match run %s\n\n", run.ID())
	fmt.Fprintf(&buf, "**State**: %s\n", run.State)
	fmt.Fprintf(&buf, "**Api Request Took**: %.2f ms\n", run.ElapsedMS)
	fmt.Fprintf(&buf, "**Gallery**: %d images\n\n", len(run.Gallery))
	if run.Error != "" {
		fmt.Fprintf(&buf, "> %s\n\n", run.Error)
	}

	if run.Reference != "" {
		fmt.Fprintf(&buf, "## Reference\n\n![Reference](%s)\n\n", run.Reference)
	}

	buf.WriteString("## Matches\n\n")
	if len(run.Matches) == 0 {
		buf.WriteString("_None_\n")
	}
	for i, ref := range run.Matches {
		fmt.Fprintf(&buf, "%d. ![Matched Image %d](%s)\n", i+1, i+1, ref)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a run to plain text.
func ExportToText(run *models.MatchRun) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run: %s\n", run.ID())
	fmt.Fprintf(&buf, "State: %s\n", run.State)
	if run.Reference != "" {
		fmt.Fprintf(&buf, "Reference: %s\n", run.Reference)
	}
	fmt.Fprintf(&buf, "Gallery: %d\n", len(run.Gallery))
	fmt.Fprintf(&buf, "Api Request Took: %.2f ms\n", run.ElapsedMS)
	if run.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", run.Error)
	}
	fmt.Fprintf(&buf, "Matches: %d\n\n", len(run.Matches))

	for i, ref := range run.Matches {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, ref)
	}

	return buf.Bytes(), nil
}

// ExportToYAML converts a run to YAML.
func ExportToYAML(run *models.MatchRun) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(NewRunRecord(run)); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExport writes run in format to path.
func WriteExport(run *models.MatchRun, format, path string) error {
	data, err := Export(run, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// DownloadName returns the file name for the n-th (1-based) matched image: matched-image-<n> plus the
// URL's extension, or ".jpg" when it has none.
func DownloadName(n int, ref models.ImageReference) string {
	ext := ".jpg"
	if u, err := url.Parse(string(ref)); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); len(e) > 1 && len(e) <= 5 {
			ext = e
		}
	}
	return fmt.Sprintf("matched-image-%d%s", n, ext)
}
