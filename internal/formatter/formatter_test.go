package formatter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
	"gopkg.in/yaml.v3"
)

func createTestRun() *models.MatchRun {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	run := models.RestoreMatchRun("run-1", created, created)
	run.Reference = "https://x/a.jpg"
	run.Gallery = []models.ImageReference{"https://x/b.jpg", "https://x/c.png", "https://x/d.jpg"}
	run.Matches = []models.ImageReference{"https://x/b.jpg", "https://x/c.png"}
	run.State = models.StateSucceeded
	run.ElapsedMS = 123.45
	return run
}

func createEmptyRun() *models.MatchRun {
	run := createTestRun()
	run.Matches = []models.ImageReference{}
	run.Error = "No images matched."
	return run
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(createTestRun())
	if err != nil {
		t.Fatalf("ExportToCSV() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}

	want := [][]string{
		{"Position", "URL", "Role"},
		{"0", "https://x/a.jpg", "reference"},
		{"1", "https://x/b.jpg", "match"},
		{"2", "https://x/c.png", "match"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		for j := range want[i] {
			if records[i][j] != want[i][j] {
				t.Errorf("record %d field %d: expected %q, got %q", i, j, want[i][j], records[i][j])
			}
		}
	}
}

func TestExportToMarkdown(t *testing.T) {
	t.Run("With Matches", func(t *testing.T) {
		data, err := ExportToMarkdown(createTestRun())
		if err != nil {
			t.Fatalf("ExportToMarkdown() error = %v", err)
		}
		md := string(data)

		for _, want := range []string{
			"# Match run run-1",
			"**State**: succeeded",
			"**Api Request Took**: 123.45 ms",
			"![Reference](https://x/a.jpg)",
			"1. ![Matched Image 1](https://x/b.jpg)",
			"2. ![Matched Image 2](https://x/c.png)",
		} {
			if !strings.Contains(md, want) {
				t.Errorf("expected markdown to contain %q", want)
			}
		}
	})

	t.Run("Without Matches", func(t *testing.T) {
		data, err := ExportToMarkdown(createEmptyRun())
		if err != nil {
			t.Fatalf("ExportToMarkdown() error = %v", err)
		}
		md := string(data)

		if !strings.Contains(md, "> No images matched.") {
			t.Error("expected error quote")
		}
		if !strings.Contains(md, "_None_") {
			t.Error("expected empty marker")
		}
	})
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(createTestRun())
	if err != nil {
		t.Fatalf("ExportToText() error = %v", err)
	}
	text := string(data)

	for _, want := range []string{
		"Run: run-1",
		"Reference: https://x/a.jpg",
		"Gallery: 3",
		"Api Request Took: 123.45 ms",
		"Matches: 2",
		"1. https://x/b.jpg",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected text to contain %q", want)
		}
	}
	if strings.Contains(text, "Error:") {
		t.Error("did not expect an error line")
	}
}

func TestExport(t *testing.T) {
	run := createTestRun()

	t.Run("JSON", func(t *testing.T) {
		data, err := Export(run, "json")
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		var rec RunRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if rec.ID != "run-1" || rec.State != "succeeded" || len(rec.Matches) != 2 {
			t.Errorf("unexpected record %+v", rec)
		}
	})

	t.Run("YAML", func(t *testing.T) {
		data, err := Export(run, "yml")
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		var rec map[string]any
		if err := yaml.Unmarshal(data, &rec); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if rec["reference_url"] != "https://x/a.jpg" {
			t.Errorf("unexpected reference_url %v", rec["reference_url"])
		}
		if _, ok := rec["error"]; ok {
			t.Error("expected empty error to be omitted")
		}
	})

	t.Run("Aliases", func(t *testing.T) {
		for _, format := range []string{"txt", "text", "markdown", "md", "csv", "CSV", "yaml"} {
			if _, err := Export(run, format); err != nil {
				t.Errorf("Export(%q) error = %v", format, err)
			}
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, err := Export(run, "pdf"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	if err := WriteExport(createTestRun(), "csv", path); err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "Position,URL,Role") {
		t.Errorf("unexpected content %s", data)
	}

	if err := WriteExport(createTestRun(), "csv", filepath.Join(t.TempDir(), "missing", "run.csv")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Write([]byte("image-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr string
	}{
		{name: "Success", url: server.URL + "/ok.jpg", want: "image-bytes"},
		{name: "Not Found", url: server.URL + "/missing.jpg", wantErr: "status 404"},
		{name: "Empty URL", url: "", wantErr: "empty URL"},
		{name: "Bad URL", url: "://bad", wantErr: "failed to create request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := DownloadImage(context.Background(), nil, tt.url)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DownloadImage() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, data)
			}
		})
	}
}

func TestDownloadName(t *testing.T) {
	tests := []struct {
		n    int
		ref  models.ImageReference
		want string
	}{
		{1, "https://res.example.com/image/upload/v1/cat.png", "matched-image-1.png"},
		{2, "https://x/b.JPEG?w=100", "matched-image-2.jpeg"},
		{3, "https://x/no-extension", "matched-image-3.jpg"},
		{4, "https://x/archive.tar.verylong", "matched-image-4.jpg"},
		{10, "data:image/png;base64,AAAA", "matched-image-10.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := DownloadName(tt.n, tt.ref); got != tt.want {
				t.Errorf("DownloadName(%d, %q) = %q, want %q", tt.n, tt.ref, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"txt", FormatText, false},
		{"TEXT", FormatText, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"yml", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"json", FormatJSON, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
