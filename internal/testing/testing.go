// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/imgmatch/internal/models"
)

// MockMatcher is a test double for [services.Matcher].
//
// When Block is set, Match signals Started and then waits for Block to close (or ctx to end) before answering.
type MockMatcher struct {
	Result []models.ImageReference
	Err    error

	Block   chan struct{}
	Started chan struct{}

	mu            sync.Mutex
	calls         int
	lastReference models.ImageReference
	lastGallery   []models.ImageReference
}

func (m *MockMatcher) Match(ctx context.Context, reference models.ImageReference, gallery []models.ImageReference) ([]models.ImageReference, error) {
	m.mu.Lock()
	m.calls++
	m.lastReference = reference
	m.lastGallery = append([]models.ImageReference(nil), gallery...)
	m.mu.Unlock()

	if m.Block != nil {
		if m.Started != nil {
			m.Started <- struct{}{}
		}
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.ImageReference{}, m.Result...), nil
}

// Calls returns the number of Match invocations.
func (m *MockMatcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Last returns the arguments of the most recent Match call.
func (m *MockMatcher) Last() (models.ImageReference, []models.ImageReference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReference, m.lastGallery
}

// MockCapability is a test double for [services.UploadCapability] that replays Outcomes in order.
type MockCapability struct {
	Outcomes []models.UploadOutcome

	mu      sync.Mutex
	opts    []models.UploadOptions
	sources [][]models.UploadSource
}

func (m *MockCapability) Upload(ctx context.Context, opts models.UploadOptions, sources []models.UploadSource) <-chan models.UploadOutcome {
	m.mu.Lock()
	m.opts = append(m.opts, opts)
	m.sources = append(m.sources, sources)
	m.mu.Unlock()

	out := make(chan models.UploadOutcome)
	go func() {
		defer close(out)
		for _, o := range m.Outcomes {
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Options returns the options passed to each Upload call.
func (m *MockCapability) Options() []models.UploadOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.UploadOptions(nil), m.opts...)
}

// RecordingRecorder captures finished match runs.
type RecordingRecorder struct {
	Err error

	mu   sync.Mutex
	runs []*models.MatchRun
}

func (r *RecordingRecorder) Record(run *models.MatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.Err
}

// Runs returns the recorded runs in order.
func (r *RecordingRecorder) Runs() []*models.MatchRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.MatchRun(nil), r.runs...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
