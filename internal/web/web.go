// Package web serves the matcher as a server-rendered page over the same session the TUI uses.
//
// Routes
//
//	GET  /                 page; ?preview=<url> opens the preview modal
//	POST /upload/{slot}    multipart "files" and/or "url" fields for the reference or gallery slot
//	POST /match            starts a submission and redirects back; the page refreshes while it runs
//	POST /gallery/toggle   shows or hides the gallery listing
//
// Every POST answers with 303 See Other to / so a reload never repeats the action.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/formatter"
	"github.com/desertthunder/imgmatch/internal/gallery"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/server"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/desertthunder/imgmatch/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxFormMemory = 32 << 20

var _ server.Handler = (*Handler)(nil)

// Handler renders the page and accepts uploads and match submissions.
type Handler struct {
	ctx      context.Context
	engine   *tasks.MatchEngine
	uploader *tasks.Orchestrator
	store    gallery.Store
	tmpl     *template.Template
	mux      *http.ServeMux
	logger   *log.Logger

	mu          sync.Mutex
	showGallery bool
	wg          sync.WaitGroup
}

// NewHandler creates a Handler. Submissions started through POST /match run under ctx.
func NewHandler(ctx context.Context, engine *tasks.MatchEngine, uploader *tasks.Orchestrator, store gallery.Store, logger *log.Logger) (*Handler, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inc":          func(i int) int { return i + 1 },
		"downloadName": formatter.DownloadName,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	h := &Handler{
		ctx:      ctx,
		engine:   engine,
		uploader: uploader,
		store:    store,
		tmpl:     tmpl,
		logger:   shared.WithLogger(logger, "component", "web"),
	}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("GET /{$}", h.handleIndex)
	h.mux.HandleFunc("POST /upload/{slot}", h.handleUpload)
	h.mux.HandleFunc("POST /match", h.handleMatch)
	h.mux.HandleFunc("POST /gallery/toggle", h.handleToggle)
	return h, nil
}

// Routes returns the patterns served by h.
func (h *Handler) Routes() []string {
	return []string{"GET /{$}", "POST /upload/{slot}", "POST /match", "POST /gallery/toggle"}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Wait blocks until submissions started by POST /match have finished.
func (h *Handler) Wait() { h.wg.Wait() }

type pageData struct {
	Snapshot    tasks.Snapshot
	Gallery     []models.ImageReference
	ShowGallery bool
	Busy        bool
	NoMatches   bool
	Elapsed     string
	Preview     models.ImageReference
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Session().Snapshot()

	h.mu.Lock()
	show := h.showGallery
	h.mu.Unlock()

	data := pageData{
		Snapshot:    snap,
		Gallery:     h.store.Load(r.Context()),
		ShowGallery: show,
		Busy:        snap.State == models.StateValidating || snap.Loading(),
		NoMatches:   len(snap.Matches) == 0 && !snap.Loading() && snap.Error == "",
	}
	if snap.HasElapsed {
		data.Elapsed = fmt.Sprintf("%.2f", snap.ElapsedMS)
	}
	if p := models.ImageReference(r.URL.Query().Get("preview")); p.Valid() {
		data.Preview = p
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	slot, err := models.ParseSlot(r.PathValue("slot"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sources, files, err := formSources(r)
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	events, err := h.uploader.RequestUpload(r.Context(), slot, sources)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, shared.ErrServiceUnavailable) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	accepted := 0
	for _, ev := range tasks.Drain(events, nil) {
		if ev.Err == nil {
			accepted++
		}
	}
	h.logger.Info("upload finished", "slot", slot, "items", len(sources), "accepted", accepted)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formSources collects uploaded files and URL fields; the caller closes the returned files.
func formSources(r *http.Request) ([]models.UploadSource, []multipart.File, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var (
		sources []models.UploadSource
		files   []multipart.File
	)
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return nil, files, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
			}
			files = append(files, f)
			sources = append(sources, models.UploadSource{Kind: models.SourceLocal, Name: fh.Filename, Data: f})
		}
	}
	// local paths would be read from the server's filesystem
	for _, field := range r.Form["url"] {
		for _, arg := range strings.Fields(field) {
			src := models.ParseSource(arg)
			if src.Kind != models.SourceURL {
				return nil, files, fmt.Errorf("%w: %q is not an http(s) URL", shared.ErrInvalidInput, arg)
			}
			sources = append(sources, src)
		}
	}
	return sources, files, nil
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.engine.Submit(h.ctx, nil); err != nil {
			h.logger.Debug("submission ended with error", "error", err)
		}
	}()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.showGallery = !h.showGallery
	h.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
