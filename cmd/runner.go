package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/gallery"
	"github.com/desertthunder/imgmatch/internal/repositories"
	"github.com/desertthunder/imgmatch/internal/services"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/desertthunder/imgmatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	matcher    services.Matcher
	uploader   services.UploadCapability
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Matcher    services.Matcher
	Uploader   services.UploadCapability
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		matcher:    opts.Matcher,
		uploader:   opts.Uploader,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger used by commands opened afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, uploadCommand, galleryCommand, matchCommand, historyCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureServices builds the matcher and upload capability from config unless they were injected.
//
// Building late lets them pick up a logger set with [Runner.SetLogger].
func (r *Runner) ensureServices(ctx context.Context) {
	if r.matcher == nil {
		client := services.NewHTTPClient(ctx, r.config.Matcher, r.config.MatchTimeout())
		api := services.NewAPIService(r.config.Matcher.BaseURL, client)
		r.matcher = services.NewMatchService(api, r.config.Matcher.Path, r.logger)
	}
	if r.uploader == nil {
		r.uploader = services.NewCloudinaryService(r.config.Cloudinary.BaseURL, nil, r.logger)
	}
}

// app is the wired core for one command invocation.
type app struct {
	db       *sql.DB
	runs     *repositories.MatchRunRepository
	store    *gallery.PersistedStore
	session  *tasks.Session
	engine   *tasks.MatchEngine
	uploader *tasks.Orchestrator
	closers  []func() error
}

// open connects the database, runs migrations and wires the gallery store, the match engine and the
// upload orchestrator.
//
// File databases give the gallery backend its own handle because it pins a connection for change
// detection. An in-memory database exists only on its single connection, so it gets a memory backend.
func (r *Runner) open(ctx context.Context) (*app, error) {
	r.ensureServices(ctx)
	cfg := r.config
	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := &app{db: db, closers: []func() error{db.Close}}

	if cfg.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	}
	if err := shared.RunMigrations(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var backend gallery.Backend
	if cfg.Database.Path == ":memory:" {
		backend = gallery.NewMemoryBackend()
	} else {
		gdb, err := shared.NewDatabase(cfg.Database.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open gallery database: %w", err)
		}
		a.closers = append(a.closers, gdb.Close)

		sb, err := gallery.NewSQLiteBackend(ctx, gdb, cfg.PollInterval(), r.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, sb.Close)
		backend = sb
	}

	a.runs = repositories.NewMatchRunRepository(db)
	a.store = gallery.NewStore(backend, cfg.Gallery.StorageKey, r.logger)
	a.session = tasks.NewSession()
	a.engine = tasks.NewMatchEngine(a.session, a.store, r.matcher, a.runs, r.logger)
	a.uploader = tasks.NewOrchestrator(a.session, a.store, r.uploader, cfg.Cloudinary, r.logger)
	return a, nil
}

// Close stops the gallery watcher and releases database handles in reverse order.
func (a *app) Close() error {
	if a.store != nil {
		a.store.Close()
	}
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (r *Runner) downloadOpts(dir string) tasks.DownloadOpts {
	if dir == "" {
		dir = r.config.Download.Dir
	}
	return tasks.DownloadOpts{
		Dir:       dir,
		RateLimit: r.config.Download.RateLimit,
		Client:    r.httpClient,
		Logger:    r.logger,
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// printProgress writes updates until progress closes, then signals done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		r.writePlain("%s\n", update.Message)
	}
}
