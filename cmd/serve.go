package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/imgmatch/internal/server"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/desertthunder/imgmatch/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web front-end until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = int(port)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := web.NewHandler(ctx, a.engine, a.uploader, a.store, r.logger)
	if err != nil {
		return err
	}
	defer handler.Wait()

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(shared.WithLogger(r.logger, "component", "http")))
	router.Handler(handler)

	srv := server.New(r.config.Addr(), router, r.logger)
	if err := srv.Listen(); err != nil {
		return err
	}

	r.writePlain("Serving on %s (Ctrl+C to stop)\n", srv.URL())
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(srv.URL()); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return srv.Serve(ctx)
}
