package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lyricsphere/internal/catalog"
	"github.com/desertthunder/lyricsphere/internal/server"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve hosts a music directory with the same summary and media routes as the backend catalog.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Catalog.MusicDir
	}
	if dir == "" {
		return fmt.Errorf("%w: set --dir or catalog.music_dir", shared.ErrMissingConfig)
	}

	ctx, cancel := interruptible(ctx)
	defer cancel()

	logger := shared.WithLogger(r.logger, "component", "server")
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger), server.AllowOrigin)
	router.Handler(server.NewLibraryHandler(catalog.NewDirSource(dir, logger), dir, logger))

	addr := cmd.String("addr")
	r.writePlain("Serving %s on http://%s, Ctrl+C to stop\n", dir, addr)
	return server.Serve(ctx, addr, router, logger)
}
