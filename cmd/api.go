package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/lyricsphere/internal/formatter"
	"github.com/desertthunder/lyricsphere/internal/services"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.remote(ctx).API.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.remote(ctx).API.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if _, err := r.output.Write(append(resp.Body, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// APIDump fetches the catalog summary and the playback authority state in one document.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	type endpointError struct {
		Endpoint string `json:"endpoint"`
		Error    string `json:"error"`
	}
	type dumpData struct {
		Catalog any             `json:"catalog,omitempty"`
		State   any             `json:"state,omitempty"`
		Errors  []endpointError `json:"errors,omitempty"`
	}

	r.logger.Info("dumping backend state")
	api := r.remote(ctx).API

	var dump dumpData
	fetch := func(path string) any {
		resp, err := api.Get(ctx, path)
		if err == nil {
			err = resp.Err()
		}
		if err != nil {
			r.logger.Warn("dump request failed", "path", path, "error", err)
			dump.Errors = append(dump.Errors, endpointError{Endpoint: path, Error: err.Error()})
			return nil
		}
		return resp.JSONData
	}
	dump.Catalog = fetch("/songs/summary")
	dump.State = fetch("/amll/state")

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dump: %w", err)
	}
	if _, err := r.output.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteToFile(path, data); err != nil {
			return err
		}
		r.logger.Info("dump saved", "file", path)
	}
	return nil
}
