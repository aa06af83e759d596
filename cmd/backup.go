package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/formatter"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/desertthunder/lyricsphere/internal/tasks"
	"github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v3"
)

// BackupUpload uploads the current state.
func (r *Runner) BackupUpload(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := r.synchronizer(ctx, st, nil, nil).Upload(ctx, tasks.ReasonManual)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	return r.writePlain("✓ Backup uploaded: %s\n", result.Message)
}

// BackupDownload fetches the remote backup and merges it into local state.
func (r *Runner) BackupDownload(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	merged, err := r.synchronizer(ctx, st, nil, nil).Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	return r.writeMerged(merged)
}

// BackupImport merges a backup file into local state.
func (r *Runner) BackupImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: backup file path", shared.ErrMissingArgument)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	merged, err := r.synchronizer(ctx, st, nil, nil).Import(raw)
	if err != nil {
		return err
	}
	return r.writeMerged(merged)
}

func (r *Runner) writeMerged(data models.BackupData) error {
	return r.writePlain("✓ Merged %d playlists, %d history entries and stats for %d tracks\n",
		len(data.Playlists), len(data.History), len(data.ListenStats))
}

// BackupExport writes the local payload as JSON or YAML.
func (r *Runner) BackupExport(ctx context.Context, cmd *cli.Command) error {
	output := cmd.String("output")
	format, err := resolveFormat(cmd.String("format"), output, formatter.FormatJSON)
	if err != nil {
		return err
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	payload, err := r.synchronizer(ctx, st, nil, nil).Payload()
	if err != nil {
		return err
	}
	data, err := formatter.ExportBackup(payload, format)
	if err != nil {
		return err
	}
	return r.emit(output, data)
}

// BackupAnchor binds backups to an account and uploads the merged state.
func (r *Runner) BackupAnchor(ctx context.Context, cmd *cli.Command) error {
	account := strings.TrimSpace(cmd.String("account"))
	password := cmd.String("password")
	if account == "" || password == "" {
		return fmt.Errorf("%w: account and password are required", shared.ErrMissingCredentials)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	anchorID, err := r.synchronizer(ctx, st, nil, nil).Anchor(ctx, account, password)
	if anchorID == "" && err != nil {
		return fmt.Errorf("anchor failed: %w", err)
	}
	r.writePlain("✓ Anchored to %s (%s)\n", account, anchorID)
	if err != nil {
		return fmt.Errorf("anchored, but the upload failed: %w", err)
	}
	return nil
}

// BackupStatus prints identity, settings and the upload journal.
func (r *Runner) BackupStatus(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	syncer := r.synchronizer(ctx, st, nil, nil)
	clientID, err := syncer.ClientID()
	if err != nil {
		return err
	}

	r.writePlainHeader("Backup")
	r.writePlain("Client:       %s\n", clientID)
	if anchor := st.settings.AnchorSettings(); anchor.AnchorID != "" {
		r.writePlain("Anchor:       %s (%s)\n", anchor.Account, anchor.AnchorID)
	}
	r.writePlain("Auto backup:  %s\n", onOff(syncer.AutoBackupEnabled()))
	last := "never"
	if at := syncer.LastBackupAt(); !at.IsZero() {
		last = at.Local().Format("2006-01-02 15:04:05")
	}
	r.writePlain("Last backup:  %s\n", last)

	entries, err := st.journal.List(map[string]any{"limit": int(cmd.Int("limit")), "status": cmd.String("filter")})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return r.writePlainln("No uploads recorded")
	}

	r.writePlainln("Recent uploads")
	for _, e := range entries {
		sig := e.Signature()
		if len(sig) > 12 {
			sig = sig[:12]
		}
		r.writePlain("%s  %-9s  %-8s  %s  %s\n", e.CreatedAt().Local().Format("2006-01-02 15:04:05"),
			e.Status(), e.Reason(), sig, e.Message())
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// BackupLink prints the download link, optionally as a terminal QR code.
func (r *Runner) BackupLink(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	link, err := r.synchronizer(ctx, st, nil, nil).DownloadURL()
	if err != nil {
		return err
	}
	r.writePlain("%s\n", link)

	if cmd.Bool("qr") {
		code, err := RenderQR(link)
		if err != nil {
			return err
		}
		r.writePlain("\n%s", code)
	}
	return nil
}

// RenderQR renders s as a compact text QR code.
func RenderQR(s string) (string, error) {
	q, err := qrcode.New(s, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}

// BackupAuto turns automatic backups on or off.
func (r *Runner) BackupAuto(ctx context.Context, cmd *cli.Command) error {
	var enabled bool
	switch strings.ToLower(cmd.StringArg("state")) {
	case "on", "true", "yes", "1":
		enabled = true
	case "off", "false", "no", "0":
	default:
		return fmt.Errorf("%w: state must be on or off", shared.ErrInvalidArgument)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := r.synchronizer(ctx, st, nil, nil).SetAutoBackup(enabled); err != nil {
		return fmt.Errorf("failed to save backup settings: %w", err)
	}
	return r.writePlain("✓ Auto backup %s\n", onOff(enabled))
}
