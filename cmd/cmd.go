// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func sourceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "source",
		Usage: "Catalog source: auto, remote or dir",
		Value: sourceAuto,
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles setup operations for the configuration file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Undo the most recently applied migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Action: r.SetupConfig,
			},
		},
	}
}

// libraryCommand handles catalog browsing
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse the song catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List catalog tracks",
				Flags:  []cli.Flag{sourceFlag(), jsonFlag()},
				Action: r.LibraryList,
			},
			{
				Name:   "stats",
				Usage:  "Summarize the catalog",
				Flags:  []cli.Flag{sourceFlag()},
				Action: r.LibraryStats,
			},
			{
				Name:  "search",
				Usage: "Search titles and artists; without a query, list recent searches",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  []cli.Flag{sourceFlag()},
				Action: r.LibrarySearch,
			},
			{
				Name:   "normalize",
				Usage:  "Rewrite stored playlist and history ids to catalog ids",
				Flags:  []cli.Flag{sourceFlag()},
				Action: r.LibraryNormalize,
			},
		},
	}
}

// playlistCommand handles local playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage local playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlaylistList,
			},
			{
				Name:  "show",
				Usage: "Show the tracks of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{sourceFlag()},
				Action: r.PlaylistShow,
			},
			{
				Name:  "create",
				Usage: "Create a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "add",
				Usage: "Add tracks to a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "track",
						Aliases:  []string{"t"},
						Usage:    "Track ID (repeatable)",
						Required: true,
					},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "track",
						Aliases:  []string{"t"},
						Usage:    "Track ID",
						Required: true,
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "delete",
				Usage: "Delete a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "like",
				Usage: "Toggle a track in the liked playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Action: r.PlaylistLike,
			},
			{
				Name:  "export",
				Usage: "Export a playlist as Markdown",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
					sourceFlag(),
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// historyCommand handles play history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Play history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recently played tracks, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
					sourceFlag(),
				},
				Action: r.HistoryList,
			},
		},
	}
}

// statsCommand handles listening statistics
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Listening statistics",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show listening statistics, or one track's when given",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.StatsShow,
			},
			{
				Name:  "export",
				Usage: "Export listening statistics",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, md or json (default: from the output extension, else md)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
					sourceFlag(),
				},
				Action: r.StatsExport,
			},
		},
	}
}

// backupCommand handles remote backup and restore
func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Back up and restore playlists, history and statistics",
		Commands: []*cli.Command{
			{
				Name:   "upload",
				Usage:  "Upload a backup now",
				Action: r.BackupUpload,
			},
			{
				Name:    "download",
				Aliases: []string{"restore"},
				Usage:   "Download the remote backup and merge it into local state",
				Action:  r.BackupDownload,
			},
			{
				Name:  "import",
				Usage: "Merge a backup file into local state",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.BackupImport,
			},
			{
				Name:  "export",
				Usage: "Write the local backup payload to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json or yaml (default: from the output extension, else json)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.BackupExport,
			},
			{
				Name:  "anchor",
				Usage: "Bind backups to an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Account name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Usage:   "Account password",
						Sources: cli.EnvVars("SPHERE_ANCHOR_PASSWORD"),
					},
				},
				Action: r.BackupAnchor,
			},
			{
				Name:  "status",
				Usage: "Show backup identity, settings and recent uploads",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of journal entries",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Only show entries with this status (succeeded or failed)",
					},
				},
				Action: r.BackupStatus,
			},
			{
				Name:  "link",
				Usage: "Print the download link for the current backup",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "qr",
						Usage: "Also render the link as a QR code",
					},
				},
				Action: r.BackupLink,
			},
			{
				Name:  "auto",
				Usage: "Turn automatic backups on or off",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "state"},
				},
				Action: r.BackupAuto,
			},
		},
	}
}

// settingsCommand handles display preferences
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Display preferences",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show display preferences",
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Change display preferences",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "disable-covers",
						Usage: "Hide covers and backgrounds on the lyric surface",
					},
					&cli.FloatFlag{
						Name:  "lyric-scale",
						Usage: "Lyric font scale",
					},
				},
				Action: r.SettingsSet,
			},
		},
	}
}

// playCommand handles headless playback
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Headless playback",
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "Follow the external player and print track changes",
				Action: r.PlayWatch,
			},
			{
				Name:  "track",
				Usage: "Play through the queue starting at a track, printing progress",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					sourceFlag(),
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Restrict the queue to a playlist",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "list, single or shuffle",
						Value: "list",
					},
					&cli.FloatFlag{
						Name:  "length",
						Usage: "Assumed track length in seconds for the headless surface",
						Value: defaultHeadlessLength,
					},
				},
				Action: r.PlayTrack,
			},
		},
	}
}

// serveCommand serves the music directory
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the music directory as a catalog host",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "127.0.0.1:5000",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Music directory (default: catalog.music_dir)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the lyrics backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Catalog and playback authority state",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also save the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Flags: []cli.Flag{
			sourceFlag(),
			&cli.BoolFlag{
				Name:  "passive",
				Usage: "Start by following the external player",
			},
			&cli.FloatFlag{
				Name:  "length",
				Usage: "Assumed track length in seconds for the headless surface",
				Value: defaultHeadlessLength,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log destination while the TUI owns the terminal",
				Value: "./tmp/sphere-tui.log",
			},
		},
		Action: r.TUI,
	}
}
