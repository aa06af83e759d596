// Package models defines the domain entities shared by the playback engine and the state synchronizer.
//
// The package contains two categories of types:
//
// 1. Catalog and session values: read-only data loaded once per session
//   - [Track] : one catalog entry, keyed by its filename
//   - [Library] : the ordered catalog with id lookups
//   - [Mode] : list, shuffle or single playback
//
// 2. Synchronized state: data persisted locally and merged with the remote backup
//   - [Playlist] and [LibraryState] : playlists and play history
//   - [ListenStats] and [StatsMap] : bounded per-track listen and completion records
//   - [BackupData] and [BackupPayload] : the uploaded snapshot and its envelope
//   - [BackupLogEntry] : journal of upload attempts, the one database-backed [Model]
package models
