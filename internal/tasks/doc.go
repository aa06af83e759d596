// Package tasks keeps local playlists, history and listen stats backed up to the remote snapshot service.
//
// # Upload Policy
//
// [Synchronizer.Upload] builds a [models.BackupPayload] from the in-memory state and fingerprints its data.
// Automatic uploads whose fingerprint matches the last successful upload are skipped without a request.
// Manual uploads always reach the network.
//
// Automatic uploads are scheduled two ways once [Synchronizer.Start] runs:
//   - a debounce after each change to the synced store keys, restarted on every change
//   - a fixed periodic re-check
//
// Both only fire while auto backup is enabled in the persisted backup settings.
//
// # Import
//
// [Synchronizer.Import] unwraps a remote document, merges it into local state with local as the primary side
// and writes the result back through the playlists collection and stats store.
//
// # Progress Reporting
//
// Operations report through the optional progress channel with non-blocking sends and keep the latest
// user-visible message in [Synchronizer.Status]. Network failures never mutate local state.
package tasks
