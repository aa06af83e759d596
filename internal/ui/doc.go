// Package ui implements the terminal dashboard using bubbletea's Elm architecture.
//
// The dashboard shows four panes:
//  1. Now playing : title, artists, position bar, mode and playing flag
//  2. Upcoming : the derived queue after the current track
//  3. Playlists : the user's playlists with track counts
//  4. Backup : the synchronizer's latest status and last upload time
//
// The [Model] never touches the playback engine directly. Engine snapshots are pushed from the scheduler thread
// into a channel and arrive as messages; user actions go through a [Player], which hops onto that thread.
// Backup progress flows through the synchronizer's non-blocking progress channel.
//
// Keys: space play/pause, n/p next/previous, m cycle mode, l like, b manual backup, tab switch pane, q quit.
package ui
