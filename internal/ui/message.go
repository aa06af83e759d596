package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lyricsphere/internal/playback"
	"github.com/desertthunder/lyricsphere/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgProgressUpdate
	MsgActionDone
	MsgLiked
	MsgBackupDone
)

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s playback.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{
		kind: MsgActionDone,
		data: struct {
			action string
			err    error
		}{action, err},
	}
}

// likedMsg is the constructor for [MsgLiked]
func likedMsg(trackID string, liked bool, err error) Msg {
	return Msg{
		kind: MsgLiked,
		data: struct {
			trackID string
			liked   bool
			err     error
		}{trackID, liked, err},
	}
}

// backupDoneMsg is the constructor for [MsgBackupDone]
func backupDoneMsg(result tasks.Result, err error) Msg {
	return Msg{
		kind: MsgBackupDone,
		data: struct {
			result tasks.Result
			err    error
		}{result, err},
	}
}
