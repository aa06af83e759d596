package models

import (
	"fmt"
	"time"
)

// BackupData is the synchronized content of a backup.
type BackupData struct {
	Playlists   []Playlist `json:"playlists" yaml:"playlists"`
	History     []string   `json:"history" yaml:"history"`
	ListenStats StatsMap   `json:"listenStats" yaml:"listenStats"`
}

// IsEmpty reports whether the backup carries nothing worth merging.
func (d BackupData) IsEmpty() bool {
	return len(d.Playlists) == 0 && len(d.History) == 0 && len(d.ListenStats) == 0
}

// BackupPayload is the envelope submitted to the backup service.
type BackupPayload struct {
	ClientID  string     `json:"client_id" yaml:"client_id"`
	AnchorID  string     `json:"anchor_id,omitempty" yaml:"anchor_id,omitempty"`
	CreatedAt string     `json:"created_at" yaml:"created_at"`
	Data      BackupData `json:"data" yaml:"data"`
}

// BackupStatus records the outcome of an upload attempt.
type BackupStatus string

const (
	BackupSucceeded BackupStatus = "succeeded"
	BackupFailed    BackupStatus = "failed"
)

// BackupLogEntry journals one upload attempt that reached the network.
type BackupLogEntry struct {
	id        string
	reason    string
	signature string
	status    BackupStatus
	message   string
	createdAt time.Time
	updatedAt time.Time
}

// NewBackupLogEntry creates an unsaved journal entry.
func NewBackupLogEntry(reason, signature string, status BackupStatus, message string) *BackupLogEntry {
	now := time.Now().UTC()
	return &BackupLogEntry{
		reason:    reason,
		signature: signature,
		status:    status,
		message:   message,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreBackupLogEntry rebuilds an entry read from storage.
func RestoreBackupLogEntry(id, reason, signature string, status BackupStatus, message string, createdAt, updatedAt time.Time) *BackupLogEntry {
	return &BackupLogEntry{
		id:        id,
		reason:    reason,
		signature: signature,
		status:    status,
		message:   message,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (e *BackupLogEntry) ID() string           { return e.id }
func (e *BackupLogEntry) SetID(id string)      { e.id = id }
func (e *BackupLogEntry) Reason() string       { return e.reason }
func (e *BackupLogEntry) Signature() string    { return e.signature }
func (e *BackupLogEntry) Status() BackupStatus { return e.status }
func (e *BackupLogEntry) Message() string      { return e.message }
func (e *BackupLogEntry) CreatedAt() time.Time { return e.createdAt }
func (e *BackupLogEntry) UpdatedAt() time.Time { return e.updatedAt }

// SetStatus updates the outcome and touches the update time.
func (e *BackupLogEntry) SetStatus(status BackupStatus, message string) {
	e.status = status
	e.message = message
	e.updatedAt = time.Now().UTC()
}

func (e *BackupLogEntry) Validate() error {
	if e.reason == "" {
		return fmt.Errorf("backup log entry requires a reason")
	}
	switch e.status {
	case BackupSucceeded, BackupFailed:
	default:
		return fmt.Errorf("invalid backup status %q", e.status)
	}
	return nil
}

var _ Model = (*BackupLogEntry)(nil)
