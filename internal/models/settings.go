package models

// UISettings holds display preferences.
type UISettings struct {
	DisableCovers bool    `json:"disableCovers"`
	LyricScale    float64 `json:"lyricScale,omitempty"`
}

// AnchorSettings holds the account binding used for anchored backups.
type AnchorSettings struct {
	Account  string `json:"anchorAccount"`
	AnchorID string `json:"anchorId"`
}

// BackupSettings holds the auto-backup switch and the last successful upload time.
type BackupSettings struct {
	AutoBackupEnabled bool  `json:"autoBackupEnabled"`
	LastBackupAt      int64 `json:"lastBackupAt,omitempty"` // unix milliseconds
}
