package shared

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// ErrNoMigrations is returned by RollbackMigration when the schema has nothing applied.
var ErrNoMigrations = errors.New("no applied migrations")

// Migration is one schema step, read from a NNNN_name_up.sql / NNNN_name_down.sql pair.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// loadMigrations returns the embedded schema steps ordered by version.
func loadMigrations() ([]Migration, error) {
	entries, err := schemaFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema files: %w", err)
	}

	steps := make(map[int]*Migration)
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() {
			continue
		}
		version, name, direction, ok := parseSchemaFile(file)
		if !ok {
			continue
		}

		body, err := schemaFiles.ReadFile(path.Join("sql", file))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		step := steps[version]
		if step == nil {
			step = &Migration{Version: version, Name: name}
			steps[version] = step
		}
		if direction == "up" {
			step.Up = string(body)
		} else {
			step.Down = string(body)
		}
	}

	ordered := make([]Migration, 0, len(steps))
	for _, step := range steps {
		if step.Up == "" || step.Down == "" {
			return nil, fmt.Errorf("migration %04d_%s needs both up and down files", step.Version, step.Name)
		}
		ordered = append(ordered, *step)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })
	return ordered, nil
}

// parseSchemaFile splits "0001_create_backup_log_up.sql" into (1, "create_backup_log", "up").
func parseSchemaFile(file string) (version int, name, direction string, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}
	switch {
	case strings.HasSuffix(base, "_up"):
		direction, base = "up", strings.TrimSuffix(base, "_up")
	case strings.HasSuffix(base, "_down"):
		direction, base = "down", strings.TrimSuffix(base, "_down")
	default:
		return 0, "", "", false
	}
	prefix, name, found := strings.Cut(base, "_")
	if !found {
		return 0, "", "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", "", false
	}
	return version, name, direction, true
}

// RunMigrations applies every embedded step not yet recorded in schema_migrations.
func RunMigrations(db *sql.DB) error {
	steps, err := loadMigrations()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if applied[step.Version] {
			continue
		}
		err := execStep(db, step.Up, "INSERT INTO schema_migrations (version) VALUES (?)", step.Version)
		if err != nil {
			return fmt.Errorf("migration %04d_%s: %w", step.Version, step.Name, err)
		}
	}
	return nil
}

// RollbackMigration runs the down file of the newest applied step and returns that step.
func RollbackMigration(db *sql.DB) (Migration, error) {
	steps, err := loadMigrations()
	if err != nil {
		return Migration{}, err
	}
	version, ok, err := SchemaVersion(db)
	if err != nil {
		return Migration{}, err
	}
	if !ok {
		return Migration{}, ErrNoMigrations
	}

	for _, step := range steps {
		if step.Version != version {
			continue
		}
		if err := execStep(db, step.Down, "DELETE FROM schema_migrations WHERE version = ?", step.Version); err != nil {
			return step, fmt.Errorf("rollback %04d_%s: %w", step.Version, step.Name, err)
		}
		return step, nil
	}
	return Migration{}, fmt.Errorf("applied migration %d has no embedded files", version)
}

// SchemaVersion reports the newest applied version. ok is false on a database with no applied steps,
// including one where schema_migrations does not exist yet.
func SchemaVersion(db *sql.DB) (version int, ok bool, err error) {
	var latest sql.NullInt64
	err = db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&latest)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(latest.Int64), latest.Valid, nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// execStep runs each statement of script and the bookkeeping query in one transaction.
func execStep(db *sql.DB, script, record string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w\n%s", err, stmt)
		}
	}
	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements drops "--" comments and blank lines and splits on semicolons.
func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if before, _, found := strings.Cut(line, "--"); found {
			line = before
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
