package shared

import (
	"errors"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		for _, table := range []string{"kv_store", "backup_log"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		step, err := RollbackMigration(db)
		if err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if step.Version != 1 || step.Name != "create_backup_log" {
			t.Errorf("expected to roll back 0001_create_backup_log, got %04d_%s", step.Version, step.Name)
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}

		if _, err := db.Exec("SELECT 1 FROM backup_log LIMIT 1"); err == nil {
			t.Error("backup_log table should be dropped by rollback")
		}
	})

	t.Run("Rollback To Empty", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, ok, err := SchemaVersion(db); err != nil || ok {
			t.Fatalf("expected no version before migrating, got ok=%v err=%v", ok, err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if v, ok, _ := SchemaVersion(db); !ok || v != 1 {
			t.Fatalf("expected version 1, got %d (ok=%v)", v, ok)
		}

		for range 2 {
			if _, err := RollbackMigration(db); err != nil {
				t.Fatalf("rollback failed: %v", err)
			}
		}
		if _, err := db.Exec("SELECT 1 FROM kv_store LIMIT 1"); err == nil {
			t.Error("kv_store table should be dropped after rolling back version 0")
		}
		if _, err := RollbackMigration(db); !errors.Is(err, ErrNoMigrations) {
			t.Errorf("expected ErrNoMigrations, got %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate again after full rollback: %v", err)
		}
	})

	t.Run("parseSchemaFile", func(t *testing.T) {
		tests := []struct {
			file      string
			version   int
			name, dir string
			ok        bool
		}{
			{"0001_create_backup_log_up.sql", 1, "create_backup_log", "up", true},
			{"0000_create_kv_store_down.sql", 0, "create_kv_store", "down", true},
			{"0002_notes.sql", 0, "", "", false},
			{"readme_up.txt", 0, "", "", false},
			{"abcd_thing_up.sql", 0, "", "", false},
		}
		for _, tt := range tests {
			v, name, dir, ok := parseSchemaFile(tt.file)
			if ok != tt.ok || v != tt.version || name != tt.name || dir != tt.dir {
				t.Errorf("parseSchemaFile(%q) = %d, %q, %q, %v", tt.file, v, name, dir, ok)
			}
		}
	})

	t.Run("splitStatements", func(t *testing.T) {
		got := splitStatements("-- header\nDROP INDEX a; -- trailing\n\nDROP TABLE b;\n")
		if len(got) != 2 || got[0] != "DROP INDEX a" || got[1] != "DROP TABLE b" {
			t.Errorf("unexpected statements: %q", got)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}
