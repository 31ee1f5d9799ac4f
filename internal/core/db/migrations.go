package db

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/solatis/sentenceparser/migrations"
)

// MigrationStatus reports one schema file and whether it has been applied.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// schemaFile is one embedded .sql file. ID is the base filename, which
// also fixes the apply order.
type schemaFile struct {
	ID       string
	Checksum string
	SQL      string
}

// appliedRow is one row of the migrations bookkeeping table.
type appliedRow struct {
	ID          string `db:"migration_id"`
	Checksum    string `db:"checksum"`
	AppliedAt   string `db:"applied_at"`
	ExecutionMs int64  `db:"execution_ms"`
}

// MigrateUp brings the rules schema up to date. Files already applied
// must still match their recorded checksum; each pending file runs in its
// own transaction together with its bookkeeping row.
func MigrateUp(db *sqlx.DB) error {
	files, applied, err := loadSchemaState(db)
	if err != nil {
		return err
	}

	for id, row := range applied {
		f, ok := findSchemaFile(files, id)
		if !ok {
			return fmt.Errorf("migration checksum validation failed: %s is recorded but not embedded", id)
		}
		if f.Checksum != row.Checksum {
			return fmt.Errorf("migration checksum validation failed: %s was edited after being applied (recorded %s, embedded %s)",
				id, row.Checksum, f.Checksum)
		}
	}

	for _, f := range files {
		if _, done := applied[f.ID]; done {
			continue
		}
		if err := runSchemaFile(db, f); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus lists every embedded schema file in apply order.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	files, applied, err := loadSchemaState(db)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(files))
	for _, f := range files {
		row, ok := applied[f.ID]
		if !ok {
			statuses = append(statuses, MigrationStatus{ID: f.ID, Checksum: f.Checksum})
			continue
		}
		st := MigrationStatus{
			ID:          row.ID,
			Checksum:    row.Checksum,
			Applied:     true,
			ExecutionMs: row.ExecutionMs,
		}
		// sqlite keeps RFC3339 text, lib/pq hands back RFC3339Nano
		if t, err := time.Parse(time.RFC3339Nano, row.AppliedAt); err == nil {
			st.AppliedAt = &t
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// loadSchemaState reads the embedded files for the connection's driver
// and the rows already recorded in the bookkeeping table.
func loadSchemaState(db *sqlx.DB) ([]schemaFile, map[string]appliedRow, error) {
	fsys, dir, err := migrationSource(db.DriverName())
	if err != nil {
		return nil, nil, err
	}
	if err := ensureMigrationsTable(db); err != nil {
		return nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	files, err := readSchemaFiles(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse migrations: %w", err)
	}

	var rows []appliedRow
	if err := db.Select(&rows, "SELECT migration_id, checksum, applied_at, execution_ms FROM migrations"); err != nil {
		return nil, nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied := make(map[string]appliedRow, len(rows))
	for _, r := range rows {
		applied[r.ID] = r
	}
	return files, applied, nil
}

// migrationSource picks the embedded schema set for a driver.
func migrationSource(driver string) (embed.FS, string, error) {
	switch driver {
	case "sqlite3":
		return embeddedmigrations.SqliteMigrations, "sqlite", nil
	case "postgres":
		return embeddedmigrations.PostgresMigrations, "postgres", nil
	default:
		return embed.FS{}, "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func readSchemaFiles(fsys embed.FS, dir string) ([]schemaFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []schemaFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		content, err := fsys.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(content)
		files = append(files, schemaFile{
			ID:       e.Name(),
			Checksum: hex.EncodeToString(sum[:]),
			SQL:      string(content),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

func findSchemaFile(files []schemaFile, id string) (schemaFile, bool) {
	for _, f := range files {
		if f.ID == id {
			return f, true
		}
	}
	return schemaFile{}, false
}

// ensureMigrationsTable creates the bookkeeping table. The definition
// must stay in step with 001_initial_schema.sql for each driver.
func ensureMigrationsTable(db *sqlx.DB) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
			execution_ms INTEGER NOT NULL
		)
	`
	if db.DriverName() == "sqlite3" {
		ddl = `
			CREATE TABLE IF NOT EXISTS migrations (
				migration_id TEXT PRIMARY KEY,
				checksum TEXT NOT NULL,
				applied_at TEXT NOT NULL,
				execution_ms INTEGER NOT NULL,
				CHECK (applied_at LIKE '____-__-__T__:__:__Z')
			)
		`
	}
	_, err := db.Exec(ddl)
	return err
}

// runSchemaFile executes one file and records it in a single transaction.
func runSchemaFile(db *sqlx.DB, f schemaFile) error {
	start := time.Now()

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", f.ID, err)
	}

	// lib/pq rejects several statements in one Exec
	for _, stmt := range strings.Split(stripComments(f.SQL), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: statement failed: %w", f.ID, err)
		}
	}

	if err := recordSchemaFile(tx, f, time.Since(start)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", f.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", f.ID, err)
	}
	return nil
}

// stripComments drops full-line "--" comments so a comment above a
// statement does not swallow the statement after splitting.
func stripComments(sql string) string {
	lines := strings.Split(sql, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func recordSchemaFile(tx *sqlx.Tx, f schemaFile, took time.Duration) error {
	var appliedAt interface{} = time.Now().UTC()
	if tx.DriverName() == "sqlite3" {
		appliedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := tx.Exec(
		tx.Rebind("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
		f.ID, f.Checksum, appliedAt, took.Milliseconds(),
	)
	return err
}
