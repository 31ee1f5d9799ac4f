package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "rules.db")
}

func TestOpenUnsupportedScheme(t *testing.T) {
	_, err := Open("mysql://localhost/rules")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database scheme")
}

func TestDataSource(t *testing.T) {
	tests := []struct {
		url    string
		driver string
		dsn    string
	}{
		{"sqlite://rules.db", "sqlite3", "rules.db"},
		{"sqlite://data/rules.db", "sqlite3", "data/rules.db"},
		{"sqlite:///var/lib/rules.db", "sqlite3", "/var/lib/rules.db"},
		{"postgres://u:p@db:5432/rules?sslmode=disable", "postgres", "postgres://u:p@db:5432/rules?sslmode=disable"},
	}
	for _, tt := range tests {
		driver, dsn, err := dataSource(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.driver, driver, tt.url)
		assert.Equal(t, tt.dsn, dsn, tt.url)
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	conn, err := Open(openTemp(t))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, MigrateUp(conn))
	require.NoError(t, MigrateUp(conn))

	statuses, err := MigrateStatus(conn)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Applied, s.ID)
		assert.NotNil(t, s.AppliedAt, s.ID)
		assert.Len(t, s.Checksum, 64)
	}
	assert.Equal(t, "001_initial_schema.sql", statuses[0].ID)
}

func TestMigrateStatusPending(t *testing.T) {
	conn, err := Open(openTemp(t))
	require.NoError(t, err)
	defer conn.Close()

	statuses, err := MigrateStatus(conn)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.False(t, s.Applied, s.ID)
	}
}

func TestMigrateUpDetectsTampering(t *testing.T) {
	conn, err := Open(openTemp(t))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, MigrateUp(conn))
	_, err = conn.Exec("UPDATE migrations SET checksum = 'x' WHERE migration_id = '001_initial_schema.sql'")
	require.NoError(t, err)

	err = MigrateUp(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edited after being applied")
}

func TestStripComments(t *testing.T) {
	got := stripComments("-- header\nCREATE TABLE a (id TEXT);\n  -- note\nCREATE TABLE b (id TEXT);")
	assert.Equal(t, "CREATE TABLE a (id TEXT);\nCREATE TABLE b (id TEXT);", got)
}

func TestQueriesRoundTrip(t *testing.T) {
	conn, err := Open(openTemp(t))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, MigrateUp(conn))

	q, err := LoadQueries(conn)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = q.Exec(ctx, "insert-rule", "r1", "prefer tea", 3, "2026-01-02 03:04:05")
	require.NoError(t, err)
	_, err = q.Exec(ctx, "insert-rule", "r2", "like coffee", 1, "2026-01-02 03:04:06")
	require.NoError(t, err)

	var positions []int
	err = q.Select(ctx, "list-rule-positions", &positions)
	require.Error(t, err, "unknown query names are rejected")

	var count int
	require.NoError(t, conn.Get(&count, "SELECT COUNT(*) FROM rules"))
	assert.Equal(t, 2, count)

	var pos int
	require.NoError(t, conn.Get(&pos, "SELECT position FROM rules WHERE rule_id = 'r2'"))
	assert.Equal(t, 2, pos)
}

func TestQueriesInTxRollsBack(t *testing.T) {
	conn, err := Open(openTemp(t))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, MigrateUp(conn))

	q, err := LoadQueries(conn)
	require.NoError(t, err)
	ctx := context.Background()

	boom := errors.New("boom")
	err = q.InTx(ctx, func(tx *Queries) error {
		if _, err := tx.Exec(ctx, "insert-rule", "r1", "prefer tea", 3, "2026-01-02 03:04:05"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, q.InTx(ctx, func(tx *Queries) error {
		_, err := tx.Exec(ctx, "insert-rule", "r2", "like coffee", 1, "2026-01-02 03:04:06")
		return err
	}))

	var ids []string
	require.NoError(t, conn.Select(&ids, "SELECT rule_id FROM rules"))
	assert.Equal(t, []string{"r2"}, ids)
}
