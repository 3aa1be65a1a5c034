package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/haiku/internal/haiku"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err, "OpenSQLite(:memory:)")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Gateway(t *testing.T) {
	exerciseGateway(t, openTestSQLite(t))
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := OpenSQLite(dir)
	require.NoError(t, err)
	v1, err := s1.AppliedMigrations()
	require.NoError(t, err)
	_, err = s1.Append(context.Background(), haiku.Record{Theme: "a", Text: "b", CreatedAt: time.Now()})
	require.NoError(t, err)
	s1.Close()

	s2, err := OpenSQLite(dir)
	require.NoError(t, err)
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	all, err := s2.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1, "data survives reopen")
}

func TestSQLite_IndexExists(t *testing.T) {
	s := openTestSQLite(t)

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", "idx_haikus_created").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLite_BadTimestampFallsBackToNow(t *testing.T) {
	s := openTestSQLite(t)
	now := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = fixedClock(now)

	_, err := s.db.Exec(`INSERT INTO haikus (id, theme, text, created_at) VALUES ('bad', 'x', 'y', 'not-a-time')`)
	require.NoError(t, err)
	_, err = s.db.Exec(`INSERT INTO haikus (id, theme, text, created_at) VALUES ('missing', 'x', 'y', NULL)`)
	require.NoError(t, err)

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, r := range all {
		assert.Equal(t, now, r.CreatedAt, r.ID)
	}
}

func TestSQLite_FallbackTimestampsStayNewestFirst(t *testing.T) {
	s := openTestSQLite(t)
	now := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = fixedClock(now)

	_, err := s.db.Exec(`INSERT INTO haikus (id, theme, text, created_at) VALUES ('good', 'x', 'y', '2025-01-01T00:00:00.000000000Z')`)
	require.NoError(t, err)
	_, err = s.db.Exec(`INSERT INTO haikus (id, theme, text, created_at) VALUES ('missing', 'x', 'y', NULL)`)
	require.NoError(t, err)

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "missing", all[0].ID)
	assert.Equal(t, "good", all[1].ID)
	assert.False(t, all[0].CreatedAt.Before(all[1].CreatedAt))
}

func TestSQLite_ErrorsArePersistenceFailures(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	s.Close()

	_, err = s.Append(context.Background(), haiku.Record{Theme: "a", Text: "b"})
	assert.True(t, errors.Is(err, haiku.ErrPersistence), "append: %v", err)

	_, err = s.ListAll(context.Background())
	assert.True(t, errors.Is(err, haiku.ErrPersistence), "list: %v", err)
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("001_haikus.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = parseMigrationVersion("haikus.sql")
	assert.Error(t, err)
}
