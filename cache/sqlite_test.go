package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/sdoh/types"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	c, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestSQLite(t)

	snapshot, err := c.Load(ctx, "tok-1")
	require.NoError(t, err)
	require.Nil(t, snapshot)

	age := 40
	saved := types.Snapshot{
		Answers:      types.Answers{Q1: types.AnswerYes, Q9: types.AnswerPreferNotToAnswer},
		Demographics: types.Demographics{Age: &age, Zip: "021"},
		LastUpdated:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Save(ctx, "tok-1", saved))

	saved.Answers.Q2 = types.AnswerNo
	require.NoError(t, c.Save(ctx, "tok-1", saved))

	snapshot, err = c.Load(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.Equal(t, saved.Answers, snapshot.Answers)
	require.Equal(t, 40, *snapshot.Demographics.Age)
	require.True(t, saved.LastUpdated.Equal(snapshot.LastUpdated))

	other, err := c.Load(ctx, "tok-2")
	require.NoError(t, err)
	require.Nil(t, other)

	require.NoError(t, c.Clear(ctx, "tok-1"))
	snapshot, err = c.Load(ctx, "tok-1")
	require.NoError(t, err)
	require.Nil(t, snapshot)
}

func TestSQLiteCorruptEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	c := openTestSQLite(t)

	_, err := c.db.Exec(
		"INSERT INTO snapshots (cache_key, body, updated_at) VALUES (?, ?, datetime('now'))",
		Key("tok-bad"), []byte("{not json"),
	)
	require.NoError(t, err)

	snapshot, err := c.Load(ctx, "tok-bad")
	require.NoError(t, err)
	require.Nil(t, snapshot)

	_, err = c.db.Exec(
		"INSERT INTO snapshots (cache_key, body, updated_at) VALUES (?, ?, datetime('now'))",
		Key("tok-odd"), []byte(`{"answers":{"q1":"maybe"}}`),
	)
	require.NoError(t, err)
	snapshot, err = c.Load(ctx, "tok-odd")
	require.NoError(t, err)
	require.Nil(t, snapshot)
}

func TestSaveStampsLastUpdated(t *testing.T) {
	ctx := context.Background()
	c := openTestSQLite(t)

	require.NoError(t, c.Save(ctx, "tok", types.Snapshot{}))
	snapshot, err := c.Load(ctx, "tok")
	require.NoError(t, err)
	require.False(t, snapshot.LastUpdated.IsZero())
}
