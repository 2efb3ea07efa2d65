package links

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/client/models"
	"github.com/dmitrijs2005/vaultshare/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE links (
  name       TEXT PRIMARY KEY,
  link_token TEXT NOT NULL,
  note       TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSaveAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.Save(ctx, &models.Link{Name: "report", LinkToken: "tok-a", Note: "from alice", CreatedAt: created}))

	l, err := r.Get(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", l.LinkToken)
	assert.Equal(t, "from alice", l.Note)
	assert.True(t, created.Equal(l.CreatedAt))
}

func TestSave_ReplacesByName(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, &models.Link{Name: "x", LinkToken: "old", CreatedAt: time.Now()}))
	require.NoError(t, r.Save(ctx, &models.Link{Name: "x", LinkToken: "new", CreatedAt: time.Now()}))

	l, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "new", l.LinkToken)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestList_SortedByName(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, n := range []string{"b", "c", "a"} {
		require.NoError(t, r.Save(ctx, &models.Link{Name: n, LinkToken: "t-" + n, CreatedAt: time.Now()}))
	}

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestGetAndDelete_Unknown(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Get(ctx, "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, "nope"), common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, &models.Link{Name: "x", LinkToken: "t", CreatedAt: time.Now()}))
	require.NoError(t, r.Delete(ctx, "x"))

	_, err := r.Get(ctx, "x")
	require.ErrorIs(t, err, common.ErrNotFound)
}
