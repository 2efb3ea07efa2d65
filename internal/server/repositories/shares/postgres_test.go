package shares

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const (
	groupID = "3f333df6-90a4-4fda-8dd3-9485d27cee36"
	fileID  = "0f8fad5b-d9cb-469f-a165-70867728950e"
)

var groupCols = []string{"id", "owner_id", "link_token", "password_hash", "expires_at", "created_at", "download_count"}

func TestCreate(t *testing.T) {
	now := time.Now()
	exp := now.Add(time.Hour)
	g := &models.ShareGroup{ID: groupID, OwnerID: "u1", LinkToken: "tok", ExpiresAt: &exp, CreatedAt: now}

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`(?s)^INSERT\s+INTO\s+share_groups\b`).
			WithArgs(groupID, "u1", "tok", nil, exp, now, int64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), g))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token collision", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO share_groups`).WillReturnError(&pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, repo.Create(context.Background(), g), common.ErrorAlreadyExists)
	})
}

func TestAddFilesAndUsers(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT\s+INTO\s+shared_files`).WithArgs(groupID, fileID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+shared_files`).WithArgs(groupID, "f2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+shared_users`).WithArgs(groupID, "bob").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddFiles(context.Background(), groupID, []string{fileID, "f2"}))
	require.NoError(t, repo.AddUsers(context.Background(), groupID, []string{"bob"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFiles_Error(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT\s+INTO\s+shared_files`).WillReturnError(errors.New("fk violation"))

	err := repo.AddFiles(context.Background(), groupID, []string{fileID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fk violation")
}

func TestGetByToken(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)FROM\s+share_groups\s+WHERE\s+link_token=\$1`).
			WithArgs("tok").
			WillReturnRows(sqlmock.NewRows(groupCols).AddRow(groupID, "u1", "tok", "$argon2id$h", nil, now, 3))

		g, err := repo.GetByToken(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, groupID, g.ID)
		assert.True(t, g.HasPassword())
		assert.Nil(t, g.ExpiresAt)
		assert.Equal(t, int64(3), g.DownloadCount)
	})

	t.Run("unknown", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+share_groups`).WithArgs("garbage").WillReturnError(sql.ErrNoRows)
		_, err := repo.GetByToken(context.Background(), "garbage")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)FROM\s+share_groups\s+WHERE\s+id=\$1`).
		WithArgs(groupID).
		WillReturnRows(sqlmock.NewRows(groupCols).AddRow(groupID, "u1", "tok", nil, nil, time.Now(), 0))

	g, err := repo.Get(context.Background(), groupID)
	require.NoError(t, err)
	assert.False(t, g.HasPassword())
}

func TestListFiles(t *testing.T) {
	now := time.Now()
	cols := []string{"id", "owner_id", "folder_id", "storage_path", "name", "mime_type", "plaintext_size",
		"ciphertext_size", "algorithm", "wrapped_dek", "nonce", "key_id", "password_hash", "created_at", "deleted_at"}

	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)FROM\s+shared_files\s+s\s+JOIN\s+encrypted_files.*deleted_at\s+IS\s+NULL`).
		WithArgs(groupID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(fileID, "u1", nil, "blobs/1", "a.txt", "text/plain", 10, 26, "aes-256-gcm", []byte("w"), []byte("n"), "k1", nil, now, nil))

	got, err := repo.ListFiles(context.Background(), groupID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.txt", got[0].Name)
}

func TestHasFile(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs(groupID, fileID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasFile(context.Background(), groupID, fileID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListUsers(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT\s+user_id\s+FROM\s+shared_users`).WithArgs(groupID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice").AddRow("bob"))

	got, err := repo.ListUsers(context.Background(), groupID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got)
}

func TestSetPasswordHash(t *testing.T) {
	q := `(?s)UPDATE\s+share_groups\s+SET\s+password_hash=\$3.*IS\s+NOT\s+DISTINCT\s+FROM\s+\$2`

	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(q).WithArgs(groupID, nil, "h").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(groupID, "x", "h").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.SetPasswordHash(context.Background(), groupID, "", "h"))
	assert.ErrorIs(t, repo.SetPasswordHash(context.Background(), groupID, "x", "h"), common.ErrVersionConflict)
}

func TestIncrementDownloadCount(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`UPDATE\s+share_groups\s+SET\s+download_count\s*=\s*download_count\s*\+\s*1`).
		WithArgs(groupID).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.IncrementDownloadCount(context.Background(), groupID))
}

func TestListByOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)FROM\s+share_groups\s+WHERE\s+owner_id=\$1`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(groupCols).
			AddRow("g2", "u1", "t2", nil, nil, time.Now(), 0).
			AddRow(groupID, "u1", "t1", nil, nil, time.Now(), 5))

	got, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[1].DownloadCount)
}

func TestDelete(t *testing.T) {
	q := `DELETE\s+FROM\s+share_groups\s+WHERE\s+id=\$1\s+AND\s+owner_id=\$2`

	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(q).WithArgs(groupID, "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(groupID, "u2").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "u1", groupID))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u2", groupID), common.ErrorNotFound)
}

func TestMalformedIDNeverHitsDB(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "g-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	files, err := repo.ListFiles(ctx, "g-1")
	require.NoError(t, err)
	assert.Empty(t, files)

	users, err := repo.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, users)

	ok, err := repo.HasFile(ctx, groupID, "../etc/passwd")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, repo.SetPasswordHash(ctx, "g-1", "", "h"), common.ErrorNotFound)
	assert.ErrorIs(t, repo.IncrementDownloadCount(ctx, "g-1"), common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "u1", "g-1"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
