package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
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
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const (
	fileID    = "0f8fad5b-d9cb-469f-a165-70867728950e"
	missingID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

var columns = []string{"id", "owner_id", "folder_id", "storage_path", "name", "mime_type", "plaintext_size",
	"ciphertext_size", "algorithm", "wrapped_dek", "nonce", "key_id", "password_hash", "created_at", "deleted_at"}

func sampleFile(now time.Time) *models.EncryptedFile {
	return &models.EncryptedFile{
		ID: fileID, OwnerID: "u1", StoragePath: "blobs/1", Name: "a.txt", MimeType: "text/plain",
		PlaintextSize: 10, CiphertextSize: 26, Algorithm: "aes-256-gcm",
		WrappedDEK: []byte("w"), Nonce: []byte("n"), KeyID: "k1", CreatedAt: now,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+encrypted_files\b`).
		WithArgs(fileID, "u1", nil, "blobs/1", "a.txt", "text/plain", int64(10), int64(26), "aes-256-gcm",
			[]byte("w"), []byte("n"), "k1", nil, now, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), sampleFile(now)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_InvalidNeverHitsDB(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	f := sampleFile(time.Now())
	f.Nonce = nil

	assert.ErrorIs(t, repo.Create(context.Background(), f), common.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Errors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO encrypted_files`).WillReturnError(&pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, repo.Create(context.Background(), sampleFile(time.Now())), common.ErrorAlreadyExists)
	})

	t.Run("db down", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO encrypted_files`).WillReturnError(errors.New("db down"))
		err := repo.Create(context.Background(), sampleFile(time.Now()))
		if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}

func TestGet(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)SELECT\s+id,.*FROM\s+encrypted_files\s+WHERE\s+id=\$1`).
			WithArgs(fileID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				fileID, "u1", "folder", "blobs/1", "a.txt", "text/plain", 10, 26, "aes-256-gcm",
				[]byte("w"), []byte("n"), "k1", "$argon2id$x", now, nil))

		f, err := repo.Get(context.Background(), fileID)
		require.NoError(t, err)
		assert.Equal(t, "folder", f.FolderID)
		assert.Equal(t, "k1", f.KeyID)
		assert.True(t, f.HasPassword())
		assert.False(t, f.Deleted())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+encrypted_files`).WithArgs(missingID).WillReturnError(sql.ErrNoRows)
		_, err := repo.Get(context.Background(), missingID)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestListByOwner(t *testing.T) {
	now := time.Now()
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)FROM\s+encrypted_files\s+WHERE\s+owner_id=\$1\s+AND\s+deleted_at\s+IS\s+NULL`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(fileID, "u1", nil, "blobs/1", "a", "text/plain", 1, 17, "aes-256-gcm", []byte("w"), []byte("n"), "k1", nil, now, nil).
			AddRow("f2", "u1", nil, "blobs/2", "b", "text/plain", 2, 18, "aes-256-gcm", []byte("w"), []byte("n"), "k1", nil, now, nil))

	got, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f2", got[1].ID)
	assert.Empty(t, got[0].FolderID)
}

func TestListByOwner_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+encrypted_files`).WillReturnError(errors.New("boom"))
	_, err := repo.ListByOwner(context.Background(), "u1")
	require.Error(t, err)
}

func TestSoftDelete(t *testing.T) {
	q := `UPDATE\s+encrypted_files\s+SET\s+deleted_at=\$3\s+WHERE\s+id=\$1\s+AND\s+owner_id=\$2\s+AND\s+deleted_at\s+IS\s+NULL`

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(fileID, "u1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.SoftDelete(context.Background(), "u1", fileID, time.Now()))
	})

	t.Run("not owner or already deleted", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(fileID, "u2", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.SoftDelete(context.Background(), "u2", fileID, time.Now()), common.ErrorNotFound)
	})
}

func TestSetPasswordHash(t *testing.T) {
	q := `(?s)UPDATE\s+encrypted_files\s+SET\s+password_hash=\$3.*IS\s+NOT\s+DISTINCT\s+FROM\s+\$2`

	t.Run("set from none", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(fileID, nil, "h").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.SetPasswordHash(context.Background(), fileID, "", "h"))
	})

	t.Run("clear", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(fileID, "h", nil).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.SetPasswordHash(context.Background(), fileID, "h", ""))
	})

	t.Run("stale", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(fileID, "old", "new").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.SetPasswordHash(context.Background(), fileID, "old", "new"), common.ErrVersionConflict)
	})
}

func TestMalformedIDNeverHitsDB(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.SoftDelete(ctx, "u1", "not-a-uuid", time.Now()), common.ErrorNotFound)
	assert.ErrorIs(t, repo.SetPasswordHash(ctx, "f-1", "", "h"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
