package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

func TestKeyRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := NewKeyRepository(s)
	now := time.Now()

	require.NoError(t, r.Create(ctx, &models.KeyRecord{ID: "k1", OwnerID: "u1", WrappedMaterial: []byte("a"), CreatedAt: now}))
	require.NoError(t, r.Create(ctx, &models.KeyRecord{ID: "k2", OwnerID: "u1", WrappedMaterial: []byte("b"), CreatedAt: now.Add(time.Second)}))
	assert.ErrorIs(t, r.Create(ctx, &models.KeyRecord{ID: "k1", OwnerID: "u1"}), common.ErrorAlreadyExists)

	_, err := r.GetActiveKeyID(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, r.SetActiveKey(ctx, "u1", "", "k1"))
	assert.ErrorIs(t, r.SetActiveKey(ctx, "u1", "", "k2"), common.ErrVersionConflict)
	require.NoError(t, r.SetActiveKey(ctx, "u1", "k1", "k2"))
	assert.ErrorIs(t, r.SetActiveKey(ctx, "u1", "k1", "k2"), common.ErrVersionConflict)

	id, err := r.GetActiveKeyID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "k2", id)

	assert.ErrorIs(t, r.Revoke(ctx, "u1", "k2", now), common.ErrorNotFound, "active key")
	assert.ErrorIs(t, r.Revoke(ctx, "u2", "k1", now), common.ErrorNotFound, "foreign key")
	require.NoError(t, r.Revoke(ctx, "u1", "k1", now))

	k1, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, k1.Revoked())

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "k1", list[0].ID)

	// returned records are copies
	list[1].WrappedMaterial[0] = 'z'
	k2, _ := r.Get(ctx, "k2")
	assert.Equal(t, []byte("b"), k2.WrappedMaterial)
}

func TestKeyRepository_ConcurrentCASHasOneWinner(t *testing.T) {
	ctx := context.Background()
	r := NewKeyRepository(NewStore())

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, r.Create(ctx, &models.KeyRecord{ID: string(rune('a' + i)), OwnerID: "u1"}))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if r.SetActiveKey(ctx, "u1", "", id) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func seedFile(t *testing.T, s *Store, id, owner string, created time.Time) {
	t.Helper()
	ctx := context.Background()
	if _, err := NewKeyRepository(s).Get(ctx, "k-"+owner); err != nil {
		require.NoError(t, NewKeyRepository(s).Create(ctx, &models.KeyRecord{ID: "k-" + owner, OwnerID: owner}))
	}
	require.NoError(t, NewFileRepository(s).Create(ctx, &models.EncryptedFile{
		ID: id, OwnerID: owner, StoragePath: "p/" + id, Name: id, WrappedDEK: []byte("w"), Nonce: []byte("n"),
		KeyID: "k-" + owner, CreatedAt: created,
	}))
}

func TestFileRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := NewFileRepository(s)
	now := time.Now()

	seedFile(t, s, "f1", "u1", now)
	seedFile(t, s, "f2", "u1", now.Add(time.Second))
	seedFile(t, s, "f3", "u2", now)

	err := r.Create(ctx, &models.EncryptedFile{ID: "bad", OwnerID: "u1", StoragePath: "p", Name: "n", WrappedDEK: []byte("w"), Nonce: []byte("n"), KeyID: "k-u2"})
	assert.ErrorIs(t, err, common.ErrValidation, "key of another owner")

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "f2", list[0].ID)

	assert.ErrorIs(t, r.SoftDelete(ctx, "u2", "f1", now), common.ErrorNotFound)
	require.NoError(t, r.SoftDelete(ctx, "u1", "f1", now))
	assert.ErrorIs(t, r.SoftDelete(ctx, "u1", "f1", now), common.ErrorNotFound)

	list, _ = r.ListByOwner(ctx, "u1")
	assert.Len(t, list, 1)

	f1, err := r.Get(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, f1.Deleted())

	require.NoError(t, r.SetPasswordHash(ctx, "f2", "", "h1"))
	assert.ErrorIs(t, r.SetPasswordHash(ctx, "f2", "", "h2"), common.ErrVersionConflict)
	require.NoError(t, r.SetPasswordHash(ctx, "f2", "h1", ""))
	assert.ErrorIs(t, r.SetPasswordHash(ctx, "f1", "", "h"), common.ErrVersionConflict, "deleted file")
}

func TestShareRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := NewShareRepository(s)
	now := time.Now()

	seedFile(t, s, "f1", "u1", now)
	seedFile(t, s, "f2", "u1", now)

	g := &models.ShareGroup{ID: "g1", OwnerID: "u1", LinkToken: "tok", CreatedAt: now}
	require.NoError(t, r.Create(ctx, g))
	assert.ErrorIs(t, r.Create(ctx, &models.ShareGroup{ID: "g2", OwnerID: "u1", LinkToken: "tok"}), common.ErrorAlreadyExists)

	require.NoError(t, r.AddFiles(ctx, "g1", []string{"f1", "f2", "f1"}))
	assert.ErrorIs(t, r.AddFiles(ctx, "g1", []string{"nope"}), common.ErrorNotFound)
	require.NoError(t, r.AddUsers(ctx, "g1", []string{"bob", "alice"}))

	got, err := r.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)
	_, err = r.GetByToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	users, _ := r.ListUsers(ctx, "g1")
	assert.Equal(t, []string{"alice", "bob"}, users)

	files, _ := r.ListFiles(ctx, "g1")
	assert.Len(t, files, 2)

	require.NoError(t, NewFileRepository(s).SoftDelete(ctx, "u1", "f2", now))
	files, _ = r.ListFiles(ctx, "g1")
	require.Len(t, files, 1)
	assert.Equal(t, "f1", files[0].ID)

	ok, _ := r.HasFile(ctx, "g1", "f1")
	assert.True(t, ok)
	ok, _ = r.HasFile(ctx, "g1", "f3")
	assert.False(t, ok)

	require.NoError(t, r.SetPasswordHash(ctx, "g1", "", "h"))
	assert.ErrorIs(t, r.SetPasswordHash(ctx, "g1", "", "h"), common.ErrVersionConflict)

	require.NoError(t, r.IncrementDownloadCount(ctx, "g1"))
	require.NoError(t, r.IncrementDownloadCount(ctx, "g1"))
	got, _ = r.Get(ctx, "g1")
	assert.Equal(t, int64(2), got.DownloadCount)

	groups, _ := r.ListByOwner(ctx, "u1")
	assert.Len(t, groups, 1)

	assert.ErrorIs(t, r.Delete(ctx, "u2", "g1"), common.ErrorNotFound)
	require.NoError(t, r.Delete(ctx, "u1", "g1"))
	_, err = r.GetByToken(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// deleting the group leaves files alone
	_, err = NewFileRepository(s).Get(ctx, "f1")
	assert.NoError(t, err)
}

func TestStepUpRepository(t *testing.T) {
	ctx := context.Background()
	r := NewStepUpRepository(NewStore())
	now := time.Now()

	_, err := r.GetEnrollment(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, r.CreateEnrollment(ctx, &models.TOTPEnrollment{UserID: "u1", SealedSecret: []byte("a")}))
	require.NoError(t, r.CreateEnrollment(ctx, &models.TOTPEnrollment{UserID: "u1", SealedSecret: []byte("b")}), "unconfirmed is replaced")
	require.NoError(t, r.ConfirmEnrollment(ctx, "u1"))
	assert.ErrorIs(t, r.CreateEnrollment(ctx, &models.TOTPEnrollment{UserID: "u1"}), common.ErrorAlreadyExists)

	e, err := r.GetEnrollment(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), e.SealedSecret)
	assert.True(t, e.Confirmed)

	require.NoError(t, r.MarkStepUsed(ctx, "u1", 10))
	assert.ErrorIs(t, r.MarkStepUsed(ctx, "u1", 10), common.ErrVersionConflict)
	assert.ErrorIs(t, r.MarkStepUsed(ctx, "u1", 9), common.ErrVersionConflict)
	require.NoError(t, r.MarkStepUsed(ctx, "u1", 11))

	require.NoError(t, r.CreatePendingOperation(ctx, &models.PendingOperation{Token: "t1", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, r.CreatePendingOperation(ctx, &models.PendingOperation{Token: "t2", ExpiresAt: now.Add(time.Hour)}))
	assert.ErrorIs(t, r.CreatePendingOperation(ctx, &models.PendingOperation{Token: "t2"}), common.ErrorAlreadyExists)

	n, err := r.DeleteExpiredPendingOperations(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.GetPendingOperation(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, r.DeletePendingOperation(ctx, "t2"))
	assert.ErrorIs(t, r.DeletePendingOperation(ctx, "t2"), common.ErrorNotFound)
}
