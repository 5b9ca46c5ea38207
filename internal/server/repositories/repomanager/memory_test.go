package repomanager

import (
	"context"
	"testing"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	repo := m.Users(nil)

	alice, err := repo.Create(ctx, &models.User{Name: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ID)

	bob, err := repo.Create(ctx, &models.User{Name: "bob", Email: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), bob.ID)

	_, err = repo.Create(ctx, &models.User{Name: "carol", Email: "a@x.com"})
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)
	_, err = repo.Create(ctx, &models.User{Name: "alice", Email: "other@x.com"})
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)

	got, err := repo.GetByIdentifier(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	// name wins over another user's email
	got, err = repo.GetByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	_, err = repo.GetByIdentifier(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err = repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Name)
	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := repo.ExistsByName(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewInMemoryRepositoryManager()
	_, err := m.Users(nil).GetByID(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = m.Businesses(nil).FindAllByOwner(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInMemory_Resources(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	m.AddBusiness(models.Business{OwnerID: 1, Name: "a"})
	m.AddBusiness(models.Business{OwnerID: 2, Name: "b"})
	m.AddReview(models.Review{UserID: 1, BusinessID: 2, Stars: 5})
	m.AddPhoto(models.Photo{UserID: 2, BusinessID: 1, ObjectKey: "k"})

	bs, err := m.Businesses(nil).FindAllByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bs, 1)
	assert.Equal(t, "a", bs[0].Name)

	rs, err := m.Reviews(nil).FindAllByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rs, 1)

	ps, err := m.Photos(nil).FindAllByUser(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, ps)
	assert.Empty(t, ps)
}
