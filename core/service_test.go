package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	id := repo.addUser(t, "user1", "password1")
	svc := NewRepositoryAuthService(repo)

	u, err := svc.Authenticate(ctx, "user1", "password1")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "user1", u.Username)

	for _, tc := range []struct{ user, pass string }{
		{"user1", "wrong"},
		{"nobody", "password1"},
		{"  ", "password1"},
		{"user1", ""},
	} {
		_, err := svc.Authenticate(ctx, tc.user, tc.pass)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%q/%q", tc.user, tc.pass)
	}
}

func TestRepositoryAuthService_RepositoryFailureIsInvalidCredentials(t *testing.T) {
	repo := newMemUserRepo()
	repo.err = assert.AnError
	_, err := NewRepositoryAuthService(repo).Authenticate(context.Background(), "user1", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRepositoryAuthService_Register(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := NewRepositoryAuthService(repo)

	id, err := svc.Register(ctx, " newbie ", "pw")
	require.NoError(t, err)

	rec, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "newbie", rec.Username)
	assert.NotEqual(t, "pw", rec.PasswordHash)

	_, err = svc.Register(ctx, "newbie", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, "", "pw")
	assert.Error(t, err)
}
