package uptask_test

import (
	"context"
	"testing"

	uptask "github.com/goliatone/go-uptask"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func confirmedUser(t *testing.T, password string) *uptask.User {
	t.Helper()

	hash, err := uptask.HashPassword(password)
	require.NoError(t, err)

	return &uptask.User{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Confirmed:    true,
	}
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)

		user := confirmedUser(t, "password12345")
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		provider := uptask.NewUserProvider(repo).WithLogger(testLogger{})

		identity, err := provider.VerifyIdentity(ctx, user.Email, "password12345")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, user.Email, identity.Email())
		assert.Equal(t, user.Name, identity.Name())
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)

		users.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, uptask.ErrIdentityNotFound).Once()

		provider := uptask.NewUserProvider(repo).WithLogger(testLogger{})

		_, err := provider.VerifyIdentity(ctx, "ghost@example.com", "whatever")
		require.ErrorIs(t, err, uptask.ErrIdentityNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)

		user := confirmedUser(t, "password12345")
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		provider := uptask.NewUserProvider(repo).WithLogger(testLogger{})

		_, err := provider.VerifyIdentity(ctx, user.Email, "not-the-password")
		require.ErrorIs(t, err, uptask.ErrMismatchedHashAndPassword)
	})

	t.Run("unconfirmed account is gated before the password check", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		tokens := &MockTokens{}
		notifier := &MockNotifier{}

		repo.On("Users").Return(users)
		repo.On("Tokens").Return(tokens)
		stubRunInTx(repo)

		user := confirmedUser(t, "password12345")
		user.Confirmed = false

		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		tokens.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(&uptask.VerificationToken{ID: uuid.New(), Token: "fresh-code", UserID: user.ID}, nil).Once()
		notifier.On("SendConfirmation", mock.Anything, user.Email, user.Name, "fresh-code").
			Return(nil).Once()

		provider := uptask.NewUserProvider(repo).
			WithNotifier(notifier).
			WithLogger(testLogger{})

		// even the correct password must not produce an identity
		_, err := provider.VerifyIdentity(ctx, user.Email, "password12345")
		require.ErrorIs(t, err, uptask.ErrAccountNotConfirmed)

		tokens.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)

		user := confirmedUser(t, "password12345")
		users.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil).Once()

		provider := uptask.NewUserProvider(repo)

		identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
	})

	t.Run("by email", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)

		user := confirmedUser(t, "password12345")
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		provider := uptask.NewUserProvider(repo)

		identity, err := provider.FindIdentityByIdentifier(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.Email, identity.Email())
	})

	t.Run("missing identity", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)

		users.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, uptask.ErrIdentityNotFound).Once()

		provider := uptask.NewUserProvider(repo)

		_, err := provider.FindIdentityByIdentifier(ctx, "ghost@example.com")
		require.ErrorIs(t, err, uptask.ErrIdentityNotFound)
	})
}
