package uptask_test

import (
	"context"
	"testing"
	"time"

	uptask "github.com/goliatone/go-uptask"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIdentityProvider implements uptask.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (uptask.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(uptask.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (uptask.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(uptask.Identity), args.Error(1)
}

func testConfig() *uptask.SimpleConfig {
	return &uptask.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "uptask-test",
		Audience:   []string{"uptask-test"},
	}
}

func TestAuthenticatorLogin(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("valid credentials produce a session token", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", mock.Anything, "ada@example.com", "password12345").
			Return(testIdentity{id: userID.String(), email: "ada@example.com"}, nil).Once()

		auther := uptask.NewAuthenticator(provider, testConfig()).WithLogger(testLogger{})

		token, err := auther.Login(ctx, "ada@example.com", "password12345")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		session, err := auther.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), session.GetUserID())
		assert.Equal(t, "uptask-test", session.GetIssuer())
		assert.Equal(t, []string{"uptask-test"}, session.GetAudience())
		assert.True(t, uptask.HasUserUUID(session))

		got, err := session.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, got)

		provider.AssertExpectations(t)
	})

	t.Run("provider failures pass through", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, uptask.ErrMismatchedHashAndPassword).Once()

		auther := uptask.NewAuthenticator(provider, testConfig()).WithLogger(testLogger{})

		_, err := auther.Login(ctx, "ada@example.com", "wrong")
		require.ErrorIs(t, err, uptask.ErrMismatchedHashAndPassword)
	})

	t.Run("zero identity is rejected", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", mock.Anything, mock.Anything, mock.Anything).
			Return(testIdentity{}, nil).Once()

		auther := uptask.NewAuthenticator(provider, testConfig()).WithLogger(testLogger{})

		_, err := auther.Login(ctx, "ada@example.com", "password12345")
		require.ErrorIs(t, err, uptask.ErrIdentityNotFound)
	})
}

func TestAuthenticatorSessionFromToken(t *testing.T) {
	provider := &MockIdentityProvider{}
	auther := uptask.NewAuthenticator(provider, testConfig()).WithLogger(testLogger{})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := auther.SessionFromToken("garbage")
		require.ErrorIs(t, err, uptask.ErrSessionInvalid)
	})

	t.Run("rejects foreign signatures", func(t *testing.T) {
		other := uptask.NewAuthenticator(provider, &uptask.SimpleConfig{
			SigningKey: "other-key",
			Issuer:     "uptask-test",
			Audience:   []string{"uptask-test"},
		})

		token, err := other.TokenService().Generate(testIdentity{id: uuid.NewString()})
		require.NoError(t, err)

		_, err = auther.SessionFromToken(token)
		require.ErrorIs(t, err, uptask.ErrSessionInvalid)
	})

	t.Run("custom validator takes precedence", func(t *testing.T) {
		external := uptask.NewTokenService([]byte("external-key"), 6, "external", nil, testLogger{})

		custom := uptask.NewAuthenticator(provider, testConfig()).
			WithTokenValidator(uptask.NewMultiTokenValidator(external))

		token, err := external.Generate(testIdentity{id: uuid.NewString()})
		require.NoError(t, err)

		session, err := custom.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, "external", session.GetIssuer())
	})
}

func TestAuthenticatorIdentityFromSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	provider := &MockIdentityProvider{}
	provider.On("FindIdentityByIdentifier", mock.Anything, userID.String()).
		Return(testIdentity{id: userID.String(), email: "ada@example.com"}, nil).Once()

	auther := uptask.NewAuthenticator(provider, testConfig()).WithLogger(testLogger{})

	token, err := auther.TokenService().Generate(testIdentity{id: userID.String()})
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	identity, err := auther.IdentityFromSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), identity.ID())

	provider.AssertExpectations(t)
}

func TestSessionObject(t *testing.T) {
	issued := time.Now()
	session := &uptask.SessionObject{
		UserID:   uuid.NewString(),
		Issuer:   "uptask-test",
		IssuedAt: &issued,
	}

	assert.True(t, uptask.HasUserUUID(session))

	session.UserID = "not-a-uuid"
	assert.False(t, uptask.HasUserUUID(session))

	assert.False(t, uptask.HasUserUUID(nil))
}
