package uptask_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	uptask "github.com/goliatone/go-uptask"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements uptask.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() uptask.Users {
	args := m.Called()
	return args.Get(0).(uptask.Users)
}

func (m *MockRepositoryManager) Tokens() uptask.VerificationTokens {
	args := m.Called()
	return args.Get(0).(uptask.VerificationTokens)
}

func (m *MockRepositoryManager) Projects() uptask.Projects {
	args := m.Called()
	return args.Get(0).(uptask.Projects)
}

func (m *MockRepositoryManager) Tasks() uptask.Tasks {
	args := m.Called()
	return args.Get(0).(uptask.Tasks)
}

func (m *MockRepositoryManager) Notes() uptask.TaskNotes {
	args := m.Called()
	return args.Get(0).(uptask.TaskNotes)
}

// stubRunInTx makes RunInTx invoke the callback with a zero bun.Tx and
// propagate its error, so handler logic runs without a live database.
func stubRunInTx(repo *MockRepositoryManager) {
	call := repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything)
	call.Run(func(args mock.Arguments) {
		fn := args.Get(2).(func(context.Context, bun.Tx) error)
		var tx bun.Tx
		call.ReturnArguments = mock.Arguments{fn(args.Get(0).(context.Context), tx)}
	})
}

// MockUsers implements the subset of uptask.Users the flows under test hit.
// The embedded interface panics on anything not stubbed.
type MockUsers struct {
	mock.Mock
	uptask.Users
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*uptask.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.User), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *uptask.User, criteria ...repository.UpdateCriteria) (*uptask.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*uptask.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.User), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*uptask.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.User), args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *uptask.User) (*uptask.User, error) {
	args := m.Called(ctx, tx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.User), args.Error(1)
}

func (m *MockUsers) ConfirmTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockTokens implements uptask.VerificationTokens
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) GetByValue(ctx context.Context, raw string) (*uptask.VerificationToken, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.VerificationToken), args.Error(1)
}

func (m *MockTokens) GetByValueTx(ctx context.Context, tx bun.IDB, raw string) (*uptask.VerificationToken, error) {
	args := m.Called(ctx, tx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.VerificationToken), args.Error(1)
}

func (m *MockTokens) Create(ctx context.Context, record *uptask.VerificationToken) (*uptask.VerificationToken, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.VerificationToken), args.Error(1)
}

func (m *MockTokens) CreateTx(ctx context.Context, tx bun.IDB, record *uptask.VerificationToken) (*uptask.VerificationToken, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uptask.VerificationToken), args.Error(1)
}

func (m *MockTokens) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokens) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotifier implements uptask.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendConfirmation(ctx context.Context, email, name, token string) error {
	args := m.Called(ctx, email, name, token)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, email, name, token string) error {
	args := m.Called(ctx, email, name, token)
	return args.Error(0)
}
