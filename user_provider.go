package uptask

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserProvider resolves stored users into auth identities
type UserProvider struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	notifier Notifier
	logger   Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(repo RepositoryManager) *UserProvider {
	return &UserProvider{
		repo:     repo,
		issuer:   NewTokenIssuer(repo),
		notifier: NoopNotifier{},
		logger:   defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// WithNotifier sets the sender used when an unconfirmed account tries to log
// in and gets a fresh confirmation code.
func (u *UserProvider) WithNotifier(n Notifier) *UserProvider {
	if n != nil {
		u.notifier = n
	}
	return u
}

// VerifyIdentity will find the user, check the account state, compare the
// password, and return the identity.
//
// The confirmation gate runs BEFORE the password comparison: an unconfirmed
// account can never trade a correct password for a session. As a side effect
// the account gets a fresh confirmation code mailed out, that failure mode is
// self healing.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.repo.Users().GetByEmail(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.Confirmed {
		u.reissueConfirmation(ctx, user)
		return nil, ErrAccountNotConfirmed
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return identityFromUser(user), nil
}

// FindIdentityByIdentifier loads an identity by user id or email without
// checking credentials. Session resolution uses the id path.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	var user *User
	var err error

	if id, perr := uuid.Parse(identifier); perr == nil {
		user, err = u.repo.Users().GetByID(ctx, id.String())
	} else {
		user, err = u.repo.Users().GetByEmail(ctx, identifier)
	}

	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return identityFromUser(user), nil
}

func (u *UserProvider) reissueConfirmation(ctx context.Context, user *User) {
	var token *VerificationToken

	err := u.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		token, err = u.issuer.IssueTx(ctx, tx, user)
		return err
	})

	if err != nil {
		u.logger.Error("login reissue confirmation token error", "error", err)
		return
	}

	if err := u.notifier.SendConfirmation(ctx, user.Email, user.Name, token.Token); err != nil {
		u.logger.Error("login reissue confirmation email error", "error", err)
	}
}

type authIdentity struct {
	id    string
	name  string
	email string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Email() string {
	return a.email
}

var _ Identity = authIdentity{}

func identityFromUser(user *User) Identity {
	return authIdentity{
		id:    user.ID.String(),
		name:  user.Name,
		email: user.Email,
	}
}
