package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "account.register" }

type RegisterUserResponse struct {
	User *User
	// NotificationQueued is true when a confirmation email was handed to the
	// notifier. Delivery failures are logged, never surfaced.
	NotificationQueued bool
	Success            bool
}

type RegisterUserHandler struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	notifier Notifier
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, notifier Notifier) *RegisterUserHandler {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &RegisterUserHandler{
		repo:     repo,
		issuer:   NewTokenIssuer(repo),
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(l Logger) *RegisterUserHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	token := &VerificationToken{}
	resp := &RegisterUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrEmailTaken
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Name = event.Name
		user.Email = event.Email
		user.PasswordHash = hash
		user.Confirmed = false

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if token, err = h.issuer.IssueTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if err := h.notifier.SendConfirmation(ctx, user.Email, user.Name, token.Token); err != nil {
		h.logger.Error("register confirmation email error", "error", err)
	} else {
		resp.NotificationQueued = true
	}

	resp.User = user
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
