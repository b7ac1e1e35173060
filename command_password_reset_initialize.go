package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetResponse struct {
	NotificationQueued bool
	Success            bool
}

type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	notifier Notifier
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, notifier Notifier) *InitializePasswordResetHandler {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &InitializePasswordResetHandler{
		repo:     repo,
		issuer:   NewTokenIssuer(repo),
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(l Logger) *InitializePasswordResetHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	user := &User{}
	token := &VerificationToken{}
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		if token, err = h.issuer.IssueTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if err := h.notifier.SendPasswordReset(ctx, user.Email, user.Name, token.Token); err != nil {
		h.logger.Error("password reset email error", "error", err)
	} else {
		resp.NotificationQueued = true
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
