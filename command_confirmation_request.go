package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RequestConfirmationMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestConfirmationResponse)
}

func (e RequestConfirmationMessage) Type() string { return "account.confirmation_request" }

type RequestConfirmationResponse struct {
	NotificationQueued bool
	Success            bool
}

// RequestConfirmationHandler mails a fresh confirmation code to an account
// that never completed confirmation
type RequestConfirmationHandler struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	notifier Notifier
	logger   Logger
}

func NewRequestConfirmationHandler(repo RepositoryManager, notifier Notifier) *RequestConfirmationHandler {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &RequestConfirmationHandler{
		repo:     repo,
		issuer:   NewTokenIssuer(repo),
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *RequestConfirmationHandler) WithLogger(l Logger) *RequestConfirmationHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RequestConfirmationHandler) Execute(ctx context.Context, event RequestConfirmationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestConfirmationHandler) execute(ctx context.Context, event RequestConfirmationMessage) error {
	user := &User{}
	token := &VerificationToken{}
	resp := &RequestConfirmationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for confirmation request")
		}

		if user.Confirmed {
			return ErrAlreadyConfirmed
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "confirmation request transaction failed")
	}

	if err := h.notifier.SendConfirmation(ctx, user.Email, user.Name, token.Token); err != nil {
		h.logger.Error("confirmation request email error", "error", err)
	} else {
		resp.NotificationQueued = true
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
