package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

type FinalizePasswordResetResponse struct {
	UserID  string
	Success bool
}

type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	issuer *TokenIssuer
}

func NewFinalizePasswordResetHandler(repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		issuer: NewTokenIssuer(repo),
	}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	resp := &FinalizePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	// consume the token and swap the hash atomically, a raced second submit
	// sees ErrTokenNotFound
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := h.issuer.RedeemTx(ctx, tx, event.Token)
		if err != nil {
			return err
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, token.UserID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset password")
		}

		resp.UserID = token.UserID.String()
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset finalization failed")
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
