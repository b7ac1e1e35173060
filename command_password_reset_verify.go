package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyPasswordResetMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *VerifyPasswordResetResponse)
}

func (p VerifyPasswordResetMessage) Type() string { return "account.password_reset_verify" }

type VerifyPasswordResetResponse struct {
	Valid   bool
	Success bool
}

// VerifyPasswordResetHandler checks a reset code without consuming it. The
// reset UI validates the code on one screen and submits the new password on
// the next, so the code must still redeem afterwards.
type VerifyPasswordResetHandler struct {
	repo   RepositoryManager
	issuer *TokenIssuer
}

func NewVerifyPasswordResetHandler(repo RepositoryManager) *VerifyPasswordResetHandler {
	return &VerifyPasswordResetHandler{
		repo:   repo,
		issuer: NewTokenIssuer(repo),
	}
}

func (h *VerifyPasswordResetHandler) Execute(ctx context.Context, event VerifyPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyPasswordResetHandler) execute(ctx context.Context, event VerifyPasswordResetMessage) error {
	resp := &VerifyPasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if _, err := h.issuer.Peek(ctx, event.Token); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify reset token")
	}

	resp.Valid = true
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
