package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ConfirmAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ConfirmAccountResponse)
}

func (e ConfirmAccountMessage) Type() string { return "account.confirm" }

type ConfirmAccountResponse struct {
	UserID  string
	Success bool
}

type ConfirmAccountHandler struct {
	repo   RepositoryManager
	issuer *TokenIssuer
}

func NewConfirmAccountHandler(repo RepositoryManager) *ConfirmAccountHandler {
	return &ConfirmAccountHandler{
		repo:   repo,
		issuer: NewTokenIssuer(repo),
	}
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) error {
	resp := &ConfirmAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// redemption and the confirmed flip share one transaction, a token can
	// only ever confirm a single time
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := h.issuer.RedeemTx(ctx, tx, event.Token)
		if err != nil {
			return err
		}

		if err := h.repo.Users().ConfirmTx(ctx, tx, token.UserID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm account")
		}

		resp.UserID = token.UserID.String()
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account confirmation transaction failed")
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
