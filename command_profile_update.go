package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UpdateProfileMessage struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OnResponse func(resp *UpdateProfileResponse)
}

func (p UpdateProfileMessage) Type() string { return "account.profile_update" }

type UpdateProfileResponse struct {
	User    *User
	Success bool
}

type UpdateProfileHandler struct {
	repo RepositoryManager
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{repo: repo}
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	user := &User{}
	resp := &UpdateProfileResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().GetByID(ctx, event.UserID.String()); err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for profile update")
		}

		email := NormalizeEmail(event.Email)

		// the new email must not belong to a different account
		if email != user.Email {
			if other, err := h.repo.Users().GetByEmailTx(ctx, tx, email); err == nil && other.ID != user.ID {
				return ErrEmailTaken
			} else if err != nil && !repository.IsRecordNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
			}
		}

		user.Name = event.Name
		user.Email = email

		if user, err = h.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update transaction failed")
	}

	resp.User = user
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
