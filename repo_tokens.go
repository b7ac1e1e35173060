package uptask

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationTokens stores one time confirmation and password reset codes
type VerificationTokens interface {
	GetByValue(ctx context.Context, raw string) (*VerificationToken, error)
	GetByValueTx(ctx context.Context, tx bun.IDB, raw string) (*VerificationToken, error)
	Create(ctx context.Context, record *VerificationToken) (*VerificationToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *VerificationToken) (*VerificationToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type verificationTokens struct {
	db *bun.DB
}

var _ VerificationTokens = (*verificationTokens)(nil)

func NewVerificationTokensRepository(db *bun.DB) VerificationTokens {
	return &verificationTokens{db: db}
}

func (r *verificationTokens) GetByValue(ctx context.Context, raw string) (*VerificationToken, error) {
	return r.GetByValueTx(ctx, r.db, raw)
}

func (r *verificationTokens) GetByValueTx(ctx context.Context, tx bun.IDB, raw string) (*VerificationToken, error) {
	record := &VerificationToken{}
	err := tx.NewSelect().
		Model(record).
		Where(`?TableAlias."token" = ?`, raw).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *verificationTokens) Create(ctx context.Context, record *VerificationToken) (*VerificationToken, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *verificationTokens) CreateTx(ctx context.Context, tx bun.IDB, record *VerificationToken) (*VerificationToken, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *verificationTokens) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteTx(ctx, r.db, id)
}

func (r *verificationTokens) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteExpired sweeps tokens whose validity window has elapsed. Meant to run
// from a periodic job, redemption never depends on it.
func (r *verificationTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
