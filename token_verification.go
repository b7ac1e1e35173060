package uptask

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// verificationTokenBytes gives 128 bits of entropy, the code must not be
// guessable
const verificationTokenBytes = 16

// GenerateVerificationToken returns an opaque printable code with no internal
// structure. It is mailed to the user and submitted back verbatim.
func GenerateVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
	}
	return hex.EncodeToString(buf), nil
}

// TokenIssuer drives the verification token state machine:
// Issued -> Consumed when redeemed inside the validity window, or Issued ->
// Expired once the window elapses. Expired is evaluated at redemption time,
// never persisted.
type TokenIssuer struct {
	repo   RepositoryManager
	logger Logger
}

// NewTokenIssuer creates a TokenIssuer with sane defaults
func NewTokenIssuer(repo RepositoryManager) *TokenIssuer {
	return &TokenIssuer{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the issuer
func (ti *TokenIssuer) WithLogger(logger Logger) *TokenIssuer {
	if logger != nil {
		ti.logger = logger
	}
	return ti
}

// IssueTx creates and persists a fresh verification token for user. Older
// unexpired tokens are left alone, they simply orphan out.
func (ti *TokenIssuer) IssueTx(ctx context.Context, tx bun.IDB, user *User) (*VerificationToken, error) {
	raw, err := GenerateVerificationToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	token := &VerificationToken{
		Token:     raw,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(VerificationTokenTTL),
	}

	return ti.repo.Tokens().CreateTx(ctx, tx, token)
}

// RedeemTx looks up a raw token and consumes it. The delete happens in the
// caller's transaction so redemption is atomic with the state change it
// authorizes: two concurrent redemptions cannot both win.
func (ti *TokenIssuer) RedeemTx(ctx context.Context, tx bun.IDB, raw string) (*VerificationToken, error) {
	token, err := ti.repo.Tokens().GetByValueTx(ctx, tx, raw)
	if err != nil {
		return nil, err
	}

	if token.Expired(time.Now()) {
		// the record is left in place, a TTL sweep owns cleanup
		return nil, ErrTokenExpired
	}

	if err := ti.repo.Tokens().DeleteTx(ctx, tx, token.ID); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification token")
	}

	return token, nil
}

// Peek is a read-only validity check that does NOT consume the token. The
// password reset flow validates in one request and redeems in the next, so
// the token has to survive this call.
func (ti *TokenIssuer) Peek(ctx context.Context, raw string) (*VerificationToken, error) {
	token, err := ti.repo.Tokens().GetByValue(ctx, raw)
	if err != nil {
		return nil, err
	}

	if token.Expired(time.Now()) {
		return nil, ErrTokenExpired
	}

	return token, nil
}
