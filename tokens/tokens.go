// Package tokens manages short-lived, single-use credentials: signup
// verification codes and password-reset tokens, both keyed by email.
package tokens

import (
	"context"
	"errors"
	"time"

	"prepcore/model"
	"prepcore/repository"
	"prepcore/utils"
)

const (
	// OTPTTL is how long a signup verification code stays valid.
	OTPTTL = 10 * time.Minute
	// ResetTTL is how long a password-reset token stays valid.
	ResetTTL = 30 * time.Minute
)

// ErrInvalid covers every failed verification: unknown email, wrong value,
// or expired record. Callers cannot tell the cases apart.
var ErrInvalid = errors.New("tokens: invalid or expired token")

// TokenStore issues and verifies ephemeral tokens on top of whichever
// storage backend is active. At most one pending record exists per
// (purpose, email); issuing again replaces the old record unconditionally.
type TokenStore struct {
	store repository.Store
	now   func() time.Time
}

func New(store repository.Store) *TokenStore {
	return &TokenStore{store: store, now: time.Now}
}

// IssueOTP generates a 6-digit code for the email and stores it with the
// not-yet-created user's profile payload. Any pending code for the email
// is discarded, with no grace period.
func (t *TokenStore) IssueOTP(ctx context.Context, email string, payload model.PendingSignup) (model.OTPRecord, error) {
	now := t.now().UTC()
	rec := model.OTPRecord{
		Email:     email,
		Code:      utils.NewOTPCode(),
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(OTPTTL),
	}
	if err := t.store.PutOTP(ctx, rec); err != nil {
		return model.OTPRecord{}, err
	}
	return rec, nil
}

// VerifyOTP checks email, code, and expiry in one step. Success consumes
// the record and returns the pending-signup payload.
func (t *TokenStore) VerifyOTP(ctx context.Context, email, code string) (model.PendingSignup, error) {
	rec, err := t.store.GetOTP(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PendingSignup{}, ErrInvalid
	}
	if err != nil {
		return model.PendingSignup{}, err
	}
	if rec.Code != code || t.now().After(rec.ExpiresAt) {
		return model.PendingSignup{}, ErrInvalid
	}
	if err := t.store.DeleteOTP(ctx, email); err != nil {
		return model.PendingSignup{}, err
	}
	return rec.Payload, nil
}

// DeleteOTP invalidates a pending signup flow without verification.
func (t *TokenStore) DeleteOTP(ctx context.Context, email string) error {
	return t.store.DeleteOTP(ctx, email)
}

// IssueReset generates an opaque reset token for the email, replacing any
// pending one.
func (t *TokenStore) IssueReset(ctx context.Context, email string) (model.PasswordResetToken, error) {
	now := t.now().UTC()
	rec := model.PasswordResetToken{
		Email:     email,
		Token:     utils.NewResetToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(ResetTTL),
	}
	if err := t.store.PutPasswordReset(ctx, rec); err != nil {
		return model.PasswordResetToken{}, err
	}
	return rec, nil
}

// VerifyReset checks email, token, and expiry in one step and consumes the
// record on success.
func (t *TokenStore) VerifyReset(ctx context.Context, email, token string) error {
	rec, err := t.store.GetPasswordReset(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalid
	}
	if err != nil {
		return err
	}
	if rec.Token != token || t.now().After(rec.ExpiresAt) {
		return ErrInvalid
	}
	return t.store.DeletePasswordReset(ctx, email)
}

// DeleteReset invalidates a pending reset flow without verification.
func (t *TokenStore) DeleteReset(ctx context.Context, email string) error {
	return t.store.DeletePasswordReset(ctx, email)
}
