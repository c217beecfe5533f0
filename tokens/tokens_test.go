package tokens

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"prepcore/logger"
	"prepcore/model"
	"prepcore/repository"
)

func newTokenStore(t *testing.T) *TokenStore {
	t.Helper()
	store := repository.NewFileStore(filepath.Join(t.TempDir(), "db.json"), logger.NewNop())
	return New(store)
}

func TestOTPLifecycle(t *testing.T) {
	ts := newTokenStore(t)
	ctx := context.Background()
	payload := model.PendingSignup{Email: "a@example.com", Name: "A", PasswordHash: "hash"}

	rec, err := ts.IssueOTP(ctx, "a@example.com", payload)
	if err != nil {
		t.Fatalf("IssueOTP: %v", err)
	}
	if len(rec.Code) != 6 {
		t.Fatalf("code length: want=6 got=%d (%q)", len(rec.Code), rec.Code)
	}
	if got := rec.ExpiresAt.Sub(rec.CreatedAt); got != OTPTTL {
		t.Fatalf("ttl: want=%v got=%v", OTPTTL, got)
	}

	got, err := ts.VerifyOTP(ctx, "a@example.com", rec.Code)
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if got.Name != "A" || got.PasswordHash != "hash" {
		t.Fatalf("payload round-trip: %+v", got)
	}

	// Consumed on success: a second verification must fail.
	if _, err := ts.VerifyOTP(ctx, "a@example.com", rec.Code); !errors.Is(err, ErrInvalid) {
		t.Fatalf("reuse: want ErrInvalid, got %v", err)
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	ts := newTokenStore(t)
	ctx := context.Background()

	rec, _ := ts.IssueOTP(ctx, "a@example.com", model.PendingSignup{Email: "a@example.com"})
	wrong := "000000"
	if wrong == rec.Code {
		wrong = "000001"
	}
	if _, err := ts.VerifyOTP(ctx, "a@example.com", wrong); !errors.Is(err, ErrInvalid) {
		t.Fatalf("wrong code: want ErrInvalid, got %v", err)
	}
	// A failed attempt does not consume the record.
	if _, err := ts.VerifyOTP(ctx, "a@example.com", rec.Code); err != nil {
		t.Fatalf("correct code after failed attempt: %v", err)
	}
}

func TestVerifyOTPUnknownEmail(t *testing.T) {
	ts := newTokenStore(t)
	if _, err := ts.VerifyOTP(context.Background(), "nobody@example.com", "123456"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown email: want ErrInvalid, got %v", err)
	}
}

func TestReissueOTPInvalidatesPrevious(t *testing.T) {
	ts := newTokenStore(t)
	ctx := context.Background()

	first, _ := ts.IssueOTP(ctx, "a@example.com", model.PendingSignup{Email: "a@example.com"})
	second, _ := ts.IssueOTP(ctx, "a@example.com", model.PendingSignup{Email: "a@example.com"})

	if first.Code != second.Code {
		if _, err := ts.VerifyOTP(ctx, "a@example.com", first.Code); !errors.Is(err, ErrInvalid) {
			t.Fatalf("stale code: want ErrInvalid, got %v", err)
		}
	}
	if _, err := ts.VerifyOTP(ctx, "a@example.com", second.Code); err != nil {
		t.Fatalf("latest code: %v", err)
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	ts := newTokenStore(t)
	ctx := context.Background()

	rec, _ := ts.IssueOTP(ctx, "a@example.com", model.PendingSignup{Email: "a@example.com"})

	ts.now = func() time.Time { return rec.ExpiresAt.Add(time.Second) }
	if _, err := ts.VerifyOTP(ctx, "a@example.com", rec.Code); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expired code: want ErrInvalid, got %v", err)
	}
}

func TestResetLifecycle(t *testing.T) {
	ts := newTokenStore(t)
	ctx := context.Background()

	rec, err := ts.IssueReset(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	if rec.Token == "" {
		t.Fatal("empty reset token")
	}
	if got := rec.ExpiresAt.Sub(rec.CreatedAt); got != ResetTTL {
		t.Fatalf("ttl: want=%v got=%v", ResetTTL, got)
	}

	if err := ts.VerifyReset(ctx, "a@example.com", rec.Token); err != nil {
		t.Fatalf("VerifyReset: %v", err)
	}
	if err := ts.VerifyReset(ctx, "a@example.com", rec.Token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("reuse: want ErrInvalid, got %v", err)
	}
}

func TestVerifyResetExpired(t *testing.T) {
	ts := newTokenStore(t)
	ctx := context.Background()

	rec, _ := ts.IssueReset(ctx, "a@example.com")
	ts.now = func() time.Time { return rec.ExpiresAt.Add(time.Minute) }
	if err := ts.VerifyReset(ctx, "a@example.com", rec.Token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expired token: want ErrInvalid, got %v", err)
	}
}

func TestDeleteOTPCancelsFlow(t *testing.T) {
	ts := newTokenStore(t)
	ctx := context.Background()

	rec, _ := ts.IssueOTP(ctx, "a@example.com", model.PendingSignup{Email: "a@example.com"})
	if err := ts.DeleteOTP(ctx, "a@example.com"); err != nil {
		t.Fatalf("DeleteOTP: %v", err)
	}
	if _, err := ts.VerifyOTP(ctx, "a@example.com", rec.Code); !errors.Is(err, ErrInvalid) {
		t.Fatalf("cancelled flow: want ErrInvalid, got %v", err)
	}
}
