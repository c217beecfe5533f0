package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"prepcore/logger"
	"prepcore/model"
	"prepcore/repository"
	"prepcore/tokens"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := repository.NewFileStore(filepath.Join(t.TempDir(), "db.json"), logger.NewNop())
	return New(store, nil, nil, logger.NewNop())
}

func TestSignupFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.BeginSignup(ctx, SignupRequest{
		Email:    "a@example.com",
		Name:     "A",
		Password: "hunter2!",
	})
	if err != nil {
		t.Fatalf("BeginSignup: %v", err)
	}
	if rec.Payload.PasswordHash == "hunter2!" {
		t.Fatal("password stored in clear")
	}

	u, err := svc.CompleteSignup(ctx, "a@example.com", rec.Code)
	if err != nil {
		t.Fatalf("CompleteSignup: %v", err)
	}
	if u.ID == "" || u.Email != "a@example.com" {
		t.Fatalf("created user: %+v", u)
	}

	// OTP is single-use.
	if _, err := svc.CompleteSignup(ctx, "a@example.com", rec.Code); !errors.Is(err, tokens.ErrInvalid) {
		t.Fatalf("reused OTP: want ErrInvalid, got %v", err)
	}

	if _, err := svc.CheckCredentials(ctx, "a@example.com", "hunter2!"); err != nil {
		t.Fatalf("CheckCredentials: %v", err)
	}
	if _, err := svc.CheckCredentials(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.CheckCredentials(ctx, "nobody@example.com", "hunter2!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: want ErrInvalidCredentials, got %v", err)
	}
}

func TestCancelSignup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.BeginSignup(ctx, SignupRequest{Email: "a@example.com", Password: "pw"})
	if err := svc.CancelSignup(ctx, "a@example.com"); err != nil {
		t.Fatalf("CancelSignup: %v", err)
	}
	if _, err := svc.CompleteSignup(ctx, "a@example.com", rec.Code); !errors.Is(err, tokens.ErrInvalid) {
		t.Fatalf("cancelled signup: want ErrInvalid, got %v", err)
	}
}

func signupUser(t *testing.T, svc *Service, email, password string) model.User {
	t.Helper()
	ctx := context.Background()
	rec, err := svc.BeginSignup(ctx, SignupRequest{Email: email, Name: "T", Password: password})
	if err != nil {
		t.Fatalf("BeginSignup: %v", err)
	}
	u, err := svc.CompleteSignup(ctx, email, rec.Code)
	if err != nil {
		t.Fatalf("CompleteSignup: %v", err)
	}
	return u
}

func TestPasswordResetFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	signupUser(t, svc, "a@example.com", "oldpass")

	rec, err := svc.BeginPasswordReset(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("BeginPasswordReset: %v", err)
	}
	if err := svc.CompletePasswordReset(ctx, "a@example.com", rec.Token, "newpass"); err != nil {
		t.Fatalf("CompletePasswordReset: %v", err)
	}

	if _, err := svc.CheckCredentials(ctx, "a@example.com", "newpass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := svc.CheckCredentials(ctx, "a@example.com", "oldpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	// Token is single-use.
	if err := svc.CompletePasswordReset(ctx, "a@example.com", rec.Token, "another"); !errors.Is(err, tokens.ErrInvalid) {
		t.Fatalf("reused reset token: want ErrInvalid, got %v", err)
	}
}

func TestBeginPasswordResetUnknownUser(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.BeginPasswordReset(context.Background(), "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCompleteProblemRecordsActivity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := signupUser(t, svc, "a@example.com", "pw")

	if err := svc.CompleteProblem(ctx, u.ID, "p1"); err != nil {
		t.Fatalf("CompleteProblem: %v", err)
	}

	got, err := svc.User(ctx, u.ID)
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if got.TotalSolved != 1 {
		t.Fatalf("totalSolved: want=1 got=%d", got.TotalSolved)
	}
	if len(got.ActivityHistory) != 1 || got.ActivityHistory[0].Type != "problem_completed" || got.ActivityHistory[0].Detail != "p1" {
		t.Fatalf("activityHistory: %+v", got.ActivityHistory)
	}
}

func TestLeaderboardThroughService(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a := signupUser(t, svc, "a@example.com", "pw")
	b := signupUser(t, svc, "b@example.com", "pw")
	signupUser(t, svc, "c@example.com", "pw") // never recomputed

	svc.CompleteProblem(ctx, a.ID, "p1")
	svc.CompleteProblem(ctx, a.ID, "p2")
	svc.CompleteProblem(ctx, b.ID, "p1")

	if _, err := svc.RecomputeRank(ctx, a.ID); err != nil {
		t.Fatalf("RecomputeRank(a): %v", err)
	}
	if _, err := svc.RecomputeRank(ctx, b.ID); err != nil {
		t.Fatalf("RecomputeRank(b): %v", err)
	}

	board, err := svc.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("board size: want=2 got=%d", len(board))
	}
	if board[0].UserID != a.ID || board[1].UserID != b.ID {
		t.Fatalf("order: %+v", board)
	}

	top1, _ := svc.Leaderboard(ctx, 1)
	if len(top1) != 1 || top1[0].UserID != a.ID {
		t.Fatalf("truncation: %+v", top1)
	}
}

func TestRecordQuizCompletionAndStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := signupUser(t, svc, "a@example.com", "pw")

	if _, err := svc.RecordQuizCompletion(ctx, model.QuizCompletion{
		UserID: u.ID, Topic: "arrays", Score: 9, TotalQuestions: 10, Rating: 5,
	}); err != nil {
		t.Fatalf("RecordQuizCompletion: %v", err)
	}

	stats, err := svc.QuizStats(ctx, u.ID)
	if err != nil {
		t.Fatalf("QuizStats: %v", err)
	}
	if stats.TotalQuizzes != 1 || stats.AverageScore != 90 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestInterviewTokenLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDrive(ctx, model.InterviewDrive{CompanyID: "co1", Title: "Backend 2026"})
	if err != nil {
		t.Fatalf("CreateDrive: %v", err)
	}
	c, err := svc.CreateCandidate(ctx, model.Candidate{CompanyID: "co1", Name: "Jo", Email: "jo@x.com"})
	if err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}

	tok, err := svc.IssueInterviewToken(ctx, "co1", d.ID, c.ID)
	if err != nil {
		t.Fatalf("IssueInterviewToken: %v", err)
	}
	if tok.Token == "" || tok.ExpiresAt.IsZero() {
		t.Fatalf("token record: %+v", tok)
	}

	got, err := svc.ConsumeInterviewToken(ctx, tok.Token)
	if err != nil {
		t.Fatalf("ConsumeInterviewToken: %v", err)
	}
	if !got.Used || got.CandidateID != c.ID {
		t.Fatalf("consumed token: %+v", got)
	}

	if _, err := svc.ConsumeInterviewToken(ctx, tok.Token); !errors.Is(err, ErrTokenUnusable) {
		t.Fatalf("reused token: want ErrTokenUnusable, got %v", err)
	}
	if _, err := svc.ConsumeInterviewToken(ctx, "no-such-token"); !errors.Is(err, ErrTokenUnusable) {
		t.Fatalf("unknown token: want ErrTokenUnusable, got %v", err)
	}
}

func TestTrackPageViewDerivesDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pv, err := svc.TrackPageView(ctx, "/problems", "s1", 12.5)
	if err != nil {
		t.Fatalf("TrackPageView: %v", err)
	}
	if pv.Date == "" {
		t.Fatal("date bucket not derived")
	}
	if pv.Date != pv.CreatedAt.Format("2006-01-02") {
		t.Fatalf("date bucket: want=%q got=%q", pv.CreatedAt.Format("2006-01-02"), pv.Date)
	}
}
