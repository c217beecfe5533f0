// Package service exposes the domain operations consumed by the API layer:
// signup and password-reset flows, catalog reads, progress tracking, quiz
// and rank metrics, analytics, and company-scoped hiring records. It wraps
// the active storage backend with structured logging, optional redis
// caching for hot reads, and optional NATS event publishing.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"prepcore/cache"
	"prepcore/logger"
	"prepcore/metrics"
	"prepcore/model"
	"prepcore/natsclient"
	"prepcore/repository"
	"prepcore/tokens"
)

const (
	catalogCacheTTL     = 5 * time.Minute
	leaderboardCacheTTL = 5 * time.Minute

	problemsCacheKey    = "catalog:problems"
	plansCacheKey       = "catalog:prepPlans"
	scenariosCacheKey   = "catalog:scenarios"
	leaderboardCacheKey = "leaderboard"

	subjectSubmissionRecorded = "submissions.recorded"
	subjectQuizCompleted      = "quizzes.completed"

	interviewTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidCredentials is returned when an email/password pair does not
// match a stored user.
var ErrInvalidCredentials = errors.New("service: invalid credentials")

// ErrTokenUnusable is returned when an interview token is unknown, already
// used, or expired.
var ErrTokenUnusable = errors.New("service: interview token unusable")

type SignupRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	TargetRole      string `json:"targetRole,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
}

type Service struct {
	store  repository.Store
	tokens *tokens.TokenStore
	engine *metrics.Engine
	cache  cache.Cache            // nil when redis is not configured
	nats   *natsclient.NatsClient // nil when NATS is not configured
	log    *logger.Logger
	cron   *cron.Cron
}

func New(store repository.Store, c cache.Cache, nc *natsclient.NatsClient, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens.New(store),
		engine: metrics.NewEngine(store),
		cache:  c,
		nats:   nc,
		log:    log,
	}
}

// StartRankSync schedules an hourly batch recomputation of every user's
// rank score. It does not block; Stop cancels it.
func (s *Service) StartRankSync() {
	if s.cron != nil {
		return
	}
	s.cron = cron.New()
	s.cron.AddFunc("@every 1h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.syncAllRanks(ctx)
	})
	s.cron.Start()
}

func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Service) syncAllRanks(ctx context.Context) {
	traceID := uuid.New().String()
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.log.Error("rank sync failed to list users", "traceID", traceID, "error", err)
		return
	}
	for _, u := range users {
		if _, err := s.engine.RecomputeRank(ctx, u.ID); err != nil {
			s.log.Error("rank sync failed for user", "traceID", traceID, "userId", u.ID, "error", err)
		}
	}
	s.invalidate(ctx, leaderboardCacheKey)
	s.log.Info("rank sync completed", "traceID", traceID, "users", len(users))
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn("cache invalidation failed", "key", key, "error", err)
		}
	}
}

// cachedList is the read-through path for hot list reads: redis hit if
// configured and present, storage otherwise, then backfill.
func cachedList[T any](ctx context.Context, s *Service, key string, ttl time.Duration, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		if b, err := s.cache.Get(ctx, key); err == nil && b != nil {
			var out []T
			if err := json.Unmarshal(b, &out); err == nil {
				return out, nil
			}
		}
	}
	out, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if b, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, b, ttl)
		}
	}
	return out, nil
}

// --- signup & credentials ---

// BeginSignup hashes the password and parks the profile behind a fresh
// OTP. The caller (mailer, out of scope) delivers the code.
func (s *Service) BeginSignup(ctx context.Context, req SignupRequest) (model.OTPRecord, error) {
	traceID := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.OTPRecord{}, err
	}
	rec, err := s.tokens.IssueOTP(ctx, req.Email, model.PendingSignup{
		Email:           req.Email,
		Name:            req.Name,
		PasswordHash:    string(hash),
		TargetRole:      req.TargetRole,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		s.log.Error("failed to issue signup OTP", "traceID", traceID, "email", req.Email, "error", err)
		return model.OTPRecord{}, err
	}
	s.log.Info("signup OTP issued", "traceID", traceID, "email", req.Email)
	return rec, nil
}

// CompleteSignup verifies the OTP and creates the user from the parked
// profile. The OTP is single-use.
func (s *Service) CompleteSignup(ctx context.Context, email, code string) (model.User, error) {
	traceID := uuid.New().String()
	payload, err := s.tokens.VerifyOTP(ctx, email, code)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.store.CreateUser(ctx, model.User{
		Email:           payload.Email,
		Name:            payload.Name,
		PasswordHash:    payload.PasswordHash,
		TargetRole:      payload.TargetRole,
		ExperienceLevel: payload.ExperienceLevel,
	})
	if err != nil {
		s.log.Error("failed to create user after OTP verification", "traceID", traceID, "email", email, "error", err)
		return model.User{}, err
	}
	s.log.Info("user created", "traceID", traceID, "userId", u.ID)
	return u, nil
}

func (s *Service) CancelSignup(ctx context.Context, email string) error {
	return s.tokens.DeleteOTP(ctx, email)
}

// CheckCredentials returns the user when the email/password pair matches.
func (s *Service) CheckCredentials(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// --- password reset ---

func (s *Service) BeginPasswordReset(ctx context.Context, email string) (model.PasswordResetToken, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err != nil {
		return model.PasswordResetToken{}, err
	}
	rec, err := s.tokens.IssueReset(ctx, email)
	if err != nil {
		return model.PasswordResetToken{}, err
	}
	s.log.Info("password reset token issued", "email", email)
	return rec, nil
}

func (s *Service) CompletePasswordReset(ctx context.Context, email, token, newPassword string) error {
	if err := s.tokens.VerifyReset(ctx, email, token); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	hashStr := string(hash)
	_, err = s.store.UpdateUser(ctx, u.ID, model.UserPatch{PasswordHash: &hashStr})
	return err
}

func (s *Service) CancelPasswordReset(ctx context.Context, email string) error {
	return s.tokens.DeleteReset(ctx, email)
}

// --- users ---

func (s *Service) User(ctx context.Context, id string) (model.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *Service) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	return s.store.UpdateUser(ctx, id, patch)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	err := s.store.DeleteUser(ctx, id)
	if err == nil {
		s.invalidate(ctx, leaderboardCacheKey)
	}
	return err
}

// --- catalog ---

func (s *Service) Problems(ctx context.Context) ([]model.Problem, error) {
	return cachedList(ctx, s, problemsCacheKey, catalogCacheTTL, s.store.ListProblems)
}

func (s *Service) Problem(ctx context.Context, id string) (model.Problem, error) {
	return s.store.GetProblem(ctx, id)
}

func (s *Service) PrepPlans(ctx context.Context) ([]model.PrepPlan, error) {
	return cachedList(ctx, s, plansCacheKey, catalogCacheTTL, s.store.ListPrepPlans)
}

func (s *Service) PrepPlan(ctx context.Context, id string) (model.PrepPlan, error) {
	return s.store.GetPrepPlan(ctx, id)
}

func (s *Service) QuizQuestions(ctx context.Context, topic string) ([]model.QuizQuestion, error) {
	return s.store.ListQuizQuestions(ctx, topic)
}

func (s *Service) RandomQuizQuestions(ctx context.Context, topic string, n int) ([]model.QuizQuestion, error) {
	return s.store.SampleQuizQuestions(ctx, topic, n)
}

func (s *Service) CommunitySolutions(ctx context.Context, problemID string) ([]model.CommunitySolution, error) {
	return s.store.ListCommunitySolutions(ctx, problemID)
}

func (s *Service) Scenarios(ctx context.Context) ([]model.SystemDesignScenario, error) {
	return cachedList(ctx, s, scenariosCacheKey, catalogCacheTTL, s.store.ListScenarios)
}

// Reseed destructively replaces the catalog collections and flushes the
// catalog caches.
func (s *Service) Reseed(ctx context.Context, seed model.SeedData) error {
	traceID := uuid.New().String()
	if err := s.store.Reseed(ctx, seed); err != nil {
		s.log.Error("reseed failed", "traceID", traceID, "error", err)
		return err
	}
	s.invalidate(ctx, problemsCacheKey, plansCacheKey, scenariosCacheKey)
	s.log.Info("catalog reseeded", "traceID", traceID,
		"problems", len(seed.Problems), "quizQuestions", len(seed.QuizQuestions))
	return nil
}

// --- progress ---

func (s *Service) RecordSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	traceID := uuid.New().String()
	created, err := s.store.CreateSubmission(ctx, sub)
	if err != nil {
		s.log.Error("failed to record submission", "traceID", traceID, "userId", sub.UserID, "error", err)
		return model.Submission{}, err
	}
	if s.nats != nil {
		if err := s.nats.PublishJSON(subjectSubmissionRecorded, created); err != nil {
			s.log.Warn("failed to publish submission event", "traceID", traceID, "error", err)
		}
	}
	return created, nil
}

func (s *Service) Submissions(ctx context.Context, userID string) ([]model.Submission, error) {
	return s.store.ListSubmissionsByUser(ctx, userID)
}

func (s *Service) ProblemSubmissions(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	return s.store.ListSubmissionsForProblem(ctx, userID, problemID)
}

// CompleteProblem idempotently marks the problem solved and records the
// activity.
func (s *Service) CompleteProblem(ctx context.Context, userID, problemID string) error {
	if err := s.store.MarkProblemCompleted(ctx, userID, problemID); err != nil {
		return err
	}
	return s.store.AppendActivity(ctx, userID, model.ActivityEntry{
		Type:   "problem_completed",
		Detail: problemID,
		At:     time.Now().UTC(),
	})
}

// --- quizzes & metrics ---

func (s *Service) RecordQuizCompletion(ctx context.Context, qc model.QuizCompletion) (model.QuizCompletion, error) {
	traceID := uuid.New().String()
	created, err := s.store.CreateQuizCompletion(ctx, qc)
	if err != nil {
		s.log.Error("failed to record quiz completion", "traceID", traceID, "userId", qc.UserID, "error", err)
		return model.QuizCompletion{}, err
	}
	if s.nats != nil {
		if err := s.nats.PublishJSON(subjectQuizCompleted, created); err != nil {
			s.log.Warn("failed to publish quiz event", "traceID", traceID, "error", err)
		}
	}
	return created, nil
}

func (s *Service) QuizStats(ctx context.Context, userID string) (model.QuizStats, error) {
	return s.engine.QuizStats(ctx, userID)
}

// RecomputeRank refreshes one user's rank projections. Rank is stale until
// the next call; freshness-sensitive callers invoke this before reading.
func (s *Service) RecomputeRank(ctx context.Context, userID string) (model.RankInfo, error) {
	info, err := s.engine.RecomputeRank(ctx, userID)
	if err != nil {
		return model.RankInfo{}, err
	}
	s.invalidate(ctx, leaderboardCacheKey)
	return info, nil
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	// The limit is not part of the cache key; the cached board is the full
	// computed set truncated per request.
	entries, err := cachedList(ctx, s, leaderboardCacheKey, leaderboardCacheTTL,
		func(ctx context.Context) ([]model.LeaderboardEntry, error) {
			return s.engine.Leaderboard(ctx, 0)
		})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// --- analytics ---

func (s *Service) TrackPageView(ctx context.Context, path, sessionID string, timeSpent float64) (model.PageView, error) {
	return s.store.CreatePageView(ctx, model.PageView{
		Path:      path,
		SessionID: sessionID,
		TimeSpent: timeSpent,
	})
}

func (s *Service) AnalyticsSummary(ctx context.Context, days, topK int) (model.AnalyticsSummary, error) {
	return s.engine.Summary(ctx, days, topK)
}

// --- hiring ---

func (s *Service) CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	return s.store.CreateCandidate(ctx, c)
}

func (s *Service) Candidate(ctx context.Context, companyID, id string) (model.Candidate, error) {
	return s.store.GetCandidate(ctx, companyID, id)
}

func (s *Service) Candidates(ctx context.Context, companyID string) ([]model.Candidate, error) {
	return s.store.ListCandidates(ctx, companyID)
}

func (s *Service) UpdateCandidate(ctx context.Context, companyID, id string, patch model.CandidatePatch) (model.Candidate, error) {
	return s.store.UpdateCandidate(ctx, companyID, id, patch)
}

func (s *Service) DeleteCandidate(ctx context.Context, companyID, id string) error {
	return s.store.DeleteCandidate(ctx, companyID, id)
}

func (s *Service) CreateDrive(ctx context.Context, d model.InterviewDrive) (model.InterviewDrive, error) {
	return s.store.CreateDrive(ctx, d)
}

func (s *Service) Drive(ctx context.Context, companyID, id string) (model.InterviewDrive, error) {
	return s.store.GetDrive(ctx, companyID, id)
}

func (s *Service) Drives(ctx context.Context, companyID string) ([]model.InterviewDrive, error) {
	return s.store.ListDrives(ctx, companyID)
}

func (s *Service) UpdateDrive(ctx context.Context, companyID, id string, patch model.DrivePatch) (model.InterviewDrive, error) {
	return s.store.UpdateDrive(ctx, companyID, id, patch)
}

func (s *Service) DeleteDrive(ctx context.Context, companyID, id string) error {
	return s.store.DeleteDrive(ctx, companyID, id)
}

func (s *Service) AddCandidateToDrive(ctx context.Context, companyID, driveID, candidateID string) error {
	return s.store.AddCandidateToDrive(ctx, companyID, driveID, candidateID)
}

// IssueInterviewToken creates a single-use interview invitation for a
// candidate in a drive.
func (s *Service) IssueInterviewToken(ctx context.Context, companyID, driveID, candidateID string) (model.InterviewToken, error) {
	return s.store.CreateInterviewToken(ctx, model.InterviewToken{
		CompanyID:   companyID,
		DriveID:     driveID,
		CandidateID: candidateID,
		Token:       uuid.New().String(),
		ExpiresAt:   time.Now().UTC().Add(interviewTokenTTL),
	})
}

// ConsumeInterviewToken validates and burns an interview invitation.
func (s *Service) ConsumeInterviewToken(ctx context.Context, token string) (model.InterviewToken, error) {
	t, err := s.store.GetInterviewTokenByValue(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return model.InterviewToken{}, ErrTokenUnusable
	}
	if err != nil {
		return model.InterviewToken{}, err
	}
	if t.Used || time.Now().After(t.ExpiresAt) {
		return model.InterviewToken{}, ErrTokenUnusable
	}
	if err := s.store.MarkInterviewTokenUsed(ctx, token); err != nil {
		return model.InterviewToken{}, err
	}
	t.Used = true
	return t, nil
}

func (s *Service) DeleteInterviewToken(ctx context.Context, companyID, id string) error {
	return s.store.DeleteInterviewToken(ctx, companyID, id)
}

func (s *Service) CreateInterviewResponse(ctx context.Context, r model.InterviewResponse) (model.InterviewResponse, error) {
	return s.store.CreateInterviewResponse(ctx, r)
}

func (s *Service) InterviewResponses(ctx context.Context, companyID, driveID string) ([]model.InterviewResponse, error) {
	return s.store.ListInterviewResponses(ctx, companyID, driveID)
}

func (s *Service) CreateScreening(ctx context.Context, sc model.Screening) (model.Screening, error) {
	return s.store.CreateScreening(ctx, sc)
}

func (s *Service) Screening(ctx context.Context, companyID, id string) (model.Screening, error) {
	return s.store.GetScreening(ctx, companyID, id)
}

func (s *Service) Screenings(ctx context.Context, companyID string) ([]model.Screening, error) {
	return s.store.ListScreenings(ctx, companyID)
}

func (s *Service) UpdateScreening(ctx context.Context, companyID, id string, patch model.ScreeningPatch) (model.Screening, error) {
	return s.store.UpdateScreening(ctx, companyID, id, patch)
}

func (s *Service) DeleteScreening(ctx context.Context, companyID, id string) error {
	return s.store.DeleteScreening(ctx, companyID, id)
}
