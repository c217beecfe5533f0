package repository

import (
	"context"
	"errors"
	"time"

	"prepcore/model"
)

// ErrNotFound is returned by lookups that match no record. Callers treat
// it as an empty result, not a failure.
var ErrNotFound = errors.New("repository: record not found")

// Logical collection names. The file store uses them as top-level keys in
// its data file; the Mongo store maps each to one physical collection.
const (
	ColUsers              = "users"
	ColProblems           = "problems"
	ColPrepPlans          = "prepPlans"
	ColQuizQuestions      = "quizQuestions"
	ColCommunitySolutions = "communitySolutions"
	ColScenarios          = "systemDesignScenarios"
	ColSubmissions        = "submissions"
	ColQuizCompletions    = "quizCompletions"
	ColPageViews          = "pageViews"
	ColOTPs               = "otps"
	ColPasswordResets     = "passwordResets"
	ColCandidates         = "candidates"
	ColInterviewDrives    = "interviewDrives"
	ColInterviewTokens    = "interviewTokens"
	ColInterviewResponses = "interviewResponses"
	ColScreenings         = "screenings"
)

// activityHistoryCap bounds the most-recent-first feeds on a user record.
const activityHistoryCap = 50

// Store is the uniform storage contract. Two implementations exist: the
// single-file FileStore and the MongoStore. The selection factory in
// factory.go decides which one a process runs with; nothing outside the
// factory inspects which backend is active.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error)
	DeleteUser(ctx context.Context, id string) error

	// MarkProblemCompleted adds problemID to the user's completed set and,
	// only when the set actually grew, increments totalSolved. The two
	// steps are not transactional on the remote backend.
	MarkProblemCompleted(ctx context.Context, userID, problemID string) error
	AppendActivity(ctx context.Context, userID string, entry model.ActivityEntry) error

	// Derived-rank projections, written back by the metrics engine.
	SetUserRankScore(ctx context.Context, userID string, score float64) error
	SetUserRank(ctx context.Context, userID string, rank int) error
	CountUsersWithRankScoreAbove(ctx context.Context, score float64) (int, error)
	// ListRankedUsers returns only users whose rankScore has been computed,
	// descending, truncated to limit (limit <= 0 means no truncation).
	ListRankedUsers(ctx context.Context, limit int) ([]model.User, error)

	// Catalog.
	ListProblems(ctx context.Context) ([]model.Problem, error)
	GetProblem(ctx context.Context, id string) (model.Problem, error)
	ListPrepPlans(ctx context.Context) ([]model.PrepPlan, error)
	GetPrepPlan(ctx context.Context, id string) (model.PrepPlan, error)
	ListQuizQuestions(ctx context.Context, topic string) ([]model.QuizQuestion, error)
	// SampleQuizQuestions returns up to n random questions, optionally
	// filtered by topic, with no duplicates within one call.
	SampleQuizQuestions(ctx context.Context, topic string, n int) ([]model.QuizQuestion, error)
	ListCommunitySolutions(ctx context.Context, problemID string) ([]model.CommunitySolution, error)
	ListScenarios(ctx context.Context) ([]model.SystemDesignScenario, error)
	// Reseed drops the catalog collections and inserts the given seed.
	// Destructive-then-insertive; not atomic across collections.
	Reseed(ctx context.Context, seed model.SeedData) error

	// Submissions.
	CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error)
	ListSubmissionsByUser(ctx context.Context, userID string) ([]model.Submission, error)
	ListSubmissionsForProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error)

	// Quiz completions. CreateQuizCompletion also bumps the owning user's
	// totalQuizzesTaken and prepends to quizHistory; interruption between
	// the two steps can leave partial state on the remote backend.
	CreateQuizCompletion(ctx context.Context, qc model.QuizCompletion) (model.QuizCompletion, error)
	ListQuizCompletionsByUser(ctx context.Context, userID string) ([]model.QuizCompletion, error)

	// Analytics events.
	CreatePageView(ctx context.Context, pv model.PageView) (model.PageView, error)
	ListPageViewsSince(ctx context.Context, since time.Time) ([]model.PageView, error)

	// Ephemeral tokens, keyed by email. Put is replace-on-insert: any
	// existing record for the email is removed first.
	PutOTP(ctx context.Context, rec model.OTPRecord) error
	GetOTP(ctx context.Context, email string) (model.OTPRecord, error)
	DeleteOTP(ctx context.Context, email string) error
	PutPasswordReset(ctx context.Context, rec model.PasswordResetToken) error
	GetPasswordReset(ctx context.Context, email string) (model.PasswordResetToken, error)
	DeletePasswordReset(ctx context.Context, email string) error

	// Hiring, scoped by companyID.
	CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error)
	GetCandidate(ctx context.Context, companyID, id string) (model.Candidate, error)
	ListCandidates(ctx context.Context, companyID string) ([]model.Candidate, error)
	UpdateCandidate(ctx context.Context, companyID, id string, patch model.CandidatePatch) (model.Candidate, error)
	DeleteCandidate(ctx context.Context, companyID, id string) error

	CreateDrive(ctx context.Context, d model.InterviewDrive) (model.InterviewDrive, error)
	GetDrive(ctx context.Context, companyID, id string) (model.InterviewDrive, error)
	ListDrives(ctx context.Context, companyID string) ([]model.InterviewDrive, error)
	UpdateDrive(ctx context.Context, companyID, id string, patch model.DrivePatch) (model.InterviewDrive, error)
	DeleteDrive(ctx context.Context, companyID, id string) error
	// AddCandidateToDrive keeps candidateIds an ordered, duplicate-free set.
	AddCandidateToDrive(ctx context.Context, companyID, driveID, candidateID string) error

	CreateInterviewToken(ctx context.Context, t model.InterviewToken) (model.InterviewToken, error)
	GetInterviewTokenByValue(ctx context.Context, token string) (model.InterviewToken, error)
	MarkInterviewTokenUsed(ctx context.Context, token string) error
	DeleteInterviewToken(ctx context.Context, companyID, id string) error

	CreateInterviewResponse(ctx context.Context, r model.InterviewResponse) (model.InterviewResponse, error)
	ListInterviewResponses(ctx context.Context, companyID, driveID string) ([]model.InterviewResponse, error)

	CreateScreening(ctx context.Context, s model.Screening) (model.Screening, error)
	GetScreening(ctx context.Context, companyID, id string) (model.Screening, error)
	ListScreenings(ctx context.Context, companyID string) ([]model.Screening, error)
	UpdateScreening(ctx context.Context, companyID, id string, patch model.ScreeningPatch) (model.Screening, error)
	DeleteScreening(ctx context.Context, companyID, id string) error

	Close(ctx context.Context) error
}
