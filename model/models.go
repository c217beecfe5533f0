package model

import "time"

// User is the account record. CompletedProblems is duplicate-free;
// insertion is idempotent. RankScore and Rank are derived projections,
// valid only as of their last recomputation; a nil pointer means the
// user's rank has never been computed.
type User struct {
	ID                string          `bson:"_id,omitempty" json:"id"`
	Email             string          `bson:"email" json:"email"`
	PasswordHash      string          `bson:"passwordHash" json:"passwordHash"`
	Name              string          `bson:"name" json:"name"`
	TargetRole        string          `bson:"targetRole,omitempty" json:"targetRole,omitempty"`
	ExperienceLevel   string          `bson:"experienceLevel,omitempty" json:"experienceLevel,omitempty"`
	CompletedProblems []string        `bson:"completedProblems" json:"completedProblems"`
	TotalSolved       int             `bson:"totalSolved" json:"totalSolved"`
	RankScore         *float64        `bson:"rankScore,omitempty" json:"rankScore,omitempty"`
	Rank              *int            `bson:"rank,omitempty" json:"rank,omitempty"`
	ActivityHistory   []ActivityEntry `bson:"activityHistory" json:"activityHistory"`
	QuizHistory       []QuizHistory   `bson:"quizHistory" json:"quizHistory"`
	TotalQuizzesTaken int             `bson:"totalQuizzesTaken" json:"totalQuizzesTaken"`
	CreatedAt         time.Time       `bson:"createdAt" json:"createdAt"`
}

// ActivityEntry is one item of a user's most-recent-first activity feed.
type ActivityEntry struct {
	Type   string    `bson:"type" json:"type"`
	Detail string    `bson:"detail" json:"detail"`
	At     time.Time `bson:"at" json:"at"`
}

// QuizHistory is one item of a user's most-recent-first quiz feed.
type QuizHistory struct {
	Topic          string    `bson:"topic" json:"topic"`
	Score          int       `bson:"score" json:"score"`
	TotalQuestions int       `bson:"totalQuestions" json:"totalQuestions"`
	At             time.Time `bson:"at" json:"at"`
}

// UserPatch carries the optional user fields an update may set.
type UserPatch struct {
	Name            *string `json:"name,omitempty"`
	TargetRole      *string `json:"targetRole,omitempty"`
	ExperienceLevel *string `json:"experienceLevel,omitempty"`
	PasswordHash    *string `json:"-"`
}

type Problem struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Difficulty  string    `bson:"difficulty" json:"difficulty"`
	Category    string    `bson:"category" json:"category"`
	Description string    `bson:"description" json:"description"`
	Hints       []string  `bson:"hints" json:"hints"`
	Solution    string    `bson:"solution,omitempty" json:"solution,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

type PrepPlan struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	Title     string     `bson:"title" json:"title"`
	Role      string     `bson:"role" json:"role"`
	Level     string     `bson:"level" json:"level"`
	Weeks     []PlanWeek `bson:"weeks" json:"weeks"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}

type PlanWeek struct {
	Week       int      `bson:"week" json:"week"`
	Focus      string   `bson:"focus" json:"focus"`
	ProblemIDs []string `bson:"problemIds" json:"problemIds"`
}

type QuizQuestion struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Topic        string    `bson:"topic" json:"topic"`
	Question     string    `bson:"question" json:"question"`
	Options      []string  `bson:"options" json:"options"`
	CorrectIndex int       `bson:"correctIndex" json:"correctIndex"`
	Explanation  string    `bson:"explanation,omitempty" json:"explanation,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

type CommunitySolution struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ProblemID string    `bson:"problemId" json:"problemId"`
	UserID    string    `bson:"userId" json:"userId"`
	Language  string    `bson:"language" json:"language"`
	Code      string    `bson:"code" json:"code"`
	Votes     int       `bson:"votes" json:"votes"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type SystemDesignScenario struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Title      string    `bson:"title" json:"title"`
	Difficulty string    `bson:"difficulty" json:"difficulty"`
	Prompt     string    `bson:"prompt" json:"prompt"`
	KeyPoints  []string  `bson:"keyPoints" json:"keyPoints"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

type Submission struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	ProblemID string    `bson:"problemId" json:"problemId"`
	Language  string    `bson:"language" json:"language"`
	Code      string    `bson:"code" json:"code"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type QuizCompletion struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UserID         string    `bson:"userId" json:"userId"`
	Topic          string    `bson:"topic" json:"topic"`
	Score          int       `bson:"score" json:"score"`
	TotalQuestions int       `bson:"totalQuestions" json:"totalQuestions"`
	Rating         float64   `bson:"rating" json:"rating"`
	CompletedAt    time.Time `bson:"completedAt" json:"completedAt"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// PageView is one analytics event. Date is the day bucket derived from
// CreatedAt, kept denormalized for per-day grouping.
type PageView struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Path      string    `bson:"path" json:"path"`
	SessionID string    `bson:"sessionId" json:"sessionId"`
	TimeSpent float64   `bson:"timeSpent" json:"timeSpent"`
	Date      string    `bson:"date" json:"date"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// OTPRecord is a pending signup verification code, keyed by email. At most
// one live record exists per email; issuing a new one replaces the old.
type OTPRecord struct {
	Email     string        `bson:"email" json:"email"`
	Code      string        `bson:"code" json:"code"`
	Payload   PendingSignup `bson:"payload" json:"payload"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time     `bson:"expiresAt" json:"expiresAt"`
}

// PendingSignup is the not-yet-created user profile carried by a signup OTP.
type PendingSignup struct {
	Email           string `bson:"email" json:"email"`
	Name            string `bson:"name" json:"name"`
	PasswordHash    string `bson:"passwordHash" json:"passwordHash"`
	TargetRole      string `bson:"targetRole,omitempty" json:"targetRole,omitempty"`
	ExperienceLevel string `bson:"experienceLevel,omitempty" json:"experienceLevel,omitempty"`
}

type PasswordResetToken struct {
	Email     string    `bson:"email" json:"email"`
	Token     string    `bson:"token" json:"token"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// SeedData is the full catalog payload for a destructive reseed.
type SeedData struct {
	Problems              []Problem              `json:"problems"`
	PrepPlans             []PrepPlan             `json:"prepPlans"`
	QuizQuestions         []QuizQuestion         `json:"quizQuestions"`
	CommunitySolutions    []CommunitySolution    `json:"communitySolutions"`
	SystemDesignScenarios []SystemDesignScenario `json:"systemDesignScenarios"`
}
