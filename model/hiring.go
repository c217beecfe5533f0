package model

import "time"

// Hiring-side records. Every entity is scoped by CompanyID; reads and
// writes always carry the company filter so one company can never see
// another's data.

type DriveStatus string

const (
	DriveDraft     DriveStatus = "draft"
	DriveActive    DriveStatus = "active"
	DriveCompleted DriveStatus = "completed"
	DriveArchived  DriveStatus = "archived"
)

type Candidate struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	CompanyID string    `bson:"companyId" json:"companyId"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	ResumeURL string    `bson:"resumeUrl,omitempty" json:"resumeUrl,omitempty"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type CandidatePatch struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	ResumeURL *string `json:"resumeUrl,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// InterviewDrive groups candidates under one hiring round. CandidateIDs is
// an ordered, duplicate-free set.
type InterviewDrive struct {
	ID           string      `bson:"_id,omitempty" json:"id"`
	CompanyID    string      `bson:"companyId" json:"companyId"`
	Title        string      `bson:"title" json:"title"`
	Role         string      `bson:"role" json:"role"`
	Status       DriveStatus `bson:"status" json:"status"`
	CandidateIDs []string    `bson:"candidateIds" json:"candidateIds"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
}

type DrivePatch struct {
	Title  *string      `json:"title,omitempty"`
	Role   *string      `json:"role,omitempty"`
	Status *DriveStatus `json:"status,omitempty"`
}

// InterviewToken is a single-use interview invitation link.
type InterviewToken struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	CompanyID   string    `bson:"companyId" json:"companyId"`
	DriveID     string    `bson:"driveId" json:"driveId"`
	CandidateID string    `bson:"candidateId" json:"candidateId"`
	Token       string    `bson:"token" json:"token"`
	Used        bool      `bson:"used" json:"used"`
	ExpiresAt   time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

type InterviewResponse struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	CompanyID   string    `bson:"companyId" json:"companyId"`
	DriveID     string    `bson:"driveId" json:"driveId"`
	CandidateID string    `bson:"candidateId" json:"candidateId"`
	Question    string    `bson:"question" json:"question"`
	Answer      string    `bson:"answer" json:"answer"`
	Score       float64   `bson:"score" json:"score"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

type Screening struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	CompanyID   string    `bson:"companyId" json:"companyId"`
	CandidateID string    `bson:"candidateId" json:"candidateId"`
	DriveID     string    `bson:"driveId,omitempty" json:"driveId,omitempty"`
	Verdict     string    `bson:"verdict" json:"verdict"`
	Score       float64   `bson:"score" json:"score"`
	Notes       string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

type ScreeningPatch struct {
	Verdict *string  `json:"verdict,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Notes   *string  `json:"notes,omitempty"`
}
