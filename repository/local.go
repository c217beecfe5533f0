package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"prepcore/logger"
	"prepcore/model"
	"prepcore/utils"
)

// persister is the byte-level persistence strategy behind the FileStore.
// The normal strategy is a single JSON file; when the filesystem becomes
// unavailable the store swaps in an in-memory strategy for the rest of the
// process. The in-memory state is process-local: it is NOT shared across
// concurrently running instances and does not survive restarts.
type persister interface {
	load() (data []byte, found bool, err error)
	store(data []byte) error
}

type filePersister struct {
	path string
}

func (p *filePersister) load() ([]byte, bool, error) {
	b, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *filePersister) store(data []byte) error {
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(p.path, data, 0o644)
}

type memoryPersister struct {
	data  []byte
	found bool
}

func (p *memoryPersister) load() ([]byte, bool, error) {
	return p.data, p.found, nil
}

func (p *memoryPersister) store(data []byte) error {
	p.data = append([]byte(nil), data...)
	p.found = true
	return nil
}

// fileData is the full on-disk document: one array per collection.
type fileData struct {
	Users              []model.User                 `json:"users"`
	Problems           []model.Problem              `json:"problems"`
	PrepPlans          []model.PrepPlan             `json:"prepPlans"`
	QuizQuestions      []model.QuizQuestion         `json:"quizQuestions"`
	CommunitySolutions []model.CommunitySolution    `json:"communitySolutions"`
	Scenarios          []model.SystemDesignScenario `json:"systemDesignScenarios"`
	Submissions        []model.Submission           `json:"submissions"`
	QuizCompletions    []model.QuizCompletion       `json:"quizCompletions"`
	PageViews          []model.PageView             `json:"pageViews"`
	OTPs               []model.OTPRecord            `json:"otps"`
	PasswordResets     []model.PasswordResetToken   `json:"passwordResets"`
	Candidates         []model.Candidate            `json:"candidates"`
	InterviewDrives    []model.InterviewDrive       `json:"interviewDrives"`
	InterviewTokens    []model.InterviewToken       `json:"interviewTokens"`
	InterviewResponses []model.InterviewResponse    `json:"interviewResponses"`
	Screenings         []model.Screening            `json:"screenings"`
}

func newFileData() *fileData {
	return &fileData{
		Users:              []model.User{},
		Problems:           []model.Problem{},
		PrepPlans:          []model.PrepPlan{},
		QuizQuestions:      []model.QuizQuestion{},
		CommunitySolutions: []model.CommunitySolution{},
		Scenarios:          []model.SystemDesignScenario{},
		Submissions:        []model.Submission{},
		QuizCompletions:    []model.QuizCompletion{},
		PageViews:          []model.PageView{},
		OTPs:               []model.OTPRecord{},
		PasswordResets:     []model.PasswordResetToken{},
		Candidates:         []model.Candidate{},
		InterviewDrives:    []model.InterviewDrive{},
		InterviewTokens:    []model.InterviewToken{},
		InterviewResponses: []model.InterviewResponse{},
		Screenings:         []model.Screening{},
	}
}

// FileStore keeps every collection in one JSON file. Each operation loads
// and decodes the whole file, mutates the in-memory copy, and rewrites the
// file in full. All operations serialize through one mutex so the
// whole-document read-modify-write cycle cannot lose a concurrent writer's
// update.
type FileStore struct {
	mu       sync.Mutex
	p        persister
	log      *logger.Logger
	degraded bool
}

func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{p: &filePersister{path: path}, log: log}
}

// newFileStoreWith injects the persistence strategy; tests use it to force
// degraded mode deterministically.
func newFileStoreWith(p persister, log *logger.Logger) *FileStore {
	return &FileStore{p: p, log: log}
}

func (s *FileStore) degrade(err error) {
	s.degraded = true
	s.p = &memoryPersister{}
	s.log.Warn("local data file unavailable, using in-memory storage for the rest of this process",
		"error", err)
}

// readData never fails: a missing file yields the empty structure, an
// unreadable file degrades the store.
func (s *FileStore) readData() *fileData {
	b, found, err := s.p.load()
	if err != nil {
		s.degrade(err)
		b, found, _ = s.p.load()
	}
	d := newFileData()
	if found {
		if err := json.Unmarshal(b, d); err != nil {
			s.log.Warn("data file is not valid JSON, starting from an empty state", "error", err)
			return newFileData()
		}
	}
	return d
}

func (s *FileStore) writeData(d *fileData) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := s.p.store(b); err != nil {
		s.degrade(err)
		return s.p.store(b)
	}
	return nil
}

func (s *FileStore) update(ctx context.Context, fn func(*fileData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.readData()
	if err := fn(d); err != nil {
		return err
	}
	return s.writeData(d)
}

func (s *FileStore) view(ctx context.Context, fn func(*fileData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.readData())
}

func findOne[T any](items []T, pred func(T) bool) (T, bool) {
	for _, it := range items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func filterSlice[T any](items []T, pred func(T) bool) []T {
	out := []T{}
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

func deleteWhere[T any](items []T, pred func(T) bool) ([]T, bool) {
	out := items[:0:0]
	removed := false
	for _, it := range items {
		if pred(it) {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, removed
}

func contains(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = utils.NewRecordID()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

// --- users ---

func (s *FileStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	stamp(&u.ID, &u.CreatedAt)
	if u.CompletedProblems == nil {
		u.CompletedProblems = []string{}
	}
	if u.ActivityHistory == nil {
		u.ActivityHistory = []model.ActivityEntry{}
	}
	if u.QuizHistory == nil {
		u.QuizHistory = []model.QuizHistory{}
	}
	err := s.update(ctx, func(d *fileData) error {
		d.Users = append(d.Users, u)
		return nil
	})
	return u, err
}

func (s *FileStore) GetUserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.view(ctx, func(d *fileData) error {
		found := false
		u, found = findOne(d.Users, func(x model.User) bool { return x.ID == id })
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return u, err
}

func (s *FileStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.view(ctx, func(d *fileData) error {
		found := false
		u, found = findOne(d.Users, func(x model.User) bool { return x.Email == email })
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return u, err
}

func (s *FileStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := s.view(ctx, func(d *fileData) error {
		out = append([]model.User{}, d.Users...)
		return nil
	})
	return out, err
}

func (s *FileStore) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	var out model.User
	err := s.update(ctx, func(d *fileData) error {
		for i := range d.Users {
			if d.Users[i].ID != id {
				continue
			}
			u := &d.Users[i]
			if patch.Name != nil {
				u.Name = *patch.Name
			}
			if patch.TargetRole != nil {
				u.TargetRole = *patch.TargetRole
			}
			if patch.ExperienceLevel != nil {
				u.ExperienceLevel = *patch.ExperienceLevel
			}
			if patch.PasswordHash != nil {
				u.PasswordHash = *patch.PasswordHash
			}
			out = *u
			return nil
		}
		return ErrNotFound
	})
	return out, err
}

func (s *FileStore) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, func(d *fileData) error {
		users, removed := deleteWhere(d.Users, func(x model.User) bool { return x.ID == id })
		if !removed {
			return ErrNotFound
		}
		d.Users = users
		return nil
	})
}

func (s *FileStore) MarkProblemCompleted(ctx context.Context, userID, problemID string) error {
	return s.update(ctx, func(d *fileData) error {
		for i := range d.Users {
			if d.Users[i].ID != userID {
				continue
			}
			if contains(d.Users[i].CompletedProblems, problemID) {
				return nil
			}
			d.Users[i].CompletedProblems = append(d.Users[i].CompletedProblems, problemID)
			d.Users[i].TotalSolved++
			return nil
		}
		return ErrNotFound
	})
}

func (s *FileStore) AppendActivity(ctx context.Context, userID string, entry model.ActivityEntry) error {
	return s.update(ctx, func(d *fileData) error {
		for i := range d.Users {
			if d.Users[i].ID != userID {
				continue
			}
			h := append([]model.ActivityEntry{entry}, d.Users[i].ActivityHistory...)
			if len(h) > activityHistoryCap {
				h = h[:activityHistoryCap]
			}
			d.Users[i].ActivityHistory = h
			return nil
		}
		return ErrNotFound
	})
}

func (s *FileStore) SetUserRankScore(ctx context.Context, userID string, score float64) error {
	return s.update(ctx, func(d *fileData) error {
		for i := range d.Users {
			if d.Users[i].ID == userID {
				d.Users[i].RankScore = &score
				return nil
			}
		}
		return ErrNotFound
	})
}

func (s *FileStore) SetUserRank(ctx context.Context, userID string, rank int) error {
	return s.update(ctx, func(d *fileData) error {
		for i := range d.Users {
			if d.Users[i].ID == userID {
				d.Users[i].Rank = &rank
				return nil
			}
		}
		return ErrNotFound
	})
}

func (s *FileStore) CountUsersWithRankScoreAbove(ctx context.Context, score float64) (int, error) {
	count := 0
	err := s.view(ctx, func(d *fileData) error {
		for _, u := range d.Users {
			if u.RankScore != nil && *u.RankScore > score {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (s *FileStore) ListRankedUsers(ctx context.Context, limit int) ([]model.User, error) {
	var out []model.User
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.Users, func(u model.User) bool { return u.RankScore != nil })
		sort.SliceStable(out, func(i, j int) bool { return *out[i].RankScore > *out[j].RankScore })
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

// --- catalog ---

func (s *FileStore) ListProblems(ctx context.Context) ([]model.Problem, error) {
	var out []model.Problem
	err := s.view(ctx, func(d *fileData) error {
		out = append([]model.Problem{}, d.Problems...)
		return nil
	})
	return out, err
}

func (s *FileStore) GetProblem(ctx context.Context, id string) (model.Problem, error) {
	var p model.Problem
	err := s.view(ctx, func(d *fileData) error {
		found := false
		p, found = findOne(d.Problems, func(x model.Problem) bool { return x.ID == id })
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return p, err
}

func (s *FileStore) ListPrepPlans(ctx context.Context) ([]model.PrepPlan, error) {
	var out []model.PrepPlan
	err := s.view(ctx, func(d *fileData) error {
		out = append([]model.PrepPlan{}, d.PrepPlans...)
		return nil
	})
	return out, err
}

func (s *FileStore) GetPrepPlan(ctx context.Context, id string) (model.PrepPlan, error) {
	var p model.PrepPlan
	err := s.view(ctx, func(d *fileData) error {
		found := false
		p, found = findOne(d.PrepPlans, func(x model.PrepPlan) bool { return x.ID == id })
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return p, err
}

func (s *FileStore) ListQuizQuestions(ctx context.Context, topic string) ([]model.QuizQuestion, error) {
	var out []model.QuizQuestion
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.QuizQuestions, func(q model.QuizQuestion) bool {
			return topic == "" || q.Topic == topic
		})
		return nil
	})
	return out, err
}

func (s *FileStore) SampleQuizQuestions(ctx context.Context, topic string, n int) ([]model.QuizQuestion, error) {
	pool, err := s.ListQuizQuestions(ctx, topic)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool, nil
}

func (s *FileStore) ListCommunitySolutions(ctx context.Context, problemID string) ([]model.CommunitySolution, error) {
	var out []model.CommunitySolution
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.CommunitySolutions, func(c model.CommunitySolution) bool {
			return problemID == "" || c.ProblemID == problemID
		})
		return nil
	})
	return out, err
}

func (s *FileStore) ListScenarios(ctx context.Context) ([]model.SystemDesignScenario, error) {
	var out []model.SystemDesignScenario
	err := s.view(ctx, func(d *fileData) error {
		out = append([]model.SystemDesignScenario{}, d.Scenarios...)
		return nil
	})
	return out, err
}

func (s *FileStore) Reseed(ctx context.Context, seed model.SeedData) error {
	return s.update(ctx, func(d *fileData) error {
		d.Problems = []model.Problem{}
		for _, p := range seed.Problems {
			stamp(&p.ID, &p.CreatedAt)
			d.Problems = append(d.Problems, p)
		}
		d.PrepPlans = []model.PrepPlan{}
		for _, p := range seed.PrepPlans {
			stamp(&p.ID, &p.CreatedAt)
			d.PrepPlans = append(d.PrepPlans, p)
		}
		d.QuizQuestions = []model.QuizQuestion{}
		for _, q := range seed.QuizQuestions {
			stamp(&q.ID, &q.CreatedAt)
			d.QuizQuestions = append(d.QuizQuestions, q)
		}
		d.CommunitySolutions = []model.CommunitySolution{}
		for _, c := range seed.CommunitySolutions {
			stamp(&c.ID, &c.CreatedAt)
			d.CommunitySolutions = append(d.CommunitySolutions, c)
		}
		d.Scenarios = []model.SystemDesignScenario{}
		for _, sc := range seed.SystemDesignScenarios {
			stamp(&sc.ID, &sc.CreatedAt)
			d.Scenarios = append(d.Scenarios, sc)
		}
		return nil
	})
}

// --- submissions ---

func (s *FileStore) CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	stamp(&sub.ID, &sub.CreatedAt)
	err := s.update(ctx, func(d *fileData) error {
		d.Submissions = append(d.Submissions, sub)
		return nil
	})
	return sub, err
}

func (s *FileStore) ListSubmissionsByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	var out []model.Submission
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.Submissions, func(x model.Submission) bool { return x.UserID == userID })
		return nil
	})
	return out, err
}

func (s *FileStore) ListSubmissionsForProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	var out []model.Submission
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.Submissions, func(x model.Submission) bool {
			return x.UserID == userID && x.ProblemID == problemID
		})
		return nil
	})
	return out, err
}

// --- quiz completions ---

func (s *FileStore) CreateQuizCompletion(ctx context.Context, qc model.QuizCompletion) (model.QuizCompletion, error) {
	stamp(&qc.ID, &qc.CreatedAt)
	if qc.CompletedAt.IsZero() {
		qc.CompletedAt = qc.CreatedAt
	}
	err := s.update(ctx, func(d *fileData) error {
		d.QuizCompletions = append(d.QuizCompletions, qc)
		for i := range d.Users {
			if d.Users[i].ID != qc.UserID {
				continue
			}
			d.Users[i].TotalQuizzesTaken++
			h := append([]model.QuizHistory{{
				Topic:          qc.Topic,
				Score:          qc.Score,
				TotalQuestions: qc.TotalQuestions,
				At:             qc.CompletedAt,
			}}, d.Users[i].QuizHistory...)
			if len(h) > activityHistoryCap {
				h = h[:activityHistoryCap]
			}
			d.Users[i].QuizHistory = h
			break
		}
		return nil
	})
	return qc, err
}

func (s *FileStore) ListQuizCompletionsByUser(ctx context.Context, userID string) ([]model.QuizCompletion, error) {
	var out []model.QuizCompletion
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.QuizCompletions, func(x model.QuizCompletion) bool { return x.UserID == userID })
		return nil
	})
	return out, err
}

// --- analytics ---

func (s *FileStore) CreatePageView(ctx context.Context, pv model.PageView) (model.PageView, error) {
	stamp(&pv.ID, &pv.CreatedAt)
	if pv.Date == "" {
		pv.Date = pv.CreatedAt.Format("2006-01-02")
	}
	err := s.update(ctx, func(d *fileData) error {
		d.PageViews = append(d.PageViews, pv)
		return nil
	})
	return pv, err
}

func (s *FileStore) ListPageViewsSince(ctx context.Context, since time.Time) ([]model.PageView, error) {
	var out []model.PageView
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.PageViews, func(x model.PageView) bool { return !x.CreatedAt.Before(since) })
		return nil
	})
	return out, err
}

// --- ephemeral tokens ---

func (s *FileStore) PutOTP(ctx context.Context, rec model.OTPRecord) error {
	return s.update(ctx, func(d *fileData) error {
		d.OTPs, _ = deleteWhere(d.OTPs, func(x model.OTPRecord) bool { return x.Email == rec.Email })
		d.OTPs = append(d.OTPs, rec)
		return nil
	})
}

func (s *FileStore) GetOTP(ctx context.Context, email string) (model.OTPRecord, error) {
	var rec model.OTPRecord
	err := s.view(ctx, func(d *fileData) error {
		found := false
		rec, found = findOne(d.OTPs, func(x model.OTPRecord) bool { return x.Email == email })
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return rec, err
}

func (s *FileStore) DeleteOTP(ctx context.Context, email string) error {
	return s.update(ctx, func(d *fileData) error {
		d.OTPs, _ = deleteWhere(d.OTPs, func(x model.OTPRecord) bool { return x.Email == email })
		return nil
	})
}

func (s *FileStore) PutPasswordReset(ctx context.Context, rec model.PasswordResetToken) error {
	return s.update(ctx, func(d *fileData) error {
		d.PasswordResets, _ = deleteWhere(d.PasswordResets, func(x model.PasswordResetToken) bool { return x.Email == rec.Email })
		d.PasswordResets = append(d.PasswordResets, rec)
		return nil
	})
}

func (s *FileStore) GetPasswordReset(ctx context.Context, email string) (model.PasswordResetToken, error) {
	var rec model.PasswordResetToken
	err := s.view(ctx, func(d *fileData) error {
		found := false
		rec, found = findOne(d.PasswordResets, func(x model.PasswordResetToken) bool { return x.Email == email })
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return rec, err
}

func (s *FileStore) DeletePasswordReset(ctx context.Context, email string) error {
	return s.update(ctx, func(d *fileData) error {
		d.PasswordResets, _ = deleteWhere(d.PasswordResets, func(x model.PasswordResetToken) bool { return x.Email == email })
		return nil
	})
}

// --- hiring ---

func (s *FileStore) CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	stamp(&c.ID, &c.CreatedAt)
	err := s.update(ctx, func(d *fileData) error {
		d.Candidates = append(d.Candidates, c)
		return nil
	})
	return c, err
}

func (s *FileStore) GetCandidate(ctx context.Context, companyID, id string) (model.Candidate, error) {
	var c model.Candidate
	err := s.view(ctx, func(d *fileData) error {
		found := false
		c, found = findOne(d.Candidates, func(x model.Candidate) bool {
			return x.CompanyID == companyID && x.ID == id
		})
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return c, err
}

func (s *FileStore) ListCandidates(ctx context.Context, companyID string) ([]model.Candidate, error) {
	var out []model.Candidate
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.Candidates, func(x model.Candidate) bool { return x.CompanyID == companyID })
		return nil
	})
	return out, err
}

func (s *FileStore) UpdateCandidate(ctx context.Context, companyID, id string, patch model.CandidatePatch) (model.Candidate, error) {
	var out model.Candidate
	err := s.update(ctx, func(d *fileData) error {
		for i := range d.Candidates {
			if d.Candidates[i].CompanyID != companyID || d.Candidates[i].ID != id {
				continue
			}
			c := &d.Candidates[i]
			if patch.Name != nil {
				c.Name = *patch.Name
			}
			if patch.Email != nil {
				c.Email = *patch.Email
			}
			if patch.Phone != nil {
				c.Phone = *patch.Phone
			}
			if patch.ResumeURL != nil {
				c.ResumeURL = *patch.ResumeURL
			}
			if patch.Status != nil {
				c.Status = *patch.Status
			}
			out = *c
			return nil
		}
		return ErrNotFound
	})
	return out, err
}

func (s *FileStore) DeleteCandidate(ctx context.Context, companyID, id string) error {
	return s.update(ctx, func(d *fileData) error {
		cands, removed := deleteWhere(d.Candidates, func(x model.Candidate) bool {
			return x.CompanyID == companyID && x.ID == id
		})
		if !removed {
			return ErrNotFound
		}
		d.Candidates = cands
		return nil
	})
}

func (s *FileStore) CreateDrive(ctx context.Context, dr model.InterviewDrive) (model.InterviewDrive, error) {
	stamp(&dr.ID, &dr.CreatedAt)
	if dr.Status == "" {
		dr.Status = model.DriveDraft
	}
	if dr.CandidateIDs == nil {
		dr.CandidateIDs = []string{}
	}
	err := s.update(ctx, func(d *fileData) error {
		d.InterviewDrives = append(d.InterviewDrives, dr)
		return nil
	})
	return dr, err
}

func (s *FileStore) GetDrive(ctx context.Context, companyID, id string) (model.InterviewDrive, error) {
	var dr model.InterviewDrive
	err := s.view(ctx, func(d *fileData) error {
		found := false
		dr, found = findOne(d.InterviewDrives, func(x model.InterviewDrive) bool {
			return x.CompanyID == companyID && x.ID == id
		})
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return dr, err
}

func (s *FileStore) ListDrives(ctx context.Context, companyID string) ([]model.InterviewDrive, error) {
	var out []model.InterviewDrive
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.InterviewDrives, func(x model.InterviewDrive) bool { return x.CompanyID == companyID })
		return nil
	})
	return out, err
}

func (s *FileStore) UpdateDrive(ctx context.Context, companyID, id string, patch model.DrivePatch) (model.InterviewDrive, error) {
	var out model.InterviewDrive
	err := s.update(ctx, func(d *fileData) error {
		for i := range d.InterviewDrives {
			if d.InterviewDrives[i].CompanyID != companyID || d.InterviewDrives[i].ID != id {
				continue
			}
			dr := &d.InterviewDrives[i]
			if patch.Title != nil {
				dr.Title = *patch.Title
			}
			if patch.Role != nil {
				dr.Role = *patch.Role
			}
			if patch.Status != nil {
				dr.Status = *patch.Status
			}
			out = *dr
			return nil
		}
		return ErrNotFound
	})
	return out, err
}

func (s *FileStore) DeleteDrive(ctx context.Context, companyID, id string) error {
	return s.update(ctx, func(d *fileData) error {
		drives, removed := deleteWhere(d.InterviewDrives, func(x model.InterviewDrive) bool {
			return x.CompanyID == companyID && x.ID == id
		})
		if !removed {
			return ErrNotFound
		}
		d.InterviewDrives = drives
		return nil
	})
}

func (s *FileStore) AddCandidateToDrive(ctx context.Context, companyID, driveID, candidateID string) error {
	return s.update(ctx, func(d *fileData) error {
		for i := range d.InterviewDrives {
			if d.InterviewDrives[i].CompanyID != companyID || d.InterviewDrives[i].ID != driveID {
				continue
			}
			if !contains(d.InterviewDrives[i].CandidateIDs, candidateID) {
				d.InterviewDrives[i].CandidateIDs = append(d.InterviewDrives[i].CandidateIDs, candidateID)
			}
			return nil
		}
		return ErrNotFound
	})
}

func (s *FileStore) CreateInterviewToken(ctx context.Context, t model.InterviewToken) (model.InterviewToken, error) {
	stamp(&t.ID, &t.CreatedAt)
	err := s.update(ctx, func(d *fileData) error {
		d.InterviewTokens = append(d.InterviewTokens, t)
		return nil
	})
	return t, err
}

func (s *FileStore) GetInterviewTokenByValue(ctx context.Context, token string) (model.InterviewToken, error) {
	var t model.InterviewToken
	err := s.view(ctx, func(d *fileData) error {
		found := false
		t, found = findOne(d.InterviewTokens, func(x model.InterviewToken) bool { return x.Token == token })
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return t, err
}

func (s *FileStore) MarkInterviewTokenUsed(ctx context.Context, token string) error {
	return s.update(ctx, func(d *fileData) error {
		for i := range d.InterviewTokens {
			if d.InterviewTokens[i].Token == token {
				d.InterviewTokens[i].Used = true
				return nil
			}
		}
		return ErrNotFound
	})
}

func (s *FileStore) DeleteInterviewToken(ctx context.Context, companyID, id string) error {
	return s.update(ctx, func(d *fileData) error {
		toks, removed := deleteWhere(d.InterviewTokens, func(x model.InterviewToken) bool {
			return x.CompanyID == companyID && x.ID == id
		})
		if !removed {
			return ErrNotFound
		}
		d.InterviewTokens = toks
		return nil
	})
}

func (s *FileStore) CreateInterviewResponse(ctx context.Context, r model.InterviewResponse) (model.InterviewResponse, error) {
	stamp(&r.ID, &r.CreatedAt)
	err := s.update(ctx, func(d *fileData) error {
		d.InterviewResponses = append(d.InterviewResponses, r)
		return nil
	})
	return r, err
}

func (s *FileStore) ListInterviewResponses(ctx context.Context, companyID, driveID string) ([]model.InterviewResponse, error) {
	var out []model.InterviewResponse
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.InterviewResponses, func(x model.InterviewResponse) bool {
			return x.CompanyID == companyID && x.DriveID == driveID
		})
		return nil
	})
	return out, err
}

func (s *FileStore) CreateScreening(ctx context.Context, sc model.Screening) (model.Screening, error) {
	stamp(&sc.ID, &sc.CreatedAt)
	err := s.update(ctx, func(d *fileData) error {
		d.Screenings = append(d.Screenings, sc)
		return nil
	})
	return sc, err
}

func (s *FileStore) GetScreening(ctx context.Context, companyID, id string) (model.Screening, error) {
	var sc model.Screening
	err := s.view(ctx, func(d *fileData) error {
		found := false
		sc, found = findOne(d.Screenings, func(x model.Screening) bool {
			return x.CompanyID == companyID && x.ID == id
		})
		if !found {
			return ErrNotFound
		}
		return nil
	})
	return sc, err
}

func (s *FileStore) ListScreenings(ctx context.Context, companyID string) ([]model.Screening, error) {
	var out []model.Screening
	err := s.view(ctx, func(d *fileData) error {
		out = filterSlice(d.Screenings, func(x model.Screening) bool { return x.CompanyID == companyID })
		return nil
	})
	return out, err
}

func (s *FileStore) UpdateScreening(ctx context.Context, companyID, id string, patch model.ScreeningPatch) (model.Screening, error) {
	var out model.Screening
	err := s.update(ctx, func(d *fileData) error {
		for i := range d.Screenings {
			if d.Screenings[i].CompanyID != companyID || d.Screenings[i].ID != id {
				continue
			}
			sc := &d.Screenings[i]
			if patch.Verdict != nil {
				sc.Verdict = *patch.Verdict
			}
			if patch.Score != nil {
				sc.Score = *patch.Score
			}
			if patch.Notes != nil {
				sc.Notes = *patch.Notes
			}
			out = *sc
			return nil
		}
		return ErrNotFound
	})
	return out, err
}

func (s *FileStore) DeleteScreening(ctx context.Context, companyID, id string) error {
	return s.update(ctx, func(d *fileData) error {
		scs, removed := deleteWhere(d.Screenings, func(x model.Screening) bool {
			return x.CompanyID == companyID && x.ID == id
		})
		if !removed {
			return ErrNotFound
		}
		d.Screenings = scs
		return nil
	})
}

func (s *FileStore) Close(ctx context.Context) error {
	return nil
}
