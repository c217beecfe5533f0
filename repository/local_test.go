package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"prepcore/logger"
	"prepcore/model"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "db.json"), logger.NewNop())
}

func TestCreateUserAssignsIDAndCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected a generated id")
	}
	if u.CreatedAt.IsZero() {
		t.Fatal("expected a creation timestamp")
	}
	if u.CompletedProblems == nil {
		t.Fatal("expected completedProblems to be initialized")
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMissingFileYieldsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "db.json")
	s := NewFileStore(path, logger.NewNop())

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("want empty, got %d users", len(users))
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	s1 := NewFileStore(path, logger.NewNop())
	created, err := s1.CreateUser(ctx, model.User{Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	s2 := NewFileStore(path, logger.NewNop())
	got, err := s2.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID from second store: %v", err)
	}
	if got.Email != "a@example.com" {
		t.Fatalf("email: want=%q got=%q", "a@example.com", got.Email)
	}
}

func TestMarkProblemCompletedIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, model.User{Email: "a@example.com"})

	for i := 0; i < 2; i++ {
		if err := s.MarkProblemCompleted(ctx, u.ID, "p1"); err != nil {
			t.Fatalf("MarkProblemCompleted #%d: %v", i+1, err)
		}
	}

	got, _ := s.GetUserByID(ctx, u.ID)
	if len(got.CompletedProblems) != 1 {
		t.Fatalf("completedProblems: want 1 entry, got %v", got.CompletedProblems)
	}
	if got.TotalSolved != 1 {
		t.Fatalf("totalSolved: want=1 got=%d", got.TotalSolved)
	}
}

// Characterization of the whole-document read-modify-write cycle: all
// writes serialize through the store mutex, so concurrent inserts must not
// lose updates.
func TestConcurrentInsertsLoseNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateSubmission(ctx, model.Submission{
				UserID:    "u1",
				ProblemID: fmt.Sprintf("p%d", i),
				Status:    "accepted",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
	}

	subs, err := s.ListSubmissionsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListSubmissionsByUser: %v", err)
	}
	if len(subs) != n {
		t.Fatalf("lost updates: want=%d got=%d", n, len(subs))
	}
	seen := map[string]bool{}
	for _, sub := range subs {
		if sub.ID == "" {
			t.Fatal("submission with empty id")
		}
		if seen[sub.ID] {
			t.Fatalf("duplicate id %q", sub.ID)
		}
		seen[sub.ID] = true
	}
}

type failingPersister struct{}

func (failingPersister) load() ([]byte, bool, error) {
	return nil, false, errors.New("filesystem unavailable")
}

func (failingPersister) store([]byte) error {
	return errors.New("filesystem unavailable")
}

func TestDegradedModeSubstitutesMemory(t *testing.T) {
	s := newFileStoreWith(failingPersister{}, logger.NewNop())
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("CreateUser in degraded mode: %v", err)
	}
	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID in degraded mode: %v", err)
	}
	if got.Email != "a@example.com" {
		t.Fatalf("email: want=%q got=%q", "a@example.com", got.Email)
	}
	if !s.degraded {
		t.Fatal("store should be flagged degraded")
	}
}

// flakyPersister accepts its first write and then fails, simulating a
// filesystem that disappears mid-run.
type flakyPersister struct {
	memoryPersister
	writes int
}

func (p *flakyPersister) store(data []byte) error {
	p.writes++
	if p.writes > 1 {
		return errors.New("filesystem gone")
	}
	return p.memoryPersister.store(data)
}

func TestDegradeOnWriteKeepsExistingState(t *testing.T) {
	s := newFileStoreWith(&flakyPersister{}, logger.NewNop())
	ctx := context.Background()

	a, err := s.CreateUser(ctx, model.User{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	// Second write fails, degrades to memory, and is retried there.
	b, err := s.CreateUser(ctx, model.User{Email: "b@example.com"})
	if err != nil {
		t.Fatalf("CreateUser after fs failure: %v", err)
	}

	if !s.degraded {
		t.Fatal("store should be flagged degraded")
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, err := s.GetUserByID(ctx, id); err != nil {
			t.Fatalf("record %s lost after degrade: %v", id, err)
		}
	}
}

func TestAppendActivityMostRecentFirstAndCapped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, model.User{Email: "a@example.com"})

	for i := 0; i < activityHistoryCap+5; i++ {
		entry := model.ActivityEntry{Type: "problem_completed", Detail: fmt.Sprintf("p%d", i), At: time.Now()}
		if err := s.AppendActivity(ctx, u.ID, entry); err != nil {
			t.Fatalf("AppendActivity: %v", err)
		}
	}

	got, _ := s.GetUserByID(ctx, u.ID)
	if len(got.ActivityHistory) != activityHistoryCap {
		t.Fatalf("history length: want=%d got=%d", activityHistoryCap, len(got.ActivityHistory))
	}
	if got.ActivityHistory[0].Detail != fmt.Sprintf("p%d", activityHistoryCap+4) {
		t.Fatalf("most recent entry first: got %q", got.ActivityHistory[0].Detail)
	}
}

func TestListRankedUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateUser(ctx, model.User{Email: "a@example.com", Name: "A"})
	b, _ := s.CreateUser(ctx, model.User{Email: "b@example.com", Name: "B"})
	s.CreateUser(ctx, model.User{Email: "c@example.com", Name: "C"}) // never ranked

	s.SetUserRankScore(ctx, a.ID, 40)
	s.SetUserRankScore(ctx, b.ID, 90)

	ranked, err := s.ListRankedUsers(ctx, 0)
	if err != nil {
		t.Fatalf("ListRankedUsers: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("ranked count: want=2 got=%d", len(ranked))
	}
	if ranked[0].ID != b.ID || ranked[1].ID != a.ID {
		t.Fatalf("order: want [B A], got [%s %s]", ranked[0].Name, ranked[1].Name)
	}

	top, _ := s.ListRankedUsers(ctx, 1)
	if len(top) != 1 || top[0].ID != b.ID {
		t.Fatalf("limit: want just B, got %v", top)
	}
}

func TestQuizCompletionBumpsUserCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, model.User{Email: "a@example.com"})

	_, err := s.CreateQuizCompletion(ctx, model.QuizCompletion{
		UserID: u.ID, Topic: "arrays", Score: 8, TotalQuestions: 10, Rating: 4,
	})
	if err != nil {
		t.Fatalf("CreateQuizCompletion: %v", err)
	}

	got, _ := s.GetUserByID(ctx, u.ID)
	if got.TotalQuizzesTaken != 1 {
		t.Fatalf("totalQuizzesTaken: want=1 got=%d", got.TotalQuizzesTaken)
	}
	if len(got.QuizHistory) != 1 || got.QuizHistory[0].Topic != "arrays" {
		t.Fatalf("quizHistory: %+v", got.QuizHistory)
	}
}

func TestPutOTPReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := model.OTPRecord{Email: "a@example.com", Code: "111111", ExpiresAt: time.Now().Add(time.Hour)}
	second := model.OTPRecord{Email: "a@example.com", Code: "222222", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.PutOTP(ctx, first); err != nil {
		t.Fatalf("PutOTP first: %v", err)
	}
	if err := s.PutOTP(ctx, second); err != nil {
		t.Fatalf("PutOTP second: %v", err)
	}

	got, err := s.GetOTP(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetOTP: %v", err)
	}
	if got.Code != "222222" {
		t.Fatalf("code: want replacement 222222, got %q", got.Code)
	}
}

func TestReseedReplacesCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Reseed(ctx, model.SeedData{
		Problems: []model.Problem{{Title: "Two Sum", Difficulty: "easy"}},
	}); err != nil {
		t.Fatalf("first Reseed: %v", err)
	}
	if err := s.Reseed(ctx, model.SeedData{
		Problems: []model.Problem{
			{Title: "Merge Intervals", Difficulty: "medium"},
			{Title: "LRU Cache", Difficulty: "hard"},
		},
	}); err != nil {
		t.Fatalf("second Reseed: %v", err)
	}

	problems, _ := s.ListProblems(ctx)
	if len(problems) != 2 {
		t.Fatalf("problems after reseed: want=2 got=%d", len(problems))
	}
	for _, p := range problems {
		if p.Title == "Two Sum" {
			t.Fatal("old seed survived the reseed")
		}
		if p.ID == "" {
			t.Fatal("seeded problem without id")
		}
	}
}

func TestSampleQuizQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := model.SeedData{}
	for i := 0; i < 10; i++ {
		topic := "arrays"
		if i >= 6 {
			topic = "graphs"
		}
		seed.QuizQuestions = append(seed.QuizQuestions, model.QuizQuestion{
			Topic: topic, Question: fmt.Sprintf("q%d", i),
		})
	}
	if err := s.Reseed(ctx, seed); err != nil {
		t.Fatalf("Reseed: %v", err)
	}

	got, err := s.SampleQuizQuestions(ctx, "arrays", 4)
	if err != nil {
		t.Fatalf("SampleQuizQuestions: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("sample size: want=4 got=%d", len(got))
	}
	seen := map[string]bool{}
	for _, q := range got {
		if q.Topic != "arrays" {
			t.Fatalf("sample leaked topic %q", q.Topic)
		}
		if seen[q.ID] {
			t.Fatalf("duplicate question %q in one sample", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestAddCandidateToDriveOrderedSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d, _ := s.CreateDrive(ctx, model.InterviewDrive{CompanyID: "co1", Title: "Backend 2026"})
	for _, id := range []string{"cand-a", "cand-b", "cand-a"} {
		if err := s.AddCandidateToDrive(ctx, "co1", d.ID, id); err != nil {
			t.Fatalf("AddCandidateToDrive(%s): %v", id, err)
		}
	}

	got, _ := s.GetDrive(ctx, "co1", d.ID)
	if len(got.CandidateIDs) != 2 || got.CandidateIDs[0] != "cand-a" || got.CandidateIDs[1] != "cand-b" {
		t.Fatalf("candidateIds: want [cand-a cand-b], got %v", got.CandidateIDs)
	}
}

func TestCompanyScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, _ := s.CreateCandidate(ctx, model.Candidate{CompanyID: "co1", Name: "Jo", Email: "jo@x.com"})
	if _, err := s.GetCandidate(ctx, "co2", c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-company read: want ErrNotFound, got %v", err)
	}
	list, _ := s.ListCandidates(ctx, "co2")
	if len(list) != 0 {
		t.Fatalf("cross-company list: want empty, got %d", len(list))
	}
}

func TestUpdateUserPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, model.User{Email: "a@example.com", Name: "Old", TargetRole: "SWE"})

	name := "New"
	got, err := s.UpdateUser(ctx, u.ID, model.UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.Name != "New" {
		t.Fatalf("name: want=New got=%q", got.Name)
	}
	if got.TargetRole != "SWE" {
		t.Fatalf("untouched field changed: %q", got.TargetRole)
	}
}
