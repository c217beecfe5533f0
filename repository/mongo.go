package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"prepcore/model"
)

// MongoStore implements Store against a remote MongoDB, one physical
// collection per logical collection. Single-document field mutations use
// atomic update operators; multi-step workflows (quiz completion plus the
// owning user's counters) are not transactional and can leave partial
// state if interrupted between steps.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func mapErr(err error) error {
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M) ([]T, error) {
	cursor, err := col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](ctx, cursor)
}

// --- users ---

func (s *MongoStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
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
	if _, err := s.col(ColUsers).InsertOne(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.col(ColUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, mapErr(err)
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.col(ColUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, mapErr(err)
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]model.User, error) {
	cursor, err := s.col(ColUsers).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return decodeAll[model.User](ctx, cursor)
}

func (s *MongoStore) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.TargetRole != nil {
		set["targetRole"] = *patch.TargetRole
	}
	if patch.ExperienceLevel != nil {
		set["experienceLevel"] = *patch.ExperienceLevel
	}
	if patch.PasswordHash != nil {
		set["passwordHash"] = *patch.PasswordHash
	}
	if len(set) == 0 {
		return s.GetUserByID(ctx, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u model.User
	err := s.col(ColUsers).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	return u, mapErr(err)
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.col(ColUsers).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) MarkProblemCompleted(ctx context.Context, userID, problemID string) error {
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"completedProblems": problemID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	// Only bump the counter when the set actually grew; re-marking a
	// completed problem stays idempotent.
	if res.ModifiedCount == 0 {
		return nil
	}
	_, err = s.col(ColUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"totalSolved": 1}})
	return err
}

func (s *MongoStore) AppendActivity(ctx context.Context, userID string, entry model.ActivityEntry) error {
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"activityHistory": bson.M{
			"$each":     []model.ActivityEntry{entry},
			"$position": 0,
			"$slice":    activityHistoryCap,
		}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetUserRankScore(ctx context.Context, userID string, score float64) error {
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"rankScore": score}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetUserRank(ctx context.Context, userID string, rank int) error {
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"rank": rank}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountUsersWithRankScoreAbove(ctx context.Context, score float64) (int, error) {
	n, err := s.col(ColUsers).CountDocuments(ctx, bson.M{"rankScore": bson.M{"$gt": score}})
	return int(n), err
}

func (s *MongoStore) ListRankedUsers(ctx context.Context, limit int) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rankScore", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := s.col(ColUsers).Find(ctx, bson.M{"rankScore": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.User](ctx, cursor)
}

// --- catalog ---

func (s *MongoStore) ListProblems(ctx context.Context) ([]model.Problem, error) {
	return findAll[model.Problem](ctx, s.col(ColProblems), bson.M{})
}

func (s *MongoStore) GetProblem(ctx context.Context, id string) (model.Problem, error) {
	var p model.Problem
	err := s.col(ColProblems).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	return p, mapErr(err)
}

func (s *MongoStore) ListPrepPlans(ctx context.Context) ([]model.PrepPlan, error) {
	return findAll[model.PrepPlan](ctx, s.col(ColPrepPlans), bson.M{})
}

func (s *MongoStore) GetPrepPlan(ctx context.Context, id string) (model.PrepPlan, error) {
	var p model.PrepPlan
	err := s.col(ColPrepPlans).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	return p, mapErr(err)
}

func (s *MongoStore) ListQuizQuestions(ctx context.Context, topic string) ([]model.QuizQuestion, error) {
	filter := bson.M{}
	if topic != "" {
		filter["topic"] = topic
	}
	return findAll[model.QuizQuestion](ctx, s.col(ColQuizQuestions), filter)
}

// SampleQuizQuestions delegates to $sample so the sampling distribution and
// duplicate exclusion within one query are the server's guarantee.
func (s *MongoStore) SampleQuizQuestions(ctx context.Context, topic string, n int) ([]model.QuizQuestion, error) {
	pipeline := mongo.Pipeline{}
	if topic != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"topic": topic}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sample", Value: bson.M{"size": n}}})
	cursor, err := s.col(ColQuizQuestions).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.QuizQuestion](ctx, cursor)
}

func (s *MongoStore) ListCommunitySolutions(ctx context.Context, problemID string) ([]model.CommunitySolution, error) {
	filter := bson.M{}
	if problemID != "" {
		filter["problemId"] = problemID
	}
	return findAll[model.CommunitySolution](ctx, s.col(ColCommunitySolutions), filter)
}

func (s *MongoStore) ListScenarios(ctx context.Context) ([]model.SystemDesignScenario, error) {
	return findAll[model.SystemDesignScenario](ctx, s.col(ColScenarios), bson.M{})
}

// Reseed drops and refills each catalog collection in turn. A crash
// mid-way leaves some collections reseeded and others not.
func (s *MongoStore) Reseed(ctx context.Context, seed model.SeedData) error {
	if err := reseedCollection(ctx, s.col(ColProblems), stampAll(seed.Problems, func(p *model.Problem) (*string, *time.Time) {
		return &p.ID, &p.CreatedAt
	})); err != nil {
		return err
	}
	if err := reseedCollection(ctx, s.col(ColPrepPlans), stampAll(seed.PrepPlans, func(p *model.PrepPlan) (*string, *time.Time) {
		return &p.ID, &p.CreatedAt
	})); err != nil {
		return err
	}
	if err := reseedCollection(ctx, s.col(ColQuizQuestions), stampAll(seed.QuizQuestions, func(q *model.QuizQuestion) (*string, *time.Time) {
		return &q.ID, &q.CreatedAt
	})); err != nil {
		return err
	}
	if err := reseedCollection(ctx, s.col(ColCommunitySolutions), stampAll(seed.CommunitySolutions, func(c *model.CommunitySolution) (*string, *time.Time) {
		return &c.ID, &c.CreatedAt
	})); err != nil {
		return err
	}
	return reseedCollection(ctx, s.col(ColScenarios), stampAll(seed.SystemDesignScenarios, func(sc *model.SystemDesignScenario) (*string, *time.Time) {
		return &sc.ID, &sc.CreatedAt
	}))
}

func stampAll[T any](items []T, fields func(*T) (*string, *time.Time)) []interface{} {
	docs := make([]interface{}, len(items))
	for i := range items {
		id, createdAt := fields(&items[i])
		stamp(id, createdAt)
		docs[i] = items[i]
	}
	return docs
}

func reseedCollection(ctx context.Context, col *mongo.Collection, docs []interface{}) error {
	if _, err := col.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}

// --- submissions ---

func (s *MongoStore) CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	stamp(&sub.ID, &sub.CreatedAt)
	if _, err := s.col(ColSubmissions).InsertOne(ctx, sub); err != nil {
		return model.Submission{}, err
	}
	return sub, nil
}

func (s *MongoStore) ListSubmissionsByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	return findAll[model.Submission](ctx, s.col(ColSubmissions), bson.M{"userId": userID})
}

func (s *MongoStore) ListSubmissionsForProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	return findAll[model.Submission](ctx, s.col(ColSubmissions), bson.M{"userId": userID, "problemId": problemID})
}

// --- quiz completions ---

func (s *MongoStore) CreateQuizCompletion(ctx context.Context, qc model.QuizCompletion) (model.QuizCompletion, error) {
	stamp(&qc.ID, &qc.CreatedAt)
	if qc.CompletedAt.IsZero() {
		qc.CompletedAt = qc.CreatedAt
	}
	if _, err := s.col(ColQuizCompletions).InsertOne(ctx, qc); err != nil {
		return model.QuizCompletion{}, err
	}
	entry := model.QuizHistory{
		Topic:          qc.Topic,
		Score:          qc.Score,
		TotalQuestions: qc.TotalQuestions,
		At:             qc.CompletedAt,
	}
	_, err := s.col(ColUsers).UpdateOne(ctx,
		bson.M{"_id": qc.UserID},
		bson.M{
			"$inc": bson.M{"totalQuizzesTaken": 1},
			"$push": bson.M{"quizHistory": bson.M{
				"$each":     []model.QuizHistory{entry},
				"$position": 0,
				"$slice":    activityHistoryCap,
			}},
		})
	if err != nil {
		return model.QuizCompletion{}, err
	}
	return qc, nil
}

func (s *MongoStore) ListQuizCompletionsByUser(ctx context.Context, userID string) ([]model.QuizCompletion, error) {
	return findAll[model.QuizCompletion](ctx, s.col(ColQuizCompletions), bson.M{"userId": userID})
}

// --- analytics ---

func (s *MongoStore) CreatePageView(ctx context.Context, pv model.PageView) (model.PageView, error) {
	stamp(&pv.ID, &pv.CreatedAt)
	if pv.Date == "" {
		pv.Date = pv.CreatedAt.Format("2006-01-02")
	}
	if _, err := s.col(ColPageViews).InsertOne(ctx, pv); err != nil {
		return model.PageView{}, err
	}
	return pv, nil
}

func (s *MongoStore) ListPageViewsSince(ctx context.Context, since time.Time) ([]model.PageView, error) {
	return findAll[model.PageView](ctx, s.col(ColPageViews), bson.M{"createdAt": bson.M{"$gte": since}})
}

// --- ephemeral tokens ---

func (s *MongoStore) PutOTP(ctx context.Context, rec model.OTPRecord) error {
	if _, err := s.col(ColOTPs).DeleteMany(ctx, bson.M{"email": rec.Email}); err != nil {
		return err
	}
	_, err := s.col(ColOTPs).InsertOne(ctx, rec)
	return err
}

func (s *MongoStore) GetOTP(ctx context.Context, email string) (model.OTPRecord, error) {
	var rec model.OTPRecord
	err := s.col(ColOTPs).FindOne(ctx, bson.M{"email": email}).Decode(&rec)
	return rec, mapErr(err)
}

func (s *MongoStore) DeleteOTP(ctx context.Context, email string) error {
	_, err := s.col(ColOTPs).DeleteMany(ctx, bson.M{"email": email})
	return err
}

func (s *MongoStore) PutPasswordReset(ctx context.Context, rec model.PasswordResetToken) error {
	if _, err := s.col(ColPasswordResets).DeleteMany(ctx, bson.M{"email": rec.Email}); err != nil {
		return err
	}
	_, err := s.col(ColPasswordResets).InsertOne(ctx, rec)
	return err
}

func (s *MongoStore) GetPasswordReset(ctx context.Context, email string) (model.PasswordResetToken, error) {
	var rec model.PasswordResetToken
	err := s.col(ColPasswordResets).FindOne(ctx, bson.M{"email": email}).Decode(&rec)
	return rec, mapErr(err)
}

func (s *MongoStore) DeletePasswordReset(ctx context.Context, email string) error {
	_, err := s.col(ColPasswordResets).DeleteMany(ctx, bson.M{"email": email})
	return err
}

// --- hiring ---

func (s *MongoStore) CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	stamp(&c.ID, &c.CreatedAt)
	if _, err := s.col(ColCandidates).InsertOne(ctx, c); err != nil {
		return model.Candidate{}, err
	}
	return c, nil
}

func (s *MongoStore) GetCandidate(ctx context.Context, companyID, id string) (model.Candidate, error) {
	var c model.Candidate
	err := s.col(ColCandidates).FindOne(ctx, bson.M{"_id": id, "companyId": companyID}).Decode(&c)
	return c, mapErr(err)
}

func (s *MongoStore) ListCandidates(ctx context.Context, companyID string) ([]model.Candidate, error) {
	return findAll[model.Candidate](ctx, s.col(ColCandidates), bson.M{"companyId": companyID})
}

func (s *MongoStore) UpdateCandidate(ctx context.Context, companyID, id string, patch model.CandidatePatch) (model.Candidate, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.ResumeURL != nil {
		set["resumeUrl"] = *patch.ResumeURL
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if len(set) == 0 {
		return s.GetCandidate(ctx, companyID, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c model.Candidate
	err := s.col(ColCandidates).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "companyId": companyID}, bson.M{"$set": set}, opts).Decode(&c)
	return c, mapErr(err)
}

func (s *MongoStore) DeleteCandidate(ctx context.Context, companyID, id string) error {
	res, err := s.col(ColCandidates).DeleteOne(ctx, bson.M{"_id": id, "companyId": companyID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateDrive(ctx context.Context, d model.InterviewDrive) (model.InterviewDrive, error) {
	stamp(&d.ID, &d.CreatedAt)
	if d.Status == "" {
		d.Status = model.DriveDraft
	}
	if d.CandidateIDs == nil {
		d.CandidateIDs = []string{}
	}
	if _, err := s.col(ColInterviewDrives).InsertOne(ctx, d); err != nil {
		return model.InterviewDrive{}, err
	}
	return d, nil
}

func (s *MongoStore) GetDrive(ctx context.Context, companyID, id string) (model.InterviewDrive, error) {
	var d model.InterviewDrive
	err := s.col(ColInterviewDrives).FindOne(ctx, bson.M{"_id": id, "companyId": companyID}).Decode(&d)
	return d, mapErr(err)
}

func (s *MongoStore) ListDrives(ctx context.Context, companyID string) ([]model.InterviewDrive, error) {
	return findAll[model.InterviewDrive](ctx, s.col(ColInterviewDrives), bson.M{"companyId": companyID})
}

func (s *MongoStore) UpdateDrive(ctx context.Context, companyID, id string, patch model.DrivePatch) (model.InterviewDrive, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if len(set) == 0 {
		return s.GetDrive(ctx, companyID, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d model.InterviewDrive
	err := s.col(ColInterviewDrives).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "companyId": companyID}, bson.M{"$set": set}, opts).Decode(&d)
	return d, mapErr(err)
}

func (s *MongoStore) DeleteDrive(ctx context.Context, companyID, id string) error {
	res, err := s.col(ColInterviewDrives).DeleteOne(ctx, bson.M{"_id": id, "companyId": companyID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AddCandidateToDrive(ctx context.Context, companyID, driveID, candidateID string) error {
	res, err := s.col(ColInterviewDrives).UpdateOne(ctx,
		bson.M{"_id": driveID, "companyId": companyID},
		bson.M{"$addToSet": bson.M{"candidateIds": candidateID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateInterviewToken(ctx context.Context, t model.InterviewToken) (model.InterviewToken, error) {
	stamp(&t.ID, &t.CreatedAt)
	if _, err := s.col(ColInterviewTokens).InsertOne(ctx, t); err != nil {
		return model.InterviewToken{}, err
	}
	return t, nil
}

func (s *MongoStore) GetInterviewTokenByValue(ctx context.Context, token string) (model.InterviewToken, error) {
	var t model.InterviewToken
	err := s.col(ColInterviewTokens).FindOne(ctx, bson.M{"token": token}).Decode(&t)
	return t, mapErr(err)
}

func (s *MongoStore) MarkInterviewTokenUsed(ctx context.Context, token string) error {
	res, err := s.col(ColInterviewTokens).UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"used": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteInterviewToken(ctx context.Context, companyID, id string) error {
	res, err := s.col(ColInterviewTokens).DeleteOne(ctx, bson.M{"_id": id, "companyId": companyID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateInterviewResponse(ctx context.Context, r model.InterviewResponse) (model.InterviewResponse, error) {
	stamp(&r.ID, &r.CreatedAt)
	if _, err := s.col(ColInterviewResponses).InsertOne(ctx, r); err != nil {
		return model.InterviewResponse{}, err
	}
	return r, nil
}

func (s *MongoStore) ListInterviewResponses(ctx context.Context, companyID, driveID string) ([]model.InterviewResponse, error) {
	return findAll[model.InterviewResponse](ctx, s.col(ColInterviewResponses), bson.M{"companyId": companyID, "driveId": driveID})
}

func (s *MongoStore) CreateScreening(ctx context.Context, sc model.Screening) (model.Screening, error) {
	stamp(&sc.ID, &sc.CreatedAt)
	if _, err := s.col(ColScreenings).InsertOne(ctx, sc); err != nil {
		return model.Screening{}, err
	}
	return sc, nil
}

func (s *MongoStore) GetScreening(ctx context.Context, companyID, id string) (model.Screening, error) {
	var sc model.Screening
	err := s.col(ColScreenings).FindOne(ctx, bson.M{"_id": id, "companyId": companyID}).Decode(&sc)
	return sc, mapErr(err)
}

func (s *MongoStore) ListScreenings(ctx context.Context, companyID string) ([]model.Screening, error) {
	return findAll[model.Screening](ctx, s.col(ColScreenings), bson.M{"companyId": companyID})
}

func (s *MongoStore) UpdateScreening(ctx context.Context, companyID, id string, patch model.ScreeningPatch) (model.Screening, error) {
	set := bson.M{}
	if patch.Verdict != nil {
		set["verdict"] = *patch.Verdict
	}
	if patch.Score != nil {
		set["score"] = *patch.Score
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if len(set) == 0 {
		return s.GetScreening(ctx, companyID, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sc model.Screening
	err := s.col(ColScreenings).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "companyId": companyID}, bson.M{"$set": set}, opts).Decode(&sc)
	return sc, mapErr(err)
}

func (s *MongoStore) DeleteScreening(ctx context.Context, companyID, id string) error {
	res, err := s.col(ColScreenings).DeleteOne(ctx, bson.M{"_id": id, "companyId": companyID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
