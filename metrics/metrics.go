// Package metrics computes derived values (rank score, leaderboard, quiz
// aggregates, analytics summaries) from whatever the storage currently
// holds. The engine keeps no state between calls.
package metrics

import (
	"context"
	"math"
	"sort"
	"time"

	"prepcore/model"
	"prepcore/repository"
)

const (
	problemScoreWeight = 10
	quizScoreWeight    = 5
)

type Engine struct {
	store repository.Store
	now   func() time.Time
}

func NewEngine(store repository.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// RecomputeRank recomputes one user's rank score, writes it back, then
// derives the rank position against the other users' stored scores and
// writes that back too. The result is accurate only relative to everyone
// else's last-recomputed score, not their true current one.
func (e *Engine) RecomputeRank(ctx context.Context, userID string) (model.RankInfo, error) {
	u, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return model.RankInfo{}, err
	}
	stats, err := e.QuizStats(ctx, userID)
	if err != nil {
		return model.RankInfo{}, err
	}

	problemScore := float64(u.TotalSolved * problemScoreWeight)
	quizScore := float64(stats.TotalQuizzes*quizScoreWeight) + float64(stats.AverageScore)/10
	rankScore := problemScore + quizScore

	if err := e.store.SetUserRankScore(ctx, userID, rankScore); err != nil {
		return model.RankInfo{}, err
	}
	above, err := e.store.CountUsersWithRankScoreAbove(ctx, rankScore)
	if err != nil {
		return model.RankInfo{}, err
	}
	rank := above + 1
	if err := e.store.SetUserRank(ctx, userID, rank); err != nil {
		return model.RankInfo{}, err
	}
	return model.RankInfo{
		UserID:       userID,
		ProblemScore: problemScore,
		QuizScore:    quizScore,
		RankScore:    rankScore,
		Rank:         rank,
	}, nil
}

// QuizStats aggregates a user's quiz completions. Zero completions yields
// a zero-valued result, never a division error.
func (e *Engine) QuizStats(ctx context.Context, userID string) (model.QuizStats, error) {
	completions, err := e.store.ListQuizCompletionsByUser(ctx, userID)
	if err != nil {
		return model.QuizStats{}, err
	}
	if len(completions) == 0 {
		return model.QuizStats{}, nil
	}
	var scoreSum, totalSum int
	var ratingSum float64
	for _, c := range completions {
		scoreSum += c.Score
		totalSum += c.TotalQuestions
		ratingSum += c.Rating
	}
	stats := model.QuizStats{TotalQuizzes: len(completions)}
	if totalSum > 0 {
		stats.AverageScore = int(math.Round(100 * float64(scoreSum) / float64(totalSum)))
	}
	stats.AverageRating = ratingSum / float64(len(completions))
	return stats, nil
}

// Leaderboard lists users whose rank score has been computed, descending,
// truncated to limit. Users never ranked are excluded, not ranked last.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	users, err := e.store.ListRankedUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]model.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = model.LeaderboardEntry{
			Position:  i + 1,
			UserID:    u.ID,
			Name:      u.Name,
			RankScore: *u.RankScore,
		}
	}
	return entries, nil
}

// Summary aggregates page views over a trailing window of days. Events
// without a positive timeSpent are excluded from the mean, not counted as
// zero.
func (e *Engine) Summary(ctx context.Context, days, topK int) (model.AnalyticsSummary, error) {
	since := e.now().UTC().AddDate(0, 0, -days)
	views, err := e.store.ListPageViewsSince(ctx, since)
	if err != nil {
		return model.AnalyticsSummary{}, err
	}

	sessions := map[string]struct{}{}
	pathViews := map[string]int{}
	pathSessions := map[string]map[string]struct{}{}
	var timeSum float64
	timed := 0
	for _, v := range views {
		sessions[v.SessionID] = struct{}{}
		pathViews[v.Path]++
		if pathSessions[v.Path] == nil {
			pathSessions[v.Path] = map[string]struct{}{}
		}
		pathSessions[v.Path][v.SessionID] = struct{}{}
		if v.TimeSpent > 0 {
			timeSum += v.TimeSpent
			timed++
		}
	}

	summary := model.AnalyticsSummary{
		WindowDays:     days,
		TotalViews:     len(views),
		UniqueSessions: len(sessions),
		TopPaths:       []model.PathStat{},
	}
	if timed > 0 {
		summary.AvgTimeSpent = timeSum / float64(timed)
	}
	for path, count := range pathViews {
		summary.TopPaths = append(summary.TopPaths, model.PathStat{
			Path:           path,
			Views:          count,
			UniqueSessions: len(pathSessions[path]),
		})
	}
	sort.Slice(summary.TopPaths, func(i, j int) bool {
		if summary.TopPaths[i].Views != summary.TopPaths[j].Views {
			return summary.TopPaths[i].Views > summary.TopPaths[j].Views
		}
		return summary.TopPaths[i].Path < summary.TopPaths[j].Path
	})
	if topK > 0 && len(summary.TopPaths) > topK {
		summary.TopPaths = summary.TopPaths[:topK]
	}
	return summary, nil
}
