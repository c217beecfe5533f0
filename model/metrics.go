package model

// RankInfo is the result of one rank recomputation. It is accurate only
// relative to other users' last-recomputed scores.
type RankInfo struct {
	UserID       string  `json:"userId"`
	ProblemScore float64 `json:"problemScore"`
	QuizScore    float64 `json:"quizScore"`
	RankScore    float64 `json:"rankScore"`
	Rank         int     `json:"rank"`
}

type QuizStats struct {
	TotalQuizzes  int     `json:"totalQuizzes"`
	AverageScore  int     `json:"averageScore"`
	AverageRating float64 `json:"averageRating"`
}

type LeaderboardEntry struct {
	Position  int     `json:"position"`
	UserID    string  `json:"userId"`
	Name      string  `json:"name"`
	RankScore float64 `json:"rankScore"`
}

type AnalyticsSummary struct {
	WindowDays     int        `json:"windowDays"`
	TotalViews     int        `json:"totalViews"`
	UniqueSessions int        `json:"uniqueSessions"`
	AvgTimeSpent   float64    `json:"avgTimeSpent"`
	TopPaths       []PathStat `json:"topPaths"`
}

type PathStat struct {
	Path           string `json:"path"`
	Views          int    `json:"views"`
	UniqueSessions int    `json:"uniqueSessions"`
}
