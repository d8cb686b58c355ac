package types

// Pure JSON contracts for the analysis surface. Not DB models.

type LearningOutcome struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AnalysisInsights struct {
	PopularityScore  int     `json:"popularityScore"`
	DifficultyLevel  string  `json:"difficultyLevel"`
	AcceptanceRate   float64 `json:"acceptanceRate"`
	TotalSubmissions int     `json:"totalSubmissions"`
	IsPremium        bool    `json:"isPremium"`
}

type TopicProgress struct {
	Name           string `json:"name"`
	ProblemsSolved int    `json:"problemsSolved"`
	Level          string `json:"level"`
}

type UserProgress struct {
	HasExperience   bool            `json:"hasExperience"`
	MatchingTopics  []TopicProgress `json:"matchingTopics"`
	TotalUserTopics int             `json:"totalUserTopics"`
	SkillLevel      string          `json:"skillLevel"`
}

type AnalysisTags struct {
	Difficulty       string  `json:"difficulty"`
	Likes            int     `json:"likes"`
	Dislikes         int     `json:"dislikes"`
	AcceptanceRate   float64 `json:"acceptanceRate"`
	TotalSubmissions int     `json:"totalSubmissions"`
	IsPremium        bool    `json:"isPremium"`
}

type Analysis struct {
	ProblemID            int               `json:"problemId"`
	Title                string            `json:"title"`
	Recommendation       string            `json:"recommendation"`
	RecommendationReason string            `json:"recommendationReason"`
	EstimatedSolvingTime int               `json:"estimatedSolvingTime"`
	Difficulty           string            `json:"difficulty"`
	Topics               []string          `json:"topics"`
	LearningOutcomes     []LearningOutcome `json:"learningOutcomes"`
	Likes                int               `json:"likes"`
	Dislikes             int               `json:"dislikes"`
	LikeRatio            int               `json:"likeRatio"`
	HasSolvedSimilar     bool              `json:"hasSolvedSimilar"`
	SolvedSimilarCount   int               `json:"solvedSimilarCount"`
	Insights             AnalysisInsights  `json:"insights"`
	MathematicalScore    float64           `json:"mathematicalScore"`
	AIScore              float64           `json:"aiScore"`
	AIReason             string            `json:"aiReason"`
	Tags                 AnalysisTags      `json:"tags"`
	UserProgress         *UserProgress     `json:"userProgress"`
}

// SkillEntry is one flattened row of upstream skill stats, annotated with the
// level bucket it came from (fundamental/intermediate/advanced).
type SkillEntry struct {
	TagName          string `json:"tagName"`
	TagSlug          string `json:"tagSlug"`
	ProblemsSolved   int    `json:"problemsSolved"`
	TagProblemsCount int    `json:"tagProblemsCount,omitempty"`
	Level            string `json:"level"`
}
