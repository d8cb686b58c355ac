package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Yashraj8888/Leetcode-Companion/internal/apierr"
	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/leetcode"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/repos"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

type SimilarProblem struct {
	ID                int     `json:"id"`
	Title             string  `json:"title"`
	Difficulty        string  `json:"difficulty"`
	AcceptanceRate    float64 `json:"acceptanceRate"`
	Likes             int     `json:"likes"`
	Dislikes          int     `json:"dislikes"`
	MathematicalScore float64 `json:"mathematicalScore"`
	AIScore           float64 `json:"aiScore"`
	AIReason          string  `json:"aiReason"`
}

type OriginalProblem struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	Topics            []string `json:"topics"`
	MathematicalScore float64  `json:"mathematicalScore"`
	AIScore           float64  `json:"aiScore"`
}

type SimilarResult struct {
	OriginalProblem OriginalProblem  `json:"originalProblem"`
	SimilarProblems []SimilarProblem `json:"similarProblems"`
}

type AnalysisService interface {
	Analyze(ctx context.Context, problemID, username string, forceRefresh bool) (*types.Analysis, error)
	Similar(ctx context.Context, questionID, limit int) (*SimilarResult, error)
}

type analysisService struct {
	log         *logger.Logger
	syncService SyncService
	problemRepo repos.ProblemRepo
	api         leetcode.Client
}

func NewAnalysisService(log *logger.Logger, syncService SyncService, problemRepo repos.ProblemRepo, api leetcode.Client) AnalysisService {
	serviceLog := log.With("service", "AnalysisService")
	return &analysisService{
		log:         serviceLog,
		syncService: syncService,
		problemRepo: problemRepo,
		api:         api,
	}
}

const (
	recommendDo   = "do"
	recommendOK   = "ok"
	recommendPass = "pass"
)

func recommendationFor(mathScore float64) string {
	switch {
	case mathScore >= 3.5:
		return recommendDo
	case mathScore >= 2.5:
		return recommendOK
	default:
		return recommendPass
	}
}

func recommendationReason(recommendation string, mathScore float64) string {
	score := fmt.Sprintf("%.1f", mathScore)
	switch recommendation {
	case recommendDo:
		return fmt.Sprintf("Highly recommended! Mathematical score: %s/5.0 - excellent problem quality.", score)
	case recommendOK:
		return fmt.Sprintf("Worth solving. Mathematical score: %s/5.0 - decent problem quality.", score)
	case recommendPass:
		return fmt.Sprintf("Consider skipping. Mathematical score: %s/5.0 - may have issues.", score)
	default:
		return "No specific recommendation available."
	}
}

// estimatedSolvingTime buckets by difficulty and scales linearly with the
// failure rate. acceptanceRate is a 0-100 percentage.
func estimatedSolvingTime(difficulty string, acceptanceRate float64) int {
	ar := acceptanceRate / 100
	switch strings.ToLower(difficulty) {
	case "easy":
		return int(math.Round(15 + (1-ar)*20))
	case "medium":
		return int(math.Round(30 + (1-ar)*45))
	case "hard":
		return int(math.Round(60 + (1-ar)*90))
	default:
		return 45
	}
}

func (as *analysisService) Analyze(ctx context.Context, problemID, username string, forceRefresh bool) (*types.Analysis, error) {
	if problemID == "" {
		return nil, apierr.BadRequest(errors.New("problem ID is required"))
	}

	// "problem-N" identifiers arrive from the UI's number search.
	if strings.HasPrefix(problemID, "problem-") {
		resolved, err := as.syncService.ResolveFrontendID(ctx, strings.TrimPrefix(problemID, "problem-"))
		if err != nil {
			return nil, err
		}
		problemID = resolved
	}

	problem, err := as.syncService.SyncProblem(ctx, problemID, forceRefresh)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, apierr.NotFoundf("problem %q not found", problemID)
	}

	mathScore := problem.MathematicalScore
	if mathScore == 0 {
		mathScore = 3.0
	}
	aiScore := problem.AIScore
	if aiScore == 0 {
		aiScore = 3.0
	}

	recommendation := recommendationFor(mathScore)
	topics := problem.TagNames()

	outcomes := make([]types.LearningOutcome, 0, len(topics))
	for _, topic := range topics {
		outcomes = append(outcomes, types.LearningOutcome{
			Name:        topic,
			Description: topicDescription(topic),
		})
	}

	analysis := &types.Analysis{
		ProblemID:            problem.QuestionID,
		Title:                problem.Title,
		Recommendation:       recommendation,
		RecommendationReason: recommendationReason(recommendation, mathScore),
		EstimatedSolvingTime: estimatedSolvingTime(problem.Difficulty, problem.AcceptanceRate),
		Difficulty:           problem.Difficulty,
		Topics:               topics,
		LearningOutcomes:     outcomes,
		Likes:                problem.Likes,
		Dislikes:             problem.Dislikes,
		LikeRatio:            int(math.Round(float64(problem.Likes) / float64(problem.Likes+problem.Dislikes+1) * 100)),
		Insights: types.AnalysisInsights{
			PopularityScore:  int(math.Round(mathScore * 20)),
			DifficultyLevel:  problem.Difficulty,
			AcceptanceRate:   problem.AcceptanceRate,
			TotalSubmissions: problem.TotalSubmissions,
			IsPremium:        problem.IsPremium,
		},
		MathematicalScore: mathScore,
		AIScore:           aiScore,
		AIReason:          problem.AIReason,
		Tags: types.AnalysisTags{
			Difficulty:       problem.Difficulty,
			Likes:            problem.Likes,
			Dislikes:         problem.Dislikes,
			AcceptanceRate:   problem.AcceptanceRate,
			TotalSubmissions: problem.TotalSubmissions,
			IsPremium:        problem.IsPremium,
		},
	}

	if username != "" {
		analysis.UserProgress = as.userProgress(ctx, username, topics)
		if analysis.UserProgress != nil {
			analysis.HasSolvedSimilar = analysis.UserProgress.HasExperience
			analysis.SolvedSimilarCount = len(analysis.UserProgress.MatchingTopics)
		}
	}

	return analysis, nil
}

// userProgress cross-references the problem's topics against the user's skill
// stats. Best-effort: any upstream failure just omits the section.
func (as *analysisService) userProgress(ctx context.Context, username string, topics []string) *types.UserProgress {
	raw, err := as.api.SkillStats(ctx, username)
	if err != nil {
		as.log.Warn("Could not fetch user skills", "username", username, "error", err)
		return nil
	}
	skills := flattenSkillStats(raw)

	topicSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		topicSet[t] = struct{}{}
	}

	matching := make([]types.TopicProgress, 0)
	for _, skill := range skills {
		if _, ok := topicSet[skill.TagName]; !ok {
			continue
		}
		matching = append(matching, types.TopicProgress{
			Name:           skill.TagName,
			ProblemsSolved: skill.ProblemsSolved,
			Level:          skill.Level,
		})
	}

	return &types.UserProgress{
		HasExperience:   len(matching) > 0,
		MatchingTopics:  matching,
		TotalUserTopics: len(skills),
		SkillLevel:      overallSkillLevel(skills),
	}
}

func (as *analysisService) Similar(ctx context.Context, questionID, limit int) (*SimilarResult, error) {
	original, err := as.problemRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, apierr.NotFoundf("problem %d not found", questionID)
	}

	similar, err := as.problemRepo.FindSimilar(ctx, nil, questionID, limit)
	if err != nil {
		return nil, err
	}

	result := &SimilarResult{
		OriginalProblem: OriginalProblem{
			ID:                original.QuestionID,
			Title:             original.Title,
			Topics:            original.TagNames(),
			MathematicalScore: original.MathematicalScore,
			AIScore:           original.AIScore,
		},
		SimilarProblems: make([]SimilarProblem, 0, len(similar)),
	}
	for _, p := range similar {
		result.SimilarProblems = append(result.SimilarProblems, SimilarProblem{
			ID:                p.QuestionID,
			Title:             p.Title,
			Difficulty:        p.Difficulty,
			AcceptanceRate:    p.AcceptanceRate,
			Likes:             p.Likes,
			Dislikes:          p.Dislikes,
			MathematicalScore: p.MathematicalScore,
			AIScore:           p.AIScore,
			AIReason:          p.AIReason,
		})
	}
	return result, nil
}

var topicDescriptions = map[string]string{
	"Array":                 "Learn array manipulation, indexing, and common array algorithms",
	"String":                "Master string processing, pattern matching, and text algorithms",
	"Hash Table":            "Understand hashing concepts and efficient lookup operations",
	"Dynamic Programming":   "Learn optimization techniques and memoization strategies",
	"Math":                  "Practice mathematical problem-solving and number theory",
	"Sorting":               "Master various sorting algorithms and their applications",
	"Greedy":                "Learn greedy algorithm design and optimization strategies",
	"Depth-First Search":    "Understand DFS traversal and graph exploration",
	"Binary Search":         "Master binary search technique and its variations",
	"Tree":                  "Learn tree data structures and traversal algorithms",
	"Breadth-First Search":  "Understand BFS traversal and shortest path algorithms",
	"Two Pointers":          "Master two-pointer technique for array problems",
	"Binary Tree":           "Learn binary tree operations and traversals",
	"Heap (Priority Queue)": "Understand heap data structure and priority operations",
	"Stack":                 "Master stack operations and LIFO principle applications",
	"Backtracking":          "Learn recursive problem-solving with backtracking",
	"Simulation":            "Practice step-by-step problem simulation",
	"Graph":                 "Understand graph algorithms and network problems",
	"Design":                "Learn system design and data structure implementation",
	"Linked List":           "Master linked list operations and pointer manipulation",
}

func topicDescription(topic string) string {
	if desc, ok := topicDescriptions[topic]; ok {
		return desc
	}
	return fmt.Sprintf("Learn concepts related to %s", topic)
}
