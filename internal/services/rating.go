package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/gemini"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
)

// TagWeights maps topic tag names to their importance multiplier. Unlisted
// tags weigh 1.0. The table is injected so alternate weightings can be tested
// without touching package state.
type TagWeights map[string]float64

func DefaultTagWeights() TagWeights {
	return TagWeights{
		"Dynamic Programming":   1.2,
		"Graph":                 1.2,
		"System Design":         1.3,
		"Array":                 1.0,
		"String":                0.9,
		"Hash Table":            1.0,
		"Math":                  0.8,
		"Parsing":               0.6,
		"Tree":                  1.1,
		"Binary Tree":           1.1,
		"Depth-First Search":    1.1,
		"Breadth-First Search":  1.1,
		"Binary Search":         1.0,
		"Two Pointers":          1.0,
		"Sliding Window":        1.1,
		"Backtracking":          1.2,
		"Greedy":                1.1,
		"Heap (Priority Queue)": 1.2,
		"Stack":                 0.9,
		"Queue":                 0.9,
		"Linked List":           1.0,
		"Sorting":               0.9,
		"Bit Manipulation":      1.1,
		"Trie":                  1.2,
		"Union Find":            1.3,
		"Segment Tree":          1.4,
		"Binary Indexed Tree":   1.4,
	}
}

type ScoreInput struct {
	Likes          int
	Dislikes       int
	AcceptanceRate float64
	QuestionNumber int
	MaxQuestionID  int
	Difficulty     string
	Tags           []string
	Title          string
	Content        string
}

type Rating struct {
	MathematicalScore float64 `json:"mathematicalScore"`
	AIScore           float64 `json:"aiScore"`
	AIReason          string  `json:"aiReason"`
}

const aiFallbackReason = "AI unavailable - using mathematical score"

type RatingService interface {
	MathematicalScore(in ScoreInput) float64
	Rate(ctx context.Context, in ScoreInput) Rating
}

type ratingService struct {
	log     *logger.Logger
	ai      gemini.Client
	weights TagWeights
}

// NewRatingService builds the scoring engine. ai may be nil, in which case
// every AI rating degrades to the mathematical score.
func NewRatingService(log *logger.Logger, ai gemini.Client, weights TagWeights) RatingService {
	serviceLog := log.With("service", "RatingService")
	if weights == nil {
		weights = DefaultTagWeights()
	}
	return &ratingService{log: serviceLog, ai: ai, weights: weights}
}

// MathematicalScore combines engagement, acceptance rate, age, difficulty and
// tag importance into a deterministic 1.0-5.0 score, one decimal place.
func (rs *ratingService) MathematicalScore(in ScoreInput) float64 {
	likes := float64(in.Likes)
	dislikes := float64(in.Dislikes)

	// 1. Popularity-adjusted like score (60% weight).
	likeRatio := likes / (likes + dislikes + 1e-5)

	var popularityPercentage float64
	switch {
	case in.Likes < 1000:
		popularityPercentage = 50
	case in.Likes < 2000:
		popularityPercentage = 80
	case in.Likes < 4000:
		popularityPercentage = 90
	case in.Likes < 6000:
		popularityPercentage = 95
	default:
		popularityPercentage = 99
	}

	popularityWeight := math.Min(1.0, math.Log1p(likes)/math.Log1p(10000))
	popularityMultiplier := 0.5 + popularityPercentage/100*0.5
	likeComponent := likeRatio * 5 * popularityWeight * popularityMultiplier
	if in.Dislikes > in.Likes {
		likeComponent *= 0.5
	}

	// 2. Acceptance rate score (10% weight). Both extremes read as signals of
	// miscalibrated difficulty.
	var acceptanceComponent float64
	ar := in.AcceptanceRate
	switch {
	case ar >= 35 && ar <= 60:
		acceptanceComponent = 5
	case ar >= 20 && ar < 35:
		acceptanceComponent = 4
	case ar > 60 && ar <= 80:
		acceptanceComponent = 4.5
	case ar > 80:
		acceptanceComponent = 4
	default:
		acceptanceComponent = 2
	}

	// 3. Age factor (10% weight). Lower-numbered problems have been vetted
	// longer; the floor keeps the ratio sane for the newest problems.
	maxID := in.MaxQuestionID
	if maxID <= 0 {
		maxID = 3000
	}
	safeMaxID := float64(maxID)
	if floor := float64(in.QuestionNumber + 100); safeMaxID < floor {
		safeMaxID = floor
	}
	ageRatio := math.Max(0, math.Min(1, (safeMaxID-float64(in.QuestionNumber))/safeMaxID))
	ageComponent := 2 + ageRatio*3

	// 4. Difficulty score (10% weight). Medium is the learning sweet spot.
	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = "Medium"
	}
	var diffComponent float64
	switch strings.ToLower(difficulty) {
	case "easy":
		diffComponent = 4
	case "medium":
		diffComponent = 5
	case "hard":
		diffComponent = 3
	default:
		diffComponent = 4
	}

	// 5. Tag importance adjustment, additive.
	tagMultiplier := 1.0
	if len(in.Tags) > 0 {
		sum := 0.0
		for _, tag := range in.Tags {
			w, ok := rs.weights[tag]
			if !ok {
				w = 1.0
			}
			sum += w
		}
		tagMultiplier = sum / float64(len(in.Tags))
	}
	tagComponent := (tagMultiplier - 1.0) * 5 * 0.1

	finalScore := 0.6*likeComponent +
		0.1*acceptanceComponent +
		0.1*ageComponent +
		0.1*diffComponent +
		tagComponent

	return math.Round(math.Max(1, math.Min(5, finalScore))*10) / 10
}

// Rate computes the mathematical score and attempts the AI rating. The AI
// path never fails a request: any error degrades to the mathematical score
// with an explanatory reason string.
func (rs *ratingService) Rate(ctx context.Context, in ScoreInput) Rating {
	mathScore := rs.MathematicalScore(in)

	aiScore, aiReason, err := rs.aiRating(ctx, in)
	if err != nil {
		rs.log.Warn("AI rating unavailable, using mathematical score", "title", in.Title, "error", err)
		return Rating{
			MathematicalScore: mathScore,
			AIScore:           mathScore,
			AIReason:          aiFallbackReason,
		}
	}

	return Rating{
		MathematicalScore: mathScore,
		AIScore:           aiScore,
		AIReason:          aiReason,
	}
}

type aiRatingPayload struct {
	Score  json.Number `json:"score"`
	Reason string      `json:"reason"`
}

func (rs *ratingService) aiRating(ctx context.Context, in ScoreInput) (float64, string, error) {
	if rs.ai == nil {
		return 0, "", fmt.Errorf("no AI client configured")
	}

	text, err := rs.ai.GenerateText(ctx, buildRatingPrompt(in))
	if err != nil {
		return 0, "", err
	}

	block, ok := gemini.ExtractJSONBlock(text)
	if !ok {
		return 0, "", fmt.Errorf("no JSON object in AI response")
	}

	var payload aiRatingPayload
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return 0, "", fmt.Errorf("parsing AI response: %w", err)
	}

	score, err := payload.Score.Float64()
	if err != nil || score == 0 {
		score = 3.0
	}
	score = math.Max(1.0, math.Min(5.0, score))

	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		reason = "AI analysis completed"
	}
	if len(reason) > 100 {
		reason = reason[:100]
	}

	return score, reason, nil
}

func buildRatingPrompt(in ScoreInput) string {
	return fmt.Sprintf(`You are an expert LeetCode problem analyst. Rate this LeetCode problem on a scale of 1-5 stars and provide a brief one-liner reason.

Problem Details:
- Title: %s
- Difficulty: %s
- Tags: %s
- Likes: %d
- Dislikes: %d
- Acceptance Rate: %.1f%%

Consider these factors for rating:
- Problem quality and clarity
- Educational value for learning algorithms/data structures
- Practical relevance for interviews
- Problem uniqueness and creativity
- Balance between difficulty and learning outcome

Respond in this exact JSON format:
{
  "score": <integer from 1 to 5>,
  "reason": "<one-liner explanation under 100 characters>"
}`,
		in.Title, in.Difficulty, strings.Join(in.Tags, ", "), in.Likes, in.Dislikes, in.AcceptanceRate)
}
