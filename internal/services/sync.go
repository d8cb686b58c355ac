package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Yashraj8888/Leetcode-Companion/internal/apierr"
	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/leetcode"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/repos"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

const (
	// ProblemMaxAge is the staleness window for problem metadata, which
	// changes slowly. UserMaxAge is shorter: user activity moves daily.
	ProblemMaxAge = 168 * time.Hour
	UserMaxAge    = 24 * time.Hour

	DefaultBatchSize  = 5
	DefaultBatchDelay = time.Second

	problemListLimit = 3000
)

type SyncService interface {
	SyncProblem(ctx context.Context, identifier string, force bool) (*types.Problem, error)
	SyncUser(ctx context.Context, username string, force bool) (*types.User, error)
	SyncBatch(ctx context.Context, identifiers []string, batchSize int, delay time.Duration) ([]*types.Problem, error)
	SyncDaily(ctx context.Context) (*leetcode.DailyProblem, error)
	ResolveFrontendID(ctx context.Context, frontendID string) (string, error)
}

type syncService struct {
	db          *gorm.DB
	log         *logger.Logger
	problemRepo repos.ProblemRepo
	userRepo    repos.UserRepo
	api         leetcode.Client
	rating      RatingService
}

func NewSyncService(db *gorm.DB, log *logger.Logger, problemRepo repos.ProblemRepo, userRepo repos.UserRepo, api leetcode.Client, rating RatingService) SyncService {
	serviceLog := log.With("service", "SyncService")
	return &syncService{
		db:          db,
		log:         serviceLog,
		problemRepo: problemRepo,
		userRepo:    userRepo,
		api:         api,
		rating:      rating,
	}
}

// SyncProblem returns the stored problem when fresh, otherwise fetches from
// upstream, rescores and writes through. A mid-pipeline failure degrades to
// whatever is already stored for the identifier rather than surfacing a raw
// fetch error.
func (ss *syncService) SyncProblem(ctx context.Context, identifier string, force bool) (*types.Problem, error) {
	var existing *types.Problem
	var err error

	if questionID, convErr := strconv.Atoi(identifier); convErr == nil {
		existing, err = ss.problemRepo.GetByID(ctx, nil, questionID)
	} else {
		existing, err = ss.problemRepo.GetBySlug(ctx, nil, identifier)
	}
	if err != nil {
		return nil, err
	}

	if existing != nil && !force {
		stale, err := ss.problemRepo.IsStale(ctx, nil, existing.QuestionID, ProblemMaxAge)
		if err != nil {
			return nil, err
		}
		if !stale {
			return existing, nil
		}
	}

	titleSlug := identifier
	if existing != nil {
		titleSlug = existing.TitleSlug
	} else if _, convErr := strconv.Atoi(identifier); convErr == nil {
		titleSlug, err = ss.ResolveFrontendID(ctx, identifier)
		if err != nil {
			// Nothing stored and the identifier is unresolvable upstream.
			return nil, err
		}
	}

	ss.log.Info("Syncing problem data", "identifier", identifier, "title_slug", titleSlug)

	synced, err := ss.fetchAndStoreProblem(ctx, titleSlug)
	if err != nil {
		if existing != nil {
			ss.log.Warn("Problem sync failed, serving stored data", "identifier", identifier, "error", err)
			return existing, nil
		}
		return nil, err
	}
	return synced, nil
}

// ResolveFrontendID maps a numeric frontend question id to its title slug by
// scanning the upstream problem list.
func (ss *syncService) ResolveFrontendID(ctx context.Context, frontendID string) (string, error) {
	questionID, err := strconv.Atoi(frontendID)
	if err != nil {
		return "", apierr.BadRequest(fmt.Errorf("invalid problem id %q", frontendID))
	}

	entries, err := ss.api.ProblemList(ctx, problemListLimit)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if int(entry.FrontendQuestionID) == questionID {
			return entry.TitleSlug, nil
		}
	}
	return "", apierr.NotFoundf("problem %d not found", questionID)
}

func (ss *syncService) fetchAndStoreProblem(ctx context.Context, titleSlug string) (*types.Problem, error) {
	// Detail and list entry fail independently; the detail is required, the
	// list entry only enriches engagement fields.
	var detail *leetcode.ProblemDetail
	var entries []leetcode.ProblemListEntry
	var detailErr, listErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		detail, detailErr = ss.api.ProblemDetail(ctx, titleSlug)
	}()
	go func() {
		defer wg.Done()
		entries, listErr = ss.api.ProblemList(ctx, problemListLimit)
	}()
	wg.Wait()

	if detailErr != nil {
		return nil, detailErr
	}
	if detail == nil {
		return nil, apierr.NotFoundf("problem details not found for %q", titleSlug)
	}
	if listErr != nil {
		ss.log.Warn("Problem list unavailable, continuing with detail only", "title_slug", titleSlug, "error", listErr)
	}

	var entry *leetcode.ProblemListEntry
	for i := range entries {
		if entries[i].TitleSlug == titleSlug {
			entry = &entries[i]
			break
		}
	}

	likes := firstNonZero(entryLikes(entry), int(detail.Likes))
	dislikes := firstNonZero(entryDislikes(entry), int(detail.Dislikes))
	acceptanceRate := firstNonZeroFloat(entryAcRate(entry), float64(detail.AcRate))
	totalSubmissions := firstNonZero(
		entryTotalSubmissions(entry),
		int(detail.TotalSubmitted),
		int(detail.TotalAccepted),
	)

	// Tertiary enrichment: only consulted when engagement is entirely absent,
	// and its failure is non-fatal.
	if likes == 0 && dislikes == 0 {
		stats, statsErr := ss.api.ProblemStats(ctx, titleSlug)
		if statsErr != nil {
			ss.log.Warn("Stats not available", "title_slug", titleSlug, "error", statsErr)
		} else if stats != nil {
			likes = firstNonZero(likes, int(stats.Likes))
			dislikes = firstNonZero(dislikes, int(stats.Dislikes))
			acceptanceRate = firstNonZeroFloat(acceptanceRate, float64(stats.AcceptanceRate))
			totalSubmissions = firstNonZero(totalSubmissions, int(stats.TotalSubmissions), int(stats.TotalSubmitted))
		}
	}

	questionID := int(detail.QuestionFrontendID)
	if entry != nil && int(entry.FrontendQuestionID) != 0 {
		questionID = int(entry.FrontendQuestionID)
	}
	if questionID == 0 {
		questionID = int(detail.QuestionID)
	}
	if questionID == 0 {
		return nil, apierr.Upstream(fmt.Errorf("no question id for %q", titleSlug))
	}

	title := detail.QuestionTitle
	if title == "" && entry != nil {
		title = entry.Title
	}
	difficulty := detail.Difficulty
	if entry != nil && entry.Difficulty != "" {
		difficulty = entry.Difficulty
	}
	isPremium := detail.IsPaidOnly
	if entry != nil && entry.IsPaidOnly {
		isPremium = true
	}

	topicTags := detail.TopicTags
	if len(topicTags) == 0 && entry != nil {
		topicTags = entry.TopicTags
	}
	topicTags = dedupeTags(topicTags)

	maxQuestionID, err := ss.problemRepo.MaxQuestionID(ctx, nil)
	if err != nil {
		return nil, err
	}
	if questionID > maxQuestionID {
		maxQuestionID = questionID
	}

	rating := ss.rating.Rate(ctx, ScoreInput{
		Likes:          likes,
		Dislikes:       dislikes,
		AcceptanceRate: acceptanceRate,
		QuestionNumber: questionID,
		MaxQuestionID:  maxQuestionID,
		Difficulty:     difficulty,
		Tags:           tagNames(topicTags),
		Title:          title,
		Content:        detail.Content,
	})

	hints := detail.Hints
	if hints == nil {
		hints = []string{}
	}
	similar := detail.SimilarQuestions
	if len(similar) == 0 {
		similar = json.RawMessage("[]")
	}

	problem := &types.Problem{
		QuestionID:        questionID,
		TitleSlug:         titleSlug,
		Title:             title,
		Difficulty:        difficulty,
		Likes:             likes,
		Dislikes:          dislikes,
		AcceptanceRate:    acceptanceRate,
		TotalSubmissions:  totalSubmissions,
		Tags:              mustJSON(topicTags),
		TopicTags:         mustJSON(topicTags),
		Content:           detail.Content,
		Hints:             mustJSON(hints),
		SimilarQuestions:  datatypes.JSON(similar),
		IsPremium:         isPremium,
		MathematicalScore: rating.MathematicalScore,
		AIScore:           rating.AIScore,
		AIReason:          rating.AIReason,
	}

	saved, err := ss.problemRepo.Upsert(ctx, nil, problem)
	if err != nil {
		return nil, err
	}
	ss.log.Info("Problem data synced", "title_slug", titleSlug, "question_id", questionID)
	return saved, nil
}

// SyncUser refreshes one user via five independent upstream fetches issued
// concurrently. Each failed fetch defaults its blob to an empty object; the
// row is always written so staleness tracking has something to hang on to.
func (ss *syncService) SyncUser(ctx context.Context, username string, force bool) (*types.User, error) {
	if !force {
		stale, err := ss.userRepo.IsStale(ctx, nil, username, UserMaxAge)
		if err != nil {
			return nil, err
		}
		if !stale {
			existing, err := ss.userRepo.GetByUsername(ctx, nil, username)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return existing, nil
			}
		}
	}

	ss.log.Info("Syncing user data", "username", username)

	fetches := []struct {
		name string
		call func(context.Context, string) (json.RawMessage, error)
	}{
		{"profile", ss.api.Profile},
		{"solved", ss.api.Solved},
		{"contest", ss.api.Contest},
		{"language_stats", ss.api.LanguageStats},
		{"skill_stats", ss.api.SkillStats},
	}

	blobs := make([]datatypes.JSON, len(fetches))
	var wg sync.WaitGroup
	for i := range fetches {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := fetches[i].call(ctx, username)
			if err != nil {
				ss.log.Warn("User data fetch failed, defaulting to empty", "username", username, "blob", fetches[i].name, "error", err)
				blobs[i] = types.EmptyBlob
				return
			}
			blobs[i] = datatypes.JSON(raw)
		}(i)
	}
	wg.Wait()

	user := &types.User{
		Username:       username,
		ProfileData:    blobs[0],
		SolvedProblems: blobs[1],
		ContestData:    blobs[2],
		LanguageStats:  blobs[3],
		SkillStats:     blobs[4],
	}

	saved, err := ss.userRepo.Upsert(ctx, nil, user)
	if err != nil {
		ss.log.Error("User sync write failed", "username", username, "error", err)
		existing, getErr := ss.userRepo.GetByUsername(ctx, nil, username)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	ss.log.Info("User data synced", "username", username)
	return saved, nil
}

// SyncBatch processes identifiers in fixed-size chunks, concurrent within a
// chunk and sequential between chunks with a pause, to stay under upstream
// rate limits. Failed items are excluded, never fatal.
func (ss *syncService) SyncBatch(ctx context.Context, identifiers []string, batchSize int, delay time.Duration) ([]*types.Problem, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if delay <= 0 {
		delay = DefaultBatchDelay
	}

	var mu sync.Mutex
	results := make([]*types.Problem, 0, len(identifiers))

	for start := 0; start < len(identifiers); start += batchSize {
		end := start + batchSize
		if end > len(identifiers) {
			end = len(identifiers)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, identifier := range identifiers[start:end] {
			identifier := identifier
			g.Go(func() error {
				problem, err := ss.SyncProblem(gctx, identifier, false)
				if err != nil || problem == nil {
					ss.log.Warn("Batch item sync failed, skipping", "identifier", identifier, "error", err)
					return nil
				}
				mu.Lock()
				results = append(results, problem)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if end < len(identifiers) {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return results, nil
}

// SyncDaily fetches the daily problem and force-syncs it into the store when
// the payload names a slug.
func (ss *syncService) SyncDaily(ctx context.Context) (*leetcode.DailyProblem, error) {
	ss.log.Info("Syncing daily problem")
	daily, err := ss.api.Daily(ctx)
	if err != nil {
		return nil, err
	}
	if daily.QuestionTitleSlug != "" {
		if _, err := ss.SyncProblem(ctx, daily.QuestionTitleSlug, true); err != nil {
			ss.log.Warn("Daily problem sync failed", "title_slug", daily.QuestionTitleSlug, "error", err)
		}
	}
	return daily, nil
}

func entryLikes(e *leetcode.ProblemListEntry) int {
	if e == nil {
		return 0
	}
	return int(e.Likes)
}

func entryDislikes(e *leetcode.ProblemListEntry) int {
	if e == nil {
		return 0
	}
	return int(e.Dislikes)
}

func entryAcRate(e *leetcode.ProblemListEntry) float64 {
	if e == nil {
		return 0
	}
	return float64(e.AcRate)
}

func entryTotalSubmissions(e *leetcode.ProblemListEntry) int {
	if e == nil {
		return 0
	}
	return firstNonZero(int(e.TotalSubmissions), int(e.TotalSubmitted))
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroFloat(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func dedupeTags(tags []types.TopicTag) []types.TopicTag {
	seen := make(map[string]struct{}, len(tags))
	out := make([]types.TopicTag, 0, len(tags))
	for _, tag := range tags {
		if tag.Name == "" {
			continue
		}
		if _, ok := seen[tag.Name]; ok {
			continue
		}
		seen[tag.Name] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func tagNames(tags []types.TopicTag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}

func mustJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
