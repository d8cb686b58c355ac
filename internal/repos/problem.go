package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Yashraj8888/Leetcode-Companion/internal/apierr"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

// DefaultMaxQuestionID is the fallback ceiling used by the age component of
// the scoring formula when the store is empty.
const DefaultMaxQuestionID = 3000

type ProblemFilter struct {
	Difficulty string
	Tags       []string
	MinScore   *float64
	MaxScore   *float64
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

type ProblemStats struct {
	TotalQuestions int     `json:"totalQuestions"`
	EasyCount      int     `json:"easyCount"`
	MediumCount    int     `json:"mediumCount"`
	HardCount      int     `json:"hardCount"`
	AvgMathScore   float64 `json:"avgMathScore"`
	AvgAIScore     float64 `json:"avgAiScore"`
}

type ProblemRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, questionID int) (*types.Problem, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, titleSlug string) (*types.Problem, error)
	Upsert(ctx context.Context, tx *gorm.DB, problem *types.Problem) (*types.Problem, error)
	IsStale(ctx context.Context, tx *gorm.DB, questionID int, maxAge time.Duration) (bool, error)
	MaxQuestionID(ctx context.Context, tx *gorm.DB) (int, error)
	Search(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Problem, error)
	List(ctx context.Context, tx *gorm.DB, filter ProblemFilter) ([]*types.Problem, error)
	FindSimilar(ctx context.Context, tx *gorm.DB, questionID int, limit int) ([]*types.Problem, error)
	Stats(ctx context.Context, tx *gorm.DB) (*ProblemStats, error)
}

type problemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProblemRepo(db *gorm.DB, baseLog *logger.Logger) ProblemRepo {
	repoLog := baseLog.With("repo", "ProblemRepo")
	return &problemRepo{db: db, log: repoLog}
}

// upsertColumns are the columns overwritten on conflict. created_at is
// deliberately excluded: a re-sync replaces the record but keeps its origin.
var upsertColumns = []string{
	"title_slug", "title", "difficulty", "likes", "dislikes",
	"acceptance_rate", "total_submissions", "tags", "topic_tags", "content",
	"hints", "similar_questions", "is_premium", "mathematical_score",
	"ai_score", "ai_reason", "last_updated",
}

func (pr *problemRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return pr.db
}

func (pr *problemRepo) GetByID(ctx context.Context, tx *gorm.DB, questionID int) (*types.Problem, error) {
	var problem types.Problem
	err := pr.conn(tx).WithContext(ctx).
		Where("question_id = ?", questionID).
		First(&problem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("fetching problem %d: %w", questionID, err))
	}
	return &problem, nil
}

func (pr *problemRepo) GetBySlug(ctx context.Context, tx *gorm.DB, titleSlug string) (*types.Problem, error) {
	var problem types.Problem
	err := pr.conn(tx).WithContext(ctx).
		Where("title_slug = ?", titleSlug).
		First(&problem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("fetching problem %q: %w", titleSlug, err))
	}
	return &problem, nil
}

func (pr *problemRepo) Upsert(ctx context.Context, tx *gorm.DB, problem *types.Problem) (*types.Problem, error) {
	if problem == nil {
		return nil, apierr.BadRequest(errors.New("no problem given"))
	}
	now := time.Now().UTC()
	problem.LastUpdated = now
	if problem.CreatedAt.IsZero() {
		problem.CreatedAt = now
	}

	err := pr.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(problem).Error
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("upserting problem %d: %w", problem.QuestionID, err))
	}

	// Re-read so the caller always sees the stored row, including the
	// original created_at when the write was an update.
	return pr.GetByID(ctx, tx, problem.QuestionID)
}

func (pr *problemRepo) IsStale(ctx context.Context, tx *gorm.DB, questionID int, maxAge time.Duration) (bool, error) {
	var lastUpdated time.Time
	err := pr.conn(tx).WithContext(ctx).
		Model(&types.Problem{}).
		Where("question_id = ?", questionID).
		Select("last_updated").
		Take(&lastUpdated).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, apierr.Storage(fmt.Errorf("checking staleness of problem %d: %w", questionID, err))
	}
	return time.Since(lastUpdated) > maxAge, nil
}

func (pr *problemRepo) MaxQuestionID(ctx context.Context, tx *gorm.DB) (int, error) {
	var maxID sql.NullInt64
	err := pr.conn(tx).WithContext(ctx).
		Model(&types.Problem{}).
		Select("MAX(question_id)").
		Take(&maxID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apierr.Storage(fmt.Errorf("fetching max question id: %w", err))
	}
	if !maxID.Valid || maxID.Int64 == 0 {
		return DefaultMaxQuestionID, nil
	}
	return int(maxID.Int64), nil
}

func (pr *problemRepo) Search(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Problem, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + strings.ToLower(query) + "%"

	var results []*types.Problem
	err := pr.conn(tx).WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(title_slug) LIKE ?", pattern, pattern).
		Order("mathematical_score DESC, question_id ASC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("searching problems: %w", err))
	}
	return results, nil
}

// sortColumns whitelists user-facing sort keys. Anything else falls back to
// question_id so request parameters never reach the ORDER BY clause raw.
var sortColumns = map[string]string{
	"question_id":        "question_id",
	"title":              "title",
	"difficulty":         "difficulty",
	"likes":              "likes",
	"dislikes":           "dislikes",
	"acceptance_rate":    "acceptance_rate",
	"total_submissions":  "total_submissions",
	"mathematical_score": "mathematical_score",
	"ai_score":           "ai_score",
	"last_updated":       "last_updated",
	"created_at":         "created_at",
}

func (pr *problemRepo) List(ctx context.Context, tx *gorm.DB, filter ProblemFilter) ([]*types.Problem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := pr.conn(tx).WithContext(ctx).Model(&types.Problem{})

	if filter.Difficulty != "" {
		q = q.Where("LOWER(difficulty) = ?", strings.ToLower(filter.Difficulty))
	}
	if len(filter.Tags) > 0 {
		conds := make([]string, 0, len(filter.Tags))
		args := make([]interface{}, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			if tag == "" {
				continue
			}
			conds = append(conds, "LOWER(CAST(topic_tags AS TEXT)) LIKE ?")
			args = append(args, "%"+strings.ToLower(tag)+"%")
		}
		if len(conds) > 0 {
			q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
	}
	if filter.MinScore != nil {
		q = q.Where("mathematical_score >= ?", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		q = q.Where("mathematical_score <= ?", *filter.MaxScore)
	}

	sortBy, ok := sortColumns[strings.ToLower(filter.SortBy)]
	if !ok {
		sortBy = "question_id"
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		order = "DESC"
	}

	var results []*types.Problem
	err := q.Order(fmt.Sprintf("%s %s, question_id ASC", sortBy, order)).
		Limit(limit).
		Offset(filter.Offset).
		Find(&results).Error
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("listing problems: %w", err))
	}
	return results, nil
}

func (pr *problemRepo) FindSimilar(ctx context.Context, tx *gorm.DB, questionID int, limit int) ([]*types.Problem, error) {
	if limit <= 0 {
		limit = 5
	}

	subject, err := pr.GetByID(ctx, tx, questionID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return []*types.Problem{}, nil
	}

	tags := subject.TagNames()
	if len(tags) == 0 {
		return []*types.Problem{}, nil
	}

	// Disjunctive substring match over the serialized tag list, one bound
	// parameter per tag. Matches the original semantics without interpolating
	// tag names into the statement.
	conds := make([]string, 0, len(tags))
	args := make([]interface{}, 0, len(tags))
	for _, tag := range tags {
		conds = append(conds, "LOWER(CAST(topic_tags AS TEXT)) LIKE ?")
		args = append(args, "%"+strings.ToLower(tag)+"%")
	}

	var results []*types.Problem
	err = pr.conn(tx).WithContext(ctx).
		Model(&types.Problem{}).
		Select("*, CASE WHEN difficulty = ? THEN 2 ELSE 1 END AS difficulty_bonus", subject.Difficulty).
		Where("question_id <> ?", questionID).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("difficulty_bonus DESC, mathematical_score DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("finding similar problems for %d: %w", questionID, err))
	}
	return results, nil
}

func (pr *problemRepo) Stats(ctx context.Context, tx *gorm.DB) (*ProblemStats, error) {
	var stats ProblemStats
	err := pr.conn(tx).WithContext(ctx).
		Model(&types.Problem{}).
		Select(`
			COUNT(*) AS total_questions,
			COUNT(CASE WHEN difficulty = 'Easy' THEN 1 END) AS easy_count,
			COUNT(CASE WHEN difficulty = 'Medium' THEN 1 END) AS medium_count,
			COUNT(CASE WHEN difficulty = 'Hard' THEN 1 END) AS hard_count,
			COALESCE(AVG(mathematical_score), 0) AS avg_math_score,
			COALESCE(AVG(ai_score), 0) AS avg_ai_score`).
		Take(&stats).Error
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("fetching problem stats: %w", err))
	}
	return &stats, nil
}
