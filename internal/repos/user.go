package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Yashraj8888/Leetcode-Companion/internal/apierr"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

type UserRepo interface {
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error)
	Upsert(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
	IsStale(ctx context.Context, tx *gorm.DB, username string, maxAge time.Duration) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
	var user types.User
	err := ur.conn(tx).WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("fetching user %q: %w", username, err))
	}
	return &user, nil
}

func (ur *userRepo) Upsert(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if user == nil {
		return nil, apierr.BadRequest(errors.New("no user given"))
	}
	now := time.Now().UTC()
	user.LastUpdated = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	// Blobs never persist as NULL: a failed fetch writes an empty object so
	// later reads can tell "fetched nothing" from "never fetched".
	if len(user.ProfileData) == 0 {
		user.ProfileData = types.EmptyBlob
	}
	if len(user.SolvedProblems) == 0 {
		user.SolvedProblems = types.EmptyBlob
	}
	if len(user.ContestData) == 0 {
		user.ContestData = types.EmptyBlob
	}
	if len(user.LanguageStats) == 0 {
		user.LanguageStats = types.EmptyBlob
	}
	if len(user.SkillStats) == 0 {
		user.SkillStats = types.EmptyBlob
	}

	err := ur.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"profile_data", "solved_problems", "contest_data",
				"language_stats", "skill_stats", "last_updated",
			}),
		}).
		Create(user).Error
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("upserting user %q: %w", user.Username, err))
	}

	return ur.GetByUsername(ctx, tx, user.Username)
}

func (ur *userRepo) IsStale(ctx context.Context, tx *gorm.DB, username string, maxAge time.Duration) (bool, error) {
	var lastUpdated time.Time
	err := ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("username = ?", username).
		Select("last_updated").
		Take(&lastUpdated).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, apierr.Storage(fmt.Errorf("checking staleness of user %q: %w", username, err))
	}
	return time.Since(lastUpdated) > maxAge, nil
}
