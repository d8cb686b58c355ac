package types

import (
	"time"

	"gorm.io/datatypes"
)

// User mirrors one LeetCode account as last fetched from the upstream API.
// Each JSON blob comes from an independent upstream endpoint and defaults to
// an empty object when its fetch fails, so "missing" and "empty" stay
// distinguishable from NULL.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"-"`
	Username       string         `gorm:"uniqueIndex;size:100;not null;column:username" json:"username"`
	ProfileData    datatypes.JSON `gorm:"column:profile_data;type:jsonb" json:"profileData"`
	SolvedProblems datatypes.JSON `gorm:"column:solved_problems;type:jsonb" json:"solvedProblems"`
	ContestData    datatypes.JSON `gorm:"column:contest_data;type:jsonb" json:"contestData"`
	LanguageStats  datatypes.JSON `gorm:"column:language_stats;type:jsonb" json:"languageStats"`
	SkillStats     datatypes.JSON `gorm:"column:skill_stats;type:jsonb" json:"skillStats"`
	LastUpdated    time.Time      `gorm:"not null;index;column:last_updated" json:"lastUpdated"`
	CreatedAt      time.Time      `gorm:"not null;column:created_at" json:"createdAt"`
}

func (User) TableName() string { return "users" }

// EmptyBlob is the stored default for a user sub-document whose fetch failed.
var EmptyBlob = datatypes.JSON([]byte("{}"))
