package types

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Problem struct {
	ID                uint           `gorm:"primaryKey" json:"-"`
	QuestionID        int            `gorm:"uniqueIndex;not null;column:question_id" json:"questionId"`
	TitleSlug         string         `gorm:"uniqueIndex;size:200;not null;column:title_slug" json:"titleSlug"`
	Title             string         `gorm:"size:500;not null;column:title" json:"title"`
	Difficulty        string         `gorm:"size:20;not null;index;column:difficulty" json:"difficulty"`
	Likes             int            `gorm:"not null;default:0;column:likes" json:"likes"`
	Dislikes          int            `gorm:"not null;default:0;column:dislikes" json:"dislikes"`
	AcceptanceRate    float64        `gorm:"not null;default:0;column:acceptance_rate" json:"acceptanceRate"`
	TotalSubmissions  int            `gorm:"not null;default:0;column:total_submissions" json:"totalSubmissions"`
	Tags              datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags"`
	TopicTags         datatypes.JSON `gorm:"column:topic_tags;type:jsonb" json:"topicTags"`
	Content           string         `gorm:"type:text;column:content" json:"content"`
	Hints             datatypes.JSON `gorm:"column:hints;type:jsonb" json:"hints"`
	SimilarQuestions  datatypes.JSON `gorm:"column:similar_questions;type:jsonb" json:"similarQuestions"`
	IsPremium         bool           `gorm:"not null;default:false;column:is_premium" json:"isPremium"`
	MathematicalScore float64        `gorm:"column:mathematical_score" json:"mathematicalScore"`
	AIScore           float64        `gorm:"column:ai_score" json:"aiScore"`
	AIReason          string         `gorm:"type:text;column:ai_reason" json:"aiReason"`
	LastUpdated       time.Time      `gorm:"not null;index;column:last_updated" json:"lastUpdated"`
	CreatedAt         time.Time      `gorm:"not null;column:created_at" json:"createdAt"`
}

func (Problem) TableName() string { return "problems" }

// TopicTag is the stored shape of one entry in Problem.TopicTags.
type TopicTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TopicTagList decodes the topic_tags column. A malformed or empty column
// decodes to an empty list, never an error: upstream data is untrusted and a
// bad tag list must not poison reads.
func (p *Problem) TopicTagList() []TopicTag {
	if len(p.TopicTags) == 0 {
		return []TopicTag{}
	}
	var tags []TopicTag
	if err := json.Unmarshal(p.TopicTags, &tags); err != nil {
		return []TopicTag{}
	}
	return tags
}

// TagNames returns the tag names of TopicTagList, in stored order.
func (p *Problem) TagNames() []string {
	tags := p.TopicTagList()
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

// HintList decodes the hints column, tolerating malformed data.
func (p *Problem) HintList() []string {
	if len(p.Hints) == 0 {
		return []string{}
	}
	var hints []string
	if err := json.Unmarshal(p.Hints, &hints); err != nil {
		return []string{}
	}
	return hints
}
