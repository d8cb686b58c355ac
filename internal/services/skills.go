package services

import (
	"encoding/json"

	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

// skillStatsPayload is the upstream shape of the skill-stats endpoint. Only
// the fields the flattening depends on are declared.
type skillStatsPayload struct {
	Data struct {
		MatchedUser struct {
			TagProblemCounts struct {
				Fundamental  []skillStatsEntry `json:"fundamental"`
				Intermediate []skillStatsEntry `json:"intermediate"`
				Advanced     []skillStatsEntry `json:"advanced"`
			} `json:"tagProblemCounts"`
		} `json:"matchedUser"`
	} `json:"data"`
}

type skillStatsEntry struct {
	TagName        string `json:"tagName"`
	TagSlug        string `json:"tagSlug"`
	ProblemsSolved int    `json:"problemsSolved"`
}

// flattenSkillStats combines the three upstream skill buckets into one list,
// each entry annotated with the bucket it came from.
func flattenSkillStats(raw json.RawMessage) []types.SkillEntry {
	var payload skillStatsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	counts := payload.Data.MatchedUser.TagProblemCounts

	out := make([]types.SkillEntry, 0, len(counts.Fundamental)+len(counts.Intermediate)+len(counts.Advanced))
	appendLevel := func(entries []skillStatsEntry, level string) {
		for _, e := range entries {
			out = append(out, types.SkillEntry{
				TagName:        e.TagName,
				TagSlug:        e.TagSlug,
				ProblemsSolved: e.ProblemsSolved,
				Level:          level,
			})
		}
	}
	appendLevel(counts.Fundamental, "fundamental")
	appendLevel(counts.Intermediate, "intermediate")
	appendLevel(counts.Advanced, "advanced")
	return out
}

// overallSkillLevel classifies a flattened skill list: any advanced entry
// wins, then intermediate, then beginner.
func overallSkillLevel(skills []types.SkillEntry) string {
	if len(skills) == 0 {
		return "Beginner"
	}
	hasIntermediate := false
	for _, s := range skills {
		switch s.Level {
		case "advanced":
			return "Advanced"
		case "intermediate":
			hasIntermediate = true
		}
	}
	if hasIntermediate {
		return "Intermediate"
	}
	return "Beginner"
}
