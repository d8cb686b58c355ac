package services

import (
	"context"
	"encoding/json"

	"github.com/Yashraj8888/Leetcode-Companion/internal/apierr"
	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/leetcode"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

// UserService shapes stored user data and fresh upstream fetches into the
// payloads the client expects. Fresh data is preferred when reachable; the
// stored blobs are the fallback.
type UserService interface {
	Profile(ctx context.Context, username string) (map[string]interface{}, error)
	Solved(ctx context.Context, username string) (map[string]interface{}, error)
	Submissions(ctx context.Context, username string, limit int) (json.RawMessage, error)
	Contest(ctx context.Context, username string) (json.RawMessage, error)
	LanguageStats(ctx context.Context, username string) (json.RawMessage, error)
	SkillStats(ctx context.Context, username string) (map[string]interface{}, error)
}

type userService struct {
	log         *logger.Logger
	syncService SyncService
	api         leetcode.Client
}

func NewUserService(log *logger.Logger, syncService SyncService, api leetcode.Client) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{log: serviceLog, syncService: syncService, api: api}
}

func decodeObject(raw json.RawMessage) map[string]interface{} {
	out := map[string]interface{}{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func numberOr(m map[string]interface{}, fallback float64, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := m[key].(float64); ok && v != 0 {
			return v
		}
	}
	return fallback
}

func (us *userService) Profile(ctx context.Context, username string) (map[string]interface{}, error) {
	user, err := us.syncService.SyncUser(ctx, username, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.NotFoundf("user %q not found", username)
	}

	profile := decodeObject(json.RawMessage(user.ProfileData))
	if fresh, err := us.api.UserProfile(ctx, username); err == nil {
		profile = decodeObject(fresh)
	} else {
		us.log.Debug("Could not fetch fresh profile data, using stored data", "username", username, "error", err)
	}

	var skills []types.SkillEntry
	if raw, err := us.api.SkillStats(ctx, username); err == nil {
		skills = flattenSkillStats(raw)
	} else {
		us.log.Debug("Could not fetch skills data", "username", username, "error", err)
	}

	profile["totalSolved"] = numberOr(profile, 0, "totalSolved", "solvedProblem")
	if _, ok := profile["ranking"]; !ok {
		profile["ranking"] = numberOr(profile, 0, "globalRanking")
	}
	profile["contributionPoints"] = numberOr(profile, 0, "contributionPoints", "contributionPoint")
	profile["reputation"] = numberOr(profile, 0, "reputation")

	skillNames := make([]string, 0, len(skills))
	topicTags := make([]map[string]interface{}, 0, len(skills))
	for _, skill := range skills {
		skillNames = append(skillNames, skill.TagName)
		topicTags = append(topicTags, map[string]interface{}{
			"name":  skill.TagName,
			"slug":  skill.TagSlug,
			"count": skill.ProblemsSolved,
			"level": skill.Level,
		})
	}
	profile["skills"] = skillNames
	profile["topicTags"] = topicTags

	return profile, nil
}

// solvedTotalDefaults are rough per-difficulty problem counts used when the
// fresh profile endpoint is unreachable and the stored blob lacks totals.
var solvedTotalDefaults = map[string]float64{
	"totalEasy":   800,
	"totalMedium": 1700,
	"totalHard":   700,
}

func (us *userService) Solved(ctx context.Context, username string) (map[string]interface{}, error) {
	user, err := us.syncService.SyncUser(ctx, username, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.NotFoundf("user solved problems not found for %q", username)
	}

	if fresh, err := us.api.UserProfile(ctx, username); err == nil {
		profile := decodeObject(fresh)
		solved := map[string]interface{}{
			"easySolved":   numberOr(profile, 0, "easySolved"),
			"mediumSolved": numberOr(profile, 0, "mediumSolved"),
			"hardSolved":   numberOr(profile, 0, "hardSolved"),
			"totalEasy":    numberOr(profile, 0, "totalEasy"),
			"totalMedium":  numberOr(profile, 0, "totalMedium"),
			"totalHard":    numberOr(profile, 0, "totalHard"),
		}
		if recent, ok := profile["recentSubmissions"]; ok {
			solved["recentSubmissions"] = recent
		} else {
			solved["recentSubmissions"] = []interface{}{}
		}
		return solved, nil
	}

	us.log.Debug("Could not fetch fresh solved data, using stored data", "username", username)
	stored := decodeObject(json.RawMessage(user.SolvedProblems))
	solved := map[string]interface{}{
		"easySolved":   numberOr(stored, 0, "easySolved"),
		"mediumSolved": numberOr(stored, 0, "mediumSolved"),
		"hardSolved":   numberOr(stored, 0, "hardSolved"),
	}
	for key, fallback := range solvedTotalDefaults {
		solved[key] = numberOr(stored, fallback, key)
	}
	if recent, ok := stored["recentSubmissions"]; ok {
		solved["recentSubmissions"] = recent
	} else {
		solved["recentSubmissions"] = []interface{}{}
	}
	return solved, nil
}

func (us *userService) Submissions(ctx context.Context, username string, limit int) (json.RawMessage, error) {
	return us.api.Submissions(ctx, username, limit)
}

func (us *userService) Contest(ctx context.Context, username string) (json.RawMessage, error) {
	user, err := us.syncService.SyncUser(ctx, username, false)
	if err != nil {
		return nil, err
	}
	if user == nil || len(user.ContestData) == 0 {
		return nil, apierr.NotFoundf("user contest info not found for %q", username)
	}
	return json.RawMessage(user.ContestData), nil
}

func (us *userService) LanguageStats(ctx context.Context, username string) (json.RawMessage, error) {
	user, err := us.syncService.SyncUser(ctx, username, false)
	if err != nil {
		return nil, err
	}
	if user == nil || len(user.LanguageStats) == 0 {
		return nil, apierr.NotFoundf("user language stats not found for %q", username)
	}
	return json.RawMessage(user.LanguageStats), nil
}

func (us *userService) SkillStats(ctx context.Context, username string) (map[string]interface{}, error) {
	var skills []types.SkillEntry
	raw, err := us.api.SkillStats(ctx, username)
	if err != nil {
		us.log.Debug("Could not fetch fresh skills data, trying stored data", "username", username, "error", err)
		user, syncErr := us.syncService.SyncUser(ctx, username, false)
		if syncErr != nil {
			return nil, syncErr
		}
		if user == nil || len(user.SkillStats) == 0 {
			return nil, apierr.NotFoundf("user skill stats not found for %q", username)
		}
		skills = flattenSkillStats(json.RawMessage(user.SkillStats))
	} else {
		skills = flattenSkillStats(raw)
	}

	// Tag totals come from the problem list; when it is unreachable the total
	// is estimated from the user's own solve count.
	tagTotals := map[string]int{}
	if entries, err := us.api.ProblemList(ctx, 3000); err == nil {
		for _, entry := range entries {
			for _, tag := range entry.TopicTags {
				tagTotals[tag.Name]++
			}
		}
	} else {
		us.log.Debug("Could not fetch problems for tag counts, using estimates", "error", err)
	}

	data := make([]types.SkillEntry, 0, len(skills))
	for _, skill := range skills {
		total, ok := tagTotals[skill.TagName]
		if !ok || total == 0 {
			total = skill.ProblemsSolved * 3
			if total < 50 {
				total = 50
			}
		}
		skill.TagProblemsCount = total
		data = append(data, skill)
	}

	return map[string]interface{}{"data": data}, nil
}
