package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/Yashraj8888/Leetcode-Companion/internal/apierr"
	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/leetcode"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

// userStubSync hands back a canned user row.
type userStubSync struct {
	stubSync
	user *types.User
}

func (s *userStubSync) SyncUser(ctx context.Context, username string, force bool) (*types.User, error) {
	return s.user, nil
}

// userStubAPI extends stubAPI with a user profile response.
type userStubAPI struct {
	stubAPI
	profile     json.RawMessage
	profileErr  error
	submissions json.RawMessage
}

func (s *userStubAPI) UserProfile(ctx context.Context, username string) (json.RawMessage, error) {
	return s.profile, s.profileErr
}

func (s *userStubAPI) Submissions(ctx context.Context, username string, limit int) (json.RawMessage, error) {
	return s.submissions, nil
}

func storedUser() *types.User {
	return &types.User{
		Username:       "alice",
		ProfileData:    datatypes.JSON(`{"ranking": 99999, "totalSolved": 10}`),
		SolvedProblems: datatypes.JSON(`{"easySolved": 5, "mediumSolved": 3, "hardSolved": 1}`),
		ContestData:    datatypes.JSON(`{"contestRating": 1600}`),
		LanguageStats:  datatypes.JSON(`{"matchedUser": {"languageProblemCount": []}}`),
		SkillStats:     types.EmptyBlob,
		LastUpdated:    time.Now(),
	}
}

func TestUserProfile_PrefersFreshData(t *testing.T) {
	api := &userStubAPI{
		stubAPI: stubAPI{skillStats: json.RawMessage(skillStatsFixture2)},
		profile: json.RawMessage(`{"solvedProblem": 321, "globalRanking": 12, "contributionPoint": 7}`),
	}
	svc := NewUserService(logger.NewNop(), &userStubSync{user: storedUser()}, api)

	profile, err := svc.Profile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if profile["totalSolved"] != float64(321) {
		t.Errorf("solvedProblem should normalize to totalSolved, got %v", profile["totalSolved"])
	}
	if profile["ranking"] != float64(12) {
		t.Errorf("globalRanking should normalize to ranking, got %v", profile["ranking"])
	}
	if profile["contributionPoints"] != float64(7) {
		t.Errorf("contributionPoint should normalize, got %v", profile["contributionPoints"])
	}
	skills, ok := profile["skills"].([]string)
	if !ok || len(skills) != 1 || skills[0] != "Array" {
		t.Errorf("skills not flattened: %v", profile["skills"])
	}
}

func TestUserProfile_FallsBackToStored(t *testing.T) {
	api := &userStubAPI{
		stubAPI:    stubAPI{skillErr: errors.New("down")},
		profileErr: errors.New("down"),
	}
	svc := NewUserService(logger.NewNop(), &userStubSync{user: storedUser()}, api)

	profile, err := svc.Profile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile["totalSolved"] != float64(10) {
		t.Errorf("stored totalSolved should survive, got %v", profile["totalSolved"])
	}
	if profile["ranking"] != float64(99999) {
		t.Errorf("stored ranking should survive, got %v", profile["ranking"])
	}
}

func TestUserSolved_FreshAndFallback(t *testing.T) {
	t.Run("fresh", func(t *testing.T) {
		api := &userStubAPI{
			profile: json.RawMessage(`{"easySolved": 100, "mediumSolved": 150, "hardSolved": 71, "totalEasy": 830, "totalMedium": 1750, "totalHard": 760}`),
		}
		svc := NewUserService(logger.NewNop(), &userStubSync{user: storedUser()}, api)

		solved, err := svc.Solved(context.Background(), "alice")
		if err != nil {
			t.Fatalf("Solved: %v", err)
		}
		if solved["easySolved"] != float64(100) || solved["totalHard"] != float64(760) {
			t.Fatalf("fresh solved data not used: %v", solved)
		}
	})

	t.Run("fallback with default totals", func(t *testing.T) {
		api := &userStubAPI{profileErr: errors.New("down")}
		svc := NewUserService(logger.NewNop(), &userStubSync{user: storedUser()}, api)

		solved, err := svc.Solved(context.Background(), "alice")
		if err != nil {
			t.Fatalf("Solved: %v", err)
		}
		if solved["easySolved"] != float64(5) {
			t.Errorf("stored solved counts should survive: %v", solved["easySolved"])
		}
		if solved["totalEasy"] != float64(800) || solved["totalMedium"] != float64(1700) || solved["totalHard"] != float64(700) {
			t.Errorf("missing totals should use defaults: %v", solved)
		}
		if _, ok := solved["recentSubmissions"]; !ok {
			t.Error("recentSubmissions should always be present")
		}
	})
}

func TestUserContest_ServesStoredBlob(t *testing.T) {
	svc := NewUserService(logger.NewNop(), &userStubSync{user: storedUser()}, &userStubAPI{})

	contest, err := svc.Contest(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Contest: %v", err)
	}
	if string(contest) != `{"contestRating": 1600}` {
		t.Fatalf("stored contest blob should pass through, got %s", contest)
	}
}

func TestUserSkillStats_EstimatesTagTotals(t *testing.T) {
	api := &userStubAPI{stubAPI: stubAPI{skillStats: json.RawMessage(skillStatsFixture2)}}
	svc := NewUserService(logger.NewNop(), &userStubSync{user: storedUser()}, api)

	stats, err := svc.SkillStats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("SkillStats: %v", err)
	}
	entries, ok := stats["data"].([]types.SkillEntry)
	if !ok || len(entries) != 1 {
		t.Fatalf("unexpected skill data: %v", stats["data"])
	}
	// Problem list is unreachable; total falls back to max(3*solved, 50).
	if entries[0].TagProblemsCount != 120 {
		t.Fatalf("tag total should estimate 3*40=120, got %d", entries[0].TagProblemsCount)
	}
}

func TestUserSkillStats_MinimumEstimate(t *testing.T) {
	raw := `{"data": {"matchedUser": {"tagProblemCounts": {"fundamental": [{"tagName": "Trie", "tagSlug": "trie", "problemsSolved": 2}]}}}}`
	api := &userStubAPI{stubAPI: stubAPI{skillStats: json.RawMessage(raw)}}
	svc := NewUserService(logger.NewNop(), &userStubSync{user: storedUser()}, api)

	stats, err := svc.SkillStats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("SkillStats: %v", err)
	}
	entries := stats["data"].([]types.SkillEntry)
	if entries[0].TagProblemsCount != 50 {
		t.Fatalf("estimate should floor at 50, got %d", entries[0].TagProblemsCount)
	}
}

func TestUserService_AbsentUser(t *testing.T) {
	svc := NewUserService(logger.NewNop(), &userStubSync{user: nil}, &userStubAPI{})

	_, err := svc.Profile(context.Background(), "ghost")
	if !apierr.IsNotFound(err) {
		t.Fatalf("absent user should be not_found, got %v", err)
	}
}

const skillStatsFixture2 = `{
  "data": {
    "matchedUser": {
      "tagProblemCounts": {
        "fundamental": [{"tagName": "Array", "tagSlug": "array", "problemsSolved": 40}]
      }
    }
  }
}`

var _ leetcode.Client = (*userStubAPI)(nil)
