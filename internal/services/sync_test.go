package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/leetcode"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/repos"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

const problemListFixture = `{
  "problemsetQuestionList": [
    {
      "frontendQuestionId": "1",
      "title": "Two Sum",
      "titleSlug": "two-sum",
      "difficulty": "Easy",
      "likes": 50000,
      "dislikes": 1500,
      "acRate": "52.3%",
      "topicTags": [{"name": "Array", "slug": "array"}, {"name": "Hash Table", "slug": "hash-table"}]
    },
    {
      "frontendQuestionId": "167",
      "title": "Two Sum II",
      "titleSlug": "two-sum-ii",
      "difficulty": "Medium",
      "likes": 8000,
      "dislikes": 900,
      "acRate": 60.1,
      "topicTags": [{"name": "Two Pointers", "slug": "two-pointers"}]
    }
  ]
}`

const twoSumDetailFixture = `{
  "questionId": "1",
  "questionFrontendId": "1",
  "questionTitle": "Two Sum",
  "titleSlug": "two-sum",
  "difficulty": "Easy",
  "likes": 50000,
  "dislikes": 1500,
  "content": "<p>Given an array of integers...</p>",
  "hints": ["Try a hash map."],
  "similarQuestions": [{"titleSlug": "two-sum-ii"}],
  "topicTags": [
    {"name": "Array", "slug": "array"},
    {"name": "Array", "slug": "array"},
    {"name": "Hash Table", "slug": "hash-table"}
  ],
  "isPaidOnly": false
}`

const twoSumIIDetailFixture = `{
  "questionFrontendId": "167",
  "questionTitle": "Two Sum II",
  "titleSlug": "two-sum-ii",
  "difficulty": "Medium",
  "likes": 8000,
  "dislikes": 900,
  "content": "<p>Sorted input this time.</p>",
  "topicTags": [{"name": "Two Pointers", "slug": "two-pointers"}]
}`

// syncTestEnv wires a real upstream client against a fake HTTP API and a
// real repo layer against in-memory SQLite.
type syncTestEnv struct {
	sync        SyncService
	problemRepo repos.ProblemRepo
	userRepo    repos.UserRepo
	listCalls   *atomic.Int32
	detailCalls *atomic.Int32
	failAll     *atomic.Bool
}

func newSyncTestEnv(t *testing.T) *syncTestEnv {
	t.Helper()

	env := &syncTestEnv{
		listCalls:   &atomic.Int32{},
		detailCalls: &atomic.Int32{},
		failAll:     &atomic.Bool{},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.failAll.Load() {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/problems":
			env.listCalls.Add(1)
			w.Write([]byte(problemListFixture))
		case r.URL.Path == "/select":
			env.detailCalls.Add(1)
			switch r.URL.Query().Get("titleSlug") {
			case "two-sum":
				w.Write([]byte(twoSumDetailFixture))
			case "two-sum-ii":
				w.Write([]byte(twoSumIIDetailFixture))
			default:
				http.Error(w, "not found", http.StatusNotFound)
			}
		case r.URL.Path == "/daily":
			w.Write([]byte(`{"questionTitleSlug": "two-sum", "date": "2024-06-01"}`))
		case r.URL.Path == "/alice":
			w.Write([]byte(`{"ranking": 12345, "totalSolved": 321}`))
		case r.URL.Path == "/alice/solved":
			w.Write([]byte(`{"easySolved": 100, "mediumSolved": 150, "hardSolved": 71}`))
		case r.URL.Path == "/skillStats/alice":
			w.Write([]byte(`{"data": {"matchedUser": {"tagProblemCounts": {}}}}`))
		case r.URL.Path == "/alice/contest", strings.HasPrefix(r.URL.Path, "/languageStats"):
			http.Error(w, "flaky", http.StatusInternalServerError)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("LEETCODE_API_BASE", srv.URL)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	// One connection only: pooled connections each see their own :memory: db.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.Problem{}, &types.User{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	log := logger.NewNop()
	env.problemRepo = repos.NewProblemRepo(db, log)
	env.userRepo = repos.NewUserRepo(db, log)
	rating := NewRatingService(log, nil, nil)
	env.sync = NewSyncService(db, log, env.problemRepo, env.userRepo, leetcode.NewClient(log), rating)
	return env
}

func TestSyncProblem_NeverSeenSlug(t *testing.T) {
	env := newSyncTestEnv(t)
	ctx := context.Background()

	problem, err := env.sync.SyncProblem(ctx, "two-sum", false)
	if err != nil {
		t.Fatalf("SyncProblem: %v", err)
	}

	if problem.QuestionID != 1 || problem.TitleSlug != "two-sum" {
		t.Fatalf("wrong identity: %+v", problem)
	}
	if problem.Likes != 50000 || problem.Dislikes != 1500 {
		t.Fatalf("engagement not captured: likes=%d dislikes=%d", problem.Likes, problem.Dislikes)
	}
	if problem.AcceptanceRate != 52.3 {
		t.Fatalf("percent-string acceptance rate not parsed: %v", problem.AcceptanceRate)
	}
	if problem.MathematicalScore < 1.0 || problem.MathematicalScore > 5.0 {
		t.Fatalf("score out of bounds: %v", problem.MathematicalScore)
	}
	if problem.AIScore != problem.MathematicalScore {
		t.Fatalf("without an AI client both scores should match: %v vs %v", problem.AIScore, problem.MathematicalScore)
	}
	if problem.AIReason != "AI unavailable - using mathematical score" {
		t.Fatalf("unexpected AI reason %q", problem.AIReason)
	}
	if !problem.CreatedAt.Equal(problem.LastUpdated) {
		t.Fatalf("first sync should have created_at == last_updated: %v vs %v", problem.CreatedAt, problem.LastUpdated)
	}

	// Duplicate upstream tags must collapse to one entry each.
	tags := problem.TagNames()
	if len(tags) != 2 || tags[0] != "Array" || tags[1] != "Hash Table" {
		t.Fatalf("tags not deduplicated: %v", tags)
	}
}

func TestSyncProblem_SecondCallServesStore(t *testing.T) {
	env := newSyncTestEnv(t)
	ctx := context.Background()

	if _, err := env.sync.SyncProblem(ctx, "two-sum", false); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	detailsBefore := env.detailCalls.Load()

	problem, err := env.sync.SyncProblem(ctx, "two-sum", false)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if problem == nil || problem.QuestionID != 1 {
		t.Fatalf("second call should serve the stored row, got %+v", problem)
	}
	if env.detailCalls.Load() != detailsBefore {
		t.Fatal("fresh problem should not trigger an upstream fetch")
	}
}

func TestSyncProblem_NumericIdentifierResolvesSlug(t *testing.T) {
	env := newSyncTestEnv(t)

	problem, err := env.sync.SyncProblem(context.Background(), "167", false)
	if err != nil {
		t.Fatalf("SyncProblem by number: %v", err)
	}
	if problem.TitleSlug != "two-sum-ii" || problem.QuestionID != 167 {
		t.Fatalf("numeric id resolved wrong: %+v", problem)
	}
}

func TestSyncProblem_UnknownIdentifiers(t *testing.T) {
	env := newSyncTestEnv(t)
	ctx := context.Background()

	if _, err := env.sync.SyncProblem(ctx, "999", false); err == nil {
		t.Fatal("unknown number with empty store should fail")
	}
	if _, err := env.sync.SyncProblem(ctx, "no-such-slug", false); err == nil {
		t.Fatal("unknown slug with empty store should fail")
	}
}

func TestSyncProblem_UpstreamDownServesStored(t *testing.T) {
	env := newSyncTestEnv(t)
	ctx := context.Background()

	stored, err := env.sync.SyncProblem(ctx, "two-sum", false)
	if err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	env.failAll.Store(true)

	problem, err := env.sync.SyncProblem(ctx, "two-sum", true)
	if err != nil {
		t.Fatalf("forced resync with upstream down should degrade, got %v", err)
	}
	if problem.QuestionID != stored.QuestionID || problem.Likes != stored.Likes {
		t.Fatalf("should serve the stored row unchanged, got %+v", problem)
	}
}

func TestSyncUser_PartialFailure(t *testing.T) {
	env := newSyncTestEnv(t)

	user, err := env.sync.SyncUser(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("SyncUser: %v", err)
	}

	if !strings.Contains(string(user.ProfileData), "12345") {
		t.Fatalf("profile blob missing: %s", user.ProfileData)
	}
	if !strings.Contains(string(user.SolvedProblems), "easySolved") {
		t.Fatalf("solved blob missing: %s", user.SolvedProblems)
	}
	if string(user.ContestData) != "{}" {
		t.Fatalf("failed contest fetch should write empty object, got %s", user.ContestData)
	}
	if string(user.LanguageStats) != "{}" {
		t.Fatalf("failed language fetch should write empty object, got %s", user.LanguageStats)
	}
	if !strings.Contains(string(user.SkillStats), "tagProblemCounts") {
		t.Fatalf("skill blob missing: %s", user.SkillStats)
	}
}

func TestSyncUser_AllFailedStillWritesRow(t *testing.T) {
	env := newSyncTestEnv(t)
	env.failAll.Store(true)

	user, err := env.sync.SyncUser(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("SyncUser with upstream down: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("row should exist even when every fetch failed: %+v", user)
	}
	if string(user.ProfileData) != "{}" {
		t.Fatalf("all blobs should default empty, got %s", user.ProfileData)
	}

	stored, err := env.userRepo.GetByUsername(context.Background(), nil, "alice")
	if err != nil || stored == nil {
		t.Fatalf("row not persisted: %v", err)
	}
}

func TestSyncBatch_SkipsFailures(t *testing.T) {
	env := newSyncTestEnv(t)

	results, err := env.sync.SyncBatch(context.Background(), []string{"two-sum", "no-such-slug", "two-sum-ii"}, 5, time.Millisecond)
	if err != nil {
		t.Fatalf("SyncBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("failed item should be excluded, not fatal: got %d results", len(results))
	}
	for _, p := range results {
		if p.TitleSlug != "two-sum" && p.TitleSlug != "two-sum-ii" {
			t.Fatalf("unexpected result %q", p.TitleSlug)
		}
	}
}

func TestSyncDaily_StoresNamedProblem(t *testing.T) {
	env := newSyncTestEnv(t)
	ctx := context.Background()

	daily, err := env.sync.SyncDaily(ctx)
	if err != nil {
		t.Fatalf("SyncDaily: %v", err)
	}
	if daily.QuestionTitleSlug != "two-sum" {
		t.Fatalf("daily slug wrong: %q", daily.QuestionTitleSlug)
	}
	if !strings.Contains(string(daily.Raw), "2024-06-01") {
		t.Fatalf("raw payload should pass through: %s", daily.Raw)
	}

	stored, err := env.problemRepo.GetBySlug(ctx, nil, "two-sum")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if stored == nil {
		t.Fatal("daily problem should be force-synced into the store")
	}
}
