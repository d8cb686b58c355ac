package leetcode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Yashraj8888/Leetcode-Companion/internal/apierr"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
	"github.com/Yashraj8888/Leetcode-Companion/internal/utils"
)

// Client wraps the third-party LeetCode data API. Every field it returns is
// untrusted: callers supply defaults for anything missing.
type Client interface {
	ProblemList(ctx context.Context, limit int) ([]ProblemListEntry, error)
	ProblemDetail(ctx context.Context, titleSlug string) (*ProblemDetail, error)
	ProblemStats(ctx context.Context, titleSlug string) (*EngagementStats, error)
	Daily(ctx context.Context) (*DailyProblem, error)

	Profile(ctx context.Context, username string) (json.RawMessage, error)
	Solved(ctx context.Context, username string) (json.RawMessage, error)
	Contest(ctx context.Context, username string) (json.RawMessage, error)
	LanguageStats(ctx context.Context, username string) (json.RawMessage, error)
	SkillStats(ctx context.Context, username string) (json.RawMessage, error)
	UserProfile(ctx context.Context, username string) (json.RawMessage, error)
	Submissions(ctx context.Context, username string, limit int) (json.RawMessage, error)
}

type ProblemListEntry struct {
	FrontendQuestionID FlexInt          `json:"frontendQuestionId"`
	Title              string           `json:"title"`
	TitleSlug          string           `json:"titleSlug"`
	Difficulty         string           `json:"difficulty"`
	Likes              FlexInt          `json:"likes"`
	Dislikes           FlexInt          `json:"dislikes"`
	AcRate             FlexFloat        `json:"acRate"`
	TotalSubmissions   FlexInt          `json:"totalSubmissions"`
	TotalSubmitted     FlexInt          `json:"totalSubmitted"`
	TopicTags          []types.TopicTag `json:"topicTags"`
	IsPaidOnly         bool             `json:"isPaidOnly"`
}

type ProblemDetail struct {
	QuestionID         FlexInt          `json:"questionId"`
	QuestionFrontendID FlexInt          `json:"questionFrontendId"`
	QuestionTitle      string           `json:"questionTitle"`
	TitleSlug          string           `json:"titleSlug"`
	Difficulty         string           `json:"difficulty"`
	Likes              FlexInt          `json:"likes"`
	Dislikes           FlexInt          `json:"dislikes"`
	AcRate             FlexFloat        `json:"acRate"`
	Content            string           `json:"content"`
	Hints              []string         `json:"hints"`
	SimilarQuestions   json.RawMessage  `json:"similarQuestions"`
	TopicTags          []types.TopicTag `json:"topicTags"`
	IsPaidOnly         bool             `json:"isPaidOnly"`
	TotalSubmitted     FlexInt          `json:"totalSubmitted"`
	TotalAccepted      FlexInt          `json:"totalAccepted"`
}

// EngagementStats is the tertiary per-problem stats endpoint, consulted only
// when neither the list entry nor the detail carried engagement numbers.
type EngagementStats struct {
	Likes            FlexInt   `json:"likes"`
	Dislikes         FlexInt   `json:"dislikes"`
	AcceptanceRate   FlexFloat `json:"acceptanceRate"`
	TotalSubmissions FlexInt   `json:"totalSubmissions"`
	TotalSubmitted   FlexInt   `json:"totalSubmitted"`
}

type DailyProblem struct {
	QuestionTitleSlug string          `json:"questionTitleSlug"`
	Raw               json.RawMessage `json:"-"`
}

type problemListResponse struct {
	ProblemsetQuestionList []ProblemListEntry `json:"problemsetQuestionList"`
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) Client {
	baseURL := utils.GetEnv("LEETCODE_API_BASE", "http://localhost:3000", log)
	timeoutSec := utils.GetEnvAsInt("LEETCODE_TIMEOUT_SECONDS", 15, log)
	return &client{
		log:        log.With("client", "LeetCodeClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

func (c *client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apierr.Upstream(fmt.Errorf("building request for %s: %w", path, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierr.Upstream(fmt.Errorf("requesting %s: %w", path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Upstream(fmt.Errorf("reading response from %s: %w", path, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.Upstream(fmt.Errorf("upstream %s returned %d", path, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if rm, ok := out.(*json.RawMessage); ok {
		*rm = raw
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.Upstream(fmt.Errorf("decoding response from %s: %w", path, err))
	}
	return nil
}

func (c *client) getRaw(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *client) ProblemList(ctx context.Context, limit int) ([]ProblemListEntry, error) {
	if limit <= 0 {
		limit = 3000
	}
	var resp problemListResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/problems?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return resp.ProblemsetQuestionList, nil
}

func (c *client) ProblemDetail(ctx context.Context, titleSlug string) (*ProblemDetail, error) {
	var detail ProblemDetail
	if err := c.getJSON(ctx, "/select?titleSlug="+url.QueryEscape(titleSlug), &detail); err != nil {
		return nil, err
	}
	if detail.TitleSlug == "" {
		detail.TitleSlug = titleSlug
	}
	return &detail, nil
}

func (c *client) ProblemStats(ctx context.Context, titleSlug string) (*EngagementStats, error) {
	var stats EngagementStats
	if err := c.getJSON(ctx, "/problems/"+url.PathEscape(titleSlug)+"/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *client) Daily(ctx context.Context) (*DailyProblem, error) {
	raw, err := c.getRaw(ctx, "/daily")
	if err != nil {
		return nil, err
	}
	daily := DailyProblem{Raw: raw}
	// Best-effort slug extraction; a missing slug just skips the follow-up sync.
	_ = json.Unmarshal(raw, &daily)
	return &daily, nil
}

func (c *client) Profile(ctx context.Context, username string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/"+url.PathEscape(username))
}

func (c *client) Solved(ctx context.Context, username string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/"+url.PathEscape(username)+"/solved")
}

func (c *client) Contest(ctx context.Context, username string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/"+url.PathEscape(username)+"/contest")
}

func (c *client) LanguageStats(ctx context.Context, username string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/languageStats?username="+url.QueryEscape(username))
}

func (c *client) SkillStats(ctx context.Context, username string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/skillStats/"+url.PathEscape(username))
}

func (c *client) UserProfile(ctx context.Context, username string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/userProfile/"+url.PathEscape(username))
}

func (c *client) Submissions(ctx context.Context, username string, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	return c.getRaw(ctx, "/"+url.PathEscape(username)+fmt.Sprintf("/acSubmission?limit=%d", limit))
}
