package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/rediscache"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/repos"
	"github.com/Yashraj8888/Leetcode-Companion/internal/services"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

const dailyCacheTTL = time.Hour

type ProblemHandler struct {
	log         *logger.Logger
	syncService services.SyncService
	problemRepo repos.ProblemRepo
	cache       *rediscache.Cache
}

func NewProblemHandler(log *logger.Logger, syncService services.SyncService, problemRepo repos.ProblemRepo, cache *rediscache.Cache) *ProblemHandler {
	return &ProblemHandler{
		log:         log.With("handler", "ProblemHandler"),
		syncService: syncService,
		problemRepo: problemRepo,
		cache:       cache,
	}
}

func rawOrEmpty(blob []byte, empty string) json.RawMessage {
	if len(blob) == 0 {
		return json.RawMessage(empty)
	}
	return json.RawMessage(blob)
}

func problemDetailsPayload(p *types.Problem) gin.H {
	return gin.H{
		"questionId":         p.QuestionID,
		"questionFrontendId": p.QuestionID,
		"questionTitle":      p.Title,
		"titleSlug":          p.TitleSlug,
		"difficulty":         p.Difficulty,
		"likes":              p.Likes,
		"dislikes":           p.Dislikes,
		"acceptanceRate":     p.AcceptanceRate,
		"totalSubmissions":   p.TotalSubmissions,
		"topicTags":          rawOrEmpty(p.TopicTags, "[]"),
		"content":            p.Content,
		"hints":              rawOrEmpty(p.Hints, "[]"),
		"similarQuestions":   rawOrEmpty(p.SimilarQuestions, "[]"),
		"isPaidOnly":         p.IsPremium,
		"mathematicalScore":  p.MathematicalScore,
		"aiScore":            p.AIScore,
		"aiReason":           p.AIReason,
	}
}

func problemListEntry(p *types.Problem) gin.H {
	return gin.H{
		"frontendQuestionId": strconv.Itoa(p.QuestionID),
		"title":              p.Title,
		"titleSlug":          p.TitleSlug,
		"difficulty":         p.Difficulty,
		"likes":              p.Likes,
		"dislikes":           p.Dislikes,
		"acRate":             strconv.FormatFloat(p.AcceptanceRate, 'f', -1, 64),
		"totalSubmissions":   p.TotalSubmissions,
		"topicTags":          rawOrEmpty(p.TopicTags, "[]"),
		"isPaidOnly":         p.IsPremium,
		"mathematicalScore":  p.MathematicalScore,
		"aiScore":            p.AIScore,
		"aiReason":           p.AIReason,
	}
}

func problemListPayload(problems []*types.Problem) gin.H {
	entries := make([]gin.H, 0, len(problems))
	for _, p := range problems {
		entries = append(entries, problemListEntry(p))
	}
	return gin.H{
		"problemsetQuestionList": entries,
		"total":                  len(entries),
	}
}

// Details serves one problem by title slug or frontend question number,
// syncing it from upstream when the stored copy is missing or stale.
func (h *ProblemHandler) Details(c *gin.Context) {
	identifier := c.Param("identifier")
	key := rediscache.Key{Route: "problem-details", Params: []string{identifier}}

	var cached gin.H
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	problem, err := h.syncService.SyncProblem(c.Request.Context(), identifier, false)
	if err != nil {
		h.log.Error("Problem details failed", "identifier", identifier, "error", err)
		RespondServiceError(c, err)
		return
	}

	payload := problemDetailsPayload(problem)
	h.cache.Set(c.Request.Context(), key, payload, 0)
	RespondOK(c, payload)
}

func parseScore(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (h *ProblemHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	difficulty := c.Query("difficulty")
	tags := c.Query("tags")
	minRating := c.Query("minRating")
	maxRating := c.Query("maxRating")
	sortBy := c.DefaultQuery("sortBy", "question_id")
	sortOrder := c.DefaultQuery("sortOrder", "asc")

	key := rediscache.Key{
		Route:  "problem-list",
		Params: []string{strconv.Itoa(limit), strconv.Itoa(skip), difficulty, tags, minRating, maxRating, sortBy, sortOrder},
	}
	var cached gin.H
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	filter := repos.ProblemFilter{
		Difficulty: difficulty,
		MinScore:   parseScore(minRating),
		MaxScore:   parseScore(maxRating),
		SortBy:     sortBy,
		SortOrder:  sortOrder,
		Limit:      limit,
		Offset:     skip,
	}
	if tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}

	problems, err := h.problemRepo.List(c.Request.Context(), nil, filter)
	if err != nil {
		h.log.Error("Problem list failed", "error", err)
		RespondServiceError(c, err)
		return
	}

	payload := problemListPayload(problems)
	h.cache.Set(c.Request.Context(), key, payload, 0)
	RespondOK(c, payload)
}

func (h *ProblemHandler) Daily(c *gin.Context) {
	key := rediscache.Key{Route: "problem-daily"}

	var cached json.RawMessage
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	daily, err := h.syncService.SyncDaily(c.Request.Context())
	if err != nil {
		h.log.Error("Daily problem failed", "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, daily.Raw, dailyCacheTTL)
	RespondOK(c, daily.Raw)
}

func (h *ProblemHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("search query is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	key := rediscache.Key{Route: "problem-search", Params: []string{query, strconv.Itoa(limit)}}
	var cached gin.H
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	problems, err := h.problemRepo.Search(c.Request.Context(), nil, query, limit)
	if err != nil {
		h.log.Error("Problem search failed", "query", query, "error", err)
		RespondServiceError(c, err)
		return
	}

	payload := problemListPayload(problems)
	h.cache.Set(c.Request.Context(), key, payload, 0)
	RespondOK(c, payload)
}

func (h *ProblemHandler) Stats(c *gin.Context) {
	key := rediscache.Key{Route: "problem-stats"}
	var cached repos.ProblemStats
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	stats, err := h.problemRepo.Stats(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("Problem stats failed", "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, stats, 0)
	RespondOK(c, stats)
}

type refreshRequest struct {
	Identifiers []string `json:"identifiers" binding:"required"`
}

// Refresh re-syncs a batch of problems from upstream. Responses list the
// refreshed question ids; individual failures are skipped, not fatal.
func (h *ProblemHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if len(req.Identifiers) == 0 {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("identifiers must not be empty"))
		return
	}

	problems, err := h.syncService.SyncBatch(c.Request.Context(), req.Identifiers, services.DefaultBatchSize, services.DefaultBatchDelay)
	if err != nil {
		h.log.Error("Batch refresh failed", "count", len(req.Identifiers), "error", err)
		RespondServiceError(c, err)
		return
	}

	refreshed := make([]int, 0, len(problems))
	for _, p := range problems {
		refreshed = append(refreshed, p.QuestionID)
	}
	RespondOK(c, gin.H{
		"requested": len(req.Identifiers),
		"refreshed": refreshed,
	})
}
