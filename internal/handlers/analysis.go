package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/rediscache"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/services"
	"github.com/Yashraj8888/Leetcode-Companion/internal/types"
)

type AnalysisHandler struct {
	log             *logger.Logger
	analysisService services.AnalysisService
	cache           *rediscache.Cache
}

func NewAnalysisHandler(log *logger.Logger, analysisService services.AnalysisService, cache *rediscache.Cache) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log.With("handler", "AnalysisHandler"),
		analysisService: analysisService,
		cache:           cache,
	}
}

type analyzeRequest struct {
	ProblemID    string `json:"problemId" binding:"required"`
	Username     string `json:"username"`
	ForceRefresh bool   `json:"forceRefresh"`
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	key := rediscache.Key{Route: "analysis", Params: []string{req.ProblemID, req.Username}}
	if !req.ForceRefresh {
		var cached types.Analysis
		if h.cache.Get(c.Request.Context(), key, &cached) {
			RespondOK(c, cached)
			return
		}
	}

	analysis, err := h.analysisService.Analyze(c.Request.Context(), req.ProblemID, req.Username, req.ForceRefresh)
	if err != nil {
		h.log.Error("Analysis failed", "problem_id", req.ProblemID, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, analysis, 0)
	RespondOK(c, analysis)
}

func (h *AnalysisHandler) Similar(c *gin.Context) {
	raw := strings.TrimPrefix(c.Param("problemId"), "problem-")
	questionID, err := strconv.Atoi(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("problemId must be numeric"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	key := rediscache.Key{Route: "similar", Params: []string{strconv.Itoa(questionID), strconv.Itoa(limit)}}
	var cached services.SimilarResult
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	result, err := h.analysisService.Similar(c.Request.Context(), questionID, limit)
	if err != nil {
		h.log.Error("Similar lookup failed", "question_id", questionID, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, result, 0)
	RespondOK(c, *result)
}
