package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/rediscache"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/services"
)

const submissionsCacheTTL = 30 * time.Minute

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
	cache       *rediscache.Cache
}

func NewUserHandler(log *logger.Logger, userService services.UserService, cache *rediscache.Cache) *UserHandler {
	return &UserHandler{
		log:         log.With("handler", "UserHandler"),
		userService: userService,
		cache:       cache,
	}
}

func (h *UserHandler) Profile(c *gin.Context) {
	username := c.Param("username")
	key := rediscache.Key{Route: "user-profile", Params: []string{username}}

	var cached map[string]interface{}
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	profile, err := h.userService.Profile(c.Request.Context(), username)
	if err != nil {
		h.log.Error("User profile failed", "username", username, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, profile, 0)
	RespondOK(c, profile)
}

func (h *UserHandler) Solved(c *gin.Context) {
	username := c.Param("username")
	key := rediscache.Key{Route: "user-solved", Params: []string{username}}

	var cached map[string]interface{}
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	solved, err := h.userService.Solved(c.Request.Context(), username)
	if err != nil {
		h.log.Error("User solved failed", "username", username, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, solved, 0)
	RespondOK(c, solved)
}

func (h *UserHandler) Submissions(c *gin.Context) {
	username := c.Param("username")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	key := rediscache.Key{Route: "user-submissions", Params: []string{username, strconv.Itoa(limit)}}

	var cached json.RawMessage
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	submissions, err := h.userService.Submissions(c.Request.Context(), username, limit)
	if err != nil {
		h.log.Error("User submissions failed", "username", username, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, submissions, submissionsCacheTTL)
	RespondOK(c, submissions)
}

func (h *UserHandler) Contest(c *gin.Context) {
	username := c.Param("username")
	key := rediscache.Key{Route: "user-contest", Params: []string{username}}

	var cached json.RawMessage
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	contest, err := h.userService.Contest(c.Request.Context(), username)
	if err != nil {
		h.log.Error("User contest failed", "username", username, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, contest, 0)
	RespondOK(c, contest)
}

func (h *UserHandler) LanguageStats(c *gin.Context) {
	username := c.Param("username")
	key := rediscache.Key{Route: "user-language-stats", Params: []string{username}}

	var cached json.RawMessage
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	stats, err := h.userService.LanguageStats(c.Request.Context(), username)
	if err != nil {
		h.log.Error("User language stats failed", "username", username, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, stats, 0)
	RespondOK(c, stats)
}

func (h *UserHandler) SkillStats(c *gin.Context) {
	username := c.Param("username")
	key := rediscache.Key{Route: "user-skill-stats", Params: []string{username}}

	var cached map[string]interface{}
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, cached)
		return
	}

	stats, err := h.userService.SkillStats(c.Request.Context(), username)
	if err != nil {
		h.log.Error("User skill stats failed", "username", username, "error", err)
		RespondServiceError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, stats, 0)
	RespondOK(c, stats)
}
