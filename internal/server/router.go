package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Yashraj8888/Leetcode-Companion/internal/handlers"
	"github.com/Yashraj8888/Leetcode-Companion/internal/middleware"
)

type RouterConfig struct {
	FrontendURL     string
	ProblemHandler  *handlers.ProblemHandler
	UserHandler     *handlers.UserHandler
	AnalysisHandler *handlers.AnalysisHandler
	GeneralLimiter  *middleware.RateLimiter
	AnalysisLimiter *middleware.RateLimiter
	RefreshLimiter  *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	frontendURL := cfg.FrontendURL
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID())

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.GeneralLimiter.Handle())
	{
		problems := api.Group("/problems")
		{
			problems.GET("/details/:identifier", cfg.ProblemHandler.Details)
			problems.GET("/list", cfg.ProblemHandler.List)
			problems.GET("/daily", cfg.ProblemHandler.Daily)
			problems.GET("/search", cfg.ProblemHandler.Search)
			problems.GET("/stats", cfg.ProblemHandler.Stats)
			problems.POST("/refresh", cfg.RefreshLimiter.Handle(), cfg.ProblemHandler.Refresh)
		}

		users := api.Group("/users")
		{
			users.GET("/profile/:username", cfg.UserHandler.Profile)
			users.GET("/solved/:username", cfg.UserHandler.Solved)
			users.GET("/submissions/:username", cfg.UserHandler.Submissions)
			users.GET("/contest/:username", cfg.UserHandler.Contest)
			users.GET("/language-stats/:username", cfg.UserHandler.LanguageStats)
			users.GET("/skill-stats/:username", cfg.UserHandler.SkillStats)
		}

		analysis := api.Group("/analysis")
		analysis.Use(cfg.AnalysisLimiter.Handle())
		{
			analysis.POST("/analyze", cfg.AnalysisHandler.Analyze)
			analysis.GET("/similar/:problemId", cfg.AnalysisHandler.Similar)
		}
	}

	return router
}
