package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/gemini"
	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/leetcode"
	"github.com/Yashraj8888/Leetcode-Companion/internal/clients/rediscache"
	"github.com/Yashraj8888/Leetcode-Companion/internal/db"
	"github.com/Yashraj8888/Leetcode-Companion/internal/handlers"
	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
	"github.com/Yashraj8888/Leetcode-Companion/internal/middleware"
	"github.com/Yashraj8888/Leetcode-Companion/internal/repos"
	"github.com/Yashraj8888/Leetcode-Companion/internal/server"
	"github.com/Yashraj8888/Leetcode-Companion/internal/services"
	"github.com/Yashraj8888/Leetcode-Companion/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	frontendURL := utils.GetEnv("FRONTEND_URL", "http://localhost:3000", log)
	cacheTTLSeconds := utils.GetEnvAsInt("CACHE_TTL_SECONDS", 600, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	problemRepo := repos.NewProblemRepo(thePG, log)
	userRepo := repos.NewUserRepo(thePG, log)

	// Clients
	log.Info("Setting up Clients from main...")
	leetcodeClient := leetcode.NewClient(log)
	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Warn("Could not init Gemini client, AI scoring disabled", "error", err)
		geminiClient = nil
	}
	cache, err := rediscache.New(log, time.Duration(cacheTTLSeconds)*time.Second)
	if err != nil {
		log.Warn("Could not init response cache, serving uncached", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	ratingService := services.NewRatingService(log, geminiClient, services.DefaultTagWeights())
	syncService := services.NewSyncService(thePG, log, problemRepo, userRepo, leetcodeClient, ratingService)
	analysisService := services.NewAnalysisService(log, syncService, problemRepo, leetcodeClient)
	userService := services.NewUserService(log, syncService, leetcodeClient)

	// Handlers
	log.Info("Setting up handlers from main...")
	problemHandler := handlers.NewProblemHandler(log, syncService, problemRepo, cache)
	userHandler := handlers.NewUserHandler(log, userService, cache)
	analysisHandler := handlers.NewAnalysisHandler(log, analysisService, cache)

	// Middleware
	log.Info("Setting up middleware from main...")
	generalLimiter := middleware.NewRateLimiter(log, 100, 15*time.Minute)
	analysisLimiter := middleware.NewRateLimiter(log, 20, 5*time.Minute)
	refreshLimiter := middleware.NewRateLimiter(log, 5, 10*time.Minute)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		FrontendURL:     frontendURL,
		ProblemHandler:  problemHandler,
		UserHandler:     userHandler,
		AnalysisHandler: analysisHandler,
		GeneralLimiter:  generalLimiter,
		AnalysisLimiter: analysisLimiter,
		RefreshLimiter:  refreshLimiter,
	})

	port := utils.GetEnv("PORT", "5001", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
