package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/slimtribe/slimtribe-api/internal/achievements"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/challenges"
	"github.com/slimtribe/slimtribe-api/internal/config"
	"github.com/slimtribe/slimtribe-api/internal/database"
	"github.com/slimtribe/slimtribe-api/internal/handlers"
	"github.com/slimtribe/slimtribe-api/internal/middleware"
	"github.com/slimtribe/slimtribe-api/internal/notifier"
)

func main() {
	// Load Configuration
	godotenv.Load()
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Seed the achievement catalog
	catalog := achievements.Catalog()
	if err := achievements.Seed(db, catalog); err != nil {
		log.Fatalf("Failed to seed achievements: %v", err)
	}

	// Initialize Discord Notifier (optional)
	var discordNotifier notifier.Notifier
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			discordNotifier = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		}
	}

	// Initialize Services and Handlers
	challengeService := challenges.NewService(db)
	evaluator := achievements.NewEvaluator(db, catalog)
	authHandler := auth.NewAuthHandler(cfg, db)

	h := handlers.Handlers{
		Auth:         authHandler,
		Weights:      handlers.NewWeightHandler(db, challengeService, evaluator, discordNotifier, authHandler),
		Challenges:   handlers.NewChallengeHandler(db, challengeService, discordNotifier, authHandler),
		Teams:        handlers.NewTeamHandler(db, authHandler),
		Posts:        handlers.NewPostHandler(db, evaluator, authHandler),
		Messages:     handlers.NewMessageHandler(db, authHandler),
		Achievements: handlers.NewAchievementHandler(db, evaluator, discordNotifier, authHandler),
		APIKeys:      handlers.NewAPIKeyHandler(db, authHandler),
	}

	// Initialize Router
	middleware.InitPrometheus()
	if cfg.EnableRateLimit {
		go middleware.CleanupVisitors()
	}

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, h, cfg.MetricsUser, cfg.MetricsPass, cfg.EnableRateLimit)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
