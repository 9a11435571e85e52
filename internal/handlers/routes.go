package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	appmiddleware "github.com/slimtribe/slimtribe-api/internal/middleware"
)

type Handlers struct {
	Auth         *auth.AuthHandler
	Weights      *WeightHandler
	Challenges   *ChallengeHandler
	Teams        *TeamHandler
	Posts        *PostHandler
	Messages     *MessageHandler
	Achievements *AchievementHandler
	APIKeys      *APIKeyHandler
}

func RegisterRoutes(r *chi.Mux, h Handlers, metricsUser, metricsPass string, rateLimit bool) {
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Monitor)
	if rateLimit {
		r.Use(appmiddleware.RateLimit)
	}
	r.Use(h.Auth.SessionMiddleware)

	// Initialize Huma API
	config := huma.DefaultConfig("SlimTribe API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.With(appmiddleware.BasicAuth(metricsUser, metricsPass)).
		Handle("/metrics", promhttp.Handler())

	// Auth routes
	huma.Post(api, "/auth/register", h.Auth.HandleRegister)
	huma.Post(api, "/auth/login", h.Auth.HandleLogin)
	r.Get("/auth/discord/login", h.Auth.HandleDiscordLogin)
	r.Get("/auth/discord/callback", h.Auth.HandleDiscordCallback)

	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	}

	huma.Get(api, "/me", h.Auth.HandleMe, secured)
	huma.Get(api, "/me/achievements", h.Achievements.HandleMine, secured)

	// Weight entries
	huma.Post(api, "/weights", h.Weights.HandleLogWeight, secured)
	huma.Get(api, "/weights", h.Weights.HandleListWeights, secured)
	huma.Delete(api, "/weights/{id}", h.Weights.HandleDeleteWeight, secured)

	// Teams
	huma.Post(api, "/teams", h.Teams.HandleCreate, secured)
	huma.Get(api, "/teams/{id}", h.Teams.HandleGet, secured)
	huma.Post(api, "/teams/{id}/join", h.Teams.HandleJoin, secured)
	huma.Post(api, "/teams/{id}/leave", h.Teams.HandleLeave, secured)

	// Challenges
	huma.Post(api, "/challenges", h.Challenges.HandleCreate, secured)
	huma.Get(api, "/challenges/{id}", h.Challenges.HandleGet, secured)
	huma.Post(api, "/challenges/{id}/join", h.Challenges.HandleJoin, secured)
	huma.Post(api, "/challenges/{id}/leave", h.Challenges.HandleLeave, secured)
	huma.Post(api, "/challenges/{id}/progress", h.Challenges.HandleUpdateProgress, secured)
	huma.Post(api, "/challenges/{id}/complete", h.Challenges.HandleComplete, secured)
	huma.Post(api, "/challenges/{id}/cancel", h.Challenges.HandleCancel, secured)
	huma.Get(api, "/challenges/{id}/leaderboard", h.Challenges.HandleLeaderboard, secured)

	// Social
	huma.Post(api, "/posts", h.Posts.HandleCreate, secured)
	huma.Get(api, "/posts", h.Posts.HandleList, secured)
	huma.Post(api, "/messages", h.Messages.HandleSend, secured)
	huma.Get(api, "/messages", h.Messages.HandleList, secured)
	huma.Post(api, "/messages/{id}/read", h.Messages.HandleMarkRead, secured)

	// Achievements
	huma.Get(api, "/achievements", h.Achievements.HandleList, secured)
	huma.Post(api, "/achievements/evaluate", h.Achievements.HandleEvaluate, secured)

	// API keys
	huma.Post(api, "/api-keys", h.APIKeys.HandleCreate, secured)
	huma.Get(api, "/api-keys", h.APIKeys.HandleList, secured)
	huma.Delete(api, "/api-keys/{id}", h.APIKeys.HandleDelete, secured)
}
