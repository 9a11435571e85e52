package handlers

import (
	"context"
	"log"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/slimtribe/slimtribe-api/internal/achievements"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"github.com/slimtribe/slimtribe-api/internal/notifier"
	"gorm.io/gorm"
)

type AchievementHandler struct {
	db          *gorm.DB
	evaluator   *achievements.Evaluator
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewAchievementHandler(db *gorm.DB, evaluator *achievements.Evaluator, n notifier.Notifier, authHandler *auth.AuthHandler) *AchievementHandler {
	return &AchievementHandler{db: db, evaluator: evaluator, notifier: n, authHandler: authHandler}
}

type AchievementView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	IsHidden    bool   `json:"is_hidden"`
	Held        bool   `json:"held"`
}

type ListAchievementsRequest struct {
	auth.AuthInput
}

type ListAchievementsResponse struct {
	Body []AchievementView
}

// HandleList returns the catalog. Hidden achievements only show up once the
// user holds them.
func (h *AchievementHandler) HandleList(ctx context.Context, input *ListAchievementsRequest) (*ListAchievementsResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var catalog []models.Achievement
	if err := h.db.Order("id asc").Find(&catalog).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load achievements")
	}

	var held []models.UserAchievement
	if err := h.db.Where("user_id = ?", userID).Find(&held).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load awards")
	}
	heldIDs := make(map[uint]bool, len(held))
	for _, ua := range held {
		heldIDs[ua.AchievementID] = true
	}

	res := &ListAchievementsResponse{}
	for _, a := range catalog {
		if a.IsHidden && !heldIDs[a.ID] {
			continue
		}
		res.Body = append(res.Body, AchievementView{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Points:      a.Points,
			IsHidden:    a.IsHidden,
			Held:        heldIDs[a.ID],
		})
	}
	return res, nil
}

type MyAchievementsRequest struct {
	auth.AuthInput
}

type AwardView struct {
	AchievementID uint      `json:"achievement_id"`
	Name          string    `json:"name"`
	Points        int       `json:"points"`
	AwardedAt     time.Time `json:"awarded_at"`
}

type MyAchievementsResponse struct {
	Body struct {
		Awards      []AwardView `json:"awards"`
		TotalPoints int         `json:"total_points"`
	}
}

func (h *AchievementHandler) HandleMine(ctx context.Context, input *MyAchievementsRequest) (*MyAchievementsResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var held []models.UserAchievement
	err = h.db.Preload("Achievement").
		Where("user_id = ?", userID).
		Order("awarded_at asc").
		Find(&held).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load awards")
	}

	res := &MyAchievementsResponse{}
	for _, ua := range held {
		res.Body.Awards = append(res.Body.Awards, AwardView{
			AchievementID: ua.AchievementID,
			Name:          ua.Achievement.Name,
			Points:        ua.Achievement.Points,
			AwardedAt:     ua.AwardedAt,
		})
		res.Body.TotalPoints += ua.Achievement.Points
	}
	return res, nil
}

type EvaluateRequest struct {
	auth.AuthInput
	Body struct {
		Donated bool `json:"donated,omitempty" doc:"Set by the donation callback; hidden-event trigger"`
	}
}

type EvaluateResponse struct {
	Body struct {
		NewAchievements []models.Achievement `json:"new_achievements"`
	}
}

// HandleEvaluate re-runs the rule catalog against a fresh facts snapshot.
// Repeat calls are no-ops for anything already held.
func (h *AchievementHandler) HandleEvaluate(ctx context.Context, input *EvaluateRequest) (*EvaluateResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	facts, err := achievements.GatherFacts(h.db, userID, time.Now())
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to gather activity facts")
	}
	facts.Donated = input.Body.Donated

	earned, err := h.evaluator.Evaluate(userID, facts)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to evaluate achievements")
	}

	if h.notifier != nil && len(earned) > 0 {
		var user models.User
		if err := h.db.First(&user, userID).Error; err == nil {
			for _, a := range earned {
				if err := h.notifier.NotifyAchievement(user, a); err != nil {
					log.Printf("Failed to send achievement notification: %v", err)
				}
			}
		}
	}

	res := &EvaluateResponse{}
	res.Body.NewAchievements = earned
	return res, nil
}
