package handlers

import (
	"context"
	"log"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/slimtribe/slimtribe-api/internal/achievements"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/challenges"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"github.com/slimtribe/slimtribe-api/internal/notifier"
	"gorm.io/gorm"
)

type WeightHandler struct {
	db          *gorm.DB
	service     *challenges.Service
	evaluator   *achievements.Evaluator
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewWeightHandler(db *gorm.DB, service *challenges.Service, evaluator *achievements.Evaluator, n notifier.Notifier, authHandler *auth.AuthHandler) *WeightHandler {
	return &WeightHandler{db: db, service: service, evaluator: evaluator, notifier: n, authHandler: authHandler}
}

type LogWeightRequest struct {
	auth.AuthInput
	Body struct {
		Weight            float64    `json:"weight" doc:"Weight measurement, must be positive" required:"true"`
		BodyFatPercentage *float64   `json:"body_fat_percentage,omitempty"`
		MuscleMass        *float64   `json:"muscle_mass,omitempty"`
		WaterPercentage   *float64   `json:"water_percentage,omitempty"`
		RecordedAt        *time.Time `json:"recorded_at,omitempty" doc:"Defaults to now"`
		Visibility        string     `json:"visibility,omitempty" enum:"private,team,public"`
		Activity          bool       `json:"activity,omitempty" doc:"Counts toward activity-based challenges"`
	}
}

type LogWeightResponse struct {
	Body struct {
		ID                  uint                 `json:"id"`
		RecordedAt          time.Time            `json:"recorded_at"`
		CompletedChallenges []uint               `json:"completed_challenges,omitempty"`
		NewAchievements     []models.Achievement `json:"new_achievements,omitempty"`
	}
}

// HandleLogWeight stores a new entry, then synchronously recalculates the
// user's active challenge participations and evaluates achievement rules.
func (h *WeightHandler) HandleLogWeight(ctx context.Context, input *LogWeightRequest) (*LogWeightResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if input.Body.Weight <= 0 {
		return nil, huma.Error400BadRequest("Weight must be positive")
	}

	now := time.Now()
	recordedAt := now
	if input.Body.RecordedAt != nil {
		recordedAt = *input.Body.RecordedAt
	}

	visibility := models.VisibilityPrivate
	if input.Body.Visibility != "" {
		visibility = models.Visibility(input.Body.Visibility)
	}

	entry := models.WeightEntry{
		UserID:            userID,
		Weight:            input.Body.Weight,
		BodyFatPercentage: input.Body.BodyFatPercentage,
		MuscleMass:        input.Body.MuscleMass,
		WaterPercentage:   input.Body.WaterPercentage,
		RecordedAt:        recordedAt,
		Visibility:        visibility,
		Activity:          input.Body.Activity,
	}
	if err := h.db.Create(&entry).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to save entry: " + err.Error())
	}

	completed, err := h.service.UpdateUserProgress(userID, now)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to update progress: " + err.Error())
	}

	facts, err := achievements.GatherFacts(h.db, userID, now)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to gather activity facts: " + err.Error())
	}
	earned, err := h.evaluator.Evaluate(userID, facts)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to evaluate achievements: " + err.Error())
	}

	h.announce(userID, completed, earned)

	res := &LogWeightResponse{}
	res.Body.ID = entry.ID
	res.Body.RecordedAt = entry.RecordedAt
	for _, p := range completed {
		res.Body.CompletedChallenges = append(res.Body.CompletedChallenges, p.ChallengeID)
	}
	res.Body.NewAchievements = earned
	return res, nil
}

// announce sends best-effort Discord notifications. Failures are logged and
// never fail the request.
func (h *WeightHandler) announce(userID uint, completed []models.ChallengeParticipant, earned []models.Achievement) {
	if h.notifier == nil || (len(completed) == 0 && len(earned) == 0) {
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		log.Printf("Failed to load user for notification: %v", err)
		return
	}

	for _, p := range completed {
		var challenge models.Challenge
		if err := h.db.First(&challenge, p.ChallengeID).Error; err != nil {
			continue
		}
		if err := h.notifier.NotifyChallengeCompleted(user, challenge); err != nil {
			log.Printf("Failed to send completion notification: %v", err)
		}
	}
	for _, a := range earned {
		if err := h.notifier.NotifyAchievement(user, a); err != nil {
			log.Printf("Failed to send achievement notification: %v", err)
		}
	}
}

type ListWeightsRequest struct {
	auth.AuthInput
	From *time.Time `query:"from" doc:"Window start"`
	To   *time.Time `query:"to" doc:"Window end"`
}

type ListWeightsResponse struct {
	Body []models.WeightEntry
}

func (h *WeightHandler) HandleListWeights(ctx context.Context, input *ListWeightsRequest) (*ListWeightsResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	query := h.db.Where("user_id = ?", userID)
	if input.From != nil {
		query = query.Where("recorded_at >= ?", *input.From)
	}
	if input.To != nil {
		query = query.Where("recorded_at <= ?", *input.To)
	}

	var entries []models.WeightEntry
	if err := query.Order("recorded_at asc, id asc").Find(&entries).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list entries")
	}
	return &ListWeightsResponse{Body: entries}, nil
}

type DeleteWeightRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *WeightHandler) HandleDeleteWeight(ctx context.Context, input *DeleteWeightRequest) (*struct{}, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	result := h.db.Where("id = ? AND user_id = ?", input.ID, userID).Delete(&models.WeightEntry{})
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete entry")
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Entry not found")
	}
	return nil, nil
}
