package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/challenges"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"github.com/slimtribe/slimtribe-api/internal/notifier"
	"github.com/slimtribe/slimtribe-api/internal/progress"
	"gorm.io/gorm"
)

type ChallengeHandler struct {
	db          *gorm.DB
	service     *challenges.Service
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewChallengeHandler(db *gorm.DB, service *challenges.Service, n notifier.Notifier, authHandler *auth.AuthHandler) *ChallengeHandler {
	return &ChallengeHandler{db: db, service: service, notifier: n, authHandler: authHandler}
}

// mapChallengeError translates domain errors to HTTP statuses.
func mapChallengeError(err error) error {
	switch {
	case errors.Is(err, challenges.ErrChallengeNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, challenges.ErrNotParticipating):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, challenges.ErrAlreadyParticipating):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, challenges.ErrChallengeClosed):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, challenges.ErrInvalidChallenge):
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError("Unexpected error: " + err.Error())
}

type CreateChallengeRequest struct {
	auth.AuthInput
	Body struct {
		Name         string    `json:"name" required:"true"`
		Description  string    `json:"description"`
		Type         string    `json:"type" enum:"percentage_loss,total_loss,consistency,activity_based" required:"true"`
		StartDate    time.Time `json:"start_date" required:"true"`
		EndDate      time.Time `json:"end_date" required:"true"`
		TargetValue  float64   `json:"target_value"`
		TeamID       *uint     `json:"team_id,omitempty"`
		RewardPoints int       `json:"reward_points"`
	}
}

type ChallengeResponse struct {
	Body struct {
		models.Challenge
		EffectiveStatus models.ChallengeStatus `json:"effective_status"`
	}
}

func (h *ChallengeHandler) HandleCreate(ctx context.Context, input *CreateChallengeRequest) (*ChallengeResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	challenge := models.Challenge{
		Name:         input.Body.Name,
		Description:  input.Body.Description,
		Type:         models.ChallengeType(input.Body.Type),
		StartDate:    input.Body.StartDate,
		EndDate:      input.Body.EndDate,
		TargetValue:  input.Body.TargetValue,
		TeamID:       input.Body.TeamID,
		RewardPoints: input.Body.RewardPoints,
		CreatedByID:  userID,
	}

	if challenge.TeamID != nil {
		var member models.TeamMember
		err := h.db.Where("team_id = ? AND user_id = ? AND role = ?", *challenge.TeamID, userID, models.TeamRoleOwner).
			First(&member).Error
		if err != nil {
			return nil, huma.Error403Forbidden("Only the team owner can create team challenges")
		}
	}

	if err := h.service.Create(&challenge); err != nil {
		return nil, mapChallengeError(err)
	}

	return challengeResponse(challenge), nil
}

func challengeResponse(challenge models.Challenge) *ChallengeResponse {
	res := &ChallengeResponse{}
	res.Body.Challenge = challenge
	res.Body.EffectiveStatus = progress.EffectiveStatus(challenge, time.Now())
	return res
}

type GetChallengeRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *ChallengeHandler) HandleGet(ctx context.Context, input *GetChallengeRequest) (*ChallengeResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	challenge, err := h.service.Get(input.ID)
	if err != nil {
		return nil, mapChallengeError(err)
	}
	return challengeResponse(*challenge), nil
}

type JoinChallengeRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type JoinChallengeResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *ChallengeHandler) HandleJoin(ctx context.Context, input *JoinChallengeRequest) (*JoinChallengeResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if _, err := h.service.Join(input.ID, userID); err != nil {
		return nil, mapChallengeError(err)
	}

	res := &JoinChallengeResponse{}
	res.Body.Message = "Joined challenge"
	return res, nil
}

func (h *ChallengeHandler) HandleLeave(ctx context.Context, input *JoinChallengeRequest) (*JoinChallengeResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if err := h.service.Leave(input.ID, userID); err != nil {
		return nil, mapChallengeError(err)
	}

	res := &JoinChallengeResponse{}
	res.Body.Message = "Left challenge"
	return res, nil
}

type UpdateProgressRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type UpdateProgressResponse struct {
	Body struct {
		NewlyCompleted []uint `json:"newly_completed_user_ids"`
	}
}

// HandleUpdateProgress recalculates every participant of the challenge.
func (h *ChallengeHandler) HandleUpdateProgress(ctx context.Context, input *UpdateProgressRequest) (*UpdateProgressResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	completed, err := h.service.UpdateChallengeProgress(input.ID, time.Now())
	if err != nil {
		return nil, mapChallengeError(err)
	}

	res := &UpdateProgressResponse{}
	for _, p := range completed {
		res.Body.NewlyCompleted = append(res.Body.NewlyCompleted, p.UserID)
		h.announceCompletion(p)
	}
	return res, nil
}

func (h *ChallengeHandler) announceCompletion(participant models.ChallengeParticipant) {
	if h.notifier == nil {
		return
	}
	var user models.User
	var challenge models.Challenge
	if err := h.db.First(&user, participant.UserID).Error; err != nil {
		return
	}
	if err := h.db.First(&challenge, participant.ChallengeID).Error; err != nil {
		return
	}
	if err := h.notifier.NotifyChallengeCompleted(user, challenge); err != nil {
		log.Printf("Failed to send completion notification: %v", err)
	}
}

type LeaderboardRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type LeaderboardEntry struct {
	UserID      uint       `json:"user_id"`
	Username    string     `json:"username"`
	Progress    float64    `json:"progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type LeaderboardResponse struct {
	Body []LeaderboardEntry
}

func (h *ChallengeHandler) HandleLeaderboard(ctx context.Context, input *LeaderboardRequest) (*LeaderboardResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	if _, err := h.service.Get(input.ID); err != nil {
		return nil, mapChallengeError(err)
	}

	var participants []models.ChallengeParticipant
	err := h.db.Preload("User").
		Where("challenge_id = ?", input.ID).
		Order("progress desc").
		Find(&participants).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load leaderboard")
	}

	res := &LeaderboardResponse{}
	for _, p := range participants {
		res.Body = append(res.Body, LeaderboardEntry{
			UserID:      p.UserID,
			Username:    p.User.Username,
			Progress:    p.Progress,
			Completed:   p.Completed,
			CompletedAt: p.CompletedAt,
		})
	}
	return res, nil
}

type ChallengeActionRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

// HandleComplete is the explicit admin action flipping a challenge to
// Completed. Only the creator may do it.
func (h *ChallengeHandler) HandleComplete(ctx context.Context, input *ChallengeActionRequest) (*JoinChallengeResponse, error) {
	return h.explicitTransition(ctx, input, models.StatusCompleted)
}

// HandleCancel flips a challenge to Cancelled. Only the creator may do it.
func (h *ChallengeHandler) HandleCancel(ctx context.Context, input *ChallengeActionRequest) (*JoinChallengeResponse, error) {
	return h.explicitTransition(ctx, input, models.StatusCancelled)
}

func (h *ChallengeHandler) explicitTransition(ctx context.Context, input *ChallengeActionRequest, status models.ChallengeStatus) (*JoinChallengeResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	challenge, err := h.service.Get(input.ID)
	if err != nil {
		return nil, mapChallengeError(err)
	}
	if challenge.CreatedByID != userID {
		return nil, huma.Error403Forbidden("Only the challenge creator can do this")
	}

	if status == models.StatusCompleted {
		err = h.service.Complete(input.ID)
	} else {
		err = h.service.Cancel(input.ID)
	}
	if err != nil {
		return nil, mapChallengeError(err)
	}

	res := &JoinChallengeResponse{}
	res.Body.Message = "Challenge " + string(status)
	return res, nil
}
