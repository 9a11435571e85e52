package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewTeamHandler(db *gorm.DB, authHandler *auth.AuthHandler) *TeamHandler {
	return &TeamHandler{db: db, authHandler: authHandler}
}

type CreateTeamRequest struct {
	auth.AuthInput
	Body struct {
		Name        string `json:"name" required:"true"`
		Description string `json:"description"`
	}
}

type TeamResponse struct {
	Body struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		OwnerID     uint   `json:"owner_id"`
		InviteCode  string `json:"invite_code"`
		MemberCount int64  `json:"member_count"`
	}
}

func (h *TeamHandler) HandleCreate(ctx context.Context, input *CreateTeamRequest) (*TeamResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	team := models.Team{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		OwnerID:     userID,
		InviteCode:  uuid.NewString(),
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		member := models.TeamMember{
			TeamID:   team.ID,
			UserID:   userID,
			Role:     models.TeamRoleOwner,
			JoinedAt: time.Now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create team: " + err.Error())
	}

	return h.teamResponse(team)
}

func (h *TeamHandler) teamResponse(team models.Team) (*TeamResponse, error) {
	var count int64
	if err := h.db.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count members")
	}

	res := &TeamResponse{}
	res.Body.ID = team.ID
	res.Body.Name = team.Name
	res.Body.Description = team.Description
	res.Body.OwnerID = team.OwnerID
	res.Body.InviteCode = team.InviteCode
	res.Body.MemberCount = count
	return res, nil
}

type GetTeamRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *TeamHandler) HandleGet(ctx context.Context, input *GetTeamRequest) (*TeamResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	var team models.Team
	if err := h.db.First(&team, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Team not found")
	}
	return h.teamResponse(team)
}

type JoinTeamRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		InviteCode string `json:"invite_code,omitempty" doc:"Required when the team is joined by invite"`
	}
}

type TeamActionResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *TeamHandler) HandleJoin(ctx context.Context, input *JoinTeamRequest) (*TeamActionResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var team models.Team
	if err := h.db.First(&team, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Team not found")
	}

	if input.Body.InviteCode != "" && input.Body.InviteCode != team.InviteCode {
		return nil, huma.Error403Forbidden("Invalid invite code")
	}

	var existing models.TeamMember
	err = h.db.Where("team_id = ? AND user_id = ?", team.ID, userID).First(&existing).Error
	if err == nil {
		return nil, huma.Error409Conflict("Already a member of this team")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, huma.Error500InternalServerError("Database error")
	}

	member := models.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		Role:     models.TeamRoleMember,
		JoinedAt: time.Now(),
	}
	if err := h.db.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, huma.Error409Conflict("Already a member of this team")
		}
		return nil, huma.Error500InternalServerError("Failed to join team")
	}

	res := &TeamActionResponse{}
	res.Body.Message = "Joined team " + team.Name
	return res, nil
}

type LeaveTeamRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *TeamHandler) HandleLeave(ctx context.Context, input *LeaveTeamRequest) (*TeamActionResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var team models.Team
	if err := h.db.First(&team, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Team not found")
	}
	if team.OwnerID == userID {
		return nil, huma.Error403Forbidden("The owner cannot leave their own team")
	}

	result := h.db.Where("team_id = ? AND user_id = ?", team.ID, userID).Delete(&models.TeamMember{})
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to leave team")
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Not a member of this team")
	}

	res := &TeamActionResponse{}
	res.Body.Message = "Left team " + team.Name
	return res, nil
}
