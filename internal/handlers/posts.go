package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/slimtribe/slimtribe-api/internal/achievements"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/gorm"
)

type PostHandler struct {
	db          *gorm.DB
	evaluator   *achievements.Evaluator
	authHandler *auth.AuthHandler
}

func NewPostHandler(db *gorm.DB, evaluator *achievements.Evaluator, authHandler *auth.AuthHandler) *PostHandler {
	return &PostHandler{db: db, evaluator: evaluator, authHandler: authHandler}
}

type CreatePostRequest struct {
	auth.AuthInput
	Body struct {
		Body   string `json:"body" required:"true" minLength:"1"`
		TeamID *uint  `json:"team_id,omitempty" doc:"Post to a team feed instead of the public feed"`
	}
}

type PostResponse struct {
	Body struct {
		ID              uint                 `json:"id"`
		CreatedAt       time.Time            `json:"created_at"`
		NewAchievements []models.Achievement `json:"new_achievements,omitempty"`
	}
}

func (h *PostHandler) HandleCreate(ctx context.Context, input *CreatePostRequest) (*PostResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if input.Body.TeamID != nil {
		var member models.TeamMember
		err := h.db.Where("team_id = ? AND user_id = ?", *input.Body.TeamID, userID).First(&member).Error
		if err != nil {
			return nil, huma.Error403Forbidden("Not a member of this team")
		}
	}

	post := models.Post{
		AuthorID: userID,
		TeamID:   input.Body.TeamID,
		Body:     input.Body.Body,
	}
	if err := h.db.Create(&post).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create post")
	}

	// Social counters feed the achievement facts.
	facts, err := achievements.GatherFacts(h.db, userID, time.Now())
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to gather activity facts")
	}
	earned, err := h.evaluator.Evaluate(userID, facts)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to evaluate achievements")
	}

	res := &PostResponse{}
	res.Body.ID = post.ID
	res.Body.CreatedAt = post.CreatedAt
	res.Body.NewAchievements = earned
	return res, nil
}

type ListPostsRequest struct {
	auth.AuthInput
	TeamID *uint `query:"team_id" doc:"Restrict to one team's feed"`
}

type FeedPost struct {
	ID        uint      `json:"id"`
	AuthorID  uint      `json:"author_id"`
	Author    string    `json:"author"`
	TeamID    *uint     `json:"team_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type ListPostsResponse struct {
	Body []FeedPost
}

func (h *PostHandler) HandleList(ctx context.Context, input *ListPostsRequest) (*ListPostsResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	query := h.db.Preload("Author").Order("created_at desc").Limit(100)
	if input.TeamID != nil {
		var member models.TeamMember
		if err := h.db.Where("team_id = ? AND user_id = ?", *input.TeamID, userID).First(&member).Error; err != nil {
			return nil, huma.Error403Forbidden("Not a member of this team")
		}
		query = query.Where("team_id = ?", *input.TeamID)
	} else {
		query = query.Where("team_id IS NULL")
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list posts")
	}

	res := &ListPostsResponse{}
	for _, p := range posts {
		res.Body = append(res.Body, FeedPost{
			ID:        p.ID,
			AuthorID:  p.AuthorID,
			Author:    p.Author.Username,
			TeamID:    p.TeamID,
			Body:      p.Body,
			CreatedAt: p.CreatedAt,
		})
	}
	return res, nil
}
