package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/gorm"
)

type MessageHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewMessageHandler(db *gorm.DB, authHandler *auth.AuthHandler) *MessageHandler {
	return &MessageHandler{db: db, authHandler: authHandler}
}

type SendMessageRequest struct {
	auth.AuthInput
	Body struct {
		RecipientID uint   `json:"recipient_id" required:"true"`
		Body        string `json:"body" required:"true" minLength:"1"`
	}
}

type MessageView struct {
	ID          uint      `json:"id"`
	SenderID    uint      `json:"sender_id"`
	RecipientID uint      `json:"recipient_id"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendMessageResponse struct {
	Body MessageView
}

func (h *MessageHandler) HandleSend(ctx context.Context, input *SendMessageRequest) (*SendMessageResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var recipient models.User
	if err := h.db.First(&recipient, input.Body.RecipientID).Error; err != nil {
		return nil, huma.Error404NotFound("Recipient not found")
	}
	if recipient.ID == userID {
		return nil, huma.Error400BadRequest("Cannot message yourself")
	}

	message := models.Message{
		SenderID:    userID,
		RecipientID: recipient.ID,
		Body:        input.Body.Body,
	}
	if err := h.db.Create(&message).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to send message")
	}

	return &SendMessageResponse{Body: MessageView{
		ID:          message.ID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Body:        message.Body,
		Read:        message.Read,
		CreatedAt:   message.CreatedAt,
	}}, nil
}

type ListMessagesRequest struct {
	auth.AuthInput
	With *uint `query:"with" doc:"Limit to the conversation with one user"`
}

type ListMessagesResponse struct {
	Body []MessageView
}

func (h *MessageHandler) HandleList(ctx context.Context, input *ListMessagesRequest) (*ListMessagesResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	query := h.db.Order("created_at asc")
	if input.With != nil {
		query = query.Where(
			"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, *input.With, *input.With, userID,
		)
	} else {
		query = query.Where("sender_id = ? OR recipient_id = ?", userID, userID)
	}

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list messages")
	}

	res := &ListMessagesResponse{}
	for _, m := range messages {
		res.Body = append(res.Body, MessageView{
			ID:          m.ID,
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			Body:        m.Body,
			Read:        m.Read,
			CreatedAt:   m.CreatedAt,
		})
	}
	return res, nil
}

type MarkReadRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type MarkReadResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *MessageHandler) HandleMarkRead(ctx context.Context, input *MarkReadRequest) (*MarkReadResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	result := h.db.Model(&models.Message{}).
		Where("id = ? AND recipient_id = ?", input.ID, userID).
		Update("read", true)
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to mark message read")
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Message not found")
	}

	res := &MarkReadResponse{}
	res.Body.Message = "Marked read"
	return res, nil
}
