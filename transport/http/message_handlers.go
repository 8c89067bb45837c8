package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/securechat/server/core"
	"github.com/securechat/server/service"
)

// MessageHandlers contains HTTP handlers for the message endpoints
type MessageHandlers struct {
	messageService *service.MessageService
}

// NewMessageHandlers creates new message handlers
func NewMessageHandlers(messageService *service.MessageService) *MessageHandlers {
	return &MessageHandlers{messageService: messageService}
}

func mapMessageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
	case errors.Is(err, core.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Message operation failed"})
	}
}

// Send stores a new encrypted message
func (h *MessageHandlers) Send(c *gin.Context) {
	var req struct {
		ReceiverName        string `json:"receiverName" binding:"required"`
		EncryptedContent    string `json:"encryptedContent" binding:"required"`
		EncryptedSessionKey string `json:"encryptedSessionKey" binding:"required"`
		Signature           string `json:"signature" binding:"required"`
		IV                  string `json:"iv" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sender := c.GetString("username")

	err := h.messageService.Send(c.Request.Context(), sender, core.OutgoingMessage{
		Receiver:            req.ReceiverName,
		EncryptedContent:    req.EncryptedContent,
		EncryptedSessionKey: req.EncryptedSessionKey,
		Signature:           req.Signature,
		IV:                  req.IV,
	})
	if err != nil {
		mapMessageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message sent"})
}

// Inbox lists the authenticated user's received messages
func (h *MessageHandlers) Inbox(c *gin.Context) {
	username := c.GetString("username")

	summaries, err := h.messageService.Inbox(c.Request.Context(), username)
	if err != nil {
		mapMessageError(c, err)
		return
	}

	items := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, gin.H{
			"id":     s.ID,
			"sender": s.Sender,
			"isRead": s.Read,
			"sentAt": s.SentAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// Get returns one full message to its receiver
func (h *MessageHandlers) Get(c *gin.Context) {
	username := c.GetString("username")

	msg, err := h.messageService.Get(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		mapMessageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                  msg.ID,
		"sender":              msg.Sender,
		"encryptedContent":    msg.EncryptedContent,
		"encryptedSessionKey": msg.EncryptedSessionKey,
		"signature":           msg.Signature,
		"iv":                  msg.IV,
		"isRead":              msg.Read,
		"sentAt":              msg.SentAt,
	})
}

// MarkRead flags a message as read
func (h *MessageHandlers) MarkRead(c *gin.Context) {
	username := c.GetString("username")

	if err := h.messageService.MarkRead(c.Request.Context(), c.Param("id"), username); err != nil {
		mapMessageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}

// Delete removes a received message
func (h *MessageHandlers) Delete(c *gin.Context) {
	username := c.GetString("username")

	if err := h.messageService.Delete(c.Request.Context(), c.Param("id"), username); err != nil {
		mapMessageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}
