package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"health-assistant/internal/model"
	"health-assistant/internal/service"
	"health-assistant/internal/triage"
	"health-assistant/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// upstreamMessages are the texts shown when the model provider rejects a call.
type upstreamMessages struct {
	authError string
	authHint  string
	rateLimit string
}

func messagesFor(provider string) upstreamMessages {
	switch provider {
	case "", "groq":
		return upstreamMessages{
			authError: "Invalid Groq API key. Please check your GROQ_API_KEY.",
			authHint:  "Get your free API key at https://console.groq.com/keys",
			rateLimit: "Groq API quota exceeded. Please try again later.",
		}
	default:
		name := strings.ToUpper(provider)
		return upstreamMessages{
			authError: "Invalid " + provider + " API key. Please check your configuration.",
			authHint:  "Set llm.api_key or the " + name + "_API_KEY environment variable.",
			rateLimit: "Model provider quota exceeded. Please try again later.",
		}
	}
}

type AssistantHandler struct {
	assistant *service.AssistantService
	messages  upstreamMessages
}

func NewAssistantHandler(assistant *service.AssistantService, provider string) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		messages:  messagesFor(provider),
	}
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	result, err := h.assistant.Chat(c.Request.Context(), service.ChatInput{
		Message: req.Message,
		History: req.ConversationHistory,
		UserID:  req.UserID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	// The record is written in the background; its outcome is logged there.
	c.JSON(http.StatusOK, gin.H{"response": result.Response})
}

func (h *AssistantHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMessageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
	case errors.Is(err, service.ErrUpstreamAuth):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": h.messages.authError,
			"hint":  h.messages.authHint,
		})
	case errors.Is(err, service.ErrUpstreamRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": h.messages.rateLimit})
	default:
		logger.FromContext(c.Request.Context(), logger.L()).WithError(err).Error("Chat request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process your request. Please try again."})
	}
}

func (h *AssistantHandler) QuickSymptoms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symptoms": triage.QuickSymptoms()})
}

func (h *AssistantHandler) UrgencyLevels(c *gin.Context) {
	levels := make([]model.UrgencyLevel, 0, len(model.Urgencies))
	for _, u := range model.Urgencies {
		levels = append(levels, model.UrgencyLevel{Value: u, Label: u.Label()})
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels})
}

func (h *AssistantHandler) History(c *gin.Context) {
	userID := c.Param("user_id")
	if strings.TrimSpace(userID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.assistant.History(c.Request.Context(), userID, limit)
	if err != nil {
		logger.FromContext(c.Request.Context(), logger.L()).WithError(err).Error("Failed to load chat history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}
