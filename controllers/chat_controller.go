package controllers

import (
	"time"

	"bandhub/models"
	"bandhub/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type chatCompletionRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages" binding:"required"`
}

// ChatCompletions is a minimal OpenAI-compatible endpoint that relays the
// conversation to the configured generation backend.
func ChatCompletions(c *gin.Context) {
	var req chatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "Invalid request: " + err.Error()})
		return
	}

	reply, err := services.Chat(c.Request.Context(), req.Messages, 0.7)
	if err != nil {
		c.JSON(500, gin.H{"detail": "Internal Server Error: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"id":      "chatcmpl-" + uuid.NewString(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   completionModelName,
		"choices": []gin.H{
			{
				"index":         0,
				"message":       gin.H{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			},
		},
	})
}
