package controllers

import (
	"bandhub/services"

	"github.com/gin-gonic/gin"
)

type imageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateImage produces a topic illustration and returns its URL.
func GenerateImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "Invalid request: " + err.Error()})
		return
	}

	url, err := services.GenerateImage(c.Request.Context(), req.Prompt)
	if err != nil {
		c.JSON(500, gin.H{"detail": "Image generation failed: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"url": url})
}
