package controllers

import (
	"bandhub/services"

	"github.com/gin-gonic/gin"
)

type speechRequest struct {
	Text   string `json:"text" binding:"required"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

// SynthesizeSpeech converts text to audio and streams the bytes back with the
// matching content type.
func SynthesizeSpeech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "Invalid request: " + err.Error()})
		return
	}

	if req.Format == "" {
		req.Format = "wav"
	}

	audio, contentType, err := services.SynthesizeSpeech(c.Request.Context(), req.Text, req.Voice, req.Format)
	if err != nil {
		c.JSON(500, gin.H{"detail": "Speech synthesis failed: " + err.Error()})
		return
	}

	c.Data(200, contentType, audio)
}
