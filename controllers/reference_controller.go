package controllers

import (
	"sort"
	"strings"

	"bandhub/models"
	"bandhub/services"

	"github.com/gin-gonic/gin"
)

type referenceAnswerRequest struct {
	Question string                `json:"question" binding:"required"`
	Band     string                `json:"band" binding:"required"`
	Profile  models.LearnerProfile `json:"profile"`
}

type referenceAnswerResponse struct {
	Question string `json:"question"`
	Band     string `json:"band"`
	Answer   string `json:"answer"`
}

// GenerateReferenceAnswer composes a band-targeted sample answer for a
// Part 1 question, personalized to the learner profile.
func GenerateReferenceAnswer(c *gin.Context) {
	var req referenceAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "Invalid request: " + err.Error()})
		return
	}

	if !services.AllowedBands[req.Band] {
		c.JSON(400, gin.H{"detail": "Unsupported band " + req.Band + ". Allowed: " + allowedBandList()})
		return
	}

	answer, err := services.ComposeReferenceAnswer(c.Request.Context(), req.Question, req.Band, req.Profile)
	if err != nil {
		c.JSON(500, gin.H{"detail": "Internal Server Error: " + err.Error()})
		return
	}
	c.JSON(200, referenceAnswerResponse{
		Question: req.Question,
		Band:     req.Band,
		Answer:   answer,
	})
}

func allowedBandList() string {
	bands := make([]string, 0, len(services.AllowedBands))
	for band := range services.AllowedBands {
		bands = append(bands, band)
	}
	sort.Strings(bands)
	return strings.Join(bands, ", ")
}
