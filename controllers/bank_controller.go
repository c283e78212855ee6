package controllers

import (
	"bandhub/services"

	"github.com/gin-gonic/gin"
)

// GetQuestionBank returns every Part 1 question record loaded at startup.
func GetQuestionBank(c *gin.Context) {
	c.JSON(200, services.QuestionBank())
}
