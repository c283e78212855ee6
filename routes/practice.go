package routes

import (
	"bandhub/controllers"

	"github.com/gin-gonic/gin"
)

// SetupPracticeRoutes wires the speaking-practice API.
func SetupPracticeRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")
	{
		v1.POST("/chat/completions", controllers.ChatCompletions)
		v1.POST("/ielts/evaluate", controllers.EvaluateSpeaking)
		v1.POST("/reference/answer", controllers.GenerateReferenceAnswer)
		v1.POST("/speech/synthesize", controllers.SynthesizeSpeech)
		v1.POST("/image/generate", controllers.GenerateImage)
	}

	router.GET("/api/question-bank", controllers.GetQuestionBank)
}
