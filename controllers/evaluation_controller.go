package controllers

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"bandhub/models"
	"bandhub/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const completionModelName = "bandhub-multi-agent"

// EvaluateSpeaking handles the multipart evaluation upload and returns the
// result wrapped in an OpenAI-style chat completion envelope, with the
// structured report carried in the assistant message metadata.
func EvaluateSpeaking(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(400, gin.H{"detail": "No audio file provided."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(400, gin.H{"detail": "Unable to read audio file: " + err.Error()})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		c.JSON(400, gin.H{"detail": "Unable to read audio file: " + err.Error()})
		return
	}

	req := models.EvaluationRequest{
		Audio:       audio,
		Question:    c.PostForm("question"),
		TargetLevel: c.DefaultPostForm("level", "6.0-6.5"),
		Part:        c.DefaultPostForm("part", "P1"),
		AnchorWords: parseAnchorWords(c.PostForm("anchorWords")),
	}

	result, err := services.Evaluate(c.Request.Context(), req)
	if err != nil {
		c.JSON(500, gin.H{"detail": "Internal Server Error: " + err.Error()})
		return
	}

	c.JSON(200, buildCompletionEnvelope(result, req.Question))
}

// parseAnchorWords accepts either a JSON array or a comma-separated list.
func parseAnchorWords(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var words []string
	if err := json.Unmarshal([]byte(raw), &words); err != nil {
		for _, word := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(word); trimmed != "" {
				words = append(words, trimmed)
			}
		}
		return words
	}

	cleaned := words[:0]
	for _, word := range words {
		if trimmed := strings.TrimSpace(word); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func buildCompletionEnvelope(result *models.EvaluationResult, question string) gin.H {
	promptTokens := len(strings.Fields(question)) + 50
	completionTokens := len(strings.Fields(result.Feedback))

	return gin.H{
		"id":      "chatcmpl-" + uuid.NewString(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   completionModelName,
		"choices": []gin.H{
			{
				"index": 0,
				"message": gin.H{
					"role":    "assistant",
					"content": result.Feedback,
					"metadata": gin.H{
						"transcription":          result.Transcription,
						"scores":                 result.Scores,
						"agent_thoughts":         result.AgentThoughts,
						"xp_reward":              result.XPReward,
						"pronunciation_feedback": result.PronunciationFeedback,
						"detected_errors":        result.DetectedErrors,
					},
				},
				"finish_reason": "stop",
			},
		},
		"usage": gin.H{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
}
