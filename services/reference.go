package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"bandhub/models"
)

// AllowedBands are the target bands the reference-answer endpoint accepts.
// Validation happens at the HTTP layer; the composer itself passes any band
// value through unchanged.
var AllowedBands = map[string]bool{
	"5.5": true, "6": true, "6.5": true, "7": true, "7.5": true, "8": true,
}

const referenceSystemPrompt = "You are an IELTS Speaking Part 1 coach. " +
	"Use the reference material as style guidance and never copy it verbatim. " +
	"Write one natural spoken-English answer of 2-4 sentences, no bullet points. " +
	"Personalize it to the learner profile and match the requested band exactly."

// ReferenceComposer builds personalized sample answers from retrieved
// examples and a learner profile.
type ReferenceComposer struct {
	retriever *Retriever
	backend   GenerationBackend
}

var referenceComposer *ReferenceComposer

// InitReferenceService wires the composer to the cached question bank and the
// resolved generation backend. Call after InitGenerationService and
// InitQuestionBank.
func InitReferenceService() {
	referenceComposer = NewReferenceComposer(NewRetriever(QuestionBank(), nil), generationBackend)
}

// ComposeReferenceAnswer is the package-level entry point used by the HTTP
// layer.
func ComposeReferenceAnswer(ctx context.Context, question, band string, profile models.LearnerProfile) (string, error) {
	if referenceComposer == nil {
		return "", errors.New("reference service not initialized")
	}
	return referenceComposer.Compose(ctx, question, band, profile), nil
}

func NewReferenceComposer(retriever *Retriever, backend GenerationBackend) *ReferenceComposer {
	return &ReferenceComposer{retriever: retriever, backend: backend}
}

// Compose never returns empty text: any generation failure or blank
// completion falls back to a deterministic template built from the profile.
// The output is always collapsed into a single line.
func (c *ReferenceComposer) Compose(ctx context.Context, question, band string, profile models.LearnerProfile) string {
	examples := c.retriever.Retrieve(question, profile.Topic, 5)
	references := renderReferenceExamples(examples)

	userPrompt := fmt.Sprintf(
		"Target band: %s\nQuestion: %s\nLearner profile:\n%s\n\n"+
			"Reference examples (do not copy verbatim):\n%s\n\n"+
			"Return exactly one answer in IELTS Speaking Part 1 style, 2-4 sentences.",
		band, question, profileText(profile), references,
	)

	answer, err := c.backend.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: referenceSystemPrompt},
		{Role: "user", Content: userPrompt},
	}, 0.6)
	if err != nil {
		log.Printf("Reference answer generation failed, using fallback: %v", err)
		return fallbackReferenceAnswer(profile, band)
	}

	cleaned := strings.Join(strings.Fields(answer), " ")
	if cleaned == "" {
		return fallbackReferenceAnswer(profile, band)
	}
	return cleaned
}

// renderReferenceExamples formats retrieved records as Q/A blocks, keeping
// only the first sample answer of each record.
func renderReferenceExamples(examples []models.QARecord) string {
	var blocks []string
	for _, ex := range examples {
		question := strings.TrimSpace(ex.Question)
		answer := ""
		if len(ex.SampleAnswers) > 0 {
			answer = strings.TrimSpace(ex.SampleAnswers[0])
		}
		if question != "" && answer != "" {
			blocks = append(blocks, "Q: "+question+"\nA: "+answer)
		}
	}
	if len(blocks) == 0 {
		return "No strong examples found."
	}
	return strings.Join(blocks, "\n\n")
}

func profileText(profile models.LearnerProfile) string {
	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, "- "+key+": "+value)
		}
	}
	add("identity", profile.Identity)
	add("ageGroup", profile.AgeGroup)
	add("city", profile.City)
	add("currentLevel", profile.CurrentLevel)
	add("targetScore", profile.TargetScore)
	add("partner", profile.Partner)
	if len(profile.Hobbies) > 0 {
		lines = append(lines, "- hobbies: "+strings.Join(profile.Hobbies, ", "))
	}
	if len(lines) == 0 {
		return "No useful profile fields provided."
	}
	return strings.Join(lines, "\n")
}

// fallbackReferenceAnswer is fully deterministic for a given profile and band.
func fallbackReferenceAnswer(profile models.LearnerProfile, band string) string {
	identity := profile.Identity
	if identity == "" {
		identity = "a student"
	}
	city := profile.City
	if city == "" {
		city = "my city"
	}
	hobbyText := ""
	if len(profile.Hobbies) > 0 {
		hobbies := profile.Hobbies
		if len(hobbies) > 2 {
			hobbies = hobbies[:2]
		}
		hobbyText = " In my free time, I usually enjoy " + strings.Join(hobbies, ", ") + "."
	}
	return fmt.Sprintf(
		"As %s, I'd say this is quite important in my daily life, especially in %s."+
			" I try to answer naturally and give one clear reason with a simple example.%s"+
			" Overall, this topic is easy for me to talk about at around band %s.",
		identity, city, hobbyText, band,
	)
}
