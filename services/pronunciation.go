package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"bandhub/models"
)

const pronunciationSystemPrompt = "You are a pronunciation coach. For each target word, decide from the " +
	"transcript whether the learner said it correctly, mispronounced it (the transcript shows a near-miss " +
	"like 'root teen' for 'routine'), or missed it entirely. Return ONLY a JSON array where each element is " +
	`{"word": str, "status": "correct"|"mispronounced"|"missing", "recognized_as": str|null, "ipa": str, "hint": str}. ` +
	"Keep each hint to one short sentence the learner can act on."

// PronunciationAnalyzer classifies anchor words against a transcript through
// a generation call, with a deterministic string-matching fallback.
type PronunciationAnalyzer struct {
	backend GenerationBackend
}

func NewPronunciationAnalyzer(backend GenerationBackend) *PronunciationAnalyzer {
	return &PronunciationAnalyzer{backend: backend}
}

// Analyze returns verdicts in anchor-word order. An empty anchor list returns
// an empty slice without touching the backend. The model path is best-effort:
// words the model skipped simply have no verdict, and extra entries are
// dropped. Any generation or parse failure switches to the substring
// fallback, which covers every word but can never detect a near-miss.
func (a *PronunciationAnalyzer) Analyze(ctx context.Context, transcript string, anchorWords []string) []models.PronunciationVerdict {
	if len(anchorWords) == 0 {
		return []models.PronunciationVerdict{}
	}

	raw, err := a.backend.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: pronunciationSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Transcript: %s\nTarget words: %s", transcript, strings.Join(anchorWords, ", "))},
	}, 0.3)
	if err != nil {
		log.Printf("Pronunciation analysis failed, using string matching: %v", err)
		return fallbackVerdicts(transcript, anchorWords)
	}

	verdicts, err := parsePronunciationVerdicts(raw)
	if err != nil {
		log.Printf("Pronunciation response unparseable, using string matching: %v", err)
		return fallbackVerdicts(transcript, anchorWords)
	}
	return orderVerdicts(verdicts, anchorWords)
}

func parsePronunciationVerdicts(raw string) ([]models.PronunciationVerdict, error) {
	cleaned := cleanModelOutput(raw)

	var verdicts []models.PronunciationVerdict
	if err := json.Unmarshal([]byte(cleaned), &verdicts); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return nil, &ParseError{Raw: raw, Err: repairErr}
		}
		if err := json.Unmarshal([]byte(repaired), &verdicts); err != nil {
			return nil, &ParseError{Raw: raw, Err: err}
		}
	}
	return verdicts, nil
}

// orderVerdicts re-keys the model's output by anchor word so the result
// preserves input order. No arity is enforced.
func orderVerdicts(verdicts []models.PronunciationVerdict, anchorWords []string) []models.PronunciationVerdict {
	byWord := make(map[string]models.PronunciationVerdict, len(verdicts))
	for _, v := range verdicts {
		byWord[strings.ToLower(strings.TrimSpace(v.Word))] = v
	}

	ordered := make([]models.PronunciationVerdict, 0, len(anchorWords))
	for _, word := range anchorWords {
		if v, ok := byWord[strings.ToLower(strings.TrimSpace(word))]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered
}

// fallbackVerdicts runs a case-insensitive containment check. It never
// produces "mispronounced": a near-miss like "root teen" does not contain
// "routine", so the word is reported missing.
func fallbackVerdicts(transcript string, anchorWords []string) []models.PronunciationVerdict {
	lowered := strings.ToLower(transcript)
	verdicts := make([]models.PronunciationVerdict, 0, len(anchorWords))
	for _, word := range anchorWords {
		if strings.Contains(lowered, strings.ToLower(word)) {
			verdicts = append(verdicts, models.PronunciationVerdict{
				Word:         word,
				Status:       models.PronunciationCorrect,
				RecognizedAs: word,
				Hint:         "Nice, this word came through clearly.",
			})
			continue
		}
		verdicts = append(verdicts, models.PronunciationVerdict{
			Word:   word,
			Status: models.PronunciationMissing,
			Hint:   "We did not hear this word. Try saying it slowly and clearly.",
		})
	}
	return verdicts
}
