package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"bandhub/models"
)

// The three personas of the role-playing critique loop.
const (
	examinerPersona = "You are a Senior IELTS Examiner. Assess the student based on Fluency, Lexical, " +
		"and Grammar. Be professional."
	criticPersona = "You are a Linguistic Critic. Review the Examiner's report. Propose 3 advanced " +
		"collocations to replace basic words in the student's answer."
	gameMasterPersona = "You are the Game Master. Finalize the scores and report into JSON format. " +
		"Return ONLY valid JSON and nothing else."
)

const consolidationPromptFmt = "Consolidate:\n" +
	"Examiner: %s\n" +
	"Critic: %s\n" +
	`Return JSON: { "scores": { "fluency": float, "lexical": float, "grammar": float, "pronunciation": float }, ` +
	`"report": str, "xp": int, "errors": [ { "type": "grammar"|"lexical"|"pronunciation"|"fluency", ` +
	`"original": str, "correction": str, "explanation": str } ] }`

const defaultXpReward = 100

// EvaluationOrchestrator drives the critique pipeline over one spoken answer:
// transcribe, optionally analyze pronunciation, fetch the band rubric, then
// run the examiner, critic and game-master personas strictly in sequence.
// Each stage depends on the previous stage's output, so there is no fan-out.
type EvaluationOrchestrator struct {
	transcriber Transcriber
	backend     GenerationBackend
	analyzer    *PronunciationAnalyzer
}

var evaluationOrchestrator *EvaluationOrchestrator

// InitEvaluationService wires the orchestrator to the resolved transcriber
// and generation backend. Call after InitGenerationService and
// InitTranscriptionService.
func InitEvaluationService() {
	evaluationOrchestrator = NewEvaluationOrchestrator(transcriber, generationBackend, NewPronunciationAnalyzer(generationBackend))
}

// Evaluate is the package-level entry point used by the HTTP layer.
func Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationResult, error) {
	if evaluationOrchestrator == nil {
		return nil, errors.New("evaluation service not initialized")
	}
	return evaluationOrchestrator.Evaluate(ctx, req)
}

func NewEvaluationOrchestrator(transcriber Transcriber, backend GenerationBackend, analyzer *PronunciationAnalyzer) *EvaluationOrchestrator {
	return &EvaluationOrchestrator{
		transcriber: transcriber,
		backend:     backend,
		analyzer:    analyzer,
	}
}

// Evaluate runs the full pipeline and assembles the result exactly once.
//
// Failure policy differs per stage on purpose: a transcription failure is an
// in-band sentinel that flows forward (a degraded-but-complete report beats
// an aborted one), examiner/critic/consolidation call failures propagate to
// the caller, and an unparseable consolidation response degrades to default
// scores instead of failing the request.
func (o *EvaluationOrchestrator) Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationResult, error) {
	var thoughts []string
	think := func(format string, args ...interface{}) {
		thoughts = append(thoughts, fmt.Sprintf("Agent: "+format, args...))
	}

	think("[AudioNode] Decoding candidate response...")
	transcription := o.transcriber.Transcribe(ctx, req.Audio)
	think("[AudioNode] Signal locked. Content: '%s...'", head(transcription, 60))

	pronunciation := []models.PronunciationVerdict{}
	if len(req.AnchorWords) > 0 {
		think("[Phonics] Checking %d target words against the transcript...", len(req.AnchorWords))
		pronunciation = o.analyzer.Analyze(ctx, transcription, req.AnchorWords)
	}

	think("[Critic] Fetching band descriptors for target %s...", req.TargetLevel)
	rubric := DescribeRubric(req.TargetLevel)

	think("[Examiner] Evaluating response against official band descriptors...")
	assessment, err := o.backend.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: examinerPersona},
		{Role: "user", Content: fmt.Sprintf("Transcription: %s\nContext: %s", transcription, rubric)},
	}, 0.5)
	if err != nil {
		return nil, fmt.Errorf("examiner stage: %w", err)
	}

	think("[Critic] Peer-reviewing the examiner assessment and proposing upgrades...")
	criticReport, err := o.backend.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: criticPersona},
		{Role: "user", Content: fmt.Sprintf("Transcription: %s\nExaminer Report: %s", transcription, assessment)},
	}, 0.5)
	if err != nil {
		return nil, fmt.Errorf("critic stage: %w", err)
	}

	think("[GM] Synthesizing the final JSON report and calculating rewards...")
	gmRaw, err := o.backend.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: gameMasterPersona},
		{Role: "user", Content: fmt.Sprintf(consolidationPromptFmt, assessment, criticReport)},
	}, 0.3)
	if err != nil {
		return nil, fmt.Errorf("consolidation stage: %w", err)
	}

	consolidation := parseConsolidation(gmRaw)
	if consolidation.Defaulted {
		think("[GM] Final report was not valid JSON; applying default scoring.")
	}

	return &models.EvaluationResult{
		Transcription:         transcription,
		Scores:                consolidation.Scores,
		Feedback:              consolidation.Report + "\n\nLinguistic Upgrades:\n" + criticReport,
		XPReward:              consolidation.XP,
		PronunciationFeedback: pronunciation,
		DetectedErrors:        consolidation.Errors,
		AgentThoughts:         thoughts,
	}, nil
}

// Consolidation is the game-master output in one of two explicit shapes:
// parsed from the model's JSON, or — when Defaulted is set — the fixed
// degraded shape produced because the response was not usable JSON.
type Consolidation struct {
	Scores    map[string]float64
	Report    string
	XP        int
	Errors    []models.DetectedError
	Defaulted bool
}

// parseConsolidation strips code fences, attempts a plain parse, then a
// repaired parse, and finally degrades to the fixed default shape with the
// raw text carried as the report.
func parseConsolidation(raw string) Consolidation {
	cleaned := cleanModelOutput(raw)

	var payload struct {
		Scores map[string]float64     `json:"scores"`
		Report string                 `json:"report"`
		XP     *int                   `json:"xp"`
		Errors []models.DetectedError `json:"errors"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil || json.Unmarshal([]byte(repaired), &payload) != nil {
			return defaultConsolidation(raw)
		}
	}

	out := Consolidation{
		Report: payload.Report,
		XP:     defaultXpReward,
		Errors: payload.Errors,
	}
	if payload.XP != nil {
		out.XP = *payload.XP
	}
	// A parsed response without scores is "unscored", distinct from the
	// all-5.0 default that only a parse failure produces.
	if payload.Scores != nil {
		out.Scores = payload.Scores
	} else {
		out.Scores = map[string]float64{}
	}
	if out.Errors == nil {
		out.Errors = []models.DetectedError{}
	}
	return out
}

func defaultConsolidation(raw string) Consolidation {
	return Consolidation{
		Scores: map[string]float64{
			"fluency":       5.0,
			"lexical":       5.0,
			"grammar":       5.0,
			"pronunciation": 5.0,
		},
		Report:    raw,
		XP:        defaultXpReward,
		Errors:    []models.DetectedError{},
		Defaulted: true,
	}
}

func head(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
