package services

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"strings"
	"sync"

	"bandhub/models"
)

// The question bank is loaded once per process and shared read-only across
// requests. Invalidation is a process restart.
var (
	bankOnce    sync.Once
	bankRecords []models.QARecord
)

// InitQuestionBank loads and caches the bank from path. Only the first call
// has any effect.
func InitQuestionBank(path string) {
	bankOnce.Do(func() {
		bankRecords = loadBank(path)
		log.Printf("Question bank loaded: %d records from %s", len(bankRecords), path)
	})
}

// SetQuestionBank replaces the cached bank. Tests use it to inject fixtures.
func SetQuestionBank(records []models.QARecord) {
	bankOnce.Do(func() {})
	bankRecords = records
}

// QuestionBank returns the cached records. The slice must be treated as
// read-only.
func QuestionBank() []models.QARecord {
	return bankRecords
}

// loadBank reads the bank file and drops records that lack a question or a
// usable sample answer. A missing or malformed file yields an empty bank
// rather than an error.
func loadBank(path string) []models.QARecord {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		log.Printf("Question bank unavailable: %v", err)
		return nil
	}

	var raw []models.QARecord
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("Question bank is not valid JSON: %v", err)
		return nil
	}

	cleaned := make([]models.QARecord, 0, len(raw))
	for _, rec := range raw {
		rec.Question = strings.TrimSpace(rec.Question)
		if rec.Question == "" {
			continue
		}

		answers := make([]string, 0, len(rec.SampleAnswers))
		for _, answer := range rec.SampleAnswers {
			if trimmed := strings.TrimSpace(answer); trimmed != "" {
				answers = append(answers, trimmed)
			}
		}
		if len(answers) == 0 {
			continue
		}
		rec.SampleAnswers = answers

		if strings.TrimSpace(rec.Topic) == "" {
			rec.Topic = "other"
		}
		cleaned = append(cleaned, rec)
	}
	return cleaned
}
