package services

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"bandhub/models"
)

// Stopwords excluded from overlap scoring, matching the bank's question style.
var retrievalStopwords = map[string]struct{}{
	"do": {}, "you": {}, "the": {}, "a": {}, "an": {},
	"to": {}, "is": {}, "are": {}, "of": {}, "in": {}, "on": {},
}

var wordPattern = regexp.MustCompile(`[a-z]+`)

// tokenize lowercases text and returns its alphabetic words minus stopwords.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := retrievalStopwords[word]; !skip {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

// Retriever ranks question-bank records by lexical overlap with a query. It
// is a pure function over the records it was built with.
type Retriever struct {
	records []models.QARecord
	rng     *rand.Rand
}

// NewRetriever builds a retriever over records. A nil rng gets a time-seeded
// source; tests pass a seeded one.
func NewRetriever(records []models.QARecord, rng *rand.Rand) *Retriever {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Retriever{records: records, rng: rng}
}

// Retrieve returns up to topK records. Candidates are scored by the number of
// shared query tokens plus a +2 bonus for a case-insensitive topic match;
// only positive scores rank. When nothing overlaps at all, the result is a
// uniform random sample drawn from the same-topic pool when one exists,
// otherwise the whole bank.
func (r *Retriever) Retrieve(query, topic string, topK int) []models.QARecord {
	if len(r.records) == 0 || topK <= 0 {
		return nil
	}

	topicNorm := strings.ToLower(strings.TrimSpace(topic))
	queryTokens := tokenize(query)

	type scoredRecord struct {
		score  int
		record models.QARecord
	}
	var matched []scoredRecord
	for _, rec := range r.records {
		score := 0
		for token := range tokenize(rec.Question) {
			if _, ok := queryTokens[token]; ok {
				score++
			}
		}
		if topicNorm != "" && strings.ToLower(rec.Topic) == topicNorm {
			score += 2
		}
		if score > 0 {
			matched = append(matched, scoredRecord{score: score, record: rec})
		}
	}

	if len(matched) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].score > matched[j].score
		})
		if len(matched) > topK {
			matched = matched[:topK]
		}
		out := make([]models.QARecord, 0, len(matched))
		for _, m := range matched {
			out = append(out, m.record)
		}
		return out
	}

	pool := r.records
	if topicNorm != "" {
		var sameTopic []models.QARecord
		for _, rec := range r.records {
			if strings.ToLower(rec.Topic) == topicNorm {
				sameTopic = append(sameTopic, rec)
			}
		}
		if len(sameTopic) > 0 {
			pool = sameTopic
		}
	}

	k := topK
	if k > len(pool) {
		k = len(pool)
	}
	out := make([]models.QARecord, 0, k)
	for _, idx := range r.rng.Perm(len(pool))[:k] {
		out = append(out, pool[idx])
	}
	return out
}
