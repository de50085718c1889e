package service

import (
	"encoding/json"
	"regexp"

	"github.com/podiumlabs/orator_service/internal/errors"
)

// ParsedAnalysis is the decoded feedback object extracted from a model reply.
// Fields are passed through as the model produced them: scores are not
// clamped and ratings are not checked for enum membership, so consumers must
// treat unrecognized values as unstyled defaults rather than crashing.
type ParsedAnalysis struct {
	ConfidenceScore  int      `json:"confidence_score"`
	PaceRating       string   `json:"pace_rating"`
	ClarityRating    string   `json:"clarity_rating"`
	FillerWordsCount int      `json:"filler_words_count"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	AISummary        string   `json:"ai_summary"`
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\n?(.*?)\n?```")
	bareJSONRe   = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSONPayload selects the JSON substring of a model reply. The
// fallback order is load-bearing for compatibility with models that wrap
// JSON in prose: a fenced ```json block wins, then the greedy first-'{' to
// last-'}' span, then the raw text as-is.
func ExtractJSONPayload(reply string) string {
	if m := fencedJSONRe.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	if m := bareJSONRe.FindString(reply); m != "" {
		return m
	}
	return reply
}

// ParseAnalysis decodes a raw model reply into a ParsedAnalysis. Decode
// failure is terminal: the pipeline neither retries the model call nor
// attempts a repair pass. A missing filler-word count defaults to zero.
func ParseAnalysis(reply string) (*ParsedAnalysis, error) {
	payload := ExtractJSONPayload(reply)

	var raw struct {
		ConfidenceScore  float64  `json:"confidence_score"`
		PaceRating       string   `json:"pace_rating"`
		ClarityRating    string   `json:"clarity_rating"`
		FillerWordsCount *int     `json:"filler_words_count"`
		Strengths        []string `json:"strengths"`
		Improvements     []string `json:"improvements"`
		AISummary        string   `json:"ai_summary"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, errors.Wrap(errors.ErrUnparsableAnalysis, "invalid AI response format", err)
	}

	fillerCount := 0
	if raw.FillerWordsCount != nil {
		fillerCount = *raw.FillerWordsCount
	}

	return &ParsedAnalysis{
		ConfidenceScore:  int(raw.ConfidenceScore),
		PaceRating:       raw.PaceRating,
		ClarityRating:    raw.ClarityRating,
		FillerWordsCount: fillerCount,
		Strengths:        raw.Strengths,
		Improvements:     raw.Improvements,
		AISummary:        raw.AISummary,
	}, nil
}
