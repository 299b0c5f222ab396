package analyzer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceTag = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// extractJSON strips an optional fenced code block wrapper from the model
// reply. The opening fence may carry a language tag ("json"). Best-effort
// normalization only: anything that still isn't a JSON object fails in
// parseResult.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(s[:nl]); tag == "" || fenceTag.MatchString(tag) {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseResult decodes and validates one model reply. Incomplete structures
// are rejected, never repaired: a Result either has every field or does not
// exist.
func parseResult(text string) (*Result, error) {
	raw := extractJSON(text)

	var wire struct {
		Transcript string          `json:"transcript"`
		Summary    string          `json:"summary"`
		Grammar    json.RawMessage `json:"grammarAnalysis"`
		Sentiment  json.RawMessage `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if strings.TrimSpace(wire.Transcript) == "" {
		return nil, fmt.Errorf("%w: missing transcript", ErrMalformedResponse)
	}
	if strings.TrimSpace(wire.Summary) == "" {
		return nil, fmt.Errorf("%w: missing summary", ErrMalformedResponse)
	}
	if len(wire.Grammar) == 0 || string(wire.Grammar) == "null" {
		return nil, fmt.Errorf("%w: missing grammarAnalysis", ErrMalformedResponse)
	}
	var issues []GrammarIssue
	if err := json.Unmarshal(wire.Grammar, &issues); err != nil {
		return nil, fmt.Errorf("%w: grammarAnalysis is not a list", ErrMalformedResponse)
	}
	if issues == nil {
		issues = []GrammarIssue{}
	}
	if len(wire.Sentiment) == 0 || string(wire.Sentiment) == "null" {
		return nil, fmt.Errorf("%w: missing sentiment", ErrMalformedResponse)
	}
	var sent struct {
		Label       string `json:"label"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(wire.Sentiment, &sent); err != nil {
		return nil, fmt.Errorf("%w: sentiment is not an object", ErrMalformedResponse)
	}

	return &Result{
		Transcript:      wire.Transcript,
		Summary:         wire.Summary,
		GrammarAnalysis: issues,
		Sentiment: Sentiment{
			Label:       NormalizeSentimentLabel(sent.Label),
			Explanation: sent.Explanation,
		},
	}, nil
}
