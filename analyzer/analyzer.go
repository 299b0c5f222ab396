package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
)

// ErrMalformedResponse marks a model reply that did not decode into a
// complete analysis. Transport failures carry their own messages and do
// not wrap this error.
var ErrMalformedResponse = errors.New("malformed analysis response")

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentMixed    SentimentLabel = "Mixed"
)

// NormalizeSentimentLabel maps whatever string the model produced onto the
// closed four-value set. The upstream source is a text generator, not a
// schema-enforced API, so anything unrecognized falls back to Neutral.
func NormalizeSentimentLabel(s string) SentimentLabel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return SentimentPositive
	case "negative":
		return SentimentNegative
	case "mixed":
		return SentimentMixed
	default:
		return SentimentNeutral
	}
}

// GrammarIssue is one flagged span of speech: the quote as spoken, what is
// wrong with it, a corrected phrasing, and a fluency tip.
type GrammarIssue struct {
	Original   string `json:"original"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
	Tip        string `json:"tip"`
}

type Sentiment struct {
	Label       SentimentLabel `json:"label"`
	Explanation string         `json:"explanation"`
}

// NetStats carries per-call network timings from the traced transport.
// Backends that ride a library client leave it nil.
type NetStats struct {
	PayloadKB   float64
	DNSMs       float64
	TLSMs       float64
	TTFBMs      float64
	TotalMs     float64
	ConnReused  bool
	TLSProtocol string
}

// Result is one complete speech analysis. It is only ever produced whole:
// parsing rejects anything missing a transcript, summary, grammar list, or
// sentiment before a Result exists.
type Result struct {
	Transcript      string
	Summary         string
	GrammarAnalysis []GrammarIssue
	Sentiment       Sentiment

	RateLimit string
	Net       *NetStats
	Metrics   []string // pre-formatted lines for display
}

type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, clip *audio.Clip) (*Result, error)
}

// New selects a backend from the environment. A missing credential is a
// construction failure, not a deferred runtime error.
func New() (Analyzer, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return NewGemini(key), nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return NewOpenAI(key), nil
	}
	return nil, fmt.Errorf("set GEMINI_API_KEY or OPENAI_API_KEY environment variable")
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}
