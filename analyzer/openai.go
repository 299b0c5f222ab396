package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
)

// OpenAI analyzes in two hops: Whisper for the transcript, then one
// JSON-mode chat completion for the coaching analysis. The reply is held to
// the same schema and validation as the Gemini backend.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Analyze(ctx context.Context, clip *audio.Clip) (*Result, error) {
	start := time.Now()

	tr, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: clip.Name,
		Reader:   bytes.NewReader(clip.Data),
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription failed: %w", err)
	}
	transcribeMs := time.Since(start).Milliseconds()

	if strings.TrimSpace(tr.Text) == "" {
		return nil, fmt.Errorf("no speech detected in audio")
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: analysisTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisInstructions},
			{Role: openai.ChatMessageRoleUser, Content: textPrompt(tr.Text)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion choices", ErrMalformedResponse)
	}

	result, err := parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	rl := resp.GetRateLimitHeaders()
	if rl.LimitRequests > 0 {
		result.RateLimit = fmt.Sprintf("%d/%d", rl.RemainingRequests, rl.LimitRequests)
	}
	result.Metrics = []string{
		fmt.Sprintf("audio:      %.1f KB", float64(len(clip.Data))/1024),
		fmt.Sprintf("transcribe: %dms", transcribeMs),
		fmt.Sprintf("analyze:    %dms", time.Since(start).Milliseconds()-transcribeMs),
		fmt.Sprintf("total:      %dms", time.Since(start).Milliseconds()),
	}

	return result, nil
}
