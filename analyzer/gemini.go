package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
)

const geminiModel = "gemini-2.5-flash"

// analysisTemperature keeps decoding near-deterministic; the reply must be
// parseable JSON, not prose.
const analysisTemperature = 0.2

type Gemini struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewGemini(apiKey string) *Gemini {
	apiURL := "https://generativelanguage.googleapis.com/v1beta/models/" + geminiModel + ":generateContent"
	g := &Gemini{
		client: NewTracedClient(apiURL),
		apiURL: apiURL,
		apiKey: apiKey,
	}
	go g.client.Warm()
	return g
}

func (g *Gemini) Name() string { return "gemini" }

type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Analyze sends one multimodal generateContent request: the fixed
// instruction block plus the audio inline as base64. No retry, no
// streaming; the caller decides what to do with a failure.
func (g *Gemini) Analyze(ctx context.Context, clip *audio.Clip) (*Result, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: analysisInstructions},
				{InlineData: &geminiBlob{
					MIMEType: clip.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(clip.Data),
				}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      analysisTemperature,
			ResponseMIMEType: "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp geminiResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("gemini response parse error: %w", err)
	}

	var text strings.Builder
	if len(gResp.Candidates) > 0 {
		for _, part := range gResp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("%w: empty model reply", ErrMalformedResponse)
	}

	result, err := parseResult(text.String())
	if err != nil {
		return nil, err
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")
	result.RateLimit = remaining + "/" + limit

	m := resp.Metrics
	result.Net = &NetStats{
		PayloadKB:   float64(len(body)) / 1024,
		DNSMs:       float64(m.DNS.Milliseconds()),
		TLSMs:       float64(m.TLS.Milliseconds()),
		TTFBMs:      float64(m.TTFB.Milliseconds()),
		TotalMs:     float64(m.Sum().Milliseconds()),
		ConnReused:  m.ConnReused,
		TLSProtocol: m.TLSProtocol,
	}
	result.Metrics = formatNetMetrics(m, len(body), len(clip.Data))

	return result, nil
}

func formatNetMetrics(m *NetworkMetrics, payloadBytes, audioBytes int) []string {
	reusedStatus := ""
	if m.ConnReused {
		reusedStatus = " (reused)"
	}
	return []string{
		fmt.Sprintf("audio:      %.1f KB (%.1f KB encoded payload)", float64(audioBytes)/1024, float64(payloadBytes)/1024),
		fmt.Sprintf("conn_wait:  %dms%s", m.ConnWait.Milliseconds(), reusedStatus),
		fmt.Sprintf("dns:        %dms", m.DNS.Milliseconds()),
		fmt.Sprintf("tls:        %dms", m.TLS.Milliseconds()),
		fmt.Sprintf("ttfb:       %dms", m.TTFB.Milliseconds()),
		fmt.Sprintf("download:   %dms", m.Download.Milliseconds()),
		fmt.Sprintf("total:      %dms", m.Sum().Milliseconds()),
	}
}
