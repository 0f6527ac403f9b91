// Package chat turns dashboard snapshots into grounded LLM conversations.
// The orchestrator owns session flow and fallbacks; the Gemini client is a
// thin authenticated transport.
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/citypulse-labs/bengaluru-climate/internal/common"
	"github.com/citypulse-labs/bengaluru-climate/internal/session"
	"github.com/citypulse-labs/bengaluru-climate/internal/upstream"
)

// DefaultGeminiBaseURL is the hosted Generative Language API.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultGeminiModel is the model used unless configured otherwise.
const DefaultGeminiModel = "gemini-2.0-flash"

// DefaultRequestsPerMinute matches the free-tier quota.
const DefaultRequestsPerMinute = 15

// ErrBlocked means the API call succeeded but the model declined to
// answer, either refusing the prompt or cutting the reply off.
var ErrBlocked = errors.New("reply blocked upstream")

// Responder produces one assistant reply for a message given the system
// grounding and prior turns.
type Responder interface {
	Generate(ctx context.Context, system string, history []session.Turn, message string) (string, error)
}

// GeminiClient talks to the Generative Language API. A client-side limiter
// keeps bursts under the account quota; the circuit breaker reacts to a
// misbehaving backend like every other upstream here.
type GeminiClient struct {
	model   string
	apiKey  string
	baseURL string
	httpCfg upstream.Config
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGeminiClient builds the client. Empty baseURL and model select the
// hosted defaults; rpm <= 0 selects the free-tier rate.
func NewGeminiClient(client *http.Client, baseURL, apiKey, model string, rpm int) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	return &GeminiClient{
		model:   model,
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: upstream.Config{Client: client},
		circuit: upstream.NewBreaker("gemini"),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 2),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

// Generate sends system grounding, history and the new message, returning
// the model's text reply.
func (c *GeminiClient) Generate(ctx context.Context, system string, history []session.Turn, message string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: local quota guard: %v", upstream.ErrRateLimited, err)
	}

	body := geminiRequest{
		Contents: make([]geminiContent, 0, len(history)+1),
	}
	if system != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == session.RoleAssistant {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}
	body.Contents = append(body.Contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: message}},
	})
	body.GenerationConfig.Temperature = 0.4
	body.GenerationConfig.MaxOutputTokens = 512

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)
		return req, nil
	}

	resp, err := upstream.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := upstream.DecodeJSON(resp, &parsed); err != nil {
		return "", err
	}

	if parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", ErrBlocked, parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrBlocked)
	}

	cand := parsed.Candidates[0]
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		sb.WriteString(part.Text)
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		if cand.FinishReason == "SAFETY" || cand.FinishReason == "RECITATION" {
			return "", fmt.Errorf("%w: finish reason %s", ErrBlocked, cand.FinishReason)
		}
		return "", fmt.Errorf("%w: empty candidate text", upstream.ErrMalformedResponse)
	}
	return reply, nil
}

// classifyGeminiError refines transport errors. The API reports bad keys as
// 400 with an explanatory body rather than 401, so that case is upgraded.
func classifyGeminiError(err error) error {
	var se *upstream.StatusError
	if errors.As(err, &se) && se.Code == http.StatusBadRequest {
		if common.HasAny(se.Body, "api key", "api_key_invalid", "unauthenticated", "permission_denied") {
			return fmt.Errorf("%w: %v", upstream.ErrUnauthorized, err)
		}
	}
	return err
}
