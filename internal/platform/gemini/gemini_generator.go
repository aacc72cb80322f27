package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/studybuddy/studybuddy-api/internal/config"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/generation"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"google.golang.org/genai"
)

const (
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
	defaultTimeoutSeconds    = 30
)

//go:embed prompts/flashcards.tmpl
var defaultPromptTemplate string

// contentGenerator is the part of the genai client the generator uses.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// models issues the API requests
	models contentGenerator

	// sleep waits between retries; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator backed by a new Gemini API client.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models)
}

func newGenerator(logger *slog.Logger, cfg config.LLMConfig, models contentGenerator) (*GeminiGenerator, error) {
	promptTemplate, err := template.New("flashcards").Option("missingkey=error").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelaySeconds < 1 {
		cfg.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiGenerator{
		logger:         logger.With("component", "gemini_generator", "model", cfg.ModelName),
		config:         cfg,
		promptTemplate: promptTemplate,
		models:         models,
		sleep:          sleepContext,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// GenerateCards implements generation.Generator.
func (g *GeminiGenerator) GenerateCards(ctx context.Context, text string, maxCards int) ([]domain.CardDraft, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, generation.ErrEmptyText
	}
	if limit := g.config.MaxCards; limit > 0 && (maxCards <= 0 || maxCards > limit) {
		maxCards = limit
	}
	if maxCards <= 0 {
		maxCards = 10
	}

	prompt, err := g.createPrompt(text, maxCards)
	if err != nil {
		return nil, err
	}

	response, err := g.callGeminiWithRetry(ctx, log, prompt)
	if err != nil {
		return nil, err
	}

	drafts, err := parseResponse(response, maxCards)
	if err != nil {
		log.WarnContext(ctx, "Gemini response rejected", "error", err)
		return nil, err
	}

	log.InfoContext(ctx, "Generated flashcard drafts",
		"text_length", len(text),
		"draft_count", len(drafts))
	return drafts, nil
}

// createPrompt renders the prompt template for text.
func (g *GeminiGenerator) createPrompt(text string, maxCards int) (string, error) {
	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{Text: text, MaxCards: maxCards}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callGeminiWithRetry makes a call to the Gemini API with exponential backoff retry logic.
//
// It attempts the call up to config.MaxRetries+1 times. Between attempts it
// waits baseDelay * 2^attempt * (0.5 + rand(0, 0.5)). Permanent errors are
// returned immediately.
func (g *GeminiGenerator) callGeminiWithRetry(ctx context.Context, log *slog.Logger, prompt string) (*ResponseSchema, error) {
	maxRetries := g.config.MaxRetries

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		log.DebugContext(ctx, "Making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		response, err := g.callOnce(ctx, prompt)
		if err == nil {
			return response, nil
		}

		log.WarnContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if generation.IsPermanent(err) {
			return nil, err
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		delay := g.backoff(attempt)
		log.InfoContext(ctx, "Retrying after delay",
			"attempt", attemptNum,
			"delay", delay.String())

		if err := g.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

func (g *GeminiGenerator) backoff(attempt int) time.Duration {
	g.rngMu.Lock()
	jitter := 0.5 + g.rng.Float64()*0.5
	g.rngMu.Unlock()

	seconds := float64(g.config.RetryDelaySeconds) * math.Pow(2, float64(attempt)) * jitter
	return time.Duration(seconds * float64(time.Second))
}

// callOnce performs one request and classifies its failure.
func (g *GeminiGenerator) callOnce(ctx context.Context, prompt string) (*ResponseSchema, error) {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(g.config.TimeoutSeconds)*time.Second)
	defer cancel()

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	resp, err := g.models.GenerateContent(callCtx, g.config.ModelName, contents, generateConfig())
	if err != nil {
		return nil, classifyAPIError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(stripCodeFence(text.String())), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

func generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"cards": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"front": {Type: genai.TypeString},
							"back":  {Type: genai.TypeString},
						},
						Required: []string{"front", "back"},
					},
				},
			},
			Required: []string{"cards"},
		},
	}
}

// classifyAPIError marks client errors other than throttling and timeouts
// as permanent.
func classifyAPIError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	}

	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	default:
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
}

// parseResponse converts the structured response into card drafts.
// A card with an empty side fails the whole response.
func parseResponse(response *ResponseSchema, maxCards int) ([]domain.CardDraft, error) {
	if response == nil || len(response.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	cards := response.Cards
	if len(cards) > maxCards {
		cards = cards[:maxCards]
	}

	drafts := make([]domain.CardDraft, 0, len(cards))
	for i, c := range cards {
		front := strings.TrimSpace(c.Front)
		back := strings.TrimSpace(c.Back)
		if front == "" {
			return nil, fmt.Errorf("%w: card %d missing front side", generation.ErrInvalidResponse, i)
		}
		if back == "" {
			return nil, fmt.Errorf("%w: card %d missing back side", generation.ErrInvalidResponse, i)
		}
		drafts = append(drafts, domain.CardDraft{Front: front, Back: back})
	}
	return drafts, nil
}

// stripCodeFence removes a Markdown code fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
