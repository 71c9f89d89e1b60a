package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"google.golang.org/genai"

	"github.com/coursegen/coursegen-api/internal/config"
	"github.com/coursegen/coursegen-api/internal/domain"
	"github.com/coursegen/coursegen-api/internal/generation"
	"github.com/coursegen/coursegen-api/internal/stream"
)

// DayGenerator implements the generation.DayGenerator and
// generation.StreamGenerator interfaces using Google's Gemini API.
type DayGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// dayTemplate is the parsed template for single-day prompts
	dayTemplate *template.Template

	// streamTemplate is the parsed template for full-curriculum NDJSON prompts
	streamTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string

	// streamBuffer caps the stream decoder's reassembly buffer; zero means
	// the decoder default.
	streamBuffer int
}

var (
	_ generation.DayGenerator    = (*DayGenerator)(nil)
	_ generation.StreamGenerator = (*DayGenerator)(nil)
)

// Option configures optional DayGenerator behavior.
type Option func(*DayGenerator)

// WithStreamBuffer overrides the reassembly buffer cap used when decoding
// streamed responses.
func WithStreamBuffer(n int) Option {
	return func(g *DayGenerator) {
		if n > 0 {
			g.streamBuffer = n
		}
	}
}

// NewDayGenerator creates a new instance of DayGenerator with the provided
// dependencies. The day prompt template defaults to the embedded one and can
// be overridden through config.PromptTemplatePath.
func NewDayGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig, opts ...Option) (*DayGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	dayTemplateText := dayPromptTemplate
	if cfg.PromptTemplatePath != "" {
		content, err := os.ReadFile(cfg.PromptTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
		}
		dayTemplateText = string(content)
	}

	dayTemplate, err := template.New("day").Parse(dayTemplateText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse day prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	streamTemplate, err := template.New("curriculum").Parse(streamPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse stream prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	g := &DayGenerator{
		logger:         logger.With("component", "gemini_generator"),
		config:         cfg,
		dayTemplate:    dayTemplate,
		streamTemplate: streamTemplate,
		client:         client,
		model:          cfg.ModelName,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// buildPrompt renders the given template for one request.
func (g *DayGenerator) buildPrompt(tmpl *template.Template, req domain.GenerationRequest, day int) (string, error) {
	data := promptData{
		Topic:      req.Topic,
		Experience: string(req.Experience),
		Day:        day,
		TotalDays:  req.TotalDays,
		Goals:      req.Goals,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// GenerateDay makes one Gemini call for one curriculum day. The call is not
// retried here; transient failures are classified and surfaced so the batch
// scheduler can apply its retry policy.
func (g *DayGenerator) GenerateDay(ctx context.Context, req domain.GenerationRequest, day int) (*domain.DayPlan, error) {
	prompt, err := g.buildPrompt(g.dayTemplate, req, day)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "making Gemini API call",
		"day", day,
		"prompt_length", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	text, err := g.extractText(resp)
	if err != nil {
		return nil, err
	}

	plan, err := stream.NormalizeDayPlan([]byte(cleanResponse(text)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	if plan.Day != day {
		return nil, fmt.Errorf("%w: requested day %d, got day %d",
			generation.ErrIndexMismatch, day, plan.Day)
	}

	g.logger.DebugContext(ctx, "Gemini API call successful", "day", day)
	return plan, nil
}

// extractText validates the response envelope and returns its concatenated
// text content.
func (g *DayGenerator) extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	return text, nil
}
