package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client implements llm.Client using the Gemini API.
type Client struct {
	model    string
	generate generateFunc
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{model: strings.TrimSpace(model), generate: gc.Models.GenerateContent}, nil
}

// AnalyzeResume sends the analysis prompt and returns the model's JSON output.
func (c *Client) AnalyzeResume(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	extra, _ := llm.ExtraSystemMessageFromContext(ctx)
	rawFix, fixing := llm.FixJSONFromContext(ctx)
	messages := llm.BuildMessages(input, c.model, extra)
	if fixing {
		messages = llm.BuildFixMessages(input, c.model, extra, []byte(rawFix))
	}

	raw, err := c.generateJSON(ctx, input, messages)
	if err != nil {
		return nil, err
	}
	if json.Valid(raw) {
		return raw, nil
	}
	if fixing {
		return nil, errors.New("invalid JSON from Gemini")
	}

	fixed, err := c.generateJSON(ctx, input, llm.BuildFixMessages(input, c.model, extra, raw))
	if err != nil {
		return nil, err
	}
	if !json.Valid(fixed) {
		return nil, errors.New("invalid JSON from Gemini")
	}
	return fixed, nil
}

func (c *Client) generateJSON(ctx context.Context, input llm.AnalyzeInput, messages []llm.Message) (json.RawMessage, error) {
	ctx, span := otel.Tracer("resume-analyzer/llm/gemini").Start(ctx, "gemini.generate_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", c.model),
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)

	system, prompt := llm.SplitMessages(messages)
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	result, err := c.generate(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(stripCodeFence(result.Text()))
	if text == "" {
		span.SetStatus(codes.Error, "empty response")
		return nil, errors.New("gemini response empty content")
	}

	fields := map[string]any{
		"provider":       "gemini",
		"model":          c.model,
		"prompt_version": input.PromptVersion,
		"latency_ms":     time.Since(start).Milliseconds(),
	}
	if usage := result.UsageMetadata; usage != nil {
		fields["prompt_tokens"] = usage.PromptTokenCount
		fields["completion_tokens"] = usage.CandidatesTokenCount
		fields["total_tokens"] = usage.TotalTokenCount
		span.SetAttributes(attribute.Int64("ai.tokens.total", int64(usage.TotalTokenCount)))
	}
	telemetry.Info("llm.response", fields)
	return json.RawMessage(text), nil
}

// stripCodeFence removes a surrounding ```json fence some models add despite JSON mode.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	return strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
}

var _ llm.Client = (*Client)(nil)
