package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 512
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. An empty baseURL targets api.openai.com.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      strings.TrimSpace(model),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// AnalyzeResume sends the analysis prompt and returns the model's JSON output. Output that
// is not valid JSON gets one repair pass.
func (c *Client) AnalyzeResume(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	extra, _ := llm.ExtraSystemMessageFromContext(ctx)
	if rawFix, ok := llm.FixJSONFromContext(ctx); ok {
		return c.analyzeFixJSON(ctx, input, extra, []byte(rawFix))
	}

	raw, err := c.analyzeOnce(ctx, input, llm.BuildMessages(input, c.model, extra))
	if err != nil {
		return nil, err
	}
	if json.Valid(raw) {
		return raw, nil
	}
	return c.analyzeFixJSON(ctx, input, extra, raw)
}

func (c *Client) analyzeFixJSON(ctx context.Context, input llm.AnalyzeInput, extra string, raw []byte) (json.RawMessage, error) {
	fixed, err := c.analyzeOnce(ctx, input, llm.BuildFixMessages(input, c.model, extra, raw))
	if err != nil {
		return nil, err
	}
	if !json.Valid(fixed) {
		return nil, errors.New("invalid JSON from OpenAI")
	}
	return fixed, nil
}

func (c *Client) analyzeOnce(ctx context.Context, input llm.AnalyzeInput, messages []llm.Message) (json.RawMessage, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       reqMessages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	// gpt-5 models only accept the default temperature.
	if !isGPT5(c.model) {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if resp.StatusCode >= http.StatusBadRequest {
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil && parsed.Error != nil {
			return nil, fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
		}
		return nil, fmt.Errorf("openai http status %d: %s", resp.StatusCode, truncate(string(body), maxErrorBody))
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, errors.New("openai response empty content")
	}
	logUsage(c.model, input.PromptVersion, parsed.Usage, time.Since(start))
	return json.RawMessage(content), nil
}

func logUsage(model, promptVersion string, usage *chatUsage, latency time.Duration) {
	fields := map[string]any{
		"provider":       "openai",
		"model":          model,
		"prompt_version": promptVersion,
		"latency_ms":     latency.Milliseconds(),
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
