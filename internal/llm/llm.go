package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for resume analysis.
type Client interface {
	AnalyzeResume(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput captures the inputs needed for resume analysis.
type AnalyzeInput struct {
	ResumeText     string
	JobDescription string
	TargetRole     string
	PromptVersion  string
}

type fixJSONKey struct{}

type extraSystemKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(fixJSONKey{}).(string)
	return raw, ok
}

// WithExtraSystemMessage returns a context carrying an additional system instruction.
func WithExtraSystemMessage(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, extraSystemKey{}, msg)
}

// ExtraSystemMessageFromContext returns the additional system instruction, if any.
func ExtraSystemMessageFromContext(ctx context.Context) (string, bool) {
	msg, ok := ctx.Value(extraSystemKey{}).(string)
	return msg, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("no LLM provider configured")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// AnalyzeResume returns ErrNotImplemented.
func (PlaceholderClient) AnalyzeResume(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
