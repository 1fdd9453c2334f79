package analysis

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

//go:embed schema/result.json
var resultSchemaJSON string

const schemaRepairSystemMessage = "Fix the JSON to satisfy all schema constraints. Keep the content the same. Every score is a number between 0 and 100. Output JSON only."

// LLMAnalyzer implements Analyzer on top of an llm.Client.
type LLMAnalyzer struct {
	client        llm.Client
	promptVersion string
	schema        *gojsonschema.Schema
}

// NewLLMAnalyzer compiles the result schema and wraps client.
func NewLLMAnalyzer(client llm.Client, promptVersion string) (*LLMAnalyzer, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("load result schema: %w", err)
	}
	return &LLMAnalyzer{client: client, promptVersion: promptVersion, schema: schema}, nil
}

// Analyze asks the model for a result and validates it against the schema. Output that
// violates the schema gets exactly one repair call.
func (a *LLMAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	input := llm.AnalyzeInput{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobOffer,
		TargetRole:     req.JobTitle,
		PromptVersion:  a.promptVersion,
	}

	raw, err := a.client.AnalyzeResume(ctx, input)
	if err != nil {
		return Result{}, err
	}
	if verr := a.validate(raw); verr != nil {
		telemetry.Warn("analysis.schema_invalid", map[string]any{"attempt": 1, "error": verr})

		repairCtx := llm.WithExtraSystemMessage(llm.WithFixJSON(ctx, string(raw)), schemaRepairSystemMessage)
		raw, err = a.client.AnalyzeResume(repairCtx, input)
		if err != nil {
			return Result{}, err
		}
		if verr := a.validate(raw); verr != nil {
			telemetry.Warn("analysis.schema_invalid", map[string]any{"attempt": 2, "error": verr})
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidResult, verr)
		}
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("%w: decode: %v", ErrInvalidResult, err)
	}
	return result, nil
}

func (a *LLMAnalyzer) validate(raw json.RawMessage) error {
	if !json.Valid(raw) {
		return errors.New("output is not valid JSON")
	}
	res, err := a.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+desc.Description())
	}
	return errors.New(strings.Join(msgs, "; "))
}

var _ Analyzer = (*LLMAnalyzer)(nil)
