package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
)

// Stage names a step of the analysis pipeline.
type Stage string

const (
	StageInput      Stage = "input"
	StageUpload     Stage = "upload"
	StageExtraction Stage = "extraction"
	StageAnalysis   Stage = "analysis"
	StageShaping    Stage = "shaping"
)

var (
	// ErrInvalidInput marks a missing or blank request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPayloadTooLarge marks an upload over the configured limit.
	ErrPayloadTooLarge = errors.New("request body too large")
	// ErrInvalidResult marks analyzer output that does not match the result schema.
	ErrInvalidResult = errors.New("analysis result does not match schema")
)

// StageError tags a pipeline failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, or "" when err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// StatusFor maps an error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch StageOf(err) {
	case StageInput:
		if errors.Is(err, ErrPayloadTooLarge) {
			return http.StatusRequestEntityTooLarge, "payload_too_large"
		}
		return http.StatusBadRequest, "validation_error"
	case StageUpload:
		return http.StatusInternalServerError, "upload_error"
	case StageExtraction:
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			return http.StatusUnsupportedMediaType, "unsupported_format"
		case errors.Is(err, extract.ErrEmptyText):
			return http.StatusUnprocessableEntity, "empty_document"
		}
		return http.StatusInternalServerError, "extraction_error"
	case StageAnalysis:
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout, "analysis_timeout"
		case errors.Is(err, llm.ErrCircuitOpen):
			return http.StatusServiceUnavailable, "analyzer_unavailable"
		}
		return http.StatusBadGateway, "analysis_error"
	case StageShaping:
		return http.StatusInternalServerError, "invalid_analysis_result"
	}
	return http.StatusInternalServerError, "internal_error"
}
