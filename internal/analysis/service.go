package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

// Extractor turns a stored résumé file into plain text.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (string, error)
}

// Analyzer scores résumé text against a job posting.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// Scratch holds uploads for the lifetime of one request.
type Scratch interface {
	Save(ctx context.Context, fileName string, r io.Reader) (string, int64, error)
	Remove(path string) error
}

// Service runs the analysis pipeline: store, extract, analyze, reshape.
type Service struct {
	Scratch   Scratch
	Extractor Extractor
	Analyzer  Analyzer
	// Timeout bounds the analyzer call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Analyze runs one request through the pipeline. The scratch file is removed on every
// return path. Errors are *StageError values.
func (s *Service) Analyze(ctx context.Context, in Input) (report Report, err error) {
	start := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, "analysis.analyze")
	defer span.End()
	metrics.IncAnalysisStarted()
	defer func() {
		metrics.ObserveAnalysisDuration(time.Since(start))
		if err != nil {
			stage := StageOf(err)
			metrics.IncAnalysisFailed(string(stage))
			span.RecordError(err)
			span.SetStatus(codes.Error, string(stage))
			telemetry.Warn("analysis.failed", map[string]any{
				"stage":       string(stage),
				"resume_file": in.FileName,
				"duration_ms": time.Since(start).Milliseconds(),
				"error":       err,
			})
			return
		}
		metrics.IncAnalysisCompleted()
	}()

	if err := validateInput(in); err != nil {
		return Report{}, stageErr(StageInput, err)
	}

	path, size, err := s.Scratch.Save(ctx, in.FileName, in.Resume)
	if err != nil {
		return Report{}, stageErr(StageUpload, err)
	}
	defer func() {
		if rmErr := s.Scratch.Remove(path); rmErr != nil {
			telemetry.Warn("analysis.scratch_cleanup_failed", map[string]any{"path": path, "error": rmErr})
		}
	}()
	span.SetAttributes(attribute.Int64("resume.size_bytes", size))

	text, err := s.extract(ctx, path)
	if err != nil {
		return Report{}, stageErr(StageExtraction, err)
	}

	result, err := s.analyze(ctx, Request{
		ResumeText: text,
		JobOffer:   in.JobOffer,
		JobTitle:   in.JobTitle,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResult) {
			return Report{}, stageErr(StageShaping, err)
		}
		return Report{}, stageErr(StageAnalysis, err)
	}

	report, err = result.Report()
	if err != nil {
		return Report{}, stageErr(StageShaping, err)
	}

	telemetry.Info("analysis.completed", map[string]any{
		"resume_file":   in.FileName,
		"overall_score": report.Scores.Overall,
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	return report, nil
}

func (s *Service) extract(ctx context.Context, path string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "analysis.extract")
	defer span.End()

	text, err := s.Extractor.ExtractFile(ctx, path)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.Int("resume.text_length", len(text)))
	return text, nil
}

func (s *Service) analyze(ctx context.Context, req Request) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "analysis.score")
	defer span.End()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	result, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return Result{}, fmt.Errorf("%w: %v", ctxErr, err)
		}
		return Result{}, err
	}
	return result, nil
}

func validateInput(in Input) error {
	var missing []string
	if in.Resume == nil {
		missing = append(missing, "resume")
	}
	if strings.TrimSpace(in.JobOffer) == "" {
		missing = append(missing, "job_offer")
	}
	if strings.TrimSpace(in.JobTitle) == "" {
		missing = append(missing, "job_title")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
