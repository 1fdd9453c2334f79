package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestServiceAnalyzeRemovesScratchFileOnEveryPath(t *testing.T) {
	missingImpact := fullResult(10, []string{})
	missingImpact.Scores.Impact = nil

	tests := []struct {
		name      string
		extractor *stubExtractor
		analyzer  *stubAnalyzer
		wantStage Stage
	}{
		{name: "success", extractor: &stubExtractor{text: testText}, analyzer: &stubAnalyzer{result: fullResult(82, []string{"Go"})}},
		{name: "extraction", extractor: &stubExtractor{err: errors.New("bad file")}, analyzer: &stubAnalyzer{}, wantStage: StageExtraction},
		{name: "analysis", extractor: &stubExtractor{text: testText}, analyzer: &stubAnalyzer{err: errors.New("provider down")}, wantStage: StageAnalysis},
		{name: "shaping", extractor: &stubExtractor{text: testText}, analyzer: &stubAnalyzer{result: missingImpact}, wantStage: StageShaping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, dir := newTestService(t, tt.extractor, tt.analyzer)

			_, err := svc.Analyze(context.Background(), Input{
				FileName: "resume.pdf",
				Resume:   strings.NewReader("content"),
				JobOffer: testJobOffer,
				JobTitle: testJobTitle,
			})
			if got := StageOf(err); got != tt.wantStage {
				t.Fatalf("expected stage %q, got %q (err=%v)", tt.wantStage, got, err)
			}
			if len(tt.extractor.paths) != 1 {
				t.Fatalf("expected the extractor to see one scratch file")
			}
			assertDirEmpty(t, dir)
		})
	}
}

func TestServiceAnalyzeRejectsBlankInput(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{text: testText}, &stubAnalyzer{})

	_, err := svc.Analyze(context.Background(), Input{FileName: "resume.pdf", JobOffer: " ", JobTitle: ""})
	if StageOf(err) != StageInput || !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	for _, field := range []string{"resume", "job_offer", "job_title"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected error to name %s, got %q", field, err.Error())
		}
	}
}

func TestServiceAnalyzeTimeout(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{text: testText}, &stubAnalyzer{block: true})
	svc.Timeout = 10 * time.Millisecond

	_, err := svc.Analyze(context.Background(), Input{
		FileName: "resume.txt",
		Resume:   strings.NewReader("content"),
		JobOffer: testJobOffer,
		JobTitle: testJobTitle,
	})
	if !errors.Is(err, context.DeadlineExceeded) || StageOf(err) != StageAnalysis {
		t.Fatalf("expected analysis deadline error, got %v", err)
	}
}
