package analysis

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/storage/scratch"
)

func num(v float64) *float64 { return &v }

func fullResult(overall float64, matching []string) Result {
	return Result{
		MatchingSkills: matching,
		MissingSkills:  []string{"Terraform"},
		Scores: &Scores{
			Skills:     num(85),
			Formatting: num(70),
			Experience: num(90),
			Education:  num(60),
			Keywords:   num(75),
			Impact:     num(0),
		},
		OverallScore: num(overall),
		FormattingAnalysis: &FormattingAnalysis{
			Score:  num(70),
			Issues: []any{"No summary section"},
		},
		ExperienceAnalysis: &ExperienceAnalysis{
			Score:                 num(90),
			Analysis:              "Strong backend background",
			YearsMatch:            true,
			ResponsibilitiesMatch: "Led platform migrations",
		},
		EducationAnalysis: &EducationAnalysis{
			Score:   num(60),
			Details: "BSc Computer Science",
		},
		KeywordsAnalysis: &KeywordsAnalysis{
			Score:   num(75),
			Matches: []any{"Go", "Kubernetes"},
		},
		ImpactAnalysis: &ImpactAnalysis{
			Score:      num(0),
			Statements: []any{},
		},
	}
}

type stubExtractor struct {
	text string
	err  error

	mu    sync.Mutex
	paths []string
}

func (s *stubExtractor) ExtractFile(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubAnalyzer struct {
	result Result
	err    error
	block  bool

	mu   sync.Mutex
	reqs []Request
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}
	if s.err != nil {
		return Result{}, s.err
	}
	return s.result, nil
}

func newTestService(t *testing.T, ext Extractor, an Analyzer) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return &Service{
		Scratch:   scratch.New(dir),
		Extractor: ext,
		Analyzer:  an,
	}, dir
}

func newTestRouter(svc Analyzing, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, maxUpload).RegisterRoutes(r)
	return r
}

// multipartRequest builds a POST /analyze-resume request. Empty field values are omitted.
func multipartRequest(t *testing.T, fileName string, content []byte, jobOffer, jobTitle string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := w.CreateFormFile("resume", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if jobOffer != "" {
		if err := w.WriteField("job_offer", jobOffer); err != nil {
			t.Fatalf("write job_offer: %v", err)
		}
	}
	if jobTitle != "" {
		if err := w.WriteField("job_title", jobTitle); err != nil {
			t.Fatalf("write job_title: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/analyze-resume", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch dir to be empty, found %d entries", len(entries))
	}
}
