package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
)

const (
	testJobOffer = "Senior Go Engineer, 5+ years, Kubernetes"
	testJobTitle = "Senior Go Engineer"
	testText     = "5 years Go experience, Kubernetes, Docker"
)

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func assertErrorBody(t *testing.T, resp *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if resp.Code != wantStatus {
		t.Fatalf("expected status %d, got %d (%s)", wantStatus, resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	msg, _ := body["error"].(string)
	if msg == "" {
		t.Fatalf("expected non-empty error message, got %v", body)
	}
	if body["code"] != wantCode {
		t.Fatalf("expected code %s, got %v", wantCode, body["code"])
	}
	for _, key := range []string{"scores", "matching_skills", "missing_skills", "details"} {
		if _, ok := body[key]; ok {
			t.Fatalf("error body must not carry analysis field %q", key)
		}
	}
}

func TestAnalyzeResumeEndToEnd(t *testing.T) {
	ext := &stubExtractor{text: testText}
	an := &stubAnalyzer{result: fullResult(82, []string{"Go", "Kubernetes"})}
	svc, dir := newTestService(t, ext, an)
	router := newTestRouter(svc, 1<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "resume.pdf", []byte("%PDF-1.4 fake"), testJobOffer, testJobTitle))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Scores.Overall != 82 {
		t.Fatalf("expected overall 82, got %v", report.Scores.Overall)
	}
	if !reflect.DeepEqual(report.MatchingSkills, []string{"Go", "Kubernetes"}) {
		t.Fatalf("unexpected matching skills: %v", report.MatchingSkills)
	}

	if len(an.reqs) != 1 {
		t.Fatalf("expected one analyzer call, got %d", len(an.reqs))
	}
	want := Request{ResumeText: testText, JobOffer: testJobOffer, JobTitle: testJobTitle}
	if an.reqs[0] != want {
		t.Fatalf("unexpected analyzer request: %+v", an.reqs[0])
	}
	if got := filepath.Ext(ext.paths[0]); got != ".pdf" {
		t.Fatalf("expected scratch file to keep .pdf extension, got %q", got)
	}
	assertDirEmpty(t, dir)
}

func TestAnalyzeResumeResponseShape(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{text: testText}, &stubAnalyzer{result: fullResult(82, []string{"Go"})})
	router := newTestRouter(svc, 1<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "resume.docx", []byte("x"), testJobOffer, testJobTitle))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)

	scores := body["scores"].(map[string]any)
	for _, key := range []string{"skills", "formatting", "experience", "education", "keywords", "impact", "overall"} {
		if _, ok := scores[key]; !ok {
			t.Fatalf("scores.%s missing", key)
		}
	}
	details := body["details"].(map[string]any)
	experience := details["experience"].(map[string]any)
	if experience["years_match"] != true {
		t.Fatalf("years_match not carried over: %v", experience["years_match"])
	}
	impact := details["impact"].(map[string]any)
	if impact["score"] != float64(0) {
		t.Fatalf("zero impact score must be kept, got %v", impact["score"])
	}
	if stmts, ok := impact["statements"].([]any); !ok || len(stmts) != 0 {
		t.Fatalf("expected empty statements list, got %v", impact["statements"])
	}
}

func TestAnalyzeResumeMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		jobOffer string
		jobTitle string
	}{
		{name: "missing job_offer", fileName: "resume.pdf", jobTitle: testJobTitle},
		{name: "missing job_title", fileName: "resume.pdf", jobOffer: testJobOffer},
		{name: "blank job_title", fileName: "resume.pdf", jobOffer: testJobOffer, jobTitle: "   "},
		{name: "missing resume", jobOffer: testJobOffer, jobTitle: testJobTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := &stubAnalyzer{result: fullResult(82, nil)}
			svc, dir := newTestService(t, &stubExtractor{text: testText}, an)
			router := newTestRouter(svc, 1<<20)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, multipartRequest(t, tt.fileName, []byte("x"), tt.jobOffer, tt.jobTitle))

			assertErrorBody(t, resp, http.StatusBadRequest, "validation_error")
			if len(an.reqs) != 0 {
				t.Fatalf("analyzer must not run for invalid input")
			}
			assertDirEmpty(t, dir)
		})
	}
}

func TestAnalyzeResumeExtractorFailure(t *testing.T) {
	an := &stubAnalyzer{result: fullResult(82, nil)}
	svc, dir := newTestService(t, &stubExtractor{err: errors.New("corrupt xref table")}, an)
	router := newTestRouter(svc, 1<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "resume.pdf", []byte("x"), testJobOffer, testJobTitle))

	assertErrorBody(t, resp, http.StatusInternalServerError, "extraction_error")
	if len(an.reqs) != 0 {
		t.Fatalf("analyzer must not run after extraction failure")
	}
	assertDirEmpty(t, dir)
}

func TestAnalyzeResumeUnsupportedFormat(t *testing.T) {
	ext := &stubExtractor{err: fmt.Errorf("extract text: %w: image/png", extract.ErrUnsupportedFormat)}
	svc, dir := newTestService(t, ext, &stubAnalyzer{})
	router := newTestRouter(svc, 1<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "photo.png", []byte("x"), testJobOffer, testJobTitle))

	assertErrorBody(t, resp, http.StatusUnsupportedMediaType, "unsupported_format")
	assertDirEmpty(t, dir)
}

func TestAnalyzeResumeMissingImpactScore(t *testing.T) {
	result := fullResult(82, []string{"Go"})
	result.Scores.Impact = nil
	svc, dir := newTestService(t, &stubExtractor{text: testText}, &stubAnalyzer{result: result})
	router := newTestRouter(svc, 1<<20)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "resume.pdf", []byte("x"), testJobOffer, testJobTitle))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["code"] != "invalid_analysis_result" {
		t.Fatalf("unexpected code: %v", body["code"])
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "scores.impact") {
		t.Fatalf("expected error to name scores.impact, got %q", msg)
	}
	if _, ok := body["scores"]; ok {
		t.Fatalf("error body must not carry scores")
	}
	assertDirEmpty(t, dir)
}

func TestAnalyzeResumeAnalyzerErrors(t *testing.T) {
	tests := []struct {
		name       string
		analyzer   *stubAnalyzer
		timeout    time.Duration
		wantStatus int
		wantCode   string
	}{
		{
			name:       "provider failure",
			analyzer:   &stubAnalyzer{err: errors.New("openai http status 400: bad request")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "analysis_error",
		},
		{
			name:       "breaker open",
			analyzer:   &stubAnalyzer{err: fmt.Errorf("%w: circuit breaker is open", llm.ErrCircuitOpen)},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "analyzer_unavailable",
		},
		{
			name:       "timeout",
			analyzer:   &stubAnalyzer{block: true},
			timeout:    20 * time.Millisecond,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "analysis_timeout",
		},
		{
			name:       "schema mismatch",
			analyzer:   &stubAnalyzer{err: fmt.Errorf("%w: scores: impact is required", ErrInvalidResult)},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "invalid_analysis_result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, dir := newTestService(t, &stubExtractor{text: testText}, tt.analyzer)
			svc.Timeout = tt.timeout
			router := newTestRouter(svc, 1<<20)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, multipartRequest(t, "resume.pdf", []byte("x"), testJobOffer, testJobTitle))

			assertErrorBody(t, resp, tt.wantStatus, tt.wantCode)
			assertDirEmpty(t, dir)
		})
	}
}

func TestAnalyzeResumePayloadTooLarge(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{text: testText}, &stubAnalyzer{result: fullResult(1, nil)})
	router := newTestRouter(svc, 256)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "resume.pdf", []byte(strings.Repeat("a", 4096)), testJobOffer, testJobTitle))

	assertErrorBody(t, resp, http.StatusRequestEntityTooLarge, "payload_too_large")
}

func TestAnalyzeResumeConcurrentRequestsUseDistinctFiles(t *testing.T) {
	ext := &stubExtractor{text: testText}
	svc, dir := newTestService(t, ext, &stubAnalyzer{result: fullResult(82, []string{"Go"})})
	router := newTestRouter(svc, 1<<20)

	const n = 12
	reqs := make([]*http.Request, n)
	for i := range reqs {
		reqs[i] = multipartRequest(t, "resume.pdf", []byte("same name"), testJobOffer, testJobTitle)
	}

	var g errgroup.Group
	for _, req := range reqs {
		g.Go(func() error {
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != http.StatusOK {
				return fmt.Errorf("status %d: %s", resp.Code, resp.Body.String())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent request failed: %v", err)
	}

	seen := make(map[string]struct{}, n)
	for _, p := range ext.paths {
		if _, dup := seen[p]; dup {
			t.Fatalf("two requests shared scratch file %s", p)
		}
		seen[p] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct scratch files, got %d", n, len(seen))
	}
	assertDirEmpty(t, dir)
}
