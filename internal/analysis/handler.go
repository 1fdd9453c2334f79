package analysis

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/server/respond"
)

// Analyzing is the part of Service the handler depends on.
type Analyzing interface {
	Analyze(ctx context.Context, in Input) (Report, error)
}

// Handler serves POST /analyze-resume.
type Handler struct {
	Svc            Analyzing
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. maxUploadBytes <= 0 disables the body limit.
func NewHandler(svc Analyzing, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the analysis route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/analyze-resume", h.analyzeResume)
}

type analyzeForm struct {
	Resume   *multipart.FileHeader `form:"resume" binding:"required"`
	JobOffer string                `form:"job_offer" binding:"required"`
	JobTitle string                `form:"job_title" binding:"required"`
}

func (h *Handler) analyzeResume(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	var form analyzeForm
	if err := c.ShouldBind(&form); err != nil {
		if isTooLarge(err) {
			h.fail(c, stageErr(StageInput, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, h.MaxUploadBytes)))
			return
		}
		h.fail(c, stageErr(StageInput, fmt.Errorf("%w: %s", ErrInvalidInput, bindMessage(err))))
		return
	}
	c.Set("resumeFile", form.Resume.Filename)

	file, err := form.Resume.Open()
	if err != nil {
		h.fail(c, stageErr(StageUpload, fmt.Errorf("open upload: %w", err)))
		return
	}
	defer file.Close()

	report, err := h.Svc.Analyze(c.Request.Context(), Input{
		FileName: form.Resume.Filename,
		Resume:   file,
		JobOffer: form.JobOffer,
		JobTitle: form.JobTitle,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) fail(c *gin.Context, err error) {
	if stage := StageOf(err); stage != "" {
		c.Set("analysisStage", string(stage))
	}
	status, code := StatusFor(err)
	respond.Error(c, status, code, err.Error())
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// bindMessage turns binding errors into field names the client sent.
func bindMessage(err error) string {
	msg := err.Error()
	replacer := strings.NewReplacer(
		"analyzeForm.Resume", "resume",
		"analyzeForm.JobOffer", "job_offer",
		"analyzeForm.JobTitle", "job_title",
		"'Resume'", "'resume'",
		"'JobOffer'", "'job_offer'",
		"'JobTitle'", "'job_title'",
	)
	return replacer.Replace(msg)
}
