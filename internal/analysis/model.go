package analysis

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Input is one analysis request as received at the boundary.
type Input struct {
	FileName string
	Resume   io.Reader
	JobOffer string
	JobTitle string
}

// Request is what the analyzer receives.
type Request struct {
	ResumeText string
	JobOffer   string
	JobTitle   string
}

// Result is the analyzer output. Numbers are pointers and free-form values are `any`
// so that an absent field is distinguishable from a zero value.
type Result struct {
	MatchingSkills     []string            `json:"matching_skills" validate:"required"`
	MissingSkills      []string            `json:"missing_skills" validate:"required"`
	Scores             *Scores             `json:"scores" validate:"required"`
	OverallScore       *float64            `json:"overall_score" validate:"required"`
	FormattingAnalysis *FormattingAnalysis `json:"formatting_analysis" validate:"required"`
	ExperienceAnalysis *ExperienceAnalysis `json:"experience_analysis" validate:"required"`
	EducationAnalysis  *EducationAnalysis  `json:"education_analysis" validate:"required"`
	KeywordsAnalysis   *KeywordsAnalysis   `json:"keywords_analysis" validate:"required"`
	ImpactAnalysis     *ImpactAnalysis     `json:"impact_analysis" validate:"required"`
}

type Scores struct {
	Skills     *float64 `json:"skills" validate:"required"`
	Formatting *float64 `json:"formatting" validate:"required"`
	Experience *float64 `json:"experience" validate:"required"`
	Education  *float64 `json:"education" validate:"required"`
	Keywords   *float64 `json:"keywords" validate:"required"`
	Impact     *float64 `json:"impact" validate:"required"`
}

type FormattingAnalysis struct {
	Score  *float64 `json:"score" validate:"required"`
	Issues []any    `json:"issues" validate:"required"`
}

type ExperienceAnalysis struct {
	Score                 *float64 `json:"score" validate:"required"`
	Analysis              any      `json:"analysis" validate:"required"`
	YearsMatch            any      `json:"years_match" validate:"required"`
	ResponsibilitiesMatch any      `json:"responsibilities_match" validate:"required"`
}

type EducationAnalysis struct {
	Score   *float64 `json:"score" validate:"required"`
	Details any      `json:"details" validate:"required"`
}

type KeywordsAnalysis struct {
	Score   *float64 `json:"score" validate:"required"`
	Matches any      `json:"matches" validate:"required"`
}

type ImpactAnalysis struct {
	Score      *float64 `json:"score" validate:"required"`
	Statements []any    `json:"statements" validate:"required"`
}

// Report is the response body of POST /analyze-resume.
type Report struct {
	MatchingSkills []string      `json:"matching_skills"`
	MissingSkills  []string      `json:"missing_skills"`
	Scores         ReportScores  `json:"scores"`
	Details        ReportDetails `json:"details"`
}

type ReportScores struct {
	Skills     float64 `json:"skills"`
	Formatting float64 `json:"formatting"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Keywords   float64 `json:"keywords"`
	Impact     float64 `json:"impact"`
	Overall    float64 `json:"overall"`
}

type ReportDetails struct {
	Formatting FormattingDetail `json:"formatting"`
	Experience ExperienceDetail `json:"experience"`
	Education  EducationDetail  `json:"education"`
	Keywords   KeywordsDetail   `json:"keywords"`
	Impact     ImpactDetail     `json:"impact"`
}

type FormattingDetail struct {
	Score  float64 `json:"score"`
	Issues []any   `json:"issues"`
}

type ExperienceDetail struct {
	Score                 float64 `json:"score"`
	Analysis              any     `json:"analysis"`
	YearsMatch            any     `json:"years_match"`
	ResponsibilitiesMatch any     `json:"responsibilities_match"`
}

type EducationDetail struct {
	Score   float64 `json:"score"`
	Details any     `json:"details"`
}

type KeywordsDetail struct {
	Score   float64 `json:"score"`
	Matches any     `json:"matches"`
}

type ImpactDetail struct {
	Score      float64 `json:"score"`
	Statements []any   `json:"statements"`
}

// ErrMissingField reports an analyzer result without a required field.
var ErrMissingField = errors.New("analysis result missing required field")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func resultValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks that every field of the result is present. The error names the
// JSON path of the first missing field.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: result", ErrMissingField)
	}
	err := resultValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		path := verrs[0].Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		return fmt.Errorf("%w: %s", ErrMissingField, path)
	}
	return err
}

// Report validates the result and reshapes it into the response schema.
func (r *Result) Report() (Report, error) {
	if err := r.Validate(); err != nil {
		return Report{}, err
	}
	return Report{
		MatchingSkills: r.MatchingSkills,
		MissingSkills:  r.MissingSkills,
		Scores: ReportScores{
			Skills:     *r.Scores.Skills,
			Formatting: *r.Scores.Formatting,
			Experience: *r.Scores.Experience,
			Education:  *r.Scores.Education,
			Keywords:   *r.Scores.Keywords,
			Impact:     *r.Scores.Impact,
			Overall:    *r.OverallScore,
		},
		Details: ReportDetails{
			Formatting: FormattingDetail{
				Score:  *r.FormattingAnalysis.Score,
				Issues: r.FormattingAnalysis.Issues,
			},
			Experience: ExperienceDetail{
				Score:                 *r.ExperienceAnalysis.Score,
				Analysis:              r.ExperienceAnalysis.Analysis,
				YearsMatch:            r.ExperienceAnalysis.YearsMatch,
				ResponsibilitiesMatch: r.ExperienceAnalysis.ResponsibilitiesMatch,
			},
			Education: EducationDetail{
				Score:   *r.EducationAnalysis.Score,
				Details: r.EducationAnalysis.Details,
			},
			Keywords: KeywordsDetail{
				Score:   *r.KeywordsAnalysis.Score,
				Matches: r.KeywordsAnalysis.Matches,
			},
			Impact: ImpactDetail{
				Score:      *r.ImpactAnalysis.Score,
				Statements: r.ImpactAnalysis.Statements,
			},
		},
	}, nil
}
