package server

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/ansarctica/ross/internal/degreeplan"
	"github.com/ansarctica/ross/internal/engine"
	"github.com/ansarctica/ross/internal/scrape"
)

var (
	validate      *validator.Validate
	sessionIDExpr = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("sessionid", func(fl validator.FieldLevel) bool {
		return sessionIDExpr.MatchString(fl.Field().String())
	})
}

type ScheduleRequest struct {
	Majors       []string `json:"majors" validate:"required,min=1,max=20,dive,max=200"`
	CoursesTaken []string `json:"courses_taken" validate:"max=500,dive,max=64"`
	SessionID    string   `json:"session_id" validate:"omitempty,max=128,sessionid"`
}

// Normalize trims list items and drops blanks before validation.
func (r *ScheduleRequest) Normalize() {
	r.Majors = engine.CleanList(r.Majors)
	r.CoursesTaken = engine.CleanList(r.CoursesTaken)
}

type ScheduleResponse struct {
	Message      string          `json:"message"`
	Majors       []string        `json:"majors"`
	CoursesTaken []string        `json:"courses_taken"`
	Semesters    engine.Plan     `json:"semesters"`
	Reasons      []engine.Reason `json:"reasons,omitempty"`
	ScheduleID   string          `json:"schedule_id"`
}

// DegreePlanRequest carries scraped degree-plan bubbles. detailedListing is
// the pre-merged form some clients send; it is ingested after entries.
// completed lists bubbles the client already knows to be finished.
type DegreePlanRequest struct {
	SessionID       string                `json:"session_id" validate:"omitempty,max=128,sessionid"`
	OrderedLabels   []string              `json:"orderedLabels" validate:"max=64,dive,max=128"`
	Entries         []degreeplan.RawEntry `json:"entries" validate:"max=512"`
	DetailedListing []degreeplan.RawEntry `json:"detailedListing" validate:"max=512"`
	Completed       []string              `json:"completed" validate:"max=2048,dive,max=256"`
	Debug           bool                  `json:"debug"`
}

func (r *DegreePlanRequest) AllEntries() []degreeplan.RawEntry {
	out := make([]degreeplan.RawEntry, 0, len(r.Entries)+len(r.DetailedListing))
	out = append(out, r.Entries...)
	return append(out, r.DetailedListing...)
}

// CompletedCodes returns the course codes that count as already taken: the
// explicit completed list, then any raw bubble whose own status text marks
// it finished. Planned and in-progress bubbles are left out.
func (r *DegreePlanRequest) CompletedCodes() []string {
	out := []string{}
	seen := make(map[string]struct{})
	add := func(raw string) {
		c, ok := degreeplan.ParseCourse(raw)
		if !ok {
			return
		}
		code := c.Code()
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	for _, raw := range r.Completed {
		add(raw)
	}
	for _, e := range r.AllEntries() {
		for _, raw := range e.Raw() {
			if scrape.Completed(raw) {
				add(raw)
			}
		}
	}
	return out
}

type DegreePlanResponse struct {
	SessionID  string              `json:"session_id"`
	Registry   degreeplan.Registry `json:"registry"`
	Completed  []string            `json:"completed"`
	Report     string              `json:"report,omitempty"`
	Skipped    []string            `json:"skipped"`
	Unassigned []string            `json:"unassigned,omitempty"`
}
