package degreeplan

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	CreditPlacement = "Placement"
	CreditUnknown   = "?"
)

var courseToken = regexp.MustCompile(`([A-Z]+)-([0-9]+)\s+\(([^)]*)\)`)

type ParsedCourse struct {
	Department  string `json:"department"`
	Number      int    `json:"number"`
	CreditLabel string `json:"creditLabel"`
}

// Code is the registry form of the course, e.g. "CS-101" for "CS-0101".
func (c ParsedCourse) Code() string {
	return c.Department + "-" + strconv.Itoa(c.Number)
}

func (c ParsedCourse) NonCredit() bool {
	return c.CreditLabel == CreditPlacement || c.CreditLabel == CreditUnknown
}

// ParseCourse extracts the first "DEPT-123 (label)" token from raw bubble
// text. ok is false when the text carries no such token.
func ParseCourse(raw string) (ParsedCourse, bool) {
	m := courseToken.FindStringSubmatch(raw)
	if m == nil {
		return ParsedCourse{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedCourse{}, false
	}
	return ParsedCourse{
		Department:  m[1],
		Number:      n,
		CreditLabel: m[3],
	}, true
}

type RawEntry struct {
	SemesterLabel string   `json:"semesterLabel"`
	Courses       []string `json:"courses,omitempty"`
	Text          string   `json:"text,omitempty"`
}

// Raw returns the bubble strings of the entry, falling back to the single
// free-text field when no course list was supplied.
func (e RawEntry) Raw() []string {
	if len(e.Courses) > 0 {
		return e.Courses
	}
	if strings.TrimSpace(e.Text) == "" {
		return nil
	}
	return []string{e.Text}
}
