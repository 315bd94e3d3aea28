package types

import (
	"strings"
)

type Requirement struct {
	REQUIREMENT_NAME string   `json:"REQUIREMENT_NAME"`
	CREDITS          int      `json:"CREDITS,omitempty"`
	COURSES          []string `json:"COURSES,omitempty"`
}

type Program struct {
	PROGRAM_NAME string        `json:"PROGRAM_NAME"`
	PROGRAM_CODE string        `json:"PROGRAM_CODE,omitempty"`
	DEPARTMENT   string        `json:"DEPARTMENT,omitempty"`
	ALIASES      []string      `json:"ALIASES,omitempty"`
	REQUIREMENTS []Requirement `json:"REQUIREMENTS,omitempty"`
	COURSE_CODES []string      `json:"COURSE_CODES,omitempty"`
}

func Normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// BuildCourseIndex collects the course codes named by the program's
// requirements, upper-cased, in first-seen order. With stripRequirements
// the per-requirement course lists are dropped after indexing.
func (p *Program) BuildCourseIndex(stripRequirements bool) {
	p.COURSE_CODES = p.COURSE_CODES[:0]
	seen := make(map[string]struct{})

	for i := range p.REQUIREMENTS {
		for _, c := range p.REQUIREMENTS[i].COURSES {
			code := strings.ToUpper(strings.TrimSpace(c))
			if code == "" {
				continue
			}
			if _, ok := seen[code]; !ok {
				p.COURSE_CODES = append(p.COURSE_CODES, code)
				seen[code] = struct{}{}
			}
		}
		if stripRequirements {
			p.REQUIREMENTS[i].COURSES = nil
		}
	}

	aliases := p.ALIASES[:0]
	seenAlias := make(map[string]struct{})
	for _, a := range p.ALIASES {
		n := Normalize(a)
		if n == "" || n == Normalize(p.PROGRAM_NAME) {
			continue
		}
		if _, ok := seenAlias[n]; ok {
			continue
		}
		seenAlias[n] = struct{}{}
		aliases = append(aliases, strings.TrimSpace(a))
	}
	p.ALIASES = aliases
}
