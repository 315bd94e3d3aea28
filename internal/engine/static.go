package engine

import (
	"context"
	"strings"
)

// Static answers every request with a fixed eight-semester sample plan,
// leaving out courses the student already took. It stands in for the
// engine in development and tests.
type Static struct {
	Semesters Plan
	Reasons   []Reason
}

func NewStatic() *Static {
	return &Static{Semesters: SamplePlan()}
}

func (s *Static) Schedule(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(req.CoursesTaken))
	for _, c := range req.CoursesTaken {
		taken[strings.ToUpper(c)] = struct{}{}
	}
	out := &Response{
		Semesters: make(Plan, len(s.Semesters)),
		Reasons:   append([]Reason(nil), s.Reasons...),
	}
	for _, k := range s.Semesters.OrderedKeys() {
		rows := make([]Course, 0, len(s.Semesters[k]))
		for _, c := range s.Semesters[k] {
			if _, ok := taken[c.Code()]; ok {
				out.Reasons = append(out.Reasons, Reason{Course: c.Code(), Message: "already completed"})
				continue
			}
			rows = append(rows, c)
		}
		out.Semesters[k] = rows
	}
	return out, nil
}

func SamplePlan() Plan {
	return Plan{
		"semester-1": {
			row("MATH", 101, 3, "Calculus I"),
			row("CHEM", 110, 4, "General Chemistry I"),
			row("ENGL", 120, 3, "Composition"),
			row("THEO", 1100, 3, "Intro to Theology"),
			row("HIST", 150, 3, "World History I"),
		},
		"semester-2": {
			row("MATH", 102, 3, "Calculus II"),
			row("CHEM", 120, 4, "General Chemistry II"),
			row("PHYS", 130, 4, "Physics I"),
			row("PHIL", 101, 3, "Intro to Philosophy"),
			row("ENGL", 200, 3, "Literature Survey"),
		},
		"semester-3": {
			row("MATH", 201, 3, "Linear Algebra"),
			row("CHEM", 210, 4, "Organic Chemistry I"),
			row("PHYS", 140, 4, "Physics II"),
			row("CS", 101, 3, "Intro to Computer Science"),
			row("COMM", 105, 3, "Public Speaking"),
		},
		"semester-4": {
			row("MATH", 202, 3, "Differential Equations"),
			row("CHEM", 220, 4, "Organic Chemistry II"),
			row("BIO", 210, 4, "Cell Biology"),
			row("THEO", 2000, 3, "Christian Moral Life"),
			row("ART", 110, 3, "Intro to Art"),
		},
		"semester-5": {
			row("MATH", 301, 3, "Probability & Statistics"),
			row("CHEM", 310, 4, "Physical Chemistry I"),
			row("BIO", 220, 4, "Genetics"),
			row("PHIL", 210, 3, "Ethics"),
			row("ECON", 101, 3, "Principles of Economics"),
		},
		"semester-6": {
			row("MATH", 302, 3, "Abstract Algebra"),
			row("CHEM", 320, 4, "Physical Chemistry II"),
			row("BIO", 330, 4, "Microbiology"),
			row("HIST", 250, 3, "American History"),
			row("PSYC", 101, 3, "Intro to Psychology"),
		},
		"semester-7": {
			row("MATH", 401, 3, "Real Analysis"),
			row("CHEM", 410, 4, "Biochemistry I"),
			row("BIO", 410, 4, "Ecology"),
			row("THEO", 3000, 3, "Catholic Social Teaching"),
			row("PHIL", 310, 3, "Metaphysics"),
		},
		"semester-8": {
			row("MATH", 402, 3, "Complex Analysis"),
			row("CHEM", 420, 4, "Biochemistry II"),
			row("BIO", 420, 4, "Molecular Biology"),
			row("CAPS", 499, 3, "Senior Capstone"),
			row("ELEC", 300, 3, "Free Elective"),
		},
	}
}
