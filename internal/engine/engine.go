package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ansarctica/ross/internal/degreeplan"
)

var ErrUnavailable = errors.New("engine: scheduling engine unavailable")

type Request struct {
	Majors       []string `json:"majors"`
	CoursesTaken []string `json:"courses_taken"`
}

// Course is one planned row. On the wire it is the tuple
// [department, number, credits, title]; credits may be null.
type Course struct {
	Department string
	Number     string
	Credits    *int
	Title      string
}

func (c Course) Code() string { return c.Department + "-" + c.Number }

func (c Course) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Department, c.Number, c.Credits, c.Title})
}

func (c *Course) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("course row: %w", err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("course row: want at least 2 fields, got %d", len(raw))
	}
	var out Course
	if err := json.Unmarshal(raw[0], &out.Department); err != nil {
		return fmt.Errorf("course department: %w", err)
	}
	num, err := stringOrNumber(raw[1])
	if err != nil {
		return fmt.Errorf("course number: %w", err)
	}
	out.Number = num
	if len(raw) > 2 && string(raw[2]) != "null" {
		var credits int
		if err := json.Unmarshal(raw[2], &credits); err != nil {
			return fmt.Errorf("course credits: %w", err)
		}
		out.Credits = &credits
	}
	if len(raw) > 3 {
		if err := json.Unmarshal(raw[3], &out.Title); err != nil {
			return fmt.Errorf("course title: %w", err)
		}
	}
	*c = out
	return nil
}

func stringOrNumber(b json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

type Reason struct {
	Course     string `json:"course"`
	Substitute string `json:"substitute,omitempty"`
	Message    string `json:"message"`
}

// Plan maps semester keys to planned rows. It encodes to JSON with the
// keys in plan order rather than alphabetical order.
type Plan map[string][]Course

type Response struct {
	Semesters Plan     `json:"semesters"`
	Reasons   []Reason `json:"reasons,omitempty"`
}

func (r *Response) OrderedKeys() []string { return r.Semesters.OrderedKeys() }

func (p Plan) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.OrderedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		rows := p[k]
		if rows == nil {
			rows = []Course{}
		}
		vb, err := json.Marshal(rows)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OrderedKeys lists semester keys by numeric suffix, with keys that carry
// no counter sorted after them by name.
func (p Plan) OrderedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, oki := degreeplan.SemesterKey(keys[i]).Index()
		nj, okj := degreeplan.SemesterKey(keys[j]).Index()
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		}
		return keys[i] < keys[j]
	})
	return keys
}

type Scheduler interface {
	Schedule(ctx context.Context, req *Request) (*Response, error)
}

type SolveResponse struct {
	OK       bool      `json:"ok"`
	Message  string    `json:"message,omitempty"`
	Response *Response `json:"response,omitempty"`
}

// Solve cleans the request and asks the scheduler for a plan. Engine
// failures are reported in the response, not as an error.
func Solve(ctx context.Context, s Scheduler, req *Request) *SolveResponse {
	clean := &Request{
		Majors:       CleanList(req.Majors),
		CoursesTaken: CleanList(req.CoursesTaken),
	}
	if len(clean.Majors) == 0 {
		return &SolveResponse{OK: false, Message: "no majors to schedule"}
	}
	resp, err := s.Schedule(ctx, clean)
	if err != nil {
		return &SolveResponse{OK: false, Message: err.Error()}
	}
	if resp == nil || len(resp.Semesters) == 0 {
		return &SolveResponse{OK: false, Message: "no plan found"}
	}
	return &SolveResponse{OK: true, Message: "Schedule successfully created!", Response: resp}
}

// CleanList trims items and drops blanks, keeping order.
func CleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intPtr(n int) *int { return &n }

func row(dept string, number int, cr int, title string) Course {
	return Course{Department: dept, Number: strconv.Itoa(number), Credits: intPtr(cr), Title: title}
}
