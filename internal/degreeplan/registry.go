package degreeplan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrUnassignedLabel = errors.New("degreeplan: semester label has no assigned key")

type Bucket struct {
	Key     SemesterKey `json:"key"`
	Courses []string    `json:"courses"`
}

// Registry is the ordered bucket list produced by one ingestion. It encodes
// to JSON as an object whose keys keep the registry order.
type Registry struct {
	Buckets []Bucket
}

func (r Registry) Len() int { return len(r.Buckets) }

func (r Registry) Keys() []SemesterKey {
	out := make([]SemesterKey, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		out = append(out, b.Key)
	}
	return out
}

func (r Registry) Get(key SemesterKey) ([]string, bool) {
	for _, b := range r.Buckets {
		if b.Key == key {
			return b.Courses, true
		}
	}
	return nil, false
}

func (r Registry) Map() map[SemesterKey][]string {
	out := make(map[SemesterKey][]string, len(r.Buckets))
	for _, b := range r.Buckets {
		out[b.Key] = b.Courses
	}
	return out
}

// CreditedCodes flattens the credited buckets in registry order, keeping the
// first occurrence of each code.
func (r Registry) CreditedCodes() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, b := range r.Buckets {
		if !b.Key.Credited() {
			continue
		}
		for _, c := range b.Courses {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func (r Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range r.Buckets {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(b.Key))
		if err != nil {
			return nil, err
		}
		courses := b.Courses
		if courses == nil {
			courses = []string{}
		}
		v, err := json.Marshal(courses)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Route picks the bucket for a parsed course under its entry label.
func Route(c ParsedCourse, label string, keys map[string]SemesterKey) (SemesterKey, bool) {
	if IsNonTermLabel(label) {
		return NonTerm, true
	}
	if c.NonCredit() {
		return NonTerm, true
	}
	key, ok := keys[label]
	return key, ok
}

type Aggregator struct {
	keys    map[string]SemesterKey
	buckets map[SemesterKey][]string
	order   []SemesterKey
}

func NewAggregator(keys map[string]SemesterKey) *Aggregator {
	return &Aggregator{
		keys:    keys,
		buckets: make(map[SemesterKey][]string),
	}
}

// Add appends the course code to its bucket. A label that was never assigned
// a key is a caller error; nothing is recorded for it.
func (a *Aggregator) Add(label string, c ParsedCourse) (SemesterKey, error) {
	key, ok := Route(c, label, a.keys)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnassignedLabel, label)
	}
	if _, seen := a.buckets[key]; !seen {
		a.order = append(a.order, key)
	}
	a.buckets[key] = append(a.buckets[key], c.Code())
	return key, nil
}

// Registry orders credited buckets by numeric suffix (regular term first on
// a tie) and appends the rest in the order they were first filled.
func (a *Aggregator) Registry() Registry {
	var credited, other []SemesterKey
	for _, k := range a.order {
		if k.Credited() {
			credited = append(credited, k)
		} else {
			other = append(other, k)
		}
	}
	sort.SliceStable(credited, func(i, j int) bool {
		ni, _ := credited[i].Index()
		nj, _ := credited[j].Index()
		if ni != nj {
			return ni < nj
		}
		return !credited[i].Summer() && credited[j].Summer()
	})

	out := Registry{Buckets: make([]Bucket, 0, len(a.order))}
	for _, k := range append(credited, other...) {
		courses := make([]string, len(a.buckets[k]))
		copy(courses, a.buckets[k])
		out.Buckets = append(out.Buckets, Bucket{Key: k, Courses: courses})
	}
	return out
}
