package degreeplan

import "errors"

type Result struct {
	Registry   Registry `json:"registry"`
	Skipped    []string `json:"skipped,omitempty"`
	Unassigned []string `json:"unassigned,omitempty"`
}

func Ingest(orderedLabels []string, entries []RawEntry) Registry {
	return IngestDetailed(orderedLabels, entries).Registry
}

// IngestDetailed runs one ingestion pass. Bubble text that does not parse is
// listed in Skipped; parsed courses under a label with no key are listed in
// Unassigned. Neither stops the pass.
func IngestDetailed(orderedLabels []string, entries []RawEntry) Result {
	agg := NewAggregator(AssignKeys(orderedLabels))
	var res Result
	for _, e := range entries {
		for _, raw := range e.Raw() {
			c, ok := ParseCourse(raw)
			if !ok {
				res.Skipped = append(res.Skipped, raw)
				continue
			}
			if _, err := agg.Add(e.SemesterLabel, c); err != nil {
				if errors.Is(err, ErrUnassignedLabel) {
					res.Unassigned = append(res.Unassigned, raw)
				}
				continue
			}
		}
	}
	res.Registry = agg.Registry()
	return res
}
