package degreeplan

import (
	"strconv"
	"strings"
)

type SemesterKey string

const NonTerm SemesterKey = "non-term"

const (
	semesterPrefix = "semester-"
	summerPrefix   = "summer-"

	nonTermLabel = "Non-term"
)

func SemesterN(k int) SemesterKey { return SemesterKey(semesterPrefix + strconv.Itoa(k)) }
func SummerN(k int) SemesterKey   { return SemesterKey(summerPrefix + strconv.Itoa(k)) }

// Index returns the numeric suffix of a counter key. ok is false for
// non-term and anything else that is not a counter key.
func (k SemesterKey) Index() (int, bool) {
	s := string(k)
	var rest string
	switch {
	case strings.HasPrefix(s, semesterPrefix):
		rest = s[len(semesterPrefix):]
	case strings.HasPrefix(s, summerPrefix):
		rest = s[len(summerPrefix):]
	default:
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (k SemesterKey) Summer() bool { return strings.HasPrefix(string(k), summerPrefix) }

func (k SemesterKey) Credited() bool {
	_, ok := k.Index()
	return ok
}

func IsNonTermLabel(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), nonTermLabel)
}

func IsSummerLabel(label string) bool {
	return strings.Contains(strings.ToLower(label), "summer")
}

// AssignKeys numbers labels in the order given. Regular terms and summer
// sessions use separate counters; the non-term label gets no key.
func AssignKeys(orderedLabels []string) map[string]SemesterKey {
	keys := make(map[string]SemesterKey, len(orderedLabels))
	regular, summer := 0, 0
	for _, label := range orderedLabels {
		if IsNonTermLabel(label) {
			continue
		}
		if _, seen := keys[label]; seen {
			continue
		}
		if IsSummerLabel(label) {
			summer++
			keys[label] = SummerN(summer)
		} else {
			regular++
			keys[label] = SemesterN(regular)
		}
	}
	return keys
}
