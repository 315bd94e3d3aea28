package degreeplan

import "strings"

const ReportHeader = "Degree Plan"

func RenderText(r Registry) string {
	var b strings.Builder
	b.WriteString(ReportHeader)
	b.WriteByte('\n')
	for _, bucket := range r.Buckets {
		b.WriteByte('\n')
		b.WriteString(string(bucket.Key))
		b.WriteString(":\n")
		for _, c := range bucket.Courses {
			b.WriteString("  ")
			b.WriteString(c)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
