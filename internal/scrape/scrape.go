// Package scrape reads a saved degree-plan page and produces the raw
// entries and label ordering consumed by degreeplan.Ingest.
package scrape

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ansarctica/ross/internal/degreeplan"
)

const (
	classTerm     = "dp-term"
	classTermName = "dp-termname"
	classNonTerm  = "dp-nontermcourses"
	classBubble   = "dp-coursebubble"

	nonTermLabel = "Non-term"
)

var (
	codeRe      = regexp.MustCompile(`(?i)\b([a-z]{2,4})\s*-\s*([0-9]{3,4})\b`)
	placementRe = regexp.MustCompile(`(?i)no credits or ceus`)
	nonTermRe   = regexp.MustCompile(`(?i)non[- ]?term`)
	pendingRe   = regexp.MustCompile(`(?i)planned|in progress|future|not taken|not started|enrolled|register`)
	finishedRe  = regexp.MustCompile(`(?i)completed|taken|credits? earned|grade:?|\b[a-df][+-]?\b|\bp\b|\bs\b`)
	creditRes   = []*regexp.Regexp{
		regexp.MustCompile(`\((\d+(?:\.\d+)?)\)`),
		regexp.MustCompile(`(?i)(?:credits?|cr)[:\s]*([0-9]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(?:credits?|cr)`),
	}
)

// Page is the scraped plan. Entries hold every bubble regardless of status;
// Completed lists the canonical form of bubbles that show a finished status.
type Page struct {
	OrderedLabels []string              `json:"orderedLabels"`
	Entries       []degreeplan.RawEntry `json:"entries"`
	Completed     []string              `json:"completed,omitempty"`
}

// Parse walks the page in document order. Terms are taken in the order
// they appear, which the degree-plan page lists earliest first.
func Parse(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	p := &pageBuilder{index: make(map[string]int)}
	p.walk(doc, "")
	return &p.page, nil
}

type pageBuilder struct {
	page  Page
	index map[string]int
}

func (p *pageBuilder) walk(n *html.Node, label string) {
	if n.Type == html.ElementNode {
		switch {
		case hasClass(n, classNonTerm):
			label = nonTermLabel
			p.label(label)
		case hasClass(n, classTerm):
			if l := termLabel(n); l != "" {
				label = l
				p.label(label)
			}
		case hasClass(n, classBubble):
			p.bubble(label, textContent(n))
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, label)
	}
}

func (p *pageBuilder) label(l string) int {
	if i, ok := p.index[l]; ok {
		return i
	}
	p.page.OrderedLabels = append(p.page.OrderedLabels, l)
	p.page.Entries = append(p.page.Entries, degreeplan.RawEntry{SemesterLabel: l})
	p.index[l] = len(p.page.Entries) - 1
	return p.index[l]
}

func (p *pageBuilder) bubble(label, text string) {
	text = collapse(text)
	if text == "" {
		return
	}
	if nonTermRe.MatchString(text) {
		label = nonTermLabel
	}
	if label == "" {
		return
	}
	i := p.label(label)
	canon := Canonicalize(text)
	p.page.Entries[i].Courses = append(p.page.Entries[i].Courses, canon)
	if codeRe.MatchString(text) && Completed(text) {
		p.page.Completed = append(p.page.Completed, canon)
	}
}

// Completed reports whether bubble text shows a finished course: a letter
// grade, "Completed" or "Credit Earned". Planned, in-progress and enrolled
// bubbles never count.
func Completed(text string) bool {
	return !pendingRe.MatchString(text) && finishedRe.MatchString(text)
}

// Canonicalize rewrites bubble text as "DEPT-NUM (credits)". Credits come
// from "(3)", "credits: 3" or "3 cr" forms, "No Credits or CEUs" marks a
// placement, and anything else is "?". Text without a course code is
// returned unchanged.
func Canonicalize(text string) string {
	m := codeRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	code := strings.ToUpper(text[m[2]:m[3]]) + "-" + text[m[4]:m[5]]
	rest := text[:m[0]] + text[m[1]:]

	credits := degreeplan.CreditUnknown
	if placementRe.MatchString(text) {
		credits = degreeplan.CreditPlacement
	} else {
		for _, re := range creditRes {
			if cm := re.FindStringSubmatch(rest); cm != nil {
				credits = cm[1]
				break
			}
		}
	}
	return code + " (" + credits + ")"
}

func termLabel(n *html.Node) string {
	var found string
	var visit func(*html.Node) bool
	visit = func(c *html.Node) bool {
		if c.Type == html.ElementNode {
			if hasClass(c, classBubble) {
				return false
			}
			switch c.Data {
			case "h1", "h2", "h3", "h4":
				found = collapse(textContent(c))
				return found != ""
			}
			if hasClass(c, classTermName) {
				found = collapse(textContent(c))
				return found != ""
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			if visit(k) {
				return true
			}
		}
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if visit(c) {
			break
		}
	}
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, f := range strings.Fields(a.Val) {
			if f == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			visit(k)
		}
	}
	visit(n)
	return b.String()
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }
