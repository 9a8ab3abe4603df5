package codec

import (
	"regexp"
	"strconv"
	"strings"
)

// SpanKind distinguishes recognised sections from opaque body text.
type SpanKind int

const (
	// SpanOpaque is body text the codec never rewrites.
	SpanOpaque SpanKind = iota
	// SpanSection is a recognised "## " section that targeted mutations
	// may rewrite.
	SpanSection
)

// Span is one contiguous slice of the record body. Opaque spans hold their
// bytes verbatim; section spans additionally know their heading.
type Span struct {
	Kind SpanKind
	// Name is the canonical section name for SpanSection spans.
	Name string

	// lines holds the span's raw lines, heading included, terminators kept.
	lines []string
}

// Description marker lines. When present inside a Description section, only
// the text between them is the semantic value, and rewrites replace that
// text without nesting new markers.
const (
	descBeginMarker = "<!-- SECTION:DESCRIPTION:BEGIN -->"
	descEndMarker   = "<!-- SECTION:DESCRIPTION:END -->"
)

var (
	sectionHeadingPattern = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	fencePattern          = regexp.MustCompile("^(```|~~~)")
	checklistPattern      = regexp.MustCompile(`^(\s*- \[)( |x|X)(\] #)(\d+)( ?)(.*)$`)
)

// parseBody scans lines into spans. Section headings are only recognised
// outside fenced code blocks, so fenced content that happens to look like a
// marker stays opaque. Description markers open a Description span even
// without a heading; everything up to the end marker belongs to it, and
// headings between the markers stay part of the description.
func parseBody(lines []string, sections []string) []Span {
	canon := make(map[string]string, len(sections))
	for _, s := range sections {
		canon[strings.ToLower(s)] = s
	}

	var spans []Span
	inFence := false
	inDesc := false
	descMarkerForm := false

	appendToLast := func(line string) {
		if len(spans) == 0 {
			spans = append(spans, Span{Kind: SpanOpaque})
		}
		spans[len(spans)-1].lines = append(spans[len(spans)-1].lines, line)
	}

	for _, line := range lines {
		text := trimEOL(line)
		trimmed := strings.TrimSpace(text)

		if inDesc {
			appendToLast(line)
			if trimmed == descEndMarker {
				inDesc = false
				if descMarkerForm {
					spans = append(spans, Span{Kind: SpanOpaque})
				}
			}
			continue
		}

		if fencePattern.MatchString(trimmed) {
			inFence = !inFence
			appendToLast(line)
			continue
		}

		if !inFence && trimmed == descBeginMarker {
			if n := len(spans); n > 0 && spans[n-1].Kind == SpanSection &&
				strings.EqualFold(spans[n-1].Name, "Description") {
				descMarkerForm = false
			} else {
				spans = append(spans, Span{Kind: SpanSection, Name: "Description"})
				descMarkerForm = true
			}
			inDesc = true
			appendToLast(line)
			continue
		}

		if !inFence {
			if m := sectionHeadingPattern.FindStringSubmatch(text); m != nil {
				if name, ok := canon[strings.ToLower(m[1])]; ok {
					spans = append(spans, Span{
						Kind:  SpanSection,
						Name:  name,
						lines: []string{line},
					})
					continue
				}
				// Unrecognised heading ends the current section.
				spans = append(spans, Span{Kind: SpanOpaque, lines: []string{line}})
				continue
			}
		}

		appendToLast(line)
	}

	return spans
}

func (s *Span) render(b *strings.Builder) {
	for _, line := range s.lines {
		b.WriteString(line)
	}
}

// text returns the span content after the heading line, terminators kept.
func (s *Span) text() string {
	if s.Kind != SpanSection || len(s.lines) == 0 {
		return strings.Join(s.lines, "")
	}
	return strings.Join(s.lines[1:], "")
}

// findSection returns the first span with the given section name.
func (r *Record) findSection(name string) *Span {
	for i := range r.Body {
		if r.Body[i].Kind == SpanSection && strings.EqualFold(r.Body[i].Name, name) {
			return &r.Body[i]
		}
	}
	return nil
}

// markerPair locates the first begin marker and the first end marker after
// it, returning -1 indexes when the pair is incomplete.
func (s *Span) markerPair() (begin, end int) {
	begin, end = -1, -1
	for i, l := range s.lines {
		if strings.TrimSpace(trimEOL(l)) == descBeginMarker {
			begin = i
			break
		}
	}
	if begin < 0 {
		return
	}
	for i := begin + 1; i < len(s.lines); i++ {
		if strings.TrimSpace(trimEOL(s.lines[i])) == descEndMarker {
			end = i
			return
		}
	}
	return
}

// Description extracts the semantic description text: the content between
// the begin/end markers when they are present, otherwise the whole section
// body, trimmed of surrounding blank lines.
func (r *Record) Description() string {
	sec := r.findSection("Description")
	if sec == nil {
		return ""
	}
	full := strings.Join(sec.lines, "")
	if begin := strings.Index(full, descBeginMarker); begin >= 0 {
		rest := full[begin+len(descBeginMarker):]
		if end := strings.Index(rest, descEndMarker); end >= 0 {
			return strings.Trim(rest[:end], "\r\n")
		}
	}
	return strings.Trim(sec.text(), "\r\n")
}

// SetDescription replaces the description text between the markers and
// nothing else: span lines before the begin marker and after the end marker
// stay byte-identical, bare markers stay bare, and a "## Description"
// heading keeps its heading. Repeated writes never nest new markers. A
// record with no description yet gets a bare marker block at the end.
func (r *Record) SetDescription(text string) {
	sec := r.findSection("Description")

	eol := "\n"
	if sec != nil && len(sec.lines) > 0 {
		eol = eolOf(sec.lines[0])
	}

	var body []string
	if text != "" {
		for _, l := range splitLines(text) {
			if !strings.HasSuffix(l, "\n") {
				l = trimEOL(l) + eol
			}
			body = append(body, l)
		}
	}

	if sec != nil {
		if begin, end := sec.markerPair(); begin >= 0 {
			lines := append([]string{}, sec.lines[:begin+1]...)
			lines = append(lines, body...)
			if end >= 0 {
				lines = append(lines, sec.lines[end:]...)
			} else {
				// Unterminated marker: writing supplies the missing end.
				lines = append(lines, descEndMarker+eol)
			}
			sec.lines = lines
			return
		}
		// No markers yet: the whole section body is the description, so
		// rewrite it as a marker block under the existing heading.
		lines := []string{sec.lines[0], eol, descBeginMarker + eol}
		lines = append(lines, body...)
		lines = append(lines, descEndMarker+eol, eol)
		sec.lines = lines
		return
	}

	lines := []string{descBeginMarker + eol}
	lines = append(lines, body...)
	lines = append(lines, descEndMarker+eol)
	r.appendSection(Span{Kind: SpanSection, Name: "Description", lines: lines})
}

// Section returns the raw text of a named section, without the heading.
func (r *Record) Section(name string) (string, bool) {
	sec := r.findSection(name)
	if sec == nil {
		return "", false
	}
	return strings.Trim(sec.text(), "\r\n"), true
}

// SetSection replaces the body of a named section, creating the section at
// the end of the record when it does not exist yet.
func (r *Record) SetSection(name, text string) {
	eol := "\n"
	heading := "## " + name + eol

	sec := r.findSection(name)
	if sec != nil && len(sec.lines) > 0 {
		eol = eolOf(sec.lines[0])
		heading = sec.lines[0]
	}

	lines := []string{heading, eol}
	for _, l := range splitLines(text) {
		if !strings.HasSuffix(l, "\n") {
			l += eol
		}
		lines = append(lines, l)
	}
	lines = append(lines, eol)

	if sec != nil {
		sec.lines = lines
		return
	}
	r.appendSection(Span{Kind: SpanSection, Name: name, lines: lines})
}

// appendSection adds a new section span at the end of the body, making sure
// a blank separator line precedes it.
func (r *Record) appendSection(span Span) {
	if n := len(r.Body); n > 0 {
		last := &r.Body[n-1]
		if len(last.lines) > 0 {
			tail := last.lines[len(last.lines)-1]
			if !strings.HasSuffix(tail, "\n") {
				last.lines[len(last.lines)-1] = tail + "\n"
			}
			if trimEOL(tail) != "" {
				last.lines = append(last.lines, "\n")
			}
		}
	}
	r.Body = append(r.Body, span)
}

// Checklist parses the checklist items of a named section.
func (r *Record) Checklist(section string) []ChecklistLine {
	sec := r.findSection(section)
	if sec == nil {
		return nil
	}
	var items []ChecklistLine
	for _, line := range sec.lines {
		if m := checklistPattern.FindStringSubmatch(trimEOL(line)); m != nil {
			items = append(items, ChecklistLine{
				ID:      atoiSafe(m[4]),
				Text:    m[6],
				Checked: m[2] == "x" || m[2] == "X",
			})
		}
	}
	return items
}

// ChecklistLine is one parsed checklist entry.
type ChecklistLine struct {
	ID      int
	Text    string
	Checked bool
}

// ToggleChecklistItem flips the checkbox of every line in the section whose
// numeric id matches exactly, leaving the rest of each line untouched. It
// returns the number of lines toggled. Duplicate ids toggle all matching
// lines.
func (r *Record) ToggleChecklistItem(section string, id int) int {
	sec := r.findSection(section)
	if sec == nil {
		return 0
	}
	toggled := 0
	for i, line := range sec.lines {
		m := checklistPattern.FindStringSubmatch(trimEOL(line))
		if m == nil || atoiSafe(m[4]) != id {
			continue
		}
		mark := "x"
		if m[2] == "x" || m[2] == "X" {
			mark = " "
		}
		sec.lines[i] = m[1] + mark + m[3] + m[4] + m[5] + m[6] + eolOf(line)
		toggled++
	}
	return toggled
}

// AddChecklistItem appends a new unchecked item to the section, assigning
// the next id above the highest one present. The section is created when
// missing. It returns the assigned id.
func (r *Record) AddChecklistItem(section, text string) int {
	next := 1
	for _, item := range r.Checklist(section) {
		if item.ID >= next {
			next = item.ID + 1
		}
	}

	sec := r.findSection(section)
	if sec == nil {
		r.SetSection(section, "")
		sec = r.findSection(section)
	}

	eol := "\n"
	if len(sec.lines) > 0 {
		eol = eolOf(sec.lines[0])
	}
	line := "- [ ] #" + strconv.Itoa(next) + " " + text + eol

	// Insert after the last checklist line, or after the heading and its
	// blank separator when the list is still empty.
	at := -1
	for i, l := range sec.lines {
		if checklistPattern.MatchString(trimEOL(l)) {
			at = i + 1
		}
	}
	if at < 0 {
		at = 1
		if at < len(sec.lines) && trimEOL(sec.lines[at]) == "" {
			at++
		}
	}
	sec.lines = append(sec.lines, "")
	copy(sec.lines[at+1:], sec.lines[at:])
	sec.lines[at] = line
	return next
}

// AppendOpaque appends raw text to the end of the body as an opaque span.
func (r *Record) AppendOpaque(text string) {
	r.Body = append(r.Body, Span{Kind: SpanOpaque, lines: splitLines(text)})
}

// BodyText returns the full body text, headings included.
func (r *Record) BodyText() string {
	var b strings.Builder
	for i := range r.Body {
		r.Body[i].render(&b)
	}
	return strings.Trim(b.String(), "\r\n")
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
