// Package codec parses task, document, and decision records into a
// structured span model and serialises them back with full fidelity.
//
// A record is a keyed frontmatter header delimited by "---" marker lines,
// followed by a markdown body organised into named sections. The parse
// result keeps every byte it does not recognise, so an unmodified record
// renders back byte-identical, and a targeted mutation disturbs only the
// header line or body span it names.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// HeaderMarker delimits the frontmatter block at the start of a record.
const HeaderMarker = "---"

// ErrMalformedHeader indicates a header block that is present but cannot be
// parsed as keyed fields. Read paths degrade to a minimal record; write
// paths must treat this as a hard failure.
var ErrMalformedHeader = errors.New("malformed record header")

// Record is the parse result: an optional header plus an ordered list of
// body spans. Rendering an unmodified Record reproduces the input exactly.
type Record struct {
	// Header is nil when the record has no frontmatter block.
	Header *Header
	// Body holds the ordered body spans.
	Body []Span
}

// ParseOptions control which body sections the parser recognises.
type ParseOptions struct {
	// Sections lists the recognised "## " headings. A nil slice means the
	// default task sections.
	Sections []string
}

// TaskSections are the named body sections of a task record.
var TaskSections = []string{
	"Description",
	"Acceptance Criteria",
	"Definition of Done",
	"Implementation Plan",
	"Implementation Notes",
}

// DecisionBodySections are the named body sections of a decision record.
var DecisionBodySections = []string{
	"Context",
	"Decision",
	"Consequences",
	"Alternatives",
}

// Parse splits content into header and body spans.
//
// A missing header is not an error: the record degrades to header-nil with
// the whole content held as body. A header that starts with the marker but
// fails to parse returns the degraded record together with a wrapped
// ErrMalformedHeader, so read paths can keep the degraded view while write
// paths fail hard.
func Parse(content string, opts ParseOptions) (*Record, error) {
	sections := opts.Sections
	if sections == nil {
		sections = TaskSections
	}

	rec := &Record{}

	lines := splitLines(content)
	bodyStart := 0

	if len(lines) > 0 && trimEOL(lines[0]) == HeaderMarker {
		end := -1
		for i := 1; i < len(lines); i++ {
			if trimEOL(lines[i]) == HeaderMarker {
				end = i
				break
			}
		}
		if end < 0 {
			rec.Body = parseBody(lines, sections)
			return rec, fmt.Errorf("%w: missing closing %q marker", ErrMalformedHeader, HeaderMarker)
		}

		hdr, err := parseHeader(lines[:end+1])
		if err != nil {
			rec.Body = parseBody(lines, sections)
			return rec, err
		}
		rec.Header = hdr
		bodyStart = end + 1
	}

	rec.Body = parseBody(lines[bodyStart:], sections)
	return rec, nil
}

// Render serialises the record back to text. For a record that has not been
// mutated this is byte-identical to the parsed input.
func (r *Record) Render() string {
	var b strings.Builder
	if r.Header != nil {
		r.Header.render(&b)
	}
	for i := range r.Body {
		r.Body[i].render(&b)
	}
	return b.String()
}

// Title returns the record title: the header title field when present,
// otherwise the first "# " heading of the body. Used to build the minimal
// degraded view of headerless or malformed records.
func (r *Record) Title() string {
	if r.Header != nil {
		if v, ok := r.Header.StringField(FieldTitle); ok && v != "" {
			return v
		}
	}
	for _, span := range r.Body {
		for _, line := range span.lines {
			t := trimEOL(line)
			if strings.HasPrefix(t, "# ") {
				return strings.TrimSpace(strings.TrimPrefix(t, "# "))
			}
		}
	}
	return ""
}

// splitLines splits content into lines that keep their terminators, so
// joining them back reproduces the input byte-for-byte (CRLF included).
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// trimEOL strips the line terminator, leaving all other bytes intact.
func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// eolOf returns the terminator of a line, or "\n" when the line has none.
func eolOf(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return "\n"
	}
	return "\n"
}
