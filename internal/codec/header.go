package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Canonical header field names. Records may use aliases on disk; the parser
// resolves them, and canonical names drive emission order.
const (
	FieldID            = "id"
	FieldTitle         = "title"
	FieldStatus        = "status"
	FieldPriority      = "priority"
	FieldMilestone     = "milestone"
	FieldLabels        = "labels"
	FieldAssignee      = "assignee"
	FieldCreatedDate   = "created_date"
	FieldUpdatedDate   = "updated_date"
	FieldDueDate       = "due_date"
	FieldDependencies  = "dependencies"
	FieldParentTaskID  = "parent_task_id"
	FieldSubtasks      = "subtasks"
	FieldReferences    = "references"
	FieldDocumentation = "documentation"
	FieldOrdinal       = "ordinal"
	FieldType          = "type"
)

// canonicalOrder is the fixed emission order for known fields. Unknown
// fields form a free-form tail behind them.
var canonicalOrder = []string{
	FieldID,
	FieldTitle,
	FieldType,
	FieldStatus,
	FieldPriority,
	FieldMilestone,
	FieldLabels,
	FieldAssignee,
	FieldCreatedDate,
	FieldUpdatedDate,
	FieldDueDate,
	FieldDependencies,
	FieldParentTaskID,
	FieldSubtasks,
	FieldReferences,
	FieldDocumentation,
	FieldOrdinal,
}

// fieldAliases maps alternate on-disk spellings to canonical names.
var fieldAliases = map[string]string{
	"created": FieldCreatedDate,
	"updated": FieldUpdatedDate,
	"parent":  FieldParentTaskID,
}

func canonicalKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, " ", "_")
	if alias, ok := fieldAliases[k]; ok {
		return alias
	}
	return k
}

func canonicalIndex(key string) int {
	for i, k := range canonicalOrder {
		if k == key {
			return i
		}
	}
	return len(canonicalOrder)
}

// headerField is one keyed entry of the frontmatter block. The raw lines
// are kept verbatim and reused on render unless the field was mutated.
type headerField struct {
	key    string
	rawKey string
	lines  []string

	scalar string
	list   []string
	isList bool

	dirty bool
}

// Header is the parsed frontmatter block: an ordered field list plus the
// verbatim marker lines delimiting it.
type Header struct {
	fields    []*headerField
	openLine  string
	closeLine string
}

// fieldStartPattern matches the first line of a header field.
var fieldStartPattern = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_ .-]*):(.*)$`)

// parseHeader parses the frontmatter lines, both markers included.
func parseHeader(lines []string) (*Header, error) {
	hdr := &Header{
		openLine:  lines[0],
		closeLine: lines[len(lines)-1],
	}

	var current *headerField
	for _, line := range lines[1 : len(lines)-1] {
		text := trimEOL(line)

		if m := fieldStartPattern.FindStringSubmatch(text); m != nil {
			current = &headerField{
				key:    canonicalKey(m[1]),
				rawKey: m[1],
				lines:  []string{line},
			}
			hdr.fields = append(hdr.fields, current)
			continue
		}

		trimmed := strings.TrimSpace(text)
		continuation := current != nil &&
			(trimmed == "" || strings.HasPrefix(trimmed, "- ") || trimmed == "-" ||
				strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\t") ||
				strings.HasPrefix(trimmed, "#"))
		if !continuation {
			return nil, fmt.Errorf("%w: unexpected header line %q", ErrMalformedHeader, text)
		}
		current.lines = append(current.lines, line)
	}

	for _, f := range hdr.fields {
		if err := f.parseValue(); err != nil {
			return nil, err
		}
	}
	return hdr, nil
}

// parseValue decodes the field's raw lines through YAML into either a
// scalar or a string list. Inline bracketed arrays and block lists both
// arrive here as YAML sequences.
func (f *headerField) parseValue() error {
	text := make([]string, len(f.lines))
	for i, line := range f.lines {
		text[i] = trimEOL(line)
	}

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(text, "\n")), &doc); err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrMalformedHeader, f.rawKey, err)
	}

	var value any
	for _, v := range doc {
		value = v
	}

	switch v := value.(type) {
	case []any:
		f.isList = true
		f.list = make([]string, len(v))
		for i, item := range v {
			f.list[i] = scalarString(item)
		}
	default:
		f.scalar = scalarString(value)
	}
	return nil
}

// scalarString renders a decoded YAML scalar back to its semantic string.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04")
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (h *Header) find(key string) *headerField {
	key = canonicalKey(key)
	for _, f := range h.fields {
		if f.key == key {
			return f
		}
	}
	return nil
}

// StringField returns the scalar value of a field and whether it exists.
func (h *Header) StringField(key string) (string, bool) {
	f := h.find(key)
	if f == nil || f.isList {
		return "", false
	}
	return f.scalar, true
}

// ListField returns the list value of a field and whether it exists as a
// list. A scalar field queried as a list yields its single value.
func (h *Header) ListField(key string) ([]string, bool) {
	f := h.find(key)
	if f == nil {
		return nil, false
	}
	if !f.isList {
		if f.scalar == "" {
			return nil, true
		}
		return []string{f.scalar}, true
	}
	out := make([]string, len(f.list))
	copy(out, f.list)
	return out, true
}

// FloatField returns the numeric value of a field and whether it parses.
func (h *Header) FloatField(key string) (float64, bool) {
	s, ok := h.StringField(key)
	if !ok || s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Keys returns the canonical field names in on-disk order.
func (h *Header) Keys() []string {
	keys := make([]string, len(h.fields))
	for i, f := range h.fields {
		keys[i] = f.key
	}
	return keys
}

// SetString sets a scalar field, patching it in place when it already
// exists and inserting it at its canonical position otherwise.
func (h *Header) SetString(key, value string) {
	f := h.ensure(key)
	f.scalar = value
	f.list = nil
	f.isList = false
	f.dirty = true
}

// SetList sets a list field. An empty slice is emitted as [], never omitted.
func (h *Header) SetList(key string, values []string) {
	f := h.ensure(key)
	f.list = make([]string, len(values))
	copy(f.list, values)
	f.scalar = ""
	f.isList = true
	f.dirty = true
}

// SetFloat sets a numeric field.
func (h *Header) SetFloat(key string, value float64) {
	h.SetString(key, strconv.FormatFloat(value, 'f', -1, 64))
}

// Remove deletes a field from the header. Removing a missing field is a
// no-op.
func (h *Header) Remove(key string) {
	key = canonicalKey(key)
	for i, f := range h.fields {
		if f.key == key {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			return
		}
	}
}

// ensure returns the field for key, creating it at its canonical-order
// position when absent.
func (h *Header) ensure(key string) *headerField {
	key = canonicalKey(key)
	if f := h.find(key); f != nil {
		return f
	}

	f := &headerField{key: key, rawKey: key, dirty: true}
	ci := canonicalIndex(key)
	at := len(h.fields)
	for i, existing := range h.fields {
		if canonicalIndex(existing.key) > ci {
			at = i
			break
		}
	}
	h.fields = append(h.fields, nil)
	copy(h.fields[at+1:], h.fields[at:])
	h.fields[at] = f
	return f
}

// render writes the header block. Untouched fields emit their original
// bytes; mutated or new fields emit the canonical form.
func (h *Header) render(b *strings.Builder) {
	open := h.openLine
	if open == "" {
		open = HeaderMarker + "\n"
	}
	closing := h.closeLine
	if closing == "" {
		closing = HeaderMarker + "\n"
	}
	b.WriteString(open)
	for _, f := range h.fields {
		if !f.dirty && f.lines != nil {
			for _, line := range f.lines {
				b.WriteString(line)
			}
			continue
		}
		b.WriteString(f.renderCanonical(eolOf(open)))
	}
	b.WriteString(closing)
}

// renderCanonical emits "key: value" (or an inline bracketed list) with the
// given line terminator.
func (f *headerField) renderCanonical(eol string) string {
	if f.isList {
		items := make([]string, len(f.list))
		for i, v := range f.list {
			items[i] = yamlScalar(v)
		}
		return f.rawKey + ": [" + strings.Join(items, ", ") + "]" + eol
	}
	if f.scalar == "" {
		return f.rawKey + ":" + eol
	}
	return f.rawKey + ": " + yamlScalar(f.scalar) + eol
}

// plainScalarPattern matches values safe to emit without quoting.
var plainScalarPattern = regexp.MustCompile(`^[A-Za-z0-9][^:#\[\]{},'"]*$`)

// yamlScalar quotes a value when plain YAML syntax would change its
// meaning ("@" markers, colons, leading punctuation, surrounding spaces).
func yamlScalar(s string) string {
	if s == "" {
		return "''"
	}
	if plainScalarPattern.MatchString(s) && !strings.HasSuffix(s, " ") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// NewHeader builds an empty header for a freshly created record.
func NewHeader() *Header {
	return &Header{
		openLine:  HeaderMarker + "\n",
		closeLine: HeaderMarker + "\n",
	}
}
