package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/taskforge/internal/codec"
	"github.com/valter-silva-au/taskforge/pkg/models"
)

// DocStore manages the document and decision sibling records. Each has its
// own id namespace (DOC-{n}, DECISION-{n}) but flows through the same codec
// and checked-write path as tasks.
type DocStore struct {
	root string
	log  zerolog.Logger
}

// NewDocStore creates a document/decision store rooted at root.
func NewDocStore(root string, log zerolog.Logger) *DocStore {
	return &DocStore{
		root: root,
		log:  log.With().Str("component", "docstore").Logger(),
	}
}

const (
	docIDPrefix      = "DOC"
	decisionIDPrefix = "DECISION"
)

func (d *DocStore) docsPath() string      { return filepath.Join(d.root, docsDir) }
func (d *DocStore) decisionsPath() string { return filepath.Join(d.root, decisionsDir) }

// nextID scans dir for the highest {prefix}-{n} and returns the next id.
func (d *DocStore) nextID(dir, prefix string) (string, error) {
	files, err := listRecordFiles(dir)
	if err != nil {
		return "", err
	}
	highest := 0
	for _, f := range files {
		p, n, suffix, ok := ParseTaskID(idFromFileName(f))
		if !ok || suffix != "" || !strings.EqualFold(p, prefix) {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%d", prefix, highest+1), nil
}

// CreateDocument writes a new document record and returns its model.
func (d *DocStore) CreateDocument(title, docType, body string) (*models.Document, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("creating document: title must not be empty")
	}
	id, err := d.nextID(d.docsPath(), docIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	rec := &codec.Record{Header: codec.NewHeader()}
	rec.Header.SetString(codec.FieldID, id)
	rec.Header.SetString(codec.FieldTitle, title)
	if docType != "" {
		rec.Header.SetString(codec.FieldType, docType)
	}
	rec.Header.SetString(codec.FieldCreatedDate, time.Now().UTC().Format(models.DateOnly))
	rec.AppendOpaque("\n# " + title + "\n")
	if body != "" {
		rec.AppendOpaque("\n" + strings.TrimRight(body, "\n") + "\n")
	}

	if err := os.MkdirAll(d.docsPath(), 0o750); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	path := filepath.Join(d.docsPath(), recordFileName(id, title))
	if err := writeNewFile(path, rec.Render()); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	d.log.Info().Str("id", id).Msg("document created")
	return d.GetDocument(id)
}

// GetDocument loads one document by id.
func (d *DocStore) GetDocument(id string) (*models.Document, error) {
	path, found := findRecordFile(d.docsPath(), id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rec, _ := codec.Parse(string(data), codec.ParseOptions{})

	doc := &models.Document{
		ID:           id,
		Title:        rec.Title(),
		FilePath:     path,
		LastModified: statMtime(path),
	}
	if rec.Header != nil {
		doc.Type, _ = rec.Header.StringField(codec.FieldType)
		doc.CreatedDate, _ = rec.Header.StringField(codec.FieldCreatedDate)
		doc.UpdatedDate, _ = rec.Header.StringField(codec.FieldUpdatedDate)
	}
	doc.Body = rec.BodyText()
	return doc, nil
}

// ListDocuments loads every document, sorted by id.
func (d *DocStore) ListDocuments() ([]*models.Document, error) {
	files, err := listRecordFiles(d.docsPath())
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	var docs []*models.Document
	for _, f := range files {
		doc, err := d.GetDocument(idFromFileName(f))
		if err != nil {
			d.log.Warn().Err(err).Str("path", f).Msg("skipping unreadable document")
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		_, a, _, _ := ParseTaskID(docs[i].ID)
		_, b, _, _ := ParseTaskID(docs[j].ID)
		return a < b
	})
	return docs, nil
}

// CreateDecision writes a new decision record with the four fixed sections
// pre-created and empty.
func (d *DocStore) CreateDecision(title string) (*models.Decision, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("creating decision: title must not be empty")
	}
	id, err := d.nextID(d.decisionsPath(), decisionIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating decision: %w", err)
	}

	rec := &codec.Record{Header: codec.NewHeader()}
	rec.Header.SetString(codec.FieldID, id)
	rec.Header.SetString(codec.FieldTitle, title)
	rec.Header.SetString(codec.FieldStatus, "proposed")
	rec.Header.SetString(codec.FieldCreatedDate, time.Now().UTC().Format(models.DateOnly))
	rec.AppendOpaque("\n# " + title + "\n")
	for _, section := range models.DecisionSections {
		rec.SetSection(string(section), "")
	}

	if err := os.MkdirAll(d.decisionsPath(), 0o750); err != nil {
		return nil, fmt.Errorf("creating decision: %w", err)
	}
	path := filepath.Join(d.decisionsPath(), recordFileName(id, title))
	if err := writeNewFile(path, rec.Render()); err != nil {
		return nil, fmt.Errorf("creating decision: %w", err)
	}

	d.log.Info().Str("id", id).Msg("decision created")
	return d.GetDecision(id)
}

// GetDecision loads one decision by id, projecting its fixed sections.
func (d *DocStore) GetDecision(id string) (*models.Decision, error) {
	path, found := findRecordFile(d.decisionsPath(), id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rec, _ := codec.Parse(string(data), codec.ParseOptions{Sections: codec.DecisionBodySections})

	dec := &models.Decision{
		ID:           id,
		Title:        rec.Title(),
		FilePath:     path,
		LastModified: statMtime(path),
	}
	if rec.Header != nil {
		dec.Status, _ = rec.Header.StringField(codec.FieldStatus)
		dec.CreatedDate, _ = rec.Header.StringField(codec.FieldCreatedDate)
	}
	dec.Context, _ = rec.Section(string(models.SectionContext))
	dec.Decision, _ = rec.Section(string(models.SectionDecision))
	dec.Consequences, _ = rec.Section(string(models.SectionConsequences))
	dec.Alternatives, _ = rec.Section(string(models.SectionAlternatives))
	return dec, nil
}

// ListDecisions loads every decision, sorted by id.
func (d *DocStore) ListDecisions() ([]*models.Decision, error) {
	files, err := listRecordFiles(d.decisionsPath())
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	var decisions []*models.Decision
	for _, f := range files {
		dec, err := d.GetDecision(idFromFileName(f))
		if err != nil {
			d.log.Warn().Err(err).Str("path", f).Msg("skipping unreadable decision")
			continue
		}
		decisions = append(decisions, dec)
	}
	sort.Slice(decisions, func(i, j int) bool {
		_, a, _, _ := ParseTaskID(decisions[i].ID)
		_, b, _, _ := ParseTaskID(decisions[j].ID)
		return a < b
	})
	return decisions, nil
}

// UpdateDecisionSection rewrites one named section of a decision through
// the conflict gate, leaving every other section byte-identical.
func (d *DocStore) UpdateDecisionSection(id string, section models.DecisionSection, text, expectedToken string) error {
	valid := false
	for _, s := range models.DecisionSections {
		if s == section {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("updating decision %s: unknown section %q", id, section)
	}

	path, found := findRecordFile(d.decisionsPath(), id)
	if !found {
		return fmt.Errorf("updating decision %s: %w", id, ErrNotFound)
	}

	_, err := CheckedWrite(path, expectedToken, func(current string) (string, error) {
		rec, perr := codec.Parse(current, codec.ParseOptions{Sections: codec.DecisionBodySections})
		if perr != nil {
			return "", fmt.Errorf("parsing %s: %w", path, perr)
		}
		rec.SetSection(string(section), text)
		if rec.Header != nil {
			rec.Header.SetString(codec.FieldUpdatedDate, time.Now().UTC().Format(models.DateTime))
		}
		return rec.Render(), nil
	})
	return err
}

// StateToken returns the conflict token for a document or decision file.
func (d *DocStore) StateToken(id string) (string, error) {
	path, found := findRecordFile(d.decisionsPath(), id)
	if !found {
		path, found = findRecordFile(d.docsPath(), id)
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return ComputeStateToken(string(data)), nil
}
