package codec

import (
	"github.com/valter-silva-au/taskforge/pkg/models"
)

// Task projects the parsed record into the task model. Records without a
// usable header degrade to a minimal task: title from the first heading,
// everything else zero-valued for the caller to default.
func (r *Record) Task() *models.Task {
	t := &models.Task{}

	if r.Header == nil {
		t.Title = r.Title()
		t.Description = r.Description()
		return t
	}

	h := r.Header
	t.ID, _ = h.StringField(FieldID)
	t.Title, _ = h.StringField(FieldTitle)
	t.Status, _ = h.StringField(FieldStatus)
	if p, ok := h.StringField(FieldPriority); ok {
		t.Priority = models.Priority(p)
	}
	t.Milestone, _ = h.StringField(FieldMilestone)
	t.Labels, _ = h.ListField(FieldLabels)
	t.Assignee, _ = h.ListField(FieldAssignee)
	t.Dependencies, _ = h.ListField(FieldDependencies)
	t.ParentTaskID, _ = h.StringField(FieldParentTaskID)
	t.Subtasks, _ = h.ListField(FieldSubtasks)
	t.References, _ = h.ListField(FieldReferences)
	t.Documentation, _ = h.ListField(FieldDocumentation)
	if v, ok := h.FloatField(FieldOrdinal); ok {
		t.Ordinal = &v
	}
	t.CreatedDate, _ = h.StringField(FieldCreatedDate)
	t.UpdatedDate, _ = h.StringField(FieldUpdatedDate)
	t.DueDate, _ = h.StringField(FieldDueDate)

	t.Description = r.Description()
	t.AcceptanceCriteria = checklistItems(r, "Acceptance Criteria")
	t.DefinitionOfDone = checklistItems(r, "Definition of Done")
	return t
}

func checklistItems(r *Record, section string) []models.ChecklistItem {
	lines := r.Checklist(section)
	if len(lines) == 0 {
		return nil
	}
	items := make([]models.ChecklistItem, len(lines))
	for i, l := range lines {
		items[i] = models.ChecklistItem{ID: l.ID, Text: l.Text, Checked: l.Checked}
	}
	return items
}

// NewTaskRecord builds a fresh record for a task in canonical form: header
// fields in canonical order, description section with markers, and the two
// checklist sections when they carry items. Labels, assignee, and
// dependencies are always emitted, empty or not.
func NewTaskRecord(t *models.Task) *Record {
	rec := &Record{Header: NewHeader()}

	h := rec.Header
	h.SetString(FieldID, t.ID)
	h.SetString(FieldTitle, t.Title)
	h.SetString(FieldStatus, t.Status)
	if t.Priority != "" {
		h.SetString(FieldPriority, string(t.Priority))
	}
	if t.Milestone != "" {
		h.SetString(FieldMilestone, t.Milestone)
	}
	h.SetList(FieldLabels, t.Labels)
	h.SetList(FieldAssignee, t.Assignee)
	if t.CreatedDate != "" {
		h.SetString(FieldCreatedDate, t.CreatedDate)
	}
	if t.UpdatedDate != "" {
		h.SetString(FieldUpdatedDate, t.UpdatedDate)
	}
	if t.DueDate != "" {
		h.SetString(FieldDueDate, t.DueDate)
	}
	h.SetList(FieldDependencies, t.Dependencies)
	if t.ParentTaskID != "" {
		h.SetString(FieldParentTaskID, t.ParentTaskID)
	}
	if len(t.Subtasks) > 0 {
		h.SetList(FieldSubtasks, t.Subtasks)
	}
	if len(t.References) > 0 {
		h.SetList(FieldReferences, t.References)
	}
	if len(t.Documentation) > 0 {
		h.SetList(FieldDocumentation, t.Documentation)
	}
	if t.Ordinal != nil {
		h.SetFloat(FieldOrdinal, *t.Ordinal)
	}

	rec.Body = append(rec.Body, Span{Kind: SpanOpaque, lines: []string{"\n", "# " + t.Title + "\n"}})
	rec.SetDescription(t.Description)

	for _, item := range t.AcceptanceCriteria {
		id := rec.AddChecklistItem("Acceptance Criteria", item.Text)
		if item.Checked {
			rec.ToggleChecklistItem("Acceptance Criteria", id)
		}
	}
	for _, item := range t.DefinitionOfDone {
		id := rec.AddChecklistItem("Definition of Done", item.Text)
		if item.Checked {
			rec.ToggleChecklistItem("Definition of Done", id)
		}
	}

	return rec
}

// ApplyUpdate patches the record header and description from a partial
// update. Only non-nil fields are touched; array fields set to an empty
// slice render as [], and clearing an optional scalar removes its line.
func (r *Record) ApplyUpdate(u models.TaskUpdate) {
	h := r.Header
	if u.Title != nil {
		h.SetString(FieldTitle, *u.Title)
	}
	if u.Status != nil {
		h.SetString(FieldStatus, *u.Status)
	}
	if u.Priority != nil {
		if *u.Priority == "" {
			h.Remove(FieldPriority)
		} else {
			h.SetString(FieldPriority, string(*u.Priority))
		}
	}
	if u.Milestone != nil {
		if *u.Milestone == "" {
			h.Remove(FieldMilestone)
		} else {
			h.SetString(FieldMilestone, *u.Milestone)
		}
	}
	if u.Labels != nil {
		h.SetList(FieldLabels, u.Labels)
	}
	if u.Assignee != nil {
		h.SetList(FieldAssignee, u.Assignee)
	}
	if u.Dependencies != nil {
		h.SetList(FieldDependencies, u.Dependencies)
	}
	if u.ParentTaskID != nil {
		if *u.ParentTaskID == "" {
			h.Remove(FieldParentTaskID)
		} else {
			h.SetString(FieldParentTaskID, *u.ParentTaskID)
		}
	}
	if u.References != nil {
		h.SetList(FieldReferences, u.References)
	}
	if u.Documentation != nil {
		h.SetList(FieldDocumentation, u.Documentation)
	}
	if u.Ordinal != nil {
		h.SetFloat(FieldOrdinal, *u.Ordinal)
	}
	if u.DueDate != nil {
		if *u.DueDate == "" {
			h.Remove(FieldDueDate)
		} else {
			h.SetString(FieldDueDate, *u.DueDate)
		}
	}
	if u.Description != nil {
		r.SetDescription(*u.Description)
	}
}
