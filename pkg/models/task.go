// Package models contains the shared data types for taskforge: tasks,
// documents, decisions, checklist items, and workspace configuration.
package models

import "time"

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ValidPriority reports whether p is one of the recognised priority values.
// The empty string is valid: priority is an optional field.
func ValidPriority(p Priority) bool {
	switch p {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskSource identifies where a task snapshot was loaded from. Only tasks
// with SourceLocal are writable; every other source is read-only.
type TaskSource string

const (
	SourceLocal       TaskSource = "local"
	SourceLocalBranch TaskSource = "local-branch"
	SourceRemote      TaskSource = "remote"
	SourceCompleted   TaskSource = "completed"
)

// ChecklistItem is a single entry in an acceptance-criteria or
// definition-of-done list. The ID is assigned when the item is created and
// never reused or renumbered afterwards.
type ChecklistItem struct {
	ID      int
	Text    string
	Checked bool
}

// Task is the primary work-item record. IDs follow the form
// {PREFIX}-{number} with an optional dotted suffix for subtasks
// (e.g. TASK-5.2).
type Task struct {
	ID                 string
	Title              string
	Status             string
	Priority           Priority
	Milestone          string
	Labels             []string
	Assignee           []string
	Dependencies       []string
	ParentTaskID       string
	Subtasks           []string
	References         []string
	Documentation      []string
	Ordinal            *float64
	Description        string
	AcceptanceCriteria []ChecklistItem
	DefinitionOfDone   []ChecklistItem
	CreatedDate        string
	UpdatedDate        string
	DueDate            string

	// Provenance. Branch is empty for local tasks; LastModified carries the
	// file mtime for local tasks and the branch's last commit time for
	// cross-branch snapshots.
	Source       TaskSource
	Branch       string
	FilePath     string
	LastModified time.Time
}

// Writable reports whether this snapshot may be mutated. Only the current
// checkout's own files are writable; branch and completed snapshots are not.
func (t *Task) Writable() bool {
	return t.Source == SourceLocal
}

// HasDependency reports whether the task lists id in its dependencies,
// using exact comparison.
func (t *Task) HasDependency(id string) bool {
	for _, dep := range t.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// ChecklistKind names one of the two checklist sections of a task.
type ChecklistKind string

const (
	ChecklistAcceptanceCriteria ChecklistKind = "acceptance_criteria"
	ChecklistDefinitionOfDone   ChecklistKind = "definition_of_done"
)

// TaskUpdate describes a partial update to a task. Nil pointers and nil
// slices mean "leave unchanged"; empty non-nil values clear the field.
type TaskUpdate struct {
	Title         *string
	Status        *string
	Priority      *Priority
	Milestone     *string
	Labels        []string
	Assignee      []string
	Dependencies  []string
	ParentTaskID  *string
	References    []string
	Documentation []string
	Ordinal       *float64
	Description   *string
	DueDate       *string
}

// Empty reports whether the update carries no changes at all.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Status == nil && u.Priority == nil &&
		u.Milestone == nil && u.Labels == nil && u.Assignee == nil &&
		u.Dependencies == nil && u.ParentTaskID == nil &&
		u.References == nil && u.Documentation == nil &&
		u.Ordinal == nil && u.Description == nil && u.DueDate == nil
}

// DateOnly and DateTime are the two accepted timestamp layouts in record
// headers.
const (
	DateOnly = "2006-01-02"
	DateTime = "2006-01-02 15:04"
)

// ParseRecordDate parses a header date in either accepted layout.
func ParseRecordDate(s string) (time.Time, bool) {
	if t, err := time.Parse(DateTime, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
