package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

type staticConfig struct {
	cfg *models.Config
}

func (s staticConfig) Load() (*models.Config, error) { return s.cfg, nil }

func testConfig() *models.Config {
	return &models.Config{
		Statuses:   []string{"To Do", "In Progress", "Done"},
		TaskPrefix: "TASK",
	}
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), staticConfig{cfg: testConfig()}, zerolog.Nop(), nil)
}

func mustCreate(t *testing.T, s *FileStore, in CreateTaskInput) *CreatedTask {
	t.Helper()
	created, err := s.CreateTask(in)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return created
}

func TestCreateTaskAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	first := mustCreate(t, s, CreateTaskInput{Title: "First"})
	second := mustCreate(t, s, CreateTaskInput{Title: "Second"})
	if first.ID != "TASK-1" || second.ID != "TASK-2" {
		t.Fatalf("ids = %s, %s", first.ID, second.ID)
	}

	// A gap below the highest number is never reused.
	if err := s.DeleteTask("TASK-1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	third := mustCreate(t, s, CreateTaskInput{Title: "Third"})
	if third.ID != "TASK-3" {
		t.Fatalf("third id = %s, want TASK-3", third.ID)
	}
}

func TestCreateTaskFileNameAndContent(t *testing.T) {
	s := newTestStore(t)
	created := mustCreate(t, s, CreateTaskInput{
		Title:              "Fix CI: flaky tests",
		Description:        "Deflake the suite.",
		Priority:           models.PriorityHigh,
		Labels:             []string{"ci"},
		AcceptanceCriteria: []string{"Suite green ten times"},
	})

	base := filepath.Base(created.Path)
	if !strings.HasPrefix(base, "TASK-1 - ") || !strings.HasSuffix(base, ".md") {
		t.Errorf("file name = %q", base)
	}
	if strings.ContainsAny(base, `:*?"<>|`) {
		t.Errorf("unsanitized characters in file name %q", base)
	}

	task, err := s.GetTask("TASK-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Title != "Fix CI: flaky tests" || task.Status != "To Do" {
		t.Errorf("loaded task = %+v", task)
	}
	if task.Description != "Deflake the suite." {
		t.Errorf("description = %q", task.Description)
	}
	if len(task.AcceptanceCriteria) != 1 || task.AcceptanceCriteria[0].ID != 1 {
		t.Errorf("acceptance criteria = %+v", task.AcceptanceCriteria)
	}
	if task.Source != models.SourceLocal || !task.Writable() {
		t.Errorf("fresh task should be writable local, got %q", task.Source)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateTask(CreateTaskInput{Title: "  "}); err == nil {
		t.Error("blank title accepted")
	}
	if _, err := s.CreateTask(CreateTaskInput{Title: "T", Priority: "urgent"}); err == nil {
		t.Error("bad priority accepted")
	}
	if _, err := s.CreateTask(CreateTaskInput{Title: "T", Status: "Nope"}); err == nil {
		t.Error("unconfigured status accepted")
	}
	if _, err := s.CreateTask(CreateTaskInput{Title: "T", Parent: "TASK-99"}); err == nil {
		t.Error("missing parent accepted")
	}
}

func TestCreateSubtask(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, CreateTaskInput{Title: "Parent"})

	child := mustCreate(t, s, CreateTaskInput{Title: "Child", Parent: "TASK-1"})
	if child.ID != "TASK-1.1" {
		t.Fatalf("child id = %s", child.ID)
	}
	second := mustCreate(t, s, CreateTaskInput{Title: "Second child", Parent: "TASK-1"})
	if second.ID != "TASK-1.2" {
		t.Fatalf("second child id = %s", second.ID)
	}
}

func TestListTasksNumericOrder(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 11; i++ {
		mustCreate(t, s, CreateTaskInput{Title: "T"})
	}
	tasks, err := s.ListTasks(ScopeActive)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 11 {
		t.Fatalf("listed %d tasks", len(tasks))
	}
	if tasks[1].ID != "TASK-2" || tasks[10].ID != "TASK-11" {
		t.Errorf("numeric sort broken: %s ... %s", tasks[1].ID, tasks[10].ID)
	}
}

func TestFindRecordDoesNotPrefixMatch(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 10; i++ {
		mustCreate(t, s, CreateTaskInput{Title: "T"})
	}
	// TASK-1 must resolve to TASK-1, not TASK-10.
	task, err := s.GetTask("TASK-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.ID != "TASK-1" {
		t.Fatalf("resolved %s for lookup of TASK-1", task.ID)
	}
}

func TestUpdateTaskStaleTokenConflicts(t *testing.T) {
	s := newTestStore(t)
	created := mustCreate(t, s, CreateTaskInput{Title: "Contended"})

	token, err := s.StateToken(created.ID)
	if err != nil {
		t.Fatalf("StateToken: %v", err)
	}

	// A competing writer slips in.
	other := "In Progress"
	if err := s.UpdateTask(created.ID, models.TaskUpdate{Status: &other}, token); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// The stale holder now loses, and the error carries the winning bytes.
	done := "Done"
	err = s.UpdateTask(created.ID, models.TaskUpdate{Status: &done}, token)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if _, ok := IsConflict(err); !ok {
		t.Error("IsConflict should report true")
	}
	if !strings.Contains(conflict.CurrentContent, "status: In Progress") {
		t.Errorf("conflict content missing competing edit:\n%s", conflict.CurrentContent)
	}

	// The losing edit was not applied.
	task, err := s.GetTask(created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != "In Progress" {
		t.Errorf("status = %q after refused write", task.Status)
	}
}

func TestUpdateTaskWithFreshTokenSucceeds(t *testing.T) {
	s := newTestStore(t)
	created := mustCreate(t, s, CreateTaskInput{Title: "Smooth"})

	token, _ := s.StateToken(created.ID)
	status := "Done"
	if err := s.UpdateTask(created.ID, models.TaskUpdate{Status: &status}, token); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	task, _ := s.GetTask(created.ID)
	if task.Status != "Done" {
		t.Errorf("status = %q", task.Status)
	}
	if task.UpdatedDate == "" {
		t.Error("updated_date not stamped")
	}

	next, _ := s.StateToken(created.ID)
	if next == token {
		t.Error("token unchanged after a write")
	}
}

func TestUpdateTaskPreservesUnknownFields(t *testing.T) {
	s := newTestStore(t)
	created := mustCreate(t, s, CreateTaskInput{Title: "Custom"})

	// Hand-edit the file with an unknown field and trailing whitespace.
	data, err := os.ReadFile(created.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	edited := strings.Replace(string(data), "---\n", "---\nx_ticket: JIRA-42\n", 1)
	if err := os.WriteFile(created.Path, []byte(edited), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	status := "Done"
	if err := s.UpdateTask(created.ID, models.TaskUpdate{Status: &status}, ""); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	after, _ := os.ReadFile(created.Path)
	if !strings.Contains(string(after), "x_ticket: JIRA-42\n") {
		t.Errorf("unknown field lost:\n%s", after)
	}
}

func TestUpdateTaskValidation(t *testing.T) {
	s := newTestStore(t)
	created := mustCreate(t, s, CreateTaskInput{Title: "Valid"})

	bad := "No Such Status"
	if err := s.UpdateTask(created.ID, models.TaskUpdate{Status: &bad}, ""); err == nil {
		t.Error("unconfigured status accepted")
	}
	if err := s.UpdateTask(created.ID, models.TaskUpdate{Dependencies: []string{created.ID}}, ""); err == nil {
		t.Error("self-dependency accepted")
	}
	badDue := "not-a-date"
	if err := s.UpdateTask(created.ID, models.TaskUpdate{DueDate: &badDue}, ""); err == nil {
		t.Error("invalid due date accepted")
	}
}

func TestUpdateCompletedTaskIsReadOnly(t *testing.T) {
	s := newTestStore(t)
	created := mustCreate(t, s, CreateTaskInput{Title: "Shipped"})

	// Simulate completion by moving the file.
	if err := os.MkdirAll(s.completedPath(), 0o750); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(s.completedPath(), filepath.Base(created.Path))
	if err := os.Rename(created.Path, dest); err != nil {
		t.Fatal(err)
	}

	status := "Done"
	err := s.UpdateTask(created.ID, models.TaskUpdate{Status: &status}, "")
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("err = %v, want ErrReadOnly", err)
	}
}

func TestToggleAndAddChecklistItems(t *testing.T) {
	s := newTestStore(t)
	created := mustCreate(t, s, CreateTaskInput{
		Title:              "Checks",
		AcceptanceCriteria: []string{"One", "Two"},
	})

	if err := s.ToggleChecklistItem(created.ID, models.ChecklistAcceptanceCriteria, 2); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	task, _ := s.GetTask(created.ID)
	if !task.AcceptanceCriteria[1].Checked || task.AcceptanceCriteria[0].Checked {
		t.Errorf("checklist state = %+v", task.AcceptanceCriteria)
	}

	err := s.ToggleChecklistItem(created.ID, models.ChecklistAcceptanceCriteria, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing item err = %v, want ErrNotFound", err)
	}

	id, err := s.AddChecklistItem(created.ID, models.ChecklistDefinitionOfDone, "Docs updated")
	if err != nil {
		t.Fatalf("AddChecklistItem: %v", err)
	}
	if id != 1 {
		t.Errorf("first dod item id = %d", id)
	}
	task, _ = s.GetTask(created.ID)
	if len(task.DefinitionOfDone) != 1 || task.DefinitionOfDone[0].Text != "Docs updated" {
		t.Errorf("definition of done = %+v", task.DefinitionOfDone)
	}
}

func TestArchiveSanitizesExactReferencesOnly(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, CreateTaskInput{Title: "Tasks 1-8 filler"})
	for i := 2; i <= 8; i++ {
		mustCreate(t, s, CreateTaskInput{Title: "Filler"})
	}
	doomed := mustCreate(t, s, CreateTaskInput{Title: "Doomed"})       // TASK-9
	lookalike := mustCreate(t, s, CreateTaskInput{Title: "Lookalike"}) // TASK-10
	holder := mustCreate(t, s, CreateTaskInput{                        // TASK-11
		Title:        "Holder",
		Dependencies: []string{doomed.ID, lookalike.ID},
		References:   []string{doomed.ID, "https://ci.example/TASK-9/logs", "TASK-90"},
	})

	if err := s.ArchiveTask(doomed.ID); err != nil {
		t.Fatalf("ArchiveTask: %v", err)
	}

	// The record moved.
	if _, found := findRecordFile(s.tasksPath(), doomed.ID); found {
		t.Error("archived task still in tasks/")
	}
	if _, found := findRecordFile(s.archivePath(), doomed.ID); !found {
		t.Error("archived task missing from archive/tasks/")
	}

	task, err := s.GetTask(holder.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.HasDependency(doomed.ID) {
		t.Error("exact dependency not removed")
	}
	if !task.HasDependency(lookalike.ID) {
		t.Error("unrelated dependency removed")
	}
	var hasURL, hasLookalikeRef, hasExact bool
	for _, ref := range task.References {
		switch {
		case ref == "https://ci.example/TASK-9/logs":
			hasURL = true
		case ref == "TASK-90":
			hasLookalikeRef = true
		case ref == doomed.ID:
			hasExact = true
		}
	}
	if hasExact {
		t.Error("exact reference not removed")
	}
	if !hasURL {
		t.Error("URL containing the id as substring was removed")
	}
	if !hasLookalikeRef {
		t.Error("TASK-90 removed when archiving TASK-9")
	}
}

func TestArchiveLeavesUnrelatedRecordsByteIdentical(t *testing.T) {
	s := newTestStore(t)
	doomed := mustCreate(t, s, CreateTaskInput{Title: "Doomed"})
	clean := mustCreate(t, s, CreateTaskInput{Title: "Clean"})

	before, err := os.ReadFile(clean.Path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ArchiveTask(doomed.ID); err != nil {
		t.Fatalf("ArchiveTask: %v", err)
	}
	after, err := os.ReadFile(clean.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("unrelated record rewritten:\nbefore: %q\nafter:  %q", before, after)
	}
}

func TestRestoreDoesNotReinstateReferences(t *testing.T) {
	s := newTestStore(t)
	doomed := mustCreate(t, s, CreateTaskInput{Title: "Doomed"})
	holder := mustCreate(t, s, CreateTaskInput{Title: "Holder", Dependencies: []string{doomed.ID}})

	if err := s.ArchiveTask(doomed.ID); err != nil {
		t.Fatalf("ArchiveTask: %v", err)
	}
	if err := s.RestoreTask(doomed.ID); err != nil {
		t.Fatalf("RestoreTask: %v", err)
	}

	restored, err := s.GetTask(doomed.ID)
	if err != nil {
		t.Fatalf("GetTask after restore: %v", err)
	}
	if restored.Source != models.SourceLocal {
		t.Errorf("restored source = %q", restored.Source)
	}
	task, _ := s.GetTask(holder.ID)
	if task.HasDependency(doomed.ID) {
		t.Error("removed dependency reappeared after restore")
	}
}

func TestPromoteDraft(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, CreateTaskInput{Title: "Active one"})
	draft := mustCreate(t, s, CreateTaskInput{Title: "Idea", Draft: true})

	if _, found := findRecordFile(s.draftsPath(), draft.ID); !found {
		t.Fatal("draft not in drafts/")
	}

	newID, err := s.PromoteDraft(draft.ID)
	if err != nil {
		t.Fatalf("PromoteDraft: %v", err)
	}
	if newID == draft.ID {
		t.Errorf("promotion kept old id %s", newID)
	}
	if _, found := findRecordFile(s.draftsPath(), draft.ID); found {
		t.Error("draft file still present after promotion")
	}

	task, err := s.GetTask(newID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.ID != newID || task.Title != "Idea" {
		t.Errorf("promoted task = %+v", task)
	}
}

func TestMalformedRecordDegradesOnReadFailsOnWrite(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(s.tasksPath(), 0o750); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(s.tasksPath(), "TASK-1 - Broken.md")
	content := "---\nid: TASK-1\nbroken header without close\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// Listing degrades instead of failing.
	tasks, err := s.ListTasks(ScopeActive)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "TASK-1" {
		t.Fatalf("degraded listing = %+v", tasks)
	}
	if tasks[0].Status != "To Do" {
		t.Errorf("degraded status should default, got %q", tasks[0].Status)
	}

	// Field mutation on the malformed record is refused.
	status := "Done"
	if err := s.UpdateTask("TASK-1", models.TaskUpdate{Status: &status}, ""); err == nil {
		t.Error("update of malformed record accepted")
	}
	// And the file is untouched.
	after, _ := os.ReadFile(path)
	if string(after) != content {
		t.Errorf("malformed record rewritten: %q", after)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTask("TASK-404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestZeroPaddedIDs(t *testing.T) {
	cfg := testConfig()
	cfg.ZeroPaddedIDs = 3
	s := NewFileStore(t.TempDir(), staticConfig{cfg: cfg}, zerolog.Nop(), nil)

	created := mustCreate(t, s, CreateTaskInput{Title: "Padded"})
	if created.ID != "TASK-001" {
		t.Fatalf("id = %s, want TASK-001", created.ID)
	}
	if _, err := s.GetTask("TASK-001"); err != nil {
		t.Fatalf("GetTask: %v", err)
	}
}
