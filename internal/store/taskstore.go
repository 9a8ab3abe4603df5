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

// ConfigProvider supplies the current workspace configuration. Defined here
// so the store does not depend on the config package.
type ConfigProvider interface {
	Load() (*models.Config, error)
}

// EventRecorder receives store lifecycle events. Implementations must be
// non-blocking best-effort; a nil recorder disables events.
type EventRecorder interface {
	Record(eventType, message string, data map[string]any)
}

// TaskStore is the mutation and listing surface the store exposes to its
// callers. Every mutating operation runs through the checked-write conflict
// gate; none of them retries on failure.
type TaskStore interface {
	ListTasks(scope Scope) ([]*models.Task, error)
	GetTask(id string) (*models.Task, error)
	StateToken(id string) (string, error)
	CreateTask(in CreateTaskInput) (*CreatedTask, error)
	UpdateTask(id string, update models.TaskUpdate, expectedToken string) error
	ToggleChecklistItem(id string, list models.ChecklistKind, itemID int) error
	AddChecklistItem(id string, list models.ChecklistKind, text string) (int, error)
	ArchiveTask(id string) error
	RestoreTask(id string) error
	DeleteTask(id string) error
	PromoteDraft(id string) (string, error)
}

// CreateTaskInput carries the fields for a new task. Zero values are
// omitted from the record apart from the always-emitted array fields.
type CreateTaskInput struct {
	Title              string
	Description        string
	Status             string
	Priority           models.Priority
	Milestone          string
	Labels             []string
	Assignee           []string
	Dependencies       []string
	References         []string
	Documentation      []string
	Parent             string
	AcceptanceCriteria []string
	DefinitionOfDone   []string
	Draft              bool
}

// CreatedTask identifies a freshly created record.
type CreatedTask struct {
	ID   string
	Path string
}

// FileStore implements TaskStore over a directory tree of markdown records
// (tasks/, drafts/, completed/, archive/tasks/).
type FileStore struct {
	root   string
	cfg    ConfigProvider
	log    zerolog.Logger
	events EventRecorder
	cache  recordCache
}

// NewFileStore creates a task store rooted at root. events may be nil.
func NewFileStore(root string, cfg ConfigProvider, log zerolog.Logger, events EventRecorder) *FileStore {
	return &FileStore{
		root:   root,
		cfg:    cfg,
		log:    log.With().Str("component", "store").Logger(),
		events: events,
	}
}

// Root returns the store's base directory.
func (s *FileStore) Root() string { return s.root }

// checklistSection maps a checklist kind to its body section name.
func checklistSection(kind models.ChecklistKind) (string, error) {
	switch kind {
	case models.ChecklistAcceptanceCriteria:
		return "Acceptance Criteria", nil
	case models.ChecklistDefinitionOfDone:
		return "Definition of Done", nil
	}
	return "", fmt.Errorf("unknown checklist %q", kind)
}

// ListTasks loads every task in the given scope. One unparseable record
// degrades to its minimal view instead of failing the listing.
func (s *FileStore) ListTasks(scope Scope) ([]*models.Task, error) {
	cfg, err := s.cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var tasks []*models.Task
	for _, dir := range s.scopeDirs(scope) {
		files, err := listRecordFiles(dir.path)
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
		for _, path := range files {
			task, err := s.loadTask(path, dir.source, cfg)
			if err != nil {
				s.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable record")
				continue
			}
			tasks = append(tasks, task)
		}
	}

	sort.Slice(tasks, func(i, j int) bool { return taskLess(tasks[i], tasks[j]) })
	return tasks, nil
}

// taskLess sorts numerically within a prefix so TASK-2 precedes TASK-10.
func taskLess(a, b *models.Task) bool {
	pa, na, sa, oka := ParseTaskID(a.ID)
	pb, nb, sb, okb := ParseTaskID(b.ID)
	if oka && okb {
		if pa != pb {
			return pa < pb
		}
		if na != nb {
			return na < nb
		}
		return sa < sb
	}
	return a.ID < b.ID
}

// GetTask returns the task with the given id, searching active tasks,
// drafts, completed, and archived folders in that order.
func (s *FileStore) GetTask(id string) (*models.Task, error) {
	cfg, err := s.cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	path, source, ok := s.locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	task, err := s.loadTask(path, source, cfg)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return task, nil
}

// StateToken returns the current conflict token for the task's file.
func (s *FileStore) StateToken(id string) (string, error) {
	path, _, ok := s.locate(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return ComputeStateToken(string(data)), nil
}

// locate finds the backing file for an id across all folders.
func (s *FileStore) locate(id string) (path string, source models.TaskSource, ok bool) {
	for _, dir := range s.scopeDirs(ScopeAll) {
		if p, found := findRecordFile(dir.path, id); found {
			return p, dir.source, true
		}
	}
	return "", "", false
}

// loadTask reads and parses one record file, consulting the mtime cache.
// Malformed headers degrade to the minimal record on this read path.
func (s *FileStore) loadTask(path string, source models.TaskSource, cfg *models.Config) (*models.Task, error) {
	mtime := statMtime(path)
	if task, ok := s.cache.get(path, mtime); ok && task.Source == source {
		return task, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	rec, perr := codec.Parse(string(data), codec.ParseOptions{})
	if perr != nil {
		s.log.Debug().Err(perr).Str("path", path).Msg("degrading malformed record")
	}

	task := rec.Task()
	if task.ID == "" {
		task.ID = idFromFileName(path)
	}
	if task.Title == "" {
		task.Title = rec.Title()
	}
	if task.Status == "" {
		task.Status = cfg.DefaultStatus()
	}
	task.Source = source
	task.FilePath = path
	task.LastModified = mtime

	s.cache.put(path, mtime, task)
	return task, nil
}

// CreateTask assigns the next sequential id, renders a canonical record,
// and writes it to tasks/ (or drafts/). Parent set in the input produces a
// dotted subtask id instead.
func (s *FileStore) CreateTask(in CreateTaskInput) (*CreatedTask, error) {
	cfg, err := s.cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("creating task: title must not be empty")
	}
	if !models.ValidPriority(in.Priority) {
		return nil, fmt.Errorf("creating task: invalid priority %q", in.Priority)
	}

	status := in.Status
	if status == "" {
		status = cfg.DefaultStatus()
	} else if cfg.StatusIndex(status) < 0 {
		return nil, fmt.Errorf("creating task: status %q is not configured", status)
	}

	var id string
	if in.Parent != "" {
		if _, _, ok := s.locate(in.Parent); !ok {
			return nil, fmt.Errorf("creating task: parent %w: %s", ErrNotFound, in.Parent)
		}
		id, err = s.nextSubtaskID(in.Parent)
	} else {
		id, err = s.nextTaskID(cfg.TaskPrefix, cfg.ZeroPaddedIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	for _, dep := range in.Dependencies {
		if dep == id {
			return nil, fmt.Errorf("creating task: task cannot depend on itself")
		}
	}

	task := &models.Task{
		ID:            id,
		Title:         in.Title,
		Status:        status,
		Priority:      in.Priority,
		Milestone:     in.Milestone,
		Labels:        in.Labels,
		Assignee:      in.Assignee,
		Dependencies:  in.Dependencies,
		References:    in.References,
		Documentation: in.Documentation,
		ParentTaskID:  in.Parent,
		Description:   in.Description,
		CreatedDate:   time.Now().UTC().Format(models.DateOnly),
	}
	for i, text := range in.AcceptanceCriteria {
		task.AcceptanceCriteria = append(task.AcceptanceCriteria, models.ChecklistItem{ID: i + 1, Text: text})
	}
	for i, text := range in.DefinitionOfDone {
		task.DefinitionOfDone = append(task.DefinitionOfDone, models.ChecklistItem{ID: i + 1, Text: text})
	}

	dir := s.tasksPath()
	if in.Draft {
		dir = s.draftsPath()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	path := filepath.Join(dir, recordFileName(id, in.Title))
	content := codec.NewTaskRecord(task).Render()
	if err := writeNewFile(path, content); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.record("task.created", "task created", map[string]any{"id": id, "path": path})
	s.log.Info().Str("id", id).Str("path", path).Msg("task created")
	return &CreatedTask{ID: id, Path: path}, nil
}

// writeNewFile writes content to a path that must not exist yet.
func writeNewFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UpdateTask applies a partial field update through the conflict gate.
// A malformed header is a hard error on this path. Read-only snapshots
// (completed, archived) reject updates.
func (s *FileStore) UpdateTask(id string, update models.TaskUpdate, expectedToken string) error {
	cfg, err := s.cfg.Load()
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	if update.Status != nil && cfg.StatusIndex(*update.Status) < 0 {
		return fmt.Errorf("updating task %s: status %q is not configured", id, *update.Status)
	}
	if update.Priority != nil && !models.ValidPriority(*update.Priority) {
		return fmt.Errorf("updating task %s: invalid priority %q", id, *update.Priority)
	}
	if update.Dependencies != nil {
		for _, dep := range update.Dependencies {
			if dep == id {
				return fmt.Errorf("updating task %s: task cannot depend on itself", id)
			}
		}
	}
	if update.DueDate != nil && *update.DueDate != "" {
		if _, ok := models.ParseRecordDate(*update.DueDate); !ok {
			return fmt.Errorf("updating task %s: due date %q is not a valid date", id, *update.DueDate)
		}
	}

	path, err := s.writablePath(id)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}

	_, err = CheckedWrite(path, expectedToken, func(current string) (string, error) {
		rec, perr := codec.Parse(current, codec.ParseOptions{})
		if perr != nil {
			return "", fmt.Errorf("parsing %s: %w", path, perr)
		}
		if rec.Header == nil {
			return "", fmt.Errorf("parsing %s: %w", path, codec.ErrMalformedHeader)
		}
		rec.ApplyUpdate(update)
		rec.Header.SetString(codec.FieldUpdatedDate, time.Now().UTC().Format(models.DateTime))
		return rec.Render(), nil
	})
	if err != nil {
		if _, ok := IsConflict(err); ok {
			s.record("write.conflict", "stale token rejected", map[string]any{"id": id})
		}
		return err
	}

	s.cache.invalidate(path)
	s.record("task.updated", "task updated", map[string]any{"id": id})
	return nil
}

// writablePath locates the file for id and rejects read-only locations.
func (s *FileStore) writablePath(id string) (string, error) {
	if path, found := findRecordFile(s.tasksPath(), id); found {
		return path, nil
	}
	if path, found := findRecordFile(s.draftsPath(), id); found {
		return path, nil
	}
	if _, _, found := s.locate(id); found {
		return "", ErrReadOnly
	}
	return "", ErrNotFound
}

// ToggleChecklistItem flips the checkbox of the matching item line(s). All
// lines sharing the id are toggled.
func (s *FileStore) ToggleChecklistItem(id string, list models.ChecklistKind, itemID int) error {
	section, err := checklistSection(list)
	if err != nil {
		return fmt.Errorf("toggling item on %s: %w", id, err)
	}
	path, err := s.writablePath(id)
	if err != nil {
		return fmt.Errorf("toggling item on %s: %w", id, err)
	}

	_, err = CheckedWrite(path, "", func(current string) (string, error) {
		rec, perr := codec.Parse(current, codec.ParseOptions{})
		if perr != nil {
			return "", fmt.Errorf("parsing %s: %w", path, perr)
		}
		if rec.ToggleChecklistItem(section, itemID) == 0 {
			return "", fmt.Errorf("%w: item #%d in %s of %s", ErrNotFound, itemID, section, id)
		}
		return rec.Render(), nil
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(path)
	s.record("task.updated", "checklist item toggled", map[string]any{"id": id, "item": itemID})
	return nil
}

// AddChecklistItem appends a new unchecked item and returns its stable id.
func (s *FileStore) AddChecklistItem(id string, list models.ChecklistKind, text string) (int, error) {
	section, err := checklistSection(list)
	if err != nil {
		return 0, fmt.Errorf("adding item to %s: %w", id, err)
	}
	path, err := s.writablePath(id)
	if err != nil {
		return 0, fmt.Errorf("adding item to %s: %w", id, err)
	}

	assigned := 0
	_, err = CheckedWrite(path, "", func(current string) (string, error) {
		rec, perr := codec.Parse(current, codec.ParseOptions{})
		if perr != nil {
			return "", fmt.Errorf("parsing %s: %w", path, perr)
		}
		assigned = rec.AddChecklistItem(section, text)
		return rec.Render(), nil
	})
	if err != nil {
		return 0, err
	}

	s.cache.invalidate(path)
	return assigned, nil
}

// ArchiveTask moves an active task to archive/tasks/ and then strips exact
// references to it from the remaining active records.
func (s *FileStore) ArchiveTask(id string) error {
	path, found := findRecordFile(s.tasksPath(), id)
	if !found {
		if _, _, ok := s.locate(id); ok {
			return fmt.Errorf("archiving task %s: only active tasks can be archived", id)
		}
		return fmt.Errorf("archiving task %s: %w", id, ErrNotFound)
	}

	if err := os.MkdirAll(s.archivePath(), 0o750); err != nil {
		return fmt.Errorf("archiving task %s: %w", id, err)
	}
	dest := filepath.Join(s.archivePath(), filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("archiving task %s: %w", id, err)
	}
	s.cache.invalidate(path)

	if err := s.sanitizeReferences(id); err != nil {
		return fmt.Errorf("archiving task %s: sanitizing references: %w", id, err)
	}

	s.record("task.archived", "task archived", map[string]any{"id": id})
	s.log.Info().Str("id", id).Msg("task archived")
	return nil
}

// RestoreTask moves an archived task back to the active folder. References
// removed at archive time are not restored.
func (s *FileStore) RestoreTask(id string) error {
	path, found := findRecordFile(s.archivePath(), id)
	if !found {
		return fmt.Errorf("restoring task %s: %w", id, ErrNotFound)
	}

	if err := os.MkdirAll(s.tasksPath(), 0o750); err != nil {
		return fmt.Errorf("restoring task %s: %w", id, err)
	}
	dest := filepath.Join(s.tasksPath(), filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("restoring task %s: %w", id, err)
	}
	s.cache.invalidate(path)

	s.record("task.restored", "task restored", map[string]any{"id": id})
	return nil
}

// DeleteTask permanently removes the record file from whichever folder
// holds it. There is no undo.
func (s *FileStore) DeleteTask(id string) error {
	path, _, ok := s.locate(id)
	if !ok {
		return fmt.Errorf("deleting task %s: %w", id, ErrNotFound)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	_ = os.Remove(path + ".lock")
	s.cache.invalidate(path)

	s.record("task.deleted", "task deleted", map[string]any{"id": id})
	s.log.Info().Str("id", id).Msg("task deleted")
	return nil
}

// PromoteDraft moves a draft into the active folder under a freshly
// assigned id and returns the new id. The draft's old id is abandoned.
func (s *FileStore) PromoteDraft(id string) (string, error) {
	cfg, err := s.cfg.Load()
	if err != nil {
		return "", fmt.Errorf("promoting draft %s: %w", id, err)
	}

	path, found := findRecordFile(s.draftsPath(), id)
	if !found {
		return "", fmt.Errorf("promoting draft %s: %w", id, ErrNotFound)
	}

	newID, err := s.nextTaskID(cfg.TaskPrefix, cfg.ZeroPaddedIDs)
	if err != nil {
		return "", fmt.Errorf("promoting draft %s: %w", id, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("promoting draft %s: %w", id, err)
	}
	rec, perr := codec.Parse(string(data), codec.ParseOptions{})
	if perr != nil {
		return "", fmt.Errorf("promoting draft %s: %w", id, perr)
	}
	if rec.Header == nil {
		return "", fmt.Errorf("promoting draft %s: %w", id, codec.ErrMalformedHeader)
	}
	rec.Header.SetString(codec.FieldID, newID)
	rec.Header.SetString(codec.FieldUpdatedDate, time.Now().UTC().Format(models.DateTime))

	title, _ := rec.Header.StringField(codec.FieldTitle)
	if err := os.MkdirAll(s.tasksPath(), 0o750); err != nil {
		return "", fmt.Errorf("promoting draft %s: %w", id, err)
	}
	dest := filepath.Join(s.tasksPath(), recordFileName(newID, title))
	if err := writeNewFile(dest, rec.Render()); err != nil {
		return "", fmt.Errorf("promoting draft %s: %w", id, err)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("promoting draft %s: removing draft file: %w", id, err)
	}
	s.cache.invalidate(path)

	s.record("draft.promoted", "draft promoted", map[string]any{"draft": id, "id": newID})
	return newID, nil
}

// record emits a store event when a recorder is configured.
func (s *FileStore) record(eventType, message string, data map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Record(eventType, message, data)
}
