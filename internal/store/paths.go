package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

// Scope selects which logical folder a listing draws from.
type Scope string

const (
	ScopeActive    Scope = "tasks"
	ScopeDrafts    Scope = "drafts"
	ScopeCompleted Scope = "completed"
	ScopeArchived  Scope = "archived"
	ScopeAll       Scope = "all"
)

// TasksDir is the store-relative folder holding active task records. It
// is exported so branch tree scans can target the same folder.
const TasksDir = "tasks"

// Logical folders under the store root.
const (
	tasksDir     = TasksDir
	draftsDir    = "drafts"
	completedDir = "completed"
	archiveDir   = "archive"
	docsDir      = "docs"
	decisionsDir = "decisions"
)

func (s *FileStore) tasksPath() string     { return filepath.Join(s.root, tasksDir) }
func (s *FileStore) draftsPath() string    { return filepath.Join(s.root, draftsDir) }
func (s *FileStore) completedPath() string { return filepath.Join(s.root, completedDir) }
func (s *FileStore) archivePath() string   { return filepath.Join(s.root, archiveDir, tasksDir) }

// taskIDPattern splits an id into prefix, number, and optional dotted
// subtask suffix, e.g. TASK-5.2 -> (TASK, 5, .2).
var taskIDPattern = regexp.MustCompile(`^([A-Za-z0-9]+)-(\d+)((?:\.\d+)*)$`)

// ParseTaskID splits id into its prefix, top-level number, and dotted
// suffix. ok is false when id does not follow the {PREFIX}-{n}[.{m}] form.
func ParseTaskID(id string) (prefix string, number int, suffix string, ok bool) {
	m := taskIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", 0, "", false
	}
	n, _ := strconv.Atoi(m[2])
	return m[1], n, m[3], true
}

// recordFileName builds the on-disk name for a record: "{id} - {title}.md"
// with filesystem-hostile characters stripped from the title.
func recordFileName(id, title string) string {
	cleaned := sanitizeTitle(title)
	if cleaned == "" {
		return id + ".md"
	}
	return id + " - " + cleaned + ".md"
}

var unsafeTitleChars = regexp.MustCompile(`[\\/:*?"<>|]`)

func sanitizeTitle(title string) string {
	cleaned := unsafeTitleChars.ReplaceAllString(title, "")
	return strings.TrimSpace(cleaned)
}

// findRecordFile locates the file backing an id inside dir, accepting both
// "{id} - {title}.md" and bare "{id}.md" names. The " - " separator keeps
// TASK-1 from matching TASK-10.
func findRecordFile(dir, id string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == id+".md" {
			return filepath.Join(dir, name), true
		}
		if ok, _ := doublestar.Match(id+" - *.md", name); ok {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// listRecordFiles returns all markdown record files in dir, sorted by name.
func listRecordFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := doublestar.Match("*.md", entry.Name()); ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// idFromFileName recovers the record id from a file name, which is either
// "{id} - {title}.md" or "{id}.md".
func idFromFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), ".md")
	if i := strings.Index(base, " - "); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}

// scopeDirs maps a listing scope to the folders it covers.
func (s *FileStore) scopeDirs(scope Scope) []scopedDir {
	active := scopedDir{s.tasksPath(), models.SourceLocal}
	drafts := scopedDir{s.draftsPath(), models.SourceLocal}
	completed := scopedDir{s.completedPath(), models.SourceCompleted}
	archived := scopedDir{s.archivePath(), models.SourceCompleted}

	switch scope {
	case ScopeDrafts:
		return []scopedDir{drafts}
	case ScopeCompleted:
		return []scopedDir{completed}
	case ScopeArchived:
		return []scopedDir{archived}
	case ScopeAll:
		return []scopedDir{active, drafts, completed, archived}
	default:
		return []scopedDir{active}
	}
}

type scopedDir struct {
	path   string
	source models.TaskSource
}
