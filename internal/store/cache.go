package store

import (
	"os"
	"sync"
	"time"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

// recordCache memoises parsed tasks keyed by file path. Entries are valid
// only while the file's mtime is unchanged, so an external edit invalidates
// them on the next read. Safe for concurrent readers and writers.
type recordCache struct {
	entries sync.Map // path -> cacheEntry
}

type cacheEntry struct {
	mtime time.Time
	task  *models.Task
}

// get returns the cached task for path when the stored mtime still matches.
func (c *recordCache) get(path string, mtime time.Time) (*models.Task, bool) {
	v, ok := c.entries.Load(path)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if !entry.mtime.Equal(mtime) {
		c.entries.Delete(path)
		return nil, false
	}
	return entry.task, true
}

func (c *recordCache) put(path string, mtime time.Time, task *models.Task) {
	c.entries.Store(path, cacheEntry{mtime: mtime, task: task})
}

// invalidate drops the entry for path. Called after every write.
func (c *recordCache) invalidate(path string) {
	c.entries.Delete(path)
}

// statMtime returns the file's modification time, zero when unavailable.
func statMtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
