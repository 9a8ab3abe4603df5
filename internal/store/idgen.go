package store

import (
	"fmt"
	"strconv"
	"strings"
)

// nextTaskID assigns the next sequential id by scanning every folder for
// the highest existing number under the configured prefix. Gaps in the
// sequence are tolerated and never reused backwards.
func (s *FileStore) nextTaskID(prefix string, padWidth int) (string, error) {
	highest := 0
	for _, dir := range []string{s.tasksPath(), s.draftsPath(), s.completedPath(), s.archivePath()} {
		files, err := listRecordFiles(dir)
		if err != nil {
			return "", err
		}
		for _, f := range files {
			p, n, suffix, ok := ParseTaskID(idFromFileName(f))
			if !ok || suffix != "" || !strings.EqualFold(p, prefix) {
				continue
			}
			if n > highest {
				highest = n
			}
		}
	}

	n := highest + 1
	if padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", prefix, padWidth, n), nil
	}
	return fmt.Sprintf("%s-%d", prefix, n), nil
}

// nextSubtaskID assigns the next dotted child id under a parent, scanning
// the same folders for existing children of that parent.
func (s *FileStore) nextSubtaskID(parentID string) (string, error) {
	highest := 0
	childPrefix := parentID + "."
	for _, dir := range []string{s.tasksPath(), s.draftsPath(), s.completedPath(), s.archivePath()} {
		files, err := listRecordFiles(dir)
		if err != nil {
			return "", err
		}
		for _, f := range files {
			id := idFromFileName(f)
			if !strings.HasPrefix(id, childPrefix) {
				continue
			}
			rest := strings.TrimPrefix(id, childPrefix)
			if strings.Contains(rest, ".") {
				continue
			}
			if n, err := strconv.Atoi(rest); err == nil && n > highest {
				highest = n
			}
		}
	}
	return childPrefix + strconv.Itoa(highest+1), nil
}
