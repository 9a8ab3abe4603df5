package store

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/taskforge/internal/codec"
)

// sanitizeReferences removes exact references to an archived task id from
// every record still in the active folder. Dependencies drop exact-match
// entries; references drop exact case-insensitive matches. A reference that
// merely contains the id as a substring (a URL path segment, prose) is
// always preserved. Drafts, completed, and archived records are not
// scanned.
func (s *FileStore) sanitizeReferences(archivedID string) error {
	files, err := listRecordFiles(s.tasksPath())
	if err != nil {
		return err
	}

	for _, path := range files {
		changed, err := s.sanitizeRecord(path, archivedID)
		if err != nil {
			return fmt.Errorf("sanitizing %s: %w", path, err)
		}
		if changed {
			s.cache.invalidate(path)
			s.log.Debug().Str("path", path).Str("removed", archivedID).Msg("stale reference removed")
		}
	}
	return nil
}

// sanitizeRecord strips archivedID from one record through the same
// checked-write path as any other mutation. Records that do not mention the
// id are left untouched, byte for byte.
func (s *FileStore) sanitizeRecord(path, archivedID string) (bool, error) {
	changed := false
	_, err := CheckedWrite(path, "", func(current string) (string, error) {
		rec, perr := codec.Parse(current, codec.ParseOptions{})
		if perr != nil || rec.Header == nil {
			// Malformed active records cannot reference anything we can
			// safely edit; leave them alone.
			return current, nil
		}

		if deps, ok := rec.Header.ListField(codec.FieldDependencies); ok {
			kept := deps[:0]
			for _, dep := range deps {
				if dep == archivedID {
					changed = true
					continue
				}
				kept = append(kept, dep)
			}
			if changed {
				rec.Header.SetList(codec.FieldDependencies, kept)
			}
		}

		if refs, ok := rec.Header.ListField(codec.FieldReferences); ok {
			removed := false
			kept := refs[:0]
			for _, ref := range refs {
				if strings.EqualFold(ref, archivedID) {
					removed = true
					continue
				}
				kept = append(kept, ref)
			}
			if removed {
				rec.Header.SetList(codec.FieldReferences, kept)
				changed = true
			}
		}

		if !changed {
			return current, nil
		}
		return rec.Render(), nil
	})
	return changed, err
}
