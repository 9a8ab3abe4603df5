package reconcile

import (
	"sort"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

// Resolve picks the authoritative snapshot for one task id. Input order
// does not influence the result: candidates are sorted by branch name
// before arbitration, so ties break the same way on every run.
func Resolve(snapshots []*models.Task, strategy models.ResolutionStrategy, cfg *models.Config) *models.Task {
	if len(snapshots) == 0 {
		return nil
	}
	ordered := make([]*models.Task, len(snapshots))
	copy(ordered, snapshots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Branch < ordered[j].Branch })

	switch strategy {
	case models.ResolveMostProgressed:
		return mostProgressed(ordered, cfg)
	default:
		return mostRecent(ordered)
	}
}

// mostRecent returns the snapshot with the latest modification timestamp.
// On an exact timestamp tie the earliest branch name wins.
func mostRecent(ordered []*models.Task) *models.Task {
	winner := ordered[0]
	for _, snap := range ordered[1:] {
		if snap.LastModified.After(winner.LastModified) {
			winner = snap
		}
	}
	return winner
}

// mostProgressed returns the snapshot whose status sits furthest along
// the configured status list. Unknown statuses rank below every known
// one. Among equally progressed snapshots the most recent wins, then the
// earliest branch name.
func mostProgressed(ordered []*models.Task, cfg *models.Config) *models.Task {
	winner := ordered[0]
	winnerIdx := cfg.StatusIndex(winner.Status)
	for _, snap := range ordered[1:] {
		idx := cfg.StatusIndex(snap.Status)
		switch {
		case idx > winnerIdx:
			winner, winnerIdx = snap, idx
		case idx == winnerIdx && snap.LastModified.After(winner.LastModified):
			winner = snap
		}
	}
	return winner
}
