package watcher

import (
	"sort"

	"github.com/ritzau/dataflows/pkg/store"
)

// ChangeAnalysis lists the scenes touched by a batch of file changes
type ChangeAnalysis struct {
	Changed      []int
	Removed      []int
	ChangedFiles []string
}

// Empty returns true if no scene file was involved
func (a *ChangeAnalysis) Empty() bool {
	return len(a.Changed) == 0 && len(a.Removed) == 0
}

// AnalyzeChanges maps changed paths to scene ids. Paths that are not named
// after a scene id are ignored.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	seen := make(map[int]bool)
	for _, p := range event.Paths {
		id, ok := store.IDFromPath(p)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		switch event.Type {
		case ChangeTypeWritten:
			analysis.Changed = append(analysis.Changed, id)
		case ChangeTypeRemoved:
			analysis.Removed = append(analysis.Removed, id)
		}
	}

	sort.Ints(analysis.Changed)
	sort.Ints(analysis.Removed)
	return analysis
}
