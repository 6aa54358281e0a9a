package types

// EntryState classifies one managed target path against its expectation.
type EntryState string

const (
	// StateInSync means the target path matches the manifest expectation.
	StateInSync EntryState = "in-sync"

	// StateMissing means nothing exists at the target path yet.
	StateMissing EntryState = "missing"

	// StateStale means something managed exists but points elsewhere or
	// carries outdated derived content.
	StateStale EntryState = "stale"

	// StatePathConflict means a non-symlink occupies a symlink-managed
	// path. Terminal until a human resolves it.
	StatePathConflict EntryState = "path-conflict"

	// StateMarkerMissing means a redirect target exists but carries no
	// recognizable marker. Terminal until a human resolves it.
	StateMarkerMissing EntryState = "marker-missing"

	// StateUnexpected marks a file found under a managed directory that no
	// sync entry claims. Never deleted automatically.
	StateUnexpected EntryState = "unexpected"
)

// Blocking reports whether the state requires human intervention before
// sync can make progress on the path.
func (s EntryState) Blocking() bool {
	return s == StatePathConflict || s == StateMarkerMissing
}

// DriftItem is one classified target path from a reporter pass.
type DriftItem struct {
	// Entry is the expectation; nil for StateUnexpected items, which have
	// no manifest counterpart.
	Entry *SyncEntry

	// Path is the classified path relative to the repository root.
	Path string

	// State is the classification.
	State EntryState

	// Detail explains Stale/conflict classifications (e.g. the actual link
	// destination found).
	Detail string
}

// DriftReport is the full read-only classification of a resolve pass.
type DriftReport struct {
	Items []DriftItem
}

// Clean reports whether every item is InSync.
func (r *DriftReport) Clean() bool {
	for _, it := range r.Items {
		if it.State != StateInSync {
			return false
		}
	}
	return true
}

// Counts tallies items per state.
func (r *DriftReport) Counts() map[EntryState]int {
	counts := make(map[EntryState]int)
	for _, it := range r.Items {
		counts[it.State]++
	}
	return counts
}
