package types

// ApplyAction says what the applier did to one target path.
type ApplyAction string

const (
	ActionCreated   ApplyAction = "created"
	ActionUpdated   ApplyAction = "updated"
	ActionUnchanged ApplyAction = "unchanged"
	ActionSkipped   ApplyAction = "skipped"
)

// EntryResult is the outcome of applying one sync entry.
type EntryResult struct {
	Entry  SyncEntry
	Action ApplyAction

	// Err is the per-entry failure, if any. Err set implies ActionSkipped.
	Err error
}

// Failed reports whether the entry could not be brought in sync.
func (r *EntryResult) Failed() bool {
	return r.Err != nil
}

// SyncResult aggregates all per-entry outcomes of one applier run.
type SyncResult struct {
	DryRun  bool
	Results []EntryResult
}

// Failures returns the results that carry an error.
func (r *SyncResult) Failures() []EntryResult {
	var failed []EntryResult
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Changed reports whether any filesystem mutation happened (or would have,
// under dry-run).
func (r *SyncResult) Changed() bool {
	for _, res := range r.Results {
		if res.Action == ActionCreated || res.Action == ActionUpdated {
			return true
		}
	}
	return false
}
