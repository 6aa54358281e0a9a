package types

import "path/filepath"

// EntryRole distinguishes the concrete artifact a SyncEntry manages. A
// dual-format source resolves into two entries sharing the same canonical
// source, one per role.
type EntryRole string

const (
	// RoleRedirect is a real file carrying a managed redirect marker.
	RoleRedirect EntryRole = "redirect"

	// RoleLink is a symbolic link (file or directory level).
	RoleLink EntryRole = "link"

	// RoleCompanion is a generated file derived from canonical content.
	RoleCompanion EntryRole = "companion"
)

// SyncEntry is the resolved pairing of one canonical source and one target
// location: the unit the applier and reporter operate on.
type SyncEntry struct {
	// Source identifies the canonical content, with Source.Path already
	// expanded (no globs) and relative to the canonical root.
	Source CanonicalSource

	// SourcePath is the source location relative to the repository root
	// (canonical root joined with Source.Path).
	SourcePath string

	// Target names the consuming IDE directory.
	Target Target

	// RelPath is the managed path inside the target root.
	RelPath string

	// Policy is the sync policy that produced this entry.
	Policy PolicyKind

	// Role is the concrete artifact kind at RelPath.
	Role EntryRole
}

// TargetPath returns the managed path relative to the repository root.
func (e *SyncEntry) TargetPath() string {
	return filepath.Join(e.Target.Root, e.RelPath)
}

// Key identifies the entry's target path for dedup and conflict checks.
func (e *SyncEntry) Key() string {
	return e.TargetPath()
}
