// Package reporter classifies the actual filesystem state against the
// resolved entry list without mutating anything. It backs the check
// command, which CI uses as a gate: the caller decides which states are
// fatal, the reporter only observes.
package reporter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/rulesync/pkg/dualformat"
	"github.com/arthur-debert/rulesync/pkg/logging"
	"github.com/arthur-debert/rulesync/pkg/redirect"
	"github.com/arthur-debert/rulesync/pkg/types"
)

// Reporter performs read-only drift detection.
type Reporter struct {
	fs       types.FS
	repoRoot string
}

// New creates a Reporter rooted at repoRoot.
func New(filesystem types.FS, repoRoot string) *Reporter {
	return &Reporter{fs: filesystem, repoRoot: repoRoot}
}

// Report classifies every entry, then scans managed directories for paths
// no entry claims (Unexpected). Unexpected paths are only ever reported,
// never deleted: they may be IDE customizations a human has to judge.
func (r *Reporter) Report(entries []types.SyncEntry) *types.DriftReport {
	logger := logging.GetLogger("reporter")

	report := &types.DriftReport{}
	for i := range entries {
		entry := &entries[i]
		state, detail := r.classify(entry)
		report.Items = append(report.Items, types.DriftItem{
			Entry:  entry,
			Path:   entry.TargetPath(),
			State:  state,
			Detail: detail,
		})
	}

	report.Items = append(report.Items, r.scanUnexpected(entries)...)

	counts := report.Counts()
	logger.Debug().
		Int("entries", len(entries)).
		Int("inSync", counts[types.StateInSync]).
		Int("drifted", len(report.Items)-counts[types.StateInSync]).
		Msg("Drift report complete")

	return report
}

func (r *Reporter) classify(entry *types.SyncEntry) (types.EntryState, string) {
	switch entry.Role {
	case types.RoleLink:
		return r.classifyLink(entry)
	case types.RoleRedirect:
		return r.classifyRedirect(entry)
	case types.RoleCompanion:
		return r.classifyCompanion(entry)
	}
	return types.StateStale, fmt.Sprintf("unknown entry role %q", entry.Role)
}

func (r *Reporter) classifyLink(entry *types.SyncEntry) (types.EntryState, string) {
	targetAbs := filepath.Join(r.repoRoot, entry.TargetPath())
	sourceAbs := filepath.Join(r.repoRoot, entry.SourcePath)

	info, err := r.fs.Lstat(targetAbs)
	if os.IsNotExist(err) {
		return types.StateMissing, ""
	}
	if err != nil {
		return types.StateStale, fmt.Sprintf("cannot inspect: %v", err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return types.StatePathConflict, "occupied by a non-symlink"
	}

	current, err := r.fs.Readlink(targetAbs)
	if err != nil {
		return types.StateStale, fmt.Sprintf("cannot read link: %v", err)
	}
	want, err := filepath.Rel(filepath.Dir(targetAbs), sourceAbs)
	if err != nil || current != want {
		return types.StateStale, fmt.Sprintf("links to %s, expected %s", current, want)
	}
	return types.StateInSync, ""
}

func (r *Reporter) classifyRedirect(entry *types.SyncEntry) (types.EntryState, string) {
	targetAbs := filepath.Join(r.repoRoot, entry.TargetPath())

	content, err := r.fs.ReadFile(targetAbs)
	if os.IsNotExist(err) {
		return types.StateMissing, ""
	}
	if err != nil {
		return types.StateStale, fmt.Sprintf("cannot read: %v", err)
	}

	src, ver, ok := redirect.Source(content)
	if !ok {
		return types.StateMarkerMissing, "no recognizable redirect marker"
	}
	if !redirect.InSync(content, entry.SourcePath) {
		if src == entry.SourcePath && ver == fmt.Sprint(redirect.MarkerVersion) {
			return types.StateStale, "managed block was edited"
		}
		return types.StateStale, fmt.Sprintf("marker points at %s (v%s), expected %s (v%d)",
			src, ver, entry.SourcePath, redirect.MarkerVersion)
	}
	return types.StateInSync, ""
}

func (r *Reporter) classifyCompanion(entry *types.SyncEntry) (types.EntryState, string) {
	sourceAbs := filepath.Join(r.repoRoot, entry.SourcePath)
	targetAbs := filepath.Join(r.repoRoot, entry.TargetPath())

	canonical, err := r.fs.ReadFile(sourceAbs)
	if err != nil {
		return types.StateStale, fmt.Sprintf("cannot read canonical: %v", err)
	}
	want, err := dualformat.Generate(entry.SourcePath, canonical)
	if err != nil {
		return types.StateStale, fmt.Sprintf("cannot derive companion: %v", err)
	}

	existing, err := r.fs.ReadFile(targetAbs)
	if os.IsNotExist(err) {
		return types.StateMissing, ""
	}
	if err != nil {
		return types.StateStale, fmt.Sprintf("cannot read: %v", err)
	}
	if string(existing) != string(want) {
		return types.StateStale, "companion differs from regeneration"
	}
	return types.StateInSync, ""
}

// scanUnexpected walks the flat managed directories (command and skill
// locations) of every target and reports paths no entry claims. Managed
// directories that are themselves symlink entries are not descended into.
func (r *Reporter) scanUnexpected(entries []types.SyncEntry) []types.DriftItem {
	claimed := make(map[string]bool, len(entries))
	linkDirs := make(map[string]bool)
	for i := range entries {
		claimed[entries[i].TargetPath()] = true
		if entries[i].Role == types.RoleLink {
			linkDirs[entries[i].TargetPath()] = true
		}
	}

	seenDirs := make(map[string]bool)
	var items []types.DriftItem

	for i := range entries {
		for _, dir := range entries[i].Target.ManagedDirs() {
			if seenDirs[dir] || linkDirs[dir] {
				continue
			}
			seenDirs[dir] = true

			dirAbs := filepath.Join(r.repoRoot, dir)
			dirEntries, err := r.fs.ReadDir(dirAbs)
			if err != nil {
				// Nothing synced here yet; Missing entries already cover it.
				continue
			}
			for _, de := range dirEntries {
				rel := filepath.Join(dir, de.Name())
				if claimed[rel] {
					continue
				}
				detail := "not in the resolved manifest"
				if strings.HasSuffix(de.Name(), ".rulesync-tmp") {
					detail = "leftover scratch file from an interrupted run"
				}
				items = append(items, types.DriftItem{
					Path:   rel,
					State:  types.StateUnexpected,
					Detail: detail,
				})
			}
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items
}
