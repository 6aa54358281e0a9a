// Package applier makes the on-disk state match a resolved entry list,
// one entry at a time, idempotently. A failed entry never blocks the
// others: failures are collected on the result and surfaced together.
//
// All mutations are confined to target directories and are atomic
// (write-to-temp-then-rename, symlink-then-rename) so an interrupted run
// never leaves a half-written target. Re-running is the recovery path.
package applier

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/rulesync/pkg/dualformat"
	"github.com/arthur-debert/rulesync/pkg/errors"
	"github.com/arthur-debert/rulesync/pkg/logging"
	"github.com/arthur-debert/rulesync/pkg/redirect"
	"github.com/arthur-debert/rulesync/pkg/types"
)

// tmpSuffix names the scratch entry used for atomic replacement. It lives
// next to the final path so the rename stays on one filesystem.
const tmpSuffix = ".rulesync-tmp"

// Applier applies sync entries against a filesystem.
type Applier struct {
	fs       types.FS
	repoRoot string
	dryRun   bool
}

// New creates an Applier. With dryRun set it computes the action every
// entry needs without touching the filesystem.
func New(filesystem types.FS, repoRoot string, dryRun bool) *Applier {
	return &Applier{fs: filesystem, repoRoot: repoRoot, dryRun: dryRun}
}

// Apply processes every entry and returns the aggregated result. Per-entry
// errors land on the corresponding EntryResult; Apply itself only reports
// the outcome, it never aborts early.
func (a *Applier) Apply(entries []types.SyncEntry) *types.SyncResult {
	logger := logging.GetLogger("applier")

	result := &types.SyncResult{DryRun: a.dryRun}
	for _, entry := range entries {
		action, err := a.applyEntry(&entry)
		if err != nil {
			action = types.ActionSkipped
			logger.Warn().
				Err(err).
				Str("target", entry.TargetPath()).
				Msg("Entry failed")
		} else if action != types.ActionUnchanged {
			logger.Info().
				Str("target", entry.TargetPath()).
				Str("action", string(action)).
				Msg("Entry applied")
		}
		result.Results = append(result.Results, types.EntryResult{
			Entry:  entry,
			Action: action,
			Err:    err,
		})
	}
	return result
}

func (a *Applier) applyEntry(entry *types.SyncEntry) (types.ApplyAction, error) {
	switch entry.Role {
	case types.RoleLink:
		return a.applyLink(entry)
	case types.RoleRedirect:
		return a.applyRedirect(entry)
	case types.RoleCompanion:
		return a.applyCompanion(entry)
	}
	return types.ActionSkipped, errors.Newf(errors.ErrInternal, "unknown entry role %q", entry.Role)
}

// applyLink ensures a relative symlink at the entry's target path. A wrong
// link destination is replaced; a non-symlink occupant is a conflict left
// for a human.
func (a *Applier) applyLink(entry *types.SyncEntry) (types.ApplyAction, error) {
	targetAbs := filepath.Join(a.repoRoot, entry.TargetPath())
	sourceAbs := filepath.Join(a.repoRoot, entry.SourcePath)

	dest, err := filepath.Rel(filepath.Dir(targetAbs), sourceAbs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInternal, "cannot relativize %s", sourceAbs)
	}

	info, lerr := a.fs.Lstat(targetAbs)
	switch {
	case lerr == nil && info.Mode()&fs.ModeSymlink == 0:
		return "", errors.Newf(errors.ErrPathConflict,
			"%s exists and is not a symlink", entry.TargetPath())

	case lerr == nil:
		current, rerr := a.fs.Readlink(targetAbs)
		if rerr == nil && current == dest {
			return types.ActionUnchanged, nil
		}
		if a.dryRun {
			return types.ActionUpdated, nil
		}
		if err := a.symlinkAtomic(dest, targetAbs); err != nil {
			return "", err
		}
		return types.ActionUpdated, nil

	case os.IsNotExist(lerr):
		if a.dryRun {
			return types.ActionCreated, nil
		}
		if err := a.fs.MkdirAll(filepath.Dir(targetAbs), 0755); err != nil {
			return "", errors.Wrapf(err, errors.ErrDirCreate, "cannot create parent of %s", entry.TargetPath())
		}
		if err := a.symlinkAtomic(dest, targetAbs); err != nil {
			return "", err
		}
		return types.ActionCreated, nil

	default:
		return "", errors.Wrapf(lerr, errors.ErrFileAccess, "cannot inspect %s", entry.TargetPath())
	}
}

// applyRedirect ensures the managed marker block in a real target file.
// Content outside the block is user-owned and preserved. A file without a
// well-formed block is ambiguous and never overwritten.
func (a *Applier) applyRedirect(entry *types.SyncEntry) (types.ApplyAction, error) {
	targetAbs := filepath.Join(a.repoRoot, entry.TargetPath())

	content, rerr := a.fs.ReadFile(targetAbs)
	switch {
	case os.IsNotExist(rerr):
		if a.dryRun {
			return types.ActionCreated, nil
		}
		if err := a.fs.MkdirAll(filepath.Dir(targetAbs), 0755); err != nil {
			return "", errors.Wrapf(err, errors.ErrDirCreate, "cannot create parent of %s", entry.TargetPath())
		}
		if err := a.writeFileAtomic(targetAbs, redirect.NewFile(entry.SourcePath)); err != nil {
			return "", err
		}
		return types.ActionCreated, nil

	case rerr != nil:
		return "", errors.Wrapf(rerr, errors.ErrFileAccess, "cannot read %s", entry.TargetPath())
	}

	if redirect.InSync(content, entry.SourcePath) {
		return types.ActionUnchanged, nil
	}

	updated, changed, ok := redirect.Ensure(content, entry.SourcePath)
	if !ok {
		return "", errors.Newf(errors.ErrRedirectMarkerMissing,
			"%s has no recognizable redirect marker", entry.TargetPath())
	}
	if !changed {
		return types.ActionUnchanged, nil
	}
	if a.dryRun {
		return types.ActionUpdated, nil
	}
	if err := a.writeFileAtomic(targetAbs, updated); err != nil {
		return "", err
	}
	return types.ActionUpdated, nil
}

// applyCompanion regenerates the derived dual-format file. The companion
// is never patched: it is rewritten whenever its bytes differ from a fresh
// generation off the canonical content.
func (a *Applier) applyCompanion(entry *types.SyncEntry) (types.ApplyAction, error) {
	sourceAbs := filepath.Join(a.repoRoot, entry.SourcePath)
	targetAbs := filepath.Join(a.repoRoot, entry.TargetPath())

	canonical, err := a.fs.ReadFile(sourceAbs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read canonical %s", entry.SourcePath)
	}

	want, err := dualformat.Generate(entry.SourcePath, canonical)
	if err != nil {
		return "", err
	}

	existing, rerr := a.fs.ReadFile(targetAbs)
	switch {
	case rerr == nil && string(existing) == string(want):
		return types.ActionUnchanged, nil
	case rerr != nil && !os.IsNotExist(rerr):
		return "", errors.Wrapf(rerr, errors.ErrFileAccess, "cannot read %s", entry.TargetPath())
	}

	action := types.ActionUpdated
	if os.IsNotExist(rerr) {
		action = types.ActionCreated
	}
	if a.dryRun {
		return action, nil
	}

	if err := a.fs.MkdirAll(filepath.Dir(targetAbs), 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "cannot create parent of %s", entry.TargetPath())
	}
	if err := a.writeFileAtomic(targetAbs, want); err != nil {
		return "", err
	}
	return action, nil
}

// symlinkAtomic creates the link under a scratch name and renames it into
// place, replacing any previous link in one step.
func (a *Applier) symlinkAtomic(dest, path string) error {
	tmp := path + tmpSuffix
	// A leftover scratch entry from a crashed run is safe to discard.
	_ = a.fs.Remove(tmp)
	if err := a.fs.Symlink(dest, tmp); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot create symlink at %s", path)
	}
	if err := a.fs.Rename(tmp, path); err != nil {
		_ = a.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot move symlink into place at %s", path)
	}
	return nil
}

func (a *Applier) writeFileAtomic(path string, data []byte) error {
	tmp := path + tmpSuffix
	if err := a.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	if err := a.fs.Rename(tmp, path); err != nil {
		_ = a.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot move %s into place", path)
	}
	return nil
}
