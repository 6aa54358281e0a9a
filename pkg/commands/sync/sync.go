// Package sync implements the sync command: resolve the manifest and make
// the target tree match it.
package sync

import (
	"github.com/arthur-debert/rulesync/pkg/applier"
	"github.com/arthur-debert/rulesync/pkg/filesystem"
	"github.com/arthur-debert/rulesync/pkg/logging"
	"github.com/arthur-debert/rulesync/pkg/manifest"
	"github.com/arthur-debert/rulesync/pkg/paths"
	"github.com/arthur-debert/rulesync/pkg/resolver"
	"github.com/arthur-debert/rulesync/pkg/types"
)

// Options contains options for the sync command.
type Options struct {
	// RepoRoot is the repository root; empty means discover it.
	RepoRoot string

	// DryRun computes actions without touching the filesystem.
	DryRun bool
}

// Sync resolves the manifest and applies every entry. Manifest-level
// problems (load, validation, conflicts) fail fast before any write;
// per-entry failures land on the result. The command always runs against
// the real filesystem: manifest discovery and glob expansion do too, so a
// substitute FS would only be honored halfway.
func Sync(opts Options) (*types.SyncResult, error) {
	logger := logging.GetLogger("commands.sync")

	p, err := paths.New(opts.RepoRoot)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(p.ManifestPath())
	if err != nil {
		return nil, err
	}

	entries, err := resolver.New(p.RepoRoot(), m).Resolve(m)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("entries", len(entries)).
		Bool("dryRun", opts.DryRun).
		Msg("Applying sync entries")

	result := applier.New(filesystem.NewOS(), p.RepoRoot(), opts.DryRun).Apply(entries)

	logger.Info().
		Int("failed", len(result.Failures())).
		Bool("changed", result.Changed()).
		Msg("Sync finished")

	return result, nil
}
