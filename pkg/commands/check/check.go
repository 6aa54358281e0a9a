// Package check implements the check command: a read-only drift report
// used as a CI gate. Nothing on disk is modified.
package check

import (
	"github.com/arthur-debert/rulesync/pkg/filesystem"
	"github.com/arthur-debert/rulesync/pkg/logging"
	"github.com/arthur-debert/rulesync/pkg/manifest"
	"github.com/arthur-debert/rulesync/pkg/paths"
	"github.com/arthur-debert/rulesync/pkg/reporter"
	"github.com/arthur-debert/rulesync/pkg/resolver"
	"github.com/arthur-debert/rulesync/pkg/types"
)

// Options contains options for the check command.
type Options struct {
	// RepoRoot is the repository root; empty means discover it.
	RepoRoot string
}

// Check resolves the manifest and classifies every entry against the
// actual filesystem state. Like sync, it always runs against the real
// filesystem.
func Check(opts Options) (*types.DriftReport, error) {
	logger := logging.GetLogger("commands.check")

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

	report := reporter.New(filesystem.NewOS(), p.RepoRoot()).Report(entries)

	logger.Info().
		Int("items", len(report.Items)).
		Bool("clean", report.Clean()).
		Msg("Check finished")

	return report, nil
}
