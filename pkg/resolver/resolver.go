// Package resolver turns a validated manifest into the concrete list of
// sync entries that should exist on disk. It expands glob sources, fans a
// dual-format policy out into its two artifacts and rejects manifests in
// which two sources claim the same target path.
package resolver

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arthur-debert/rulesync/pkg/errors"
	"github.com/arthur-debert/rulesync/pkg/logging"
	"github.com/arthur-debert/rulesync/pkg/manifest"
	"github.com/arthur-debert/rulesync/pkg/types"
)

// CompanionExt is the extension of the generated dual-format companion.
const CompanionExt = ".toml"

// Resolver computes sync entries from a manifest.
type Resolver struct {
	repoRoot string

	// canonicalFS is rooted at the canonical directory; swappable in tests.
	canonicalFS fs.FS
}

// New creates a resolver for a manifest rooted at repoRoot.
func New(repoRoot string, m *manifest.Manifest) *Resolver {
	return &Resolver{
		repoRoot:    repoRoot,
		canonicalFS: os.DirFS(filepath.Join(repoRoot, m.CanonicalRoot)),
	}
}

// Resolve produces the deduplicated entry list, sorted by target path.
// Manifest conflicts are fatal: no entry list is returned.
func (r *Resolver) Resolve(m *manifest.Manifest) ([]types.SyncEntry, error) {
	logger := logging.GetLogger("resolver")

	var entries []types.SyncEntry
	for _, src := range m.Sources {
		expanded, err := r.expandSource(src)
		if err != nil {
			return nil, err
		}
		for _, concrete := range expanded {
			for _, target := range m.Targets {
				policy, ok := target.Policies[concrete.Kind]
				if !ok {
					// Target does not consume this kind.
					continue
				}
				entries = append(entries, makeEntries(m.CanonicalRoot, concrete, target, policy)...)
			}
		}
	}

	deduped, err := dedupe(entries)
	if err != nil {
		return nil, err
	}

	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].TargetPath() < deduped[j].TargetPath()
	})

	logger.Debug().Int("entries", len(deduped)).Msg("Manifest resolved")
	return deduped, nil
}

// expandSource resolves a source's path into concrete canonical files. Only
// command prompts may use globs; rule text and skill bundles name one path.
func (r *Resolver) expandSource(src types.CanonicalSource) ([]types.CanonicalSource, error) {
	logger := logging.GetLogger("resolver")

	if src.Kind == types.KindCommandPrompt && isGlob(src.Path) {
		matches, err := doublestar.Glob(r.canonicalFS, src.Path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "bad glob in source %q", src.Name)
		}
		if len(matches) == 0 {
			logger.Warn().Str("source", src.Name).Str("glob", src.Path).Msg("Glob matched no canonical files")
			return nil, nil
		}
		sort.Strings(matches)

		concrete := make([]types.CanonicalSource, 0, len(matches))
		for _, match := range matches {
			concrete = append(concrete, types.CanonicalSource{
				Name: src.Name + "/" + trimExt(path.Base(match)),
				Path: match,
				Kind: src.Kind,
			})
		}
		return concrete, nil
	}

	if _, err := fs.Stat(r.canonicalFS, src.Path); err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceNotFound, "canonical source %q (%s)", src.Name, src.Path)
	}
	return []types.CanonicalSource{src}, nil
}

// makeEntries builds the entries one concrete source produces for one
// target under the given policy. Dual format yields two entries sharing
// the same source.
func makeEntries(canonicalRoot string, src types.CanonicalSource, target types.Target, policy types.PolicyKind) []types.SyncEntry {
	sourcePath := path.Join(canonicalRoot, src.Path)
	base := func(role types.EntryRole, relPath string) types.SyncEntry {
		return types.SyncEntry{
			Source:     src,
			SourcePath: sourcePath,
			Target:     target,
			RelPath:    relPath,
			Policy:     policy,
			Role:       role,
		}
	}

	layout := target.LayoutFor(src.Kind)

	switch policy {
	case types.PolicyRealFileRedirect:
		rel := layout
		if src.Kind == types.KindCommandPrompt {
			rel = path.Join(layout, path.Base(src.Path))
		}
		return []types.SyncEntry{base(types.RoleRedirect, rel)}

	case types.PolicyFileSymlink:
		rel := layout
		if src.Kind == types.KindCommandPrompt {
			rel = path.Join(layout, path.Base(src.Path))
		}
		return []types.SyncEntry{base(types.RoleLink, rel)}

	case types.PolicyDirectorySymlink:
		return []types.SyncEntry{base(types.RoleLink, layout)}

	case types.PolicyDualFormat:
		md := path.Join(layout, path.Base(src.Path))
		companion := trimExt(md) + CompanionExt
		return []types.SyncEntry{
			base(types.RoleLink, md),
			base(types.RoleCompanion, companion),
		}
	}

	return nil
}

// dedupe removes exact duplicates and fails on two entries that claim one
// target path with different canonical content.
func dedupe(entries []types.SyncEntry) ([]types.SyncEntry, error) {
	byKey := make(map[string]types.SyncEntry, len(entries))
	var out []types.SyncEntry

	for _, e := range entries {
		prev, seen := byKey[e.Key()]
		if !seen {
			byKey[e.Key()] = e
			out = append(out, e)
			continue
		}
		if prev.SourcePath == e.SourcePath && prev.Role == e.Role {
			continue
		}
		return nil, errors.Newf(errors.ErrManifestConflict,
			"target path %s claimed by both %s and %s", e.Key(), prev.SourcePath, e.SourcePath)
	}

	return out, nil
}

func isGlob(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func trimExt(p string) string {
	return p[:len(p)-len(path.Ext(p))]
}
