// Package manifest loads and validates the declarative rulesync manifest:
// the canonical sources, the consuming IDE target directories and the sync
// policy each target declares per content kind.
//
// The manifest is the single source of truth the resolver consumes. TOML
// and YAML are both accepted; the parser is picked from the file extension.
package manifest

import (
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/rulesync/pkg/errors"
	"github.com/arthur-debert/rulesync/pkg/logging"
	"github.com/arthur-debert/rulesync/pkg/types"
)

// Manifest is the validated, in-memory form of the manifest file.
type Manifest struct {
	// CanonicalRoot is the directory holding all canonical sources,
	// relative to the repository root.
	CanonicalRoot string

	// Sources are the canonical content declarations.
	Sources []types.CanonicalSource

	// Targets are the consuming IDE directories.
	Targets []types.Target
}

// Raw mirrors the manifest file layout before validation. Kinds and
// policies stay strings here so we can report bad values with context.
type Raw struct {
	CanonicalRoot string      `koanf:"canonical_root"`
	Sources       []RawSource `koanf:"sources"`
	Targets       []RawTarget `koanf:"targets"`
}

// RawSource is one canonical source declaration as written in the file.
type RawSource struct {
	Name string `koanf:"name"`
	Path string `koanf:"path"`
	Kind string `koanf:"kind"`
}

// RawTarget is one target declaration as written in the file.
type RawTarget struct {
	Name     string            `koanf:"name"`
	Root     string            `koanf:"root"`
	Policies map[string]string `koanf:"policies"`
	Layout   map[string]string `koanf:"layout"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"canonical_root": ".agent",
	}
}

// Load reads, parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	logger := logging.GetLogger("manifest")

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestLoad, "failed to load defaults")
	}

	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "failed to parse manifest %s", path)
	}

	// Scalar overrides, e.g. RULESYNC_CANONICAL_ROOT
	if err := k.Load(env.Provider("RULESYNC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RULESYNC_"))
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestLoad, "failed to load environment overrides")
	}

	var raw Raw
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "failed to decode manifest %s", path)
	}

	m, err := raw.Validate()
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("path", path).
		Int("sources", len(m.Sources)).
		Int("targets", len(m.Targets)).
		Msg("Manifest loaded")

	return m, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, errors.Newf(errors.ErrManifestLoad, "unsupported manifest format %q", ext)
	}
}

// Validate checks the raw manifest and converts it into typed form.
func (r *Raw) Validate() (*Manifest, error) {
	if r.CanonicalRoot == "" {
		return nil, errors.New(errors.ErrManifestInvalid, "canonical_root must not be empty")
	}
	if len(r.Sources) == 0 {
		return nil, errors.New(errors.ErrManifestInvalid, "manifest declares no sources")
	}
	if len(r.Targets) == 0 {
		return nil, errors.New(errors.ErrManifestInvalid, "manifest declares no targets")
	}

	m := &Manifest{CanonicalRoot: r.CanonicalRoot}

	seenSources := make(map[string]bool)
	for _, rs := range r.Sources {
		if rs.Name == "" || rs.Path == "" {
			return nil, errors.Newf(errors.ErrManifestInvalid, "source %+v needs both name and path", rs)
		}
		if seenSources[rs.Name] {
			return nil, errors.Newf(errors.ErrManifestInvalid, "duplicate source name %q", rs.Name)
		}
		seenSources[rs.Name] = true

		if filepath.IsAbs(rs.Path) || strings.HasPrefix(rs.Path, "..") {
			return nil, errors.Newf(errors.ErrManifestInvalid,
				"source %q path %q must stay under the canonical root", rs.Name, rs.Path)
		}

		kind, err := types.ParseContentKind(rs.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "source %q", rs.Name)
		}

		m.Sources = append(m.Sources, types.CanonicalSource{
			Name: rs.Name,
			Path: filepath.ToSlash(rs.Path),
			Kind: kind,
		})
	}

	seenTargets := make(map[string]bool)
	for _, rt := range r.Targets {
		if rt.Name == "" {
			return nil, errors.New(errors.ErrManifestInvalid, "target with empty name")
		}
		if seenTargets[rt.Name] {
			return nil, errors.Newf(errors.ErrManifestInvalid, "duplicate target %q", rt.Name)
		}
		seenTargets[rt.Name] = true

		root := rt.Root
		if root == "" {
			root = rt.Name
		}

		target := types.Target{
			Name:     rt.Name,
			Root:     filepath.ToSlash(root),
			Policies: make(map[types.ContentKind]types.PolicyKind),
			Layout:   make(map[types.ContentKind]string),
		}

		if len(rt.Policies) == 0 {
			return nil, errors.Newf(errors.ErrManifestInvalid, "target %q declares no policies", rt.Name)
		}

		for rawKind, rawPolicy := range rt.Policies {
			kind, err := types.ParseContentKind(rawKind)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "target %q", rt.Name)
			}
			policy, err := types.ParsePolicyKind(rawPolicy)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "target %q kind %q", rt.Name, rawKind)
			}
			if err := checkPolicyFits(kind, policy); err != nil {
				return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "target %q", rt.Name)
			}
			target.Policies[kind] = policy
		}

		for rawKind, loc := range rt.Layout {
			kind, err := types.ParseContentKind(rawKind)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "target %q layout", rt.Name)
			}
			target.Layout[kind] = filepath.ToSlash(loc)
		}

		m.Targets = append(m.Targets, target)
	}

	return m, nil
}

// checkPolicyFits rejects policy/kind pairings that have no meaning, e.g.
// a directory symlink for a single rule file.
func checkPolicyFits(kind types.ContentKind, policy types.PolicyKind) error {
	switch kind {
	case types.KindRuleText:
		if policy == types.PolicyDirectorySymlink || policy == types.PolicyDualFormat {
			return errors.Newf(errors.ErrManifestInvalid, "policy %s cannot apply to %s", policy, kind)
		}
	case types.KindCommandPrompt:
		if policy == types.PolicyDirectorySymlink {
			return errors.Newf(errors.ErrManifestInvalid, "policy %s cannot apply to %s", policy, kind)
		}
	case types.KindSkillBundle:
		if policy != types.PolicyDirectorySymlink {
			return errors.Newf(errors.ErrManifestInvalid, "skill bundles sync as one directory symlink, got %s", policy)
		}
	}
	return nil
}
