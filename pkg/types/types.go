package types

import (
	"fmt"
	"path/filepath"
)

// ContentKind identifies what sort of canonical content a source holds.
// The kind decides which sync policies make sense for it.
type ContentKind string

const (
	// KindRuleText is long-form rule prose (e.g. a CLAUDE.md / .cursorrules
	// style instruction file).
	KindRuleText ContentKind = "rule-text"

	// KindCommandPrompt is a single slash-command prompt file.
	KindCommandPrompt ContentKind = "command-prompt"

	// KindSkillBundle is a directory of skill files shipped as one unit.
	KindSkillBundle ContentKind = "skill-bundle"
)

// ParseContentKind validates a manifest string into a ContentKind.
func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(s) {
	case KindRuleText, KindCommandPrompt, KindSkillBundle:
		return ContentKind(s), nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// PolicyKind selects how canonical content is represented inside a target.
type PolicyKind string

const (
	// PolicyRealFileRedirect keeps a real file in the target that carries a
	// managed redirect marker pointing at the canonical source. Content
	// outside the marker block belongs to the user and is never touched.
	PolicyRealFileRedirect PolicyKind = "real-file-redirect"

	// PolicyFileSymlink links each canonical file individually.
	PolicyFileSymlink PolicyKind = "file-symlink"

	// PolicyDirectorySymlink links a whole canonical directory at once.
	PolicyDirectorySymlink PolicyKind = "directory-symlink"

	// PolicyDualFormat links the canonical markdown and additionally
	// generates a TOML companion derived from it.
	PolicyDualFormat PolicyKind = "dual-format"
)

// ParsePolicyKind validates a manifest string into a PolicyKind.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch PolicyKind(s) {
	case PolicyRealFileRedirect, PolicyFileSymlink, PolicyDirectorySymlink, PolicyDualFormat:
		return PolicyKind(s), nil
	}
	return "", fmt.Errorf("unknown sync policy %q", s)
}

// CanonicalSource is one authoritative piece of content under the canonical
// root. Path is relative to the canonical root and may contain a glob for
// command prompts (expanded by the resolver). Sources are only ever written
// by humans or agent commits, never by rulesync.
type CanonicalSource struct {
	// Name is the logical identity, e.g. "rules" or "commands/speckit.analyze".
	Name string

	// Path is relative to the canonical root.
	Path string

	// Kind classifies the content.
	Kind ContentKind
}

// Target is one IDE configuration directory that consumes canonical content.
type Target struct {
	// Name is the IDE identity, e.g. ".claude" or ".cursor".
	Name string

	// Root is the target directory path, relative to the repository root.
	Root string

	// Policies maps each consumed content kind to its sync policy. A kind
	// with no policy means this target does not receive that kind.
	Policies map[ContentKind]PolicyKind

	// Layout maps a content kind to where it lands inside the target: the
	// entry file name for rule text (e.g. "CLAUDE.md"), the subdirectory
	// for command prompts and skill bundles. Kinds absent from Layout use
	// DefaultLayout.
	Layout map[ContentKind]string
}

// DefaultLayout is where content lands inside a target when the manifest
// does not say otherwise.
var DefaultLayout = map[ContentKind]string{
	KindRuleText:      "rules.md",
	KindCommandPrompt: "commands",
	KindSkillBundle:   "skills",
}

// LayoutFor returns the in-target location for a content kind.
func (t *Target) LayoutFor(kind ContentKind) string {
	if l, ok := t.Layout[kind]; ok && l != "" {
		return l
	}
	return DefaultLayout[kind]
}

// ManagedDirs lists the subdirectories inside the target root that rulesync
// owns end to end (command and skill locations). Files found there that no
// sync entry claims are drift.
func (t *Target) ManagedDirs() []string {
	var dirs []string
	for kind := range t.Policies {
		switch kind {
		case KindCommandPrompt, KindSkillBundle:
			dirs = append(dirs, filepath.Join(t.Root, t.LayoutFor(kind)))
		}
	}
	return dirs
}
