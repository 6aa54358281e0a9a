// Package preview renders a canonical markdown source for the terminal.
package preview

import (
	"path/filepath"

	"github.com/charmbracelet/glamour"

	"github.com/arthur-debert/rulesync/pkg/errors"
	"github.com/arthur-debert/rulesync/pkg/filesystem"
	"github.com/arthur-debert/rulesync/pkg/manifest"
	"github.com/arthur-debert/rulesync/pkg/paths"
)

// Options contains options for the preview command.
type Options struct {
	// RepoRoot is the repository root; empty means discover it.
	RepoRoot string

	// Source is a declared source name, or a path relative to the
	// canonical root for glob sources.
	Source string

	// Plain skips terminal rendering and returns raw markdown.
	Plain bool
}

// Preview loads one canonical source and renders it as markdown.
func Preview(opts Options) (string, error) {
	p, err := paths.New(opts.RepoRoot)
	if err != nil {
		return "", err
	}

	m, err := manifest.Load(p.ManifestPath())
	if err != nil {
		return "", err
	}

	relPath := opts.Source
	for _, src := range m.Sources {
		if src.Name == opts.Source {
			relPath = src.Path
			break
		}
	}

	sourceAbs := filepath.Join(p.RepoRoot(), m.CanonicalRoot, relPath)
	content, err := filesystem.NewOS().ReadFile(sourceAbs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceNotFound, "cannot read canonical source %q", opts.Source)
	}

	if opts.Plain {
		return string(content), nil
	}
	return render(string(content)), nil
}

// render converts markdown for the terminal, falling back to the raw
// content when glamour cannot set up a renderer.
func render(content string) string {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
