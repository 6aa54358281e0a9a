// Package dualformat derives the TOML companion of a canonical command
// prompt. The companion is generated, never authored: every sync fully
// regenerates it from the markdown, so its bytes are a pure function of
// the canonical content and the transform version.
package dualformat

import (
	"bytes"
	"fmt"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/rulesync/pkg/errors"
)

// TransformVersion is bumped whenever the markdown → TOML mapping changes,
// so downstream tooling can tell which transform produced a companion.
const TransformVersion = 1

const frontMatterDelim = "---"

// frontMatter is the subset of prompt front matter carried into the
// companion. Unknown keys are ignored rather than rejected.
type frontMatter struct {
	Description  string `yaml:"description"`
	ArgumentHint string `yaml:"argument-hint"`
}

// companion is the TOML document layout. Field order is fixed; together
// with a fixed marshaller this keeps regeneration byte-deterministic.
type companion struct {
	Description  string `toml:"description,omitempty"`
	ArgumentHint string `toml:"argument_hint,omitempty"`
	Prompt       string `toml:"prompt,multiline"`
}

// Generate derives the companion TOML for one canonical prompt.
// sourcePath is recorded in the header so readers can find the original.
func Generate(sourcePath string, content []byte) ([]byte, error) {
	fm, body, err := splitFrontMatter(content)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrGeneration, "malformed front matter in %s", sourcePath)
	}

	doc := companion{
		Description:  fm.Description,
		ArgumentHint: fm.ArgumentHint,
		Prompt:       strings.TrimSpace(body),
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Generated by rulesync (transform v%d) from %s.\n", TransformVersion, sourcePath)
	fmt.Fprintf(&buf, "# Do not edit: regenerated on every sync.\n\n")

	enc := gotoml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrGeneration, "cannot encode companion for %s", sourcePath)
	}

	return buf.Bytes(), nil
}

// splitFrontMatter separates a leading YAML front matter block from the
// prompt body. A file without front matter is valid: the whole content is
// the body.
func splitFrontMatter(content []byte) (frontMatter, string, error) {
	var fm frontMatter

	text := string(content)
	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		return fm, text, nil
	}

	rest := text[len(frontMatterDelim)+1:]
	block, body, ok := cutClosingDelim(rest)
	if !ok {
		return fm, "", fmt.Errorf("front matter opened but never closed")
	}

	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, "", err
	}
	return fm, body, nil
}

// cutClosingDelim splits rest at the first line that is exactly the front
// matter delimiter. A line merely starting with it (a "----" horizontal
// rule, say) does not close the block.
func cutClosingDelim(rest string) (block, body string, ok bool) {
	if tail, found := strings.CutPrefix(rest, frontMatterDelim); found && lineEnds(tail) {
		return "", strings.TrimPrefix(tail, "\n"), true
	}

	search := 0
	for {
		i := strings.Index(rest[search:], "\n"+frontMatterDelim)
		if i < 0 {
			return "", "", false
		}
		lineStart := search + i + 1
		tail := rest[lineStart+len(frontMatterDelim):]
		if lineEnds(tail) {
			return rest[:lineStart], strings.TrimPrefix(tail, "\n"), true
		}
		search = lineStart + len(frontMatterDelim)
	}
}

func lineEnds(tail string) bool {
	return tail == "" || strings.HasPrefix(tail, "\n")
}
