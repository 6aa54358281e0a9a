// Package redirect manages the marker block inside real-file targets. A
// redirect target is a normal file owned by the user except for one
// delimited section, which rulesync rewrites to point at the canonical
// source. Everything outside the block is preserved byte for byte.
package redirect

import (
	"fmt"
	"regexp"
	"strings"
)

// MarkerVersion is bumped when the rendered block format changes, so a
// check run can flag blocks written by older versions as stale.
const MarkerVersion = 1

const (
	beginPrefix = "<!-- rulesync:begin"
	endMarker   = "<!-- rulesync:end -->"
)

// blockRe captures the whole managed block including delimiters. The begin
// line carries the canonical source path and the format version.
var blockRe = regexp.MustCompile(`(?s)<!-- rulesync:begin source=(\S+) v=(\d+) -->\n.*?<!-- rulesync:end -->\n?`)

// Block renders the managed section for a canonical source path.
func Block(sourcePath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- rulesync:begin source=%s v=%d -->\n", sourcePath, MarkerVersion)
	fmt.Fprintf(&b, "This section is managed by rulesync. The canonical content lives at\n")
	fmt.Fprintf(&b, "`%s` — edit it there; local edits inside this block are overwritten.\n", sourcePath)
	b.WriteString(endMarker)
	b.WriteString("\n")
	return b.String()
}

// NewFile renders a fresh redirect target containing only the managed
// block. Used when the target file does not exist yet.
func NewFile(sourcePath string) []byte {
	return []byte(Block(sourcePath))
}

// HasMarker reports whether content carries any recognizable marker,
// including partial or older-format ones.
func HasMarker(content []byte) bool {
	return strings.Contains(string(content), beginPrefix)
}

// Source returns the canonical source path and version recorded in the
// marker block, if a well-formed block is present.
func Source(content []byte) (source string, version string, ok bool) {
	m := blockRe.FindSubmatch(content)
	if m == nil {
		return "", "", false
	}
	return string(m[1]), string(m[2]), true
}

// InSync reports whether content carries a current block for sourcePath.
// The whole block must match a fresh render byte for byte: an edit inside
// the managed section makes the block stale even when the begin line still
// names the right source.
func InSync(content []byte, sourcePath string) bool {
	m := blockRe.Find(content)
	return m != nil && string(m) == Block(sourcePath)
}

// Ensure rewrites the managed block in content so it points at sourcePath,
// leaving all surrounding content untouched. It returns the updated bytes
// and whether anything changed.
//
// Content without a well-formed block is not touched: the caller must
// treat that as marker-missing and leave resolution to a human.
func Ensure(content []byte, sourcePath string) (updated []byte, changed bool, ok bool) {
	if !blockRe.Match(content) {
		return nil, false, false
	}
	want := Block(sourcePath)
	got := blockRe.ReplaceAllLiteralString(string(content), want)
	return []byte(got), got != string(content), true
}
