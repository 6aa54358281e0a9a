// Package display renders sync and check results for the terminal.
//
// Styles use semantic names and adaptive colors so output stays readable
// on light and dark themes. Color is disabled for non-TTY writers, for
// NO_COLOR, and for terminals without color support.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/arthur-debert/rulesync/pkg/types"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"}).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"})
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "243", Dark: "246"})
	pathStyle    = lipgloss.NewStyle().Bold(true)
)

// Renderer writes human-readable results.
type Renderer struct {
	out   io.Writer
	color bool
}

// NewRenderer creates a renderer for out. Color is auto-detected when out
// is os.Stdout / os.Stderr and disabled otherwise.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, color: detectColor(out)}
}

func detectColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

func (r *Renderer) styled(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

// RenderSyncResult prints one line per changed or failed entry plus a
// summary. Unchanged entries stay quiet unless verbose is set.
func (r *Renderer) RenderSyncResult(result *types.SyncResult, verbose bool) {
	prefix := ""
	if result.DryRun {
		prefix = r.styled(mutedStyle, "[dry-run] ")
	}

	counts := map[types.ApplyAction]int{}
	for _, res := range result.Results {
		counts[res.Action]++

		switch {
		case res.Failed():
			fmt.Fprintf(r.out, "%s%s %s  %v\n", prefix,
				r.styled(errorStyle, "✗"), r.styled(pathStyle, res.Entry.TargetPath()), res.Err)
		case res.Action == types.ActionCreated, res.Action == types.ActionUpdated:
			fmt.Fprintf(r.out, "%s%s %s  %s\n", prefix,
				r.styled(successStyle, "✓"), r.styled(pathStyle, res.Entry.TargetPath()), res.Action)
		case verbose:
			fmt.Fprintf(r.out, "%s%s %s  %s\n", prefix,
				r.styled(mutedStyle, "·"), res.Entry.TargetPath(), res.Action)
		}
	}

	fmt.Fprintf(r.out, "%s%s\n", prefix, r.styled(mutedStyle, summarizeSync(counts, len(result.Failures()))))
}

func summarizeSync(counts map[types.ApplyAction]int, failed int) string {
	parts := []string{
		fmt.Sprintf("%d created", counts[types.ActionCreated]),
		fmt.Sprintf("%d updated", counts[types.ActionUpdated]),
		fmt.Sprintf("%d unchanged", counts[types.ActionUnchanged]),
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	return strings.Join(parts, ", ")
}

// RenderDriftReport prints every drifted path with its classification.
// With verbose set, in-sync entries are listed too.
func (r *Renderer) RenderDriftReport(report *types.DriftReport, verbose bool) {
	for _, item := range report.Items {
		switch item.State {
		case types.StateInSync:
			if verbose {
				fmt.Fprintf(r.out, "%s %s\n", r.styled(successStyle, "✓"), item.Path)
			}
		case types.StateMissing, types.StateStale:
			fmt.Fprintf(r.out, "%s %s  %s\n",
				r.styled(warnStyle, "!"), r.styled(pathStyle, item.Path), describe(item))
		default:
			fmt.Fprintf(r.out, "%s %s  %s\n",
				r.styled(errorStyle, "✗"), r.styled(pathStyle, item.Path), describe(item))
		}
	}

	counts := report.Counts()
	if report.Clean() {
		fmt.Fprintf(r.out, "%s\n", r.styled(successStyle,
			fmt.Sprintf("all %d entries in sync", counts[types.StateInSync])))
		return
	}
	fmt.Fprintf(r.out, "%s\n", r.styled(mutedStyle, summarizeDrift(counts)))
}

func describe(item types.DriftItem) string {
	if item.Detail == "" {
		return string(item.State)
	}
	return fmt.Sprintf("%s (%s)", item.State, item.Detail)
}

func summarizeDrift(counts map[types.EntryState]int) string {
	order := []types.EntryState{
		types.StateInSync,
		types.StateMissing,
		types.StateStale,
		types.StatePathConflict,
		types.StateMarkerMissing,
		types.StateUnexpected,
	}
	var parts []string
	for _, state := range order {
		if n := counts[state]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, state))
		}
	}
	return strings.Join(parts, ", ")
}
