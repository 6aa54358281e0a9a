package display_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/rulesync/pkg/display"
	"github.com/arthur-debert/rulesync/pkg/types"
)

func entry(path string) types.SyncEntry {
	return types.SyncEntry{
		Target:  types.Target{Name: ".cline", Root: ".cline"},
		RelPath: path,
	}
}

func TestRenderSyncResult(t *testing.T) {
	result := &types.SyncResult{Results: []types.EntryResult{
		{Entry: entry("commands/a.md"), Action: types.ActionCreated},
		{Entry: entry("commands/b.md"), Action: types.ActionUnchanged},
		{Entry: entry("commands/c.md"), Action: types.ActionSkipped, Err: errors.New("path conflict")},
	}}

	var buf bytes.Buffer
	display.NewRenderer(&buf).RenderSyncResult(result, false)

	out := buf.String()
	assert.Contains(t, out, ".cline/commands/a.md")
	assert.Contains(t, out, "path conflict")
	// Quiet about unchanged entries unless verbose.
	assert.NotContains(t, out, "commands/b.md")
	assert.Contains(t, out, "1 created, 0 updated, 1 unchanged, 1 failed")
}

func TestRenderSyncResult_DryRunPrefix(t *testing.T) {
	result := &types.SyncResult{DryRun: true, Results: []types.EntryResult{
		{Entry: entry("commands/a.md"), Action: types.ActionCreated},
	}}

	var buf bytes.Buffer
	display.NewRenderer(&buf).RenderSyncResult(result, false)
	assert.Contains(t, buf.String(), "[dry-run]")
}

func TestRenderDriftReport(t *testing.T) {
	report := &types.DriftReport{Items: []types.DriftItem{
		{Path: ".cline/commands/a.md", State: types.StateInSync},
		{Path: ".cline/commands/b.md", State: types.StateStale, Detail: "links to elsewhere"},
		{Path: ".cline/commands/c.md", State: types.StateUnexpected},
	}}

	var buf bytes.Buffer
	display.NewRenderer(&buf).RenderDriftReport(report, false)

	out := buf.String()
	assert.NotContains(t, out, "a.md") // in-sync entries stay quiet
	assert.Contains(t, out, "b.md")
	assert.Contains(t, out, "links to elsewhere")
	assert.Contains(t, out, "c.md")
	assert.Contains(t, out, "1 in-sync, 1 stale, 1 unexpected")
}

func TestRenderDriftReport_Clean(t *testing.T) {
	report := &types.DriftReport{Items: []types.DriftItem{
		{Path: ".cline/commands/a.md", State: types.StateInSync},
	}}

	var buf bytes.Buffer
	display.NewRenderer(&buf).RenderDriftReport(report, false)
	assert.Contains(t, buf.String(), "all 1 entries in sync")
}
