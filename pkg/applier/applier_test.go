package applier_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/rulesync/pkg/applier"
	"github.com/arthur-debert/rulesync/pkg/errors"
	"github.com/arthur-debert/rulesync/pkg/filesystem"
	"github.com/arthur-debert/rulesync/pkg/redirect"
	"github.com/arthur-debert/rulesync/pkg/testutil"
	"github.com/arthur-debert/rulesync/pkg/types"
)

func linkEntry(sourcePath, targetRoot, relPath string) types.SyncEntry {
	return types.SyncEntry{
		Source:     types.CanonicalSource{Name: "src", Path: sourcePath, Kind: types.KindCommandPrompt},
		SourcePath: sourcePath,
		Target:     types.Target{Name: targetRoot, Root: targetRoot},
		RelPath:    relPath,
		Policy:     types.PolicyFileSymlink,
		Role:       types.RoleLink,
	}
}

func redirectEntry(sourcePath, targetRoot, relPath string) types.SyncEntry {
	e := linkEntry(sourcePath, targetRoot, relPath)
	e.Policy = types.PolicyRealFileRedirect
	e.Role = types.RoleRedirect
	return e
}

func companionEntry(sourcePath, targetRoot, relPath string) types.SyncEntry {
	e := linkEntry(sourcePath, targetRoot, relPath)
	e.Policy = types.PolicyDualFormat
	e.Role = types.RoleCompanion
	return e
}

func apply(t *testing.T, repo string, dryRun bool, entries ...types.SyncEntry) *types.SyncResult {
	t.Helper()
	return applier.New(filesystem.NewOS(), repo, dryRun).Apply(entries)
}

func requireAllOK(t *testing.T, result *types.SyncResult) {
	t.Helper()
	for _, res := range result.Results {
		require.NoError(t, res.Err, "entry %s", res.Entry.TargetPath())
	}
}

func TestApplyLink_CreatesRelativeSymlink(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/commands/foo.md", "prompt\n")

	result := apply(t, repo, false, linkEntry(".agent/commands/foo.md", ".cline", "commands/foo.md"))
	requireAllOK(t, result)
	assert.Equal(t, types.ActionCreated, result.Results[0].Action)

	link := filepath.Join(repo, ".cline/commands/foo.md")
	require.True(t, testutil.IsSymlink(t, link))
	assert.Equal(t, "../../.agent/commands/foo.md", testutil.ReadLink(t, link))

	// Resolving the link yields byte-identical canonical content.
	assert.Equal(t, "prompt\n", testutil.ReadFile(t, link))
}

func TestApplyLink_Idempotent(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/commands/foo.md", "prompt\n")
	entry := linkEntry(".agent/commands/foo.md", ".cline", "commands/foo.md")

	requireAllOK(t, apply(t, repo, false, entry))

	second := apply(t, repo, false, entry)
	requireAllOK(t, second)
	assert.Equal(t, types.ActionUnchanged, second.Results[0].Action)
	assert.False(t, second.Changed())
}

func TestApplyLink_ReplacesWrongDestination(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/commands/foo.md", "prompt\n")
	testutil.CreateSymlink(t, "../somewhere/else.md", filepath.Join(repo, ".cline/commands/foo.md"))

	result := apply(t, repo, false, linkEntry(".agent/commands/foo.md", ".cline", "commands/foo.md"))
	requireAllOK(t, result)
	assert.Equal(t, types.ActionUpdated, result.Results[0].Action)
	assert.Equal(t, "../../.agent/commands/foo.md",
		testutil.ReadLink(t, filepath.Join(repo, ".cline/commands/foo.md")))
}

func TestApplyLink_NonSymlinkOccupantIsConflict(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/commands/foo.md", "prompt\n")
	testutil.CreateFile(t, repo, ".cline/commands/foo.md", "user wrote this\n")

	result := apply(t, repo, false, linkEntry(".agent/commands/foo.md", ".cline", "commands/foo.md"))

	res := result.Results[0]
	require.Error(t, res.Err)
	assert.True(t, errors.IsErrorCode(res.Err, errors.ErrPathConflict))
	assert.Equal(t, types.ActionSkipped, res.Action)

	// User content survives untouched.
	assert.Equal(t, "user wrote this\n", testutil.ReadFile(t, filepath.Join(repo, ".cline/commands/foo.md")))
}

func TestApplyLink_DirectorySymlink(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/skills/review/SKILL.md", "review\n")

	entry := linkEntry(".agent/skills", ".claude", "skills")
	entry.Policy = types.PolicyDirectorySymlink
	entry.Source.Kind = types.KindSkillBundle

	requireAllOK(t, apply(t, repo, false, entry))

	link := filepath.Join(repo, ".claude/skills")
	require.True(t, testutil.IsSymlink(t, link))
	assert.Equal(t, "../.agent/skills", testutil.ReadLink(t, link))
	assert.Equal(t, "review\n", testutil.ReadFile(t, filepath.Join(link, "review/SKILL.md")))
}

func TestApplyRedirect_CreatesFileWithMarker(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/rules/RULES.md", "# Rules\n")

	result := apply(t, repo, false, redirectEntry(".agent/rules/RULES.md", ".claude", "CLAUDE.md"))
	requireAllOK(t, result)
	assert.Equal(t, types.ActionCreated, result.Results[0].Action)

	content := testutil.ReadFile(t, filepath.Join(repo, ".claude/CLAUDE.md"))
	assert.True(t, redirect.InSync([]byte(content), ".agent/rules/RULES.md"))
}

func TestApplyRedirect_PreservesUserContent(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/rules/RULES.md", "# Rules\n")
	testutil.CreateFile(t, repo, ".claude/CLAUDE.md",
		"# Claude specifics\n\n"+redirect.Block(".agent/rules/OLD.md")+"\nLocal notes.\n")

	result := apply(t, repo, false, redirectEntry(".agent/rules/RULES.md", ".claude", "CLAUDE.md"))
	requireAllOK(t, result)
	assert.Equal(t, types.ActionUpdated, result.Results[0].Action)

	content := testutil.ReadFile(t, filepath.Join(repo, ".claude/CLAUDE.md"))
	assert.Contains(t, content, "# Claude specifics")
	assert.Contains(t, content, "Local notes.")
	assert.True(t, redirect.InSync([]byte(content), ".agent/rules/RULES.md"))
	assert.NotContains(t, content, "OLD.md")
}

func TestApplyRedirect_OverwritesEditsInsideBlock(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/rules/RULES.md", "# Rules\n")
	entry := redirectEntry(".agent/rules/RULES.md", ".claude", "CLAUDE.md")

	requireAllOK(t, apply(t, repo, false, entry))

	// Sneak an edit between the delimiters; the begin line stays intact.
	targetPath := filepath.Join(repo, ".claude/CLAUDE.md")
	synced := testutil.ReadFile(t, targetPath)
	tampered := strings.Replace(synced, "managed by rulesync", "managed by nobody", 1)
	require.NotEqual(t, synced, tampered)
	testutil.CreateFile(t, repo, ".claude/CLAUDE.md", "# Mine\n\n"+tampered+"\nKeep me.\n")

	result := apply(t, repo, false, entry)
	requireAllOK(t, result)
	assert.Equal(t, types.ActionUpdated, result.Results[0].Action)

	content := testutil.ReadFile(t, targetPath)
	assert.NotContains(t, content, "managed by nobody")
	assert.True(t, redirect.InSync([]byte(content), ".agent/rules/RULES.md"))

	// Only the block is reset; surrounding user content survives.
	assert.Contains(t, content, "# Mine")
	assert.Contains(t, content, "Keep me.")
}

func TestApplyRedirect_MissingMarkerIsNeverOverwritten(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/rules/RULES.md", "# Rules\n")
	testutil.CreateFile(t, repo, ".claude/CLAUDE.md", "hand-written, no marker\n")

	result := apply(t, repo, false, redirectEntry(".agent/rules/RULES.md", ".claude", "CLAUDE.md"))

	res := result.Results[0]
	require.Error(t, res.Err)
	assert.True(t, errors.IsErrorCode(res.Err, errors.ErrRedirectMarkerMissing))
	assert.Equal(t, "hand-written, no marker\n", testutil.ReadFile(t, filepath.Join(repo, ".claude/CLAUDE.md")))
}

func TestApplyCompanion_GeneratesAndRegenerates(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/commands/foo.md",
		"---\ndescription: Do foo\n---\nThe foo prompt.\n")
	entry := companionEntry(".agent/commands/foo.md", ".gemini", "commands/foo.toml")

	result := apply(t, repo, false, entry)
	requireAllOK(t, result)
	assert.Equal(t, types.ActionCreated, result.Results[0].Action)

	companionPath := filepath.Join(repo, ".gemini/commands/foo.toml")
	first := testutil.ReadFile(t, companionPath)
	assert.Contains(t, first, "The foo prompt.")

	// Unchanged canonical content regenerates identical bytes.
	second := apply(t, repo, false, entry)
	requireAllOK(t, second)
	assert.Equal(t, types.ActionUnchanged, second.Results[0].Action)
	assert.Equal(t, first, testutil.ReadFile(t, companionPath))

	// Canonical edits fully rewrite the companion.
	testutil.CreateFile(t, repo, ".agent/commands/foo.md",
		"---\ndescription: Do foo differently\n---\nNew prompt.\n")
	third := apply(t, repo, false, entry)
	requireAllOK(t, third)
	assert.Equal(t, types.ActionUpdated, third.Results[0].Action)
	assert.Contains(t, testutil.ReadFile(t, companionPath), "New prompt.")
}

func TestApplyCompanion_MalformedFrontMatter(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/commands/bad.md", "---\nnever closed\n")

	result := apply(t, repo, false, companionEntry(".agent/commands/bad.md", ".gemini", "commands/bad.toml"))

	res := result.Results[0]
	require.Error(t, res.Err)
	assert.True(t, errors.IsErrorCode(res.Err, errors.ErrGeneration))
	assert.NoFileExists(t, filepath.Join(repo, ".gemini/commands/bad.toml"))
}

func TestApply_PartialFailureDoesNotBlockOthers(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/commands/good.md", "good\n")
	testutil.CreateFile(t, repo, ".agent/commands/blocked.md", "blocked\n")
	testutil.CreateFile(t, repo, ".cline/commands/blocked.md", "occupied\n")

	result := apply(t, repo, false,
		linkEntry(".agent/commands/blocked.md", ".cline", "commands/blocked.md"),
		linkEntry(".agent/commands/good.md", ".cline", "commands/good.md"),
	)

	require.Len(t, result.Failures(), 1)
	assert.True(t, errors.IsErrorCode(result.Failures()[0].Err, errors.ErrPathConflict))

	// The healthy entry still synced.
	assert.True(t, testutil.IsSymlink(t, filepath.Join(repo, ".cline/commands/good.md")))
}

func TestApply_DryRunTouchesNothing(t *testing.T) {
	repo := t.TempDir()
	testutil.CreateFile(t, repo, ".agent/rules/RULES.md", "# Rules\n")
	testutil.CreateFile(t, repo, ".agent/commands/foo.md", "prompt\n")

	result := apply(t, repo, true,
		linkEntry(".agent/commands/foo.md", ".cline", "commands/foo.md"),
		redirectEntry(".agent/rules/RULES.md", ".claude", "CLAUDE.md"),
		companionEntry(".agent/commands/foo.md", ".gemini", "commands/foo.toml"),
	)
	requireAllOK(t, result)
	assert.True(t, result.DryRun)
	assert.True(t, result.Changed())

	for _, path := range []string{".cline", ".claude", ".gemini"} {
		_, err := os.Lstat(filepath.Join(repo, path))
		assert.True(t, os.IsNotExist(err), "%s should not exist after dry-run", path)
	}
}

func TestApply_CanonicalNeverWritten(t *testing.T) {
	repo := t.TempDir()
	canonical := testutil.CreateFile(t, repo, ".agent/rules/RULES.md", "# Rules\n")

	requireAllOK(t, apply(t, repo, false, redirectEntry(".agent/rules/RULES.md", ".claude", "CLAUDE.md")))

	assert.Equal(t, "# Rules\n", testutil.ReadFile(t, canonical))
}
