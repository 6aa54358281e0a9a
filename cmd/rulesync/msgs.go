package main

// User-facing command text, kept together so wording stays consistent.
const (
	MsgRootShort = "Keep AI IDE configuration directories in sync with canonical sources"
	MsgRootLong  = `rulesync mirrors a single canonical set of rules, slash-commands and
skills into the configuration directories of every AI IDE in a repository
(.claude, .cursor, .cline, .gemini, ...), using the propagation strategy
each target declares: real files with a managed redirect marker, per-file
symlinks, whole-directory symlinks, or a symlink plus a generated TOML
companion.

The manifest (rulesync.toml or rulesync.yaml at the repository root) is
the single source of truth; re-running sync is always safe.`

	MsgSyncShort = "Apply the manifest: create or update every derived file and link"
	MsgSyncLong  = `Resolve the manifest into sync entries and bring the target tree in line
with the canonical sources. Failed entries are listed and do not block
the rest; the exit status is nonzero when any entry failed.`

	MsgCheckShort = "Verify the target tree without modifying it (CI gate)"
	MsgCheckLong  = `Resolve the manifest and classify every entry as in-sync, missing, stale,
conflicting or unexpected. Exits zero only when everything is in sync.
Nothing on disk is modified.`

	MsgPreviewShort = "Render a canonical source as markdown in the terminal"

	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Preview changes without executing them"
	MsgFlagRoot    = "Repository root (default: $RULESYNC_REPO_ROOT or the working directory)"
	MsgFlagPlain   = "Print raw markdown without terminal rendering"
)
