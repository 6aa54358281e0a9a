// Package paths provides centralized path handling for rulesync.
// It implements XDG Base Directory specification compliance and locates
// the manifest and repository root.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/rulesync/pkg/errors"
)

// Environment variable names
const (
	// EnvRepoRoot overrides repository root discovery
	EnvRepoRoot = "RULESYNC_REPO_ROOT"

	// EnvManifest overrides manifest discovery with an explicit path
	EnvManifest = "RULESYNC_MANIFEST"

	// EnvStateDir overrides the XDG state directory for rulesync
	EnvStateDir = "RULESYNC_STATE_DIR"
)

// AppDirName is the directory name for rulesync-specific files under the
// XDG base directories. Not user-configurable.
const AppDirName = "rulesync"

// ManifestNames are the manifest file names probed in the repository root,
// in priority order.
var ManifestNames = []string{"rulesync.toml", ".rulesync.toml", "rulesync.yaml", ".rulesync.yaml"}

// Paths provides centralized path management for rulesync
type Paths interface {
	// RepoRoot returns the repository root all manifest paths are relative to
	RepoRoot() string

	// ManifestPath returns the discovered manifest file path
	ManifestPath() string

	// StateDir returns the XDG state directory for rulesync
	StateDir() string

	// LogFilePath returns the path of the rulesync log file
	LogFilePath() string
}

type osPaths struct {
	repoRoot     string
	manifestPath string
	stateDir     string
}

// New discovers the repository root and manifest. An empty repoRoot means
// use RULESYNC_REPO_ROOT or the current working directory.
func New(repoRoot string) (Paths, error) {
	if repoRoot == "" {
		repoRoot = os.Getenv(EnvRepoRoot)
	}
	if repoRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "cannot determine working directory")
		}
		repoRoot = cwd
	}
	repoRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid repository root %q", repoRoot)
	}

	manifest, err := findManifest(repoRoot)
	if err != nil {
		return nil, err
	}

	stateDir := os.Getenv(EnvStateDir)
	if stateDir == "" {
		stateDir = filepath.Join(xdg.StateHome, AppDirName)
	}

	return &osPaths{
		repoRoot:     repoRoot,
		manifestPath: manifest,
		stateDir:     stateDir,
	}, nil
}

func findManifest(repoRoot string) (string, error) {
	if explicit := os.Getenv(EnvManifest); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrapf(err, errors.ErrManifestLoad, "manifest %s not readable", explicit)
		}
		return explicit, nil
	}
	for _, name := range ManifestNames {
		candidate := filepath.Join(repoRoot, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Newf(errors.ErrManifestLoad, "no manifest found in %s (looked for %v)", repoRoot, ManifestNames)
}

func (p *osPaths) RepoRoot() string {
	return p.repoRoot
}

func (p *osPaths) ManifestPath() string {
	return p.manifestPath
}

func (p *osPaths) StateDir() string {
	return p.stateDir
}

func (p *osPaths) LogFilePath() string {
	return filepath.Join(p.stateDir, "rulesync.log")
}
