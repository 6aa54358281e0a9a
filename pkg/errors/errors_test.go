package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/rulesync/pkg/errors"
)

func TestNew(t *testing.T) {
	err := errors.New(errors.ErrPathConflict, "path is occupied")

	assert.Equal(t, errors.ErrPathConflict, err.Code)
	assert.Contains(t, err.Error(), "PATH_CONFLICT")
	assert.Contains(t, err.Error(), "path is occupied")
}

func TestWrap(t *testing.T) {
	inner := stderrors.New("permission denied")
	err := errors.Wrapf(inner, errors.ErrFileWrite, "cannot write %s", "/tmp/x")

	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "cannot write /tmp/x")
	assert.ErrorIs(t, err, inner)
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrFileWrite, "nope"))
}

func TestIs_MatchesByCode(t *testing.T) {
	err := errors.New(errors.ErrManifestConflict, "duplicate target path")

	assert.True(t, stderrors.Is(err, errors.New(errors.ErrManifestConflict, "other message")))
	assert.False(t, stderrors.Is(err, errors.New(errors.ErrPathConflict, "duplicate target path")))
}

func TestIsErrorCode_ThroughWrapping(t *testing.T) {
	err := errors.New(errors.ErrRedirectMarkerMissing, "no marker")
	wrapped := fmt.Errorf("applying entry: %w", err)

	assert.True(t, errors.IsErrorCode(wrapped, errors.ErrRedirectMarkerMissing))
	assert.False(t, errors.IsErrorCode(wrapped, errors.ErrGeneration))
	assert.False(t, errors.IsErrorCode(stderrors.New("plain"), errors.ErrGeneration))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, errors.ErrGeneration, errors.GetErrorCode(errors.New(errors.ErrGeneration, "boom")))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrPathConflict, "occupied").
		WithDetail("path", ".cline/commands/foo.md")

	assert.Equal(t, ".cline/commands/foo.md", err.Details["path"])
}
