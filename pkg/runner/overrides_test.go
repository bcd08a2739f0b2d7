package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
)

func configRoot(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	return root
}

func TestAcquireOverrideScope(t *testing.T) {
	root := configRoot(t, DirEnv, DirPackageEnv, DirPackageUse)

	scope, err := AcquireOverrideScope(root, DirEnv, DirPackageEnv, DirPackageUse)
	require.NoError(t, err)
	defer scope.Close()

	for _, dir := range []string{DirEnv, DirPackageEnv, DirPackageUse} {
		name := scope.FileName(dir)
		require.NotEmpty(t, name)
		assert.True(t, strings.HasPrefix(name, overridePrefix))

		info, err := os.Stat(filepath.Join(root, dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644)&^currentUmask(), info.Mode().Perm())
	}
}

func TestAcquireOverrideScopeMissingDir(t *testing.T) {
	root := configRoot(t, DirEnv)

	_, err := AcquireOverrideScope(root, DirEnv, DirPackageUse)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrOverrideDir))

	// The directory that did exist must not keep a stale file behind.
	entries, err := os.ReadDir(filepath.Join(root, DirEnv))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOverrideScopeWriteAndCleanup(t *testing.T) {
	root := configRoot(t, DirPackageUse)

	scope, err := AcquireOverrideScope(root, DirPackageUse)
	require.NoError(t, err)

	require.NoError(t, scope.WriteLine(DirPackageUse, "%s %s", "=app-misc/foo-1.2.3", "ssl -zstd"))
	require.NoError(t, scope.WriteLine(DirPackageUse, "%s %s", "*/*", "-static"))
	require.NoError(t, scope.Flush())

	path := filepath.Join(root, DirPackageUse, scope.FileName(DirPackageUse))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "=app-misc/foo-1.2.3 ssl -zstd\n*/* -static\n", string(content))

	scope.Close()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "override file must be removed on Close")

	// Close is idempotent.
	scope.Close()
}

func TestOverrideScopeWriteUnknownDir(t *testing.T) {
	root := configRoot(t, DirEnv)

	scope, err := AcquireOverrideScope(root, DirEnv)
	require.NoError(t, err)
	defer scope.Close()

	err = scope.WriteLine(DirPackageUse, "nope")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
}
