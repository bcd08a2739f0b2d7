package portage

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
)

// stubRunner fakes portageq answers keyed by the joined command line.
func stubRunner(t *testing.T, answers map[string]string) CommandRunner {
	t.Helper()
	return func(name string, args ...string) (string, error) {
		key := strings.Join(append([]string{name}, args...), " ")
		out, ok := answers[key]
		if !ok {
			return "", fmt.Errorf("unexpected command: %s", key)
		}
		return out, nil
	}
}

func TestPortageqSourceMetadata(t *testing.T) {
	source := &PortageqSource{Run: stubRunner(t, map[string]string{
		"portageq metadata / ebuild app-misc/foo-1.2.3 IUSE REQUIRED_USE DEFINED_PHASES": "+ssl zstd test kernel_linux\nzstd? ( !static )\ncompile install test\n",
		"portageq envvar FEATURES":            "sandbox userpriv\n",
		"portageq envvar EMERGE_DEFAULT_OPTS": "--jobs=4\n",
		"portageq get_repo_path / gentoo":     "/nonexistent/repo\n",
	})}

	md, err := source.Metadata("=app-misc/foo-1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "app-misc/foo", md.Atom.CP)
	assert.Equal(t, "app-misc/foo-1.2.3", md.Atom.CPV)
	assert.True(t, md.HasTests)
	// Option set is prepared: defaults stripped, test/kernel_linux
	// filtered out, sorted.
	assert.Equal(t, []string{"ssl", "zstd"}, md.IUSE)
	assert.Equal(t, []string{"zstd?", "(", "!static", ")"}, md.RequiredUse)
	assert.Equal(t, "sandbox userpriv", md.Features)
	assert.Equal(t, "--jobs=4", md.EmergeDefaultOpts)
	// metadata.xml is absent in the stubbed repo path.
	assert.Nil(t, md.FlagDescriptions)
}

func TestPortageqSourceMetadataNoTests(t *testing.T) {
	source := &PortageqSource{Run: stubRunner(t, map[string]string{
		"portageq metadata / ebuild dev-libs/bar-2.0 IUSE REQUIRED_USE DEFINED_PHASES": "\n\ncompile install\n",
		"portageq envvar FEATURES":            "",
		"portageq envvar EMERGE_DEFAULT_OPTS": "",
		"portageq get_repo_path / gentoo":     "",
	})}

	md, err := source.Metadata("=dev-libs/bar-2.0")
	require.NoError(t, err)

	assert.False(t, md.HasTests)
	assert.Empty(t, md.IUSE)
	assert.Empty(t, md.RequiredUse)
}

func TestPortageqSourceResolvesUnversionedAtom(t *testing.T) {
	source := &PortageqSource{Run: stubRunner(t, map[string]string{
		"portageq best_visible / app-misc/foo": "app-misc/foo-1.2.3\n",
		"portageq metadata / ebuild app-misc/foo-1.2.3 IUSE REQUIRED_USE DEFINED_PHASES": "ssl\n\ncompile\n",
		"portageq envvar FEATURES":            "",
		"portageq envvar EMERGE_DEFAULT_OPTS": "",
		"portageq get_repo_path / gentoo":     "",
	})}

	md, err := source.Metadata("app-misc/foo")
	require.NoError(t, err)

	assert.Equal(t, "app-misc/foo", md.Atom.Raw)
	assert.Equal(t, "app-misc/foo-1.2.3", md.Atom.CPV)
}

func TestPortageqSourceQueryFailure(t *testing.T) {
	source := &PortageqSource{Run: func(name string, args ...string) (string, error) {
		return "", fmt.Errorf("portageq: command not found")
	}}

	_, err := source.Metadata("=app-misc/foo-1.2.3")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMetadataQuery))
}
