package useflags_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/portage"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/useflags"
)

// checkerFunc adapts a function to the ConstraintChecker interface.
type checkerFunc func(expression string, assignment []string) (bool, error)

func (f checkerFunc) Check(expression string, assignment []string) (bool, error) {
	return f(expression, assignment)
}

var acceptAll = checkerFunc(func(string, []string) (bool, error) { return true, nil })
var rejectAll = checkerFunc(func(string, []string) (bool, error) { return false, nil })

func TestSampleExhaustiveNotBoth(t *testing.T) {
	// 2^2 = 4 <= 16, so every index is enumerated in ascending order
	// and only "a and b both on" (index 3) is rejected.
	got, err := useflags.Sample([]string{"a", "b"}, "a? ( !b )", 16, portage.RequiredUseChecker{})
	require.NoError(t, err)

	assert.Equal(t, []useflags.Assignment{
		{"-a", "-b"},
		{"a", "-b"},
		{"-a", "b"},
	}, got)
}

func TestSampleExhaustiveUnconstrained(t *testing.T) {
	got, err := useflags.Sample([]string{"a", "b", "c"}, "", 8, acceptAll)
	require.NoError(t, err)
	require.Len(t, got, 8)

	// Ascending index order is deterministic.
	assert.Equal(t, useflags.Assignment{"-a", "-b", "-c"}, got[0])
	assert.Equal(t, useflags.Assignment{"a", "b", "c"}, got[7])
}

func TestSampleRandomDistinctWithinBudget(t *testing.T) {
	options := []string{"a", "b", "c", "d", "e"}

	got, err := useflags.Sample(options, "", 8, acceptAll)
	require.NoError(t, err)
	require.Len(t, got, 8)

	seen := make(map[string]struct{})
	for _, assignment := range got {
		require.Len(t, assignment, len(options))
		seen[assignment.String()] = struct{}{}
	}
	assert.Len(t, seen, 8, "sampled assignments must be distinct")
}

func TestSampleRandomExhaustsUnsatisfiableSpace(t *testing.T) {
	// 2^5 = 32 > 4 forces random mode; with nothing satisfiable the
	// sampler must visit the whole domain and come back empty instead
	// of spinning.
	got, err := useflags.Sample([]string{"a", "b", "c", "d", "e"}, "", 4, rejectAll)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSampleCheckerErrorIsFatal(t *testing.T) {
	boom := errors.New("bad expression")
	failing := checkerFunc(func(string, []string) (bool, error) { return false, boom })

	_, err := useflags.Sample([]string{"a", "b"}, "broken (", 16, failing)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSampleDegenerateInputs(t *testing.T) {
	got, err := useflags.Sample(nil, "", 16, acceptAll)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = useflags.Sample([]string{"a"}, "", 0, acceptAll)
	require.NoError(t, err)
	assert.Nil(t, got)
}
