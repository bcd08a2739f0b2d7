package useflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	options := []string{"a", "b", "c"}

	tests := []struct {
		index uint64
		want  Assignment
	}{
		{index: 0, want: Assignment{"-a", "-b", "-c"}},
		{index: 1, want: Assignment{"a", "-b", "-c"}},
		{index: 2, want: Assignment{"-a", "b", "-c"}},
		{index: 5, want: Assignment{"a", "-b", "c"}},
		{index: 7, want: Assignment{"a", "b", "c"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Decode(tt.index, options), "index %d", tt.index)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	options := []string{"caps", "ssl", "static", "zstd"}

	for index := uint64(0); index < 16; index++ {
		assignment := Decode(index, options)
		require.Len(t, assignment, len(options))

		got, err := Encode(assignment)
		require.NoError(t, err)
		assert.Equal(t, index, got)
	}
}

func TestEncodeRejectsEmptyToken(t *testing.T) {
	_, err := Encode(Assignment{"a", ""})
	assert.Error(t, err)

	_, err = Encode(Assignment{"-"})
	assert.Error(t, err)
}

func TestAssignmentString(t *testing.T) {
	assert.Equal(t, "a -b c", Assignment{"a", "-b", "c"}.String())
	assert.Equal(t, "", Assignment{}.String())
}
