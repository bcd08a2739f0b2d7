package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRequiresPackageAtom(t *testing.T) {
	packageAtoms = nil
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package-atom")
}

func TestRootRejectsStrayArguments(t *testing.T) {
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"-p", "=app-misc/foo-1.2.3", "stray-argument"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after '--'")
}

func TestRootRegistersFlags(t *testing.T) {
	for _, name := range []string{
		"package-atom",
		"append-required-use",
		"max-use-combinations",
		"use-flags-scope",
		"test-feature-scope",
		"report",
		"portage-config-root",
		"job-timeout",
	} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestRootSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	assert.True(t, names["version"])
	assert.True(t, names["genconfig"])
	assert.True(t, names["completion"])
}
