package main

// Short messages (one-liners)
const (
	MsgRootShort       = "Test Gentoo packages across USE flag combinations"
	MsgVersionShort    = "Print version information"
	MsgGenConfigShort  = "Print the default configuration file"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgAllGood     = "All good."
	MsgRunsFailed  = "Not all runs were successful."
	MsgFailureItem = "atom: %s, USE flags: '%s'"
)

// MsgRootLong describes the root command.
const MsgRootLong = `pkg-testing-tool drives emerge through repeated builds of one or more
package atoms under many USE flag combinations, to surface
configuration-dependent build and test failures.

Combinations are sampled from the package's IUSE, filtered by its
REQUIRED_USE, and applied through transient /etc/portage override files
that never outlive a single build. Custom arguments for emerge are to
be placed after '--'.`

// MsgRootExample shows typical invocations.
const MsgRootExample = `  pkg-testing-tool -p '=app-misc/foo-1.2.3'
  pkg-testing-tool -p '=app-misc/foo-1.2.3' --append-required-use '!systemd' --report foo.json
  pkg-testing-tool -p '=app-misc/foo-1.2.3' --test-feature-scope always -- --usepkg y`
