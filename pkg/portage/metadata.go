package portage

import (
	"os/exec"
	"strings"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
)

// PackageMetadata is everything the planner needs to know about one
// package before building it.
type PackageMetadata struct {
	Atom     *Atom
	HasTests bool
	// IUSE is the prepared option set: defaults stripped, managed
	// flags filtered, sorted. See PrepareOptionSet.
	IUSE []string
	// RequiredUse is the package's REQUIRED_USE expression, possibly
	// with operator-supplied entries appended.
	RequiredUse []string
	// Features and EmergeDefaultOpts mirror the active Portage
	// configuration; they are echoed into job results.
	Features          string
	EmergeDefaultOpts string
	// FlagDescriptions maps USE flags to their metadata.xml
	// descriptions, when available.
	FlagDescriptions map[string]string
}

// MetadataSource resolves package metadata for an atom. Implemented
// by PortageqSource in production and by stubs in tests.
type MetadataSource interface {
	Metadata(atom string) (*PackageMetadata, error)
}

// CommandRunner executes a command and returns its stdout. Swappable
// for tests.
type CommandRunner func(name string, args ...string) (string, error)

func runCommand(name string, args ...string) (string, error) {
	logging.LogCommand(name, args)
	out, err := exec.Command(name, args...).Output()
	return string(out), err
}

// PortageqSource queries package metadata through portageq.
type PortageqSource struct {
	// Run defaults to executing the command via os/exec.
	Run CommandRunner
}

// NewPortageqSource returns a MetadataSource backed by portageq.
func NewPortageqSource() *PortageqSource {
	return &PortageqSource{Run: runCommand}
}

// Metadata resolves the atom to a CPV, queries IUSE, REQUIRED_USE and
// DEFINED_PHASES and augments the result with the active FEATURES,
// EMERGE_DEFAULT_OPTS and metadata.xml flag descriptions.
func (s *PortageqSource) Metadata(rawAtom string) (*PackageMetadata, error) {
	logger := logging.GetLogger("portage.metadata")

	atom, err := ParseAtom(rawAtom)
	if err != nil {
		return nil, err
	}

	// Unversioned atoms are resolved to the best visible version
	// first; portageq metadata wants a full CPV.
	if atom.CPV == "" {
		out, err := s.Run("portageq", "best_visible", "/", atom.CP)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrMetadataQuery, "no visible version for %s", atom.CP)
		}
		cpv := strings.TrimSpace(out)
		if cpv == "" {
			return nil, errors.Newf(errors.ErrMetadataQuery, "no visible version for %s", atom.CP)
		}
		if atom, err = ParseAtom("=" + cpv); err != nil {
			return nil, err
		}
		atom.Raw = rawAtom
	}

	out, err := s.Run("portageq", "metadata", "/", "ebuild", atom.CPV, "IUSE", "REQUIRED_USE", "DEFINED_PHASES")
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrMetadataQuery, "portageq metadata failed for %s", atom.CPV)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 3 {
		return nil, errors.Newf(errors.ErrMetadataQuery, "unexpected portageq metadata output for %s", atom.CPV)
	}

	md := &PackageMetadata{
		Atom:        atom,
		IUSE:        PrepareOptionSet(strings.Fields(lines[0])),
		RequiredUse: strings.Fields(lines[1]),
	}

	for _, phase := range strings.Fields(lines[2]) {
		if phase == "test" {
			md.HasTests = true
			break
		}
	}

	md.Features = s.envvar("FEATURES")
	md.EmergeDefaultOpts = s.envvar("EMERGE_DEFAULT_OPTS")

	md.FlagDescriptions = s.flagDescriptions(atom.CP)

	logger.Debug().
		Str("cpv", atom.CPV).
		Bool("hasTests", md.HasTests).
		Int("iuse", len(md.IUSE)).
		Strs("requiredUse", md.RequiredUse).
		Msg("Resolved package metadata")

	return md, nil
}

// envvar returns a Portage configuration variable, empty on failure.
func (s *PortageqSource) envvar(name string) string {
	out, err := s.Run("portageq", "envvar", name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
