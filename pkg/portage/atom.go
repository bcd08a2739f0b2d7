// Package portage is the read-only collaborator for Portage package
// metadata: atom parsing, portageq queries, USE flag preparation and
// REQUIRED_USE evaluation.
package portage

import (
	"regexp"
	"strings"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
)

// Atom is a parsed package atom such as "=app-misc/foo-1.2.3-r1".
type Atom struct {
	// Raw is the atom exactly as given on the command line.
	Raw string
	// CP is the category/package pair, e.g. "app-misc/foo".
	CP string
	// CPV is the category/package-version triple, e.g. "app-misc/foo-1.2.3".
	// Empty when the atom carries no version.
	CPV string
	// Version without the revision suffix, e.g. "1.2.3".
	Version string
	// Revision, e.g. "r1", or empty.
	Revision string
}

var (
	// Trailing version split, mirroring Portage's pkgsplit:
	// name-1.2.3b_rc1-r2 -> ("name", "1.2.3b_rc1", "r2")
	versionRe = regexp.MustCompile(`-(\d+(?:\.\d+)*[a-z]?(?:_(?:alpha|beta|pre|rc|p)\d*)*)(?:-(r\d+))?$`)

	categoryRe = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9+_.-]*$`)
	packageRe  = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9+_-]*$`)
)

// ParseAtom strips the version operator, slot and repository parts of
// an atom and splits the remainder into CP, version and revision.
func ParseAtom(raw string) (*Atom, error) {
	cpv := stripOperator(raw)

	// Drop ::repo and :slot qualifiers.
	if idx := strings.Index(cpv, "::"); idx >= 0 {
		cpv = cpv[:idx]
	}
	if idx := strings.Index(cpv, ":"); idx >= 0 {
		cpv = cpv[:idx]
	}

	if cpv == "" || !strings.Contains(cpv, "/") {
		return nil, errors.Newf(errors.ErrAtomInvalid, "%q is not a valid package atom", raw)
	}

	atom := &Atom{Raw: raw}

	if m := versionRe.FindStringSubmatch(cpv); m != nil {
		atom.CP = cpv[:len(cpv)-len(m[0])]
		atom.Version = m[1]
		atom.Revision = m[2]
		atom.CPV = atom.CP + "-" + atom.Version
	} else {
		atom.CP = cpv
	}

	parts := strings.SplitN(atom.CP, "/", 2)
	if len(parts) != 2 || !categoryRe.MatchString(parts[0]) || !packageRe.MatchString(parts[1]) {
		return nil, errors.Newf(errors.ErrAtomInvalid, "%q is not a valid package atom", raw)
	}

	return atom, nil
}

// stripOperator removes a leading blocker and version operator,
// the equivalent of Portage's dep_getcpv.
func stripOperator(atom string) string {
	s := strings.TrimPrefix(atom, "!!")
	s = strings.TrimPrefix(s, "!")

	for _, op := range []string{">=", "<=", "=", "<", ">", "~"} {
		if strings.HasPrefix(s, op) {
			s = s[len(op):]
			break
		}
	}

	// A trailing '*' belongs to the '=' operator ("=cat/pkg-1*").
	return strings.TrimSuffix(s, "*")
}
