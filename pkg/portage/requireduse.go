package portage

import (
	"strings"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
)

// RequiredUse evaluates REQUIRED_USE expressions against a concrete
// USE flag assignment. Supported syntax, per the package manager
// specification: plain flags, '!flag', conditional groups
// 'flag? ( ... )', and the operators '|| ( ... )' (at least one),
// '^^ ( ... )' (exactly one) and '?? ( ... )' (at most one), nested
// arbitrarily.

type groupKind int

const (
	groupAll groupKind = iota // implicit top level and plain ( ... )
	groupAnyOf
	groupExactlyOne
	groupAtMostOne
)

type ruNode interface {
	satisfied(enabled map[string]bool) bool
}

type ruFlag struct {
	name    string
	negated bool
}

func (f ruFlag) satisfied(enabled map[string]bool) bool {
	return enabled[f.name] != f.negated
}

type ruGroup struct {
	kind     groupKind
	children []ruNode
}

func (g ruGroup) satisfied(enabled map[string]bool) bool {
	// Empty groups are treated as satisfied, matching Portage.
	if len(g.children) == 0 {
		return true
	}

	count := 0
	for _, child := range g.children {
		if child.satisfied(enabled) {
			count++
		}
	}

	switch g.kind {
	case groupAnyOf:
		return count >= 1
	case groupExactlyOne:
		return count == 1
	case groupAtMostOne:
		return count <= 1
	default:
		return count == len(g.children)
	}
}

type ruConditional struct {
	guard ruFlag
	body  ruGroup
}

func (c ruConditional) satisfied(enabled map[string]bool) bool {
	if !c.guard.satisfied(enabled) {
		return true
	}
	return c.body.satisfied(enabled)
}

// CheckRequiredUse reports whether the given expression holds for the
// set of enabled flags. Flags absent from the map are off.
func CheckRequiredUse(expression string, enabled map[string]bool) (bool, error) {
	root, err := parseRequiredUse(expression)
	if err != nil {
		return false, err
	}
	return root.satisfied(enabled), nil
}

func parseRequiredUse(expression string) (ruGroup, error) {
	tokens := strings.Fields(expression)

	root, rest, err := parseGroupBody(tokens, groupAll)
	if err != nil {
		return ruGroup{}, err
	}
	if len(rest) > 0 {
		return ruGroup{}, errors.Newf(errors.ErrConstraintParse, "unbalanced ')' in REQUIRED_USE %q", expression)
	}
	return root, nil
}

// parseGroupBody consumes tokens until a closing ')' or the end of
// input and returns the unconsumed remainder, ')' included for the
// caller to drop.
func parseGroupBody(tokens []string, kind groupKind) (ruGroup, []string, error) {
	group := ruGroup{kind: kind}

	for len(tokens) > 0 {
		tok := tokens[0]

		switch {
		case tok == ")":
			return group, tokens, nil

		case tok == "(" || tok == "||" || tok == "^^" || tok == "??":
			childKind := groupAll
			switch tok {
			case "||":
				childKind = groupAnyOf
			case "^^":
				childKind = groupExactlyOne
			case "??":
				childKind = groupAtMostOne
			}

			body, rest, err := parseDelimitedGroup(tokens, tok, childKind)
			if err != nil {
				return ruGroup{}, nil, err
			}
			group.children = append(group.children, body)
			tokens = rest

		case strings.HasSuffix(tok, "?"):
			guard, err := parseFlagToken(strings.TrimSuffix(tok, "?"))
			if err != nil {
				return ruGroup{}, nil, err
			}

			body, rest, err := parseDelimitedGroup(tokens, tok, groupAll)
			if err != nil {
				return ruGroup{}, nil, err
			}
			group.children = append(group.children, ruConditional{guard: guard, body: body})
			tokens = rest

		default:
			flag, err := parseFlagToken(tok)
			if err != nil {
				return ruGroup{}, nil, err
			}
			group.children = append(group.children, flag)
			tokens = tokens[1:]
		}
	}

	if kind != groupAll {
		return ruGroup{}, nil, errors.New(errors.ErrConstraintParse, "unterminated group in REQUIRED_USE")
	}
	return group, tokens, nil
}

// parseDelimitedGroup parses "<opener> ( ... )" where tokens[0] is the
// opener ('(', '||', '^^', '??' or 'flag?').
func parseDelimitedGroup(tokens []string, opener string, kind groupKind) (ruGroup, []string, error) {
	rest := tokens[1:]
	if opener != "(" {
		if len(rest) == 0 || rest[0] != "(" {
			return ruGroup{}, nil, errors.Newf(errors.ErrConstraintParse, "%q must be followed by '(' in REQUIRED_USE", opener)
		}
		rest = rest[1:]
	}

	body, rest, err := parseGroupBody(rest, kind)
	if err != nil {
		return ruGroup{}, nil, err
	}
	if len(rest) == 0 || rest[0] != ")" {
		return ruGroup{}, nil, errors.New(errors.ErrConstraintParse, "unterminated group in REQUIRED_USE")
	}
	return body, rest[1:], nil
}

func parseFlagToken(tok string) (ruFlag, error) {
	negated := strings.HasPrefix(tok, "!")
	name := strings.TrimPrefix(tok, "!")

	if name == "" || strings.ContainsAny(name, "()?!") {
		return ruFlag{}, errors.Newf(errors.ErrConstraintParse, "invalid token %q in REQUIRED_USE", tok)
	}
	return ruFlag{name: name, negated: negated}, nil
}
