package useflags

import (
	"math/rand/v2"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
)

// ConstraintChecker decides whether an assignment satisfies a
// constraint expression. The sampler treats the expression as opaque;
// portage.RequiredUseChecker is the production implementation.
type ConstraintChecker interface {
	Check(expression string, assignment []string) (bool, error)
}

// Sample returns up to max distinct assignments of the option set
// that satisfy the constraint.
//
// When the whole space fits within max, every index is enumerated in
// ascending order, which is exhaustive and deterministic. Otherwise
// indices are drawn uniformly at random, never revisiting an index,
// until max valid assignments are collected or the whole domain has
// been tried. Random sampling intentionally keeps probing even when
// the valid region is sparse; for low-yield constraints this can
// degrade to near-exhaustive probing and is a known cost.
func Sample(options []string, constraint string, max int, checker ConstraintChecker) ([]Assignment, error) {
	logger := logging.GetLogger("useflags.sampler")

	if len(options) == 0 || max <= 0 {
		return nil, nil
	}

	if len(options) > MaxCodecOptions {
		return sampleWide(options, constraint, max, checker)
	}

	total := uint64(1) << uint(len(options))

	if total <= uint64(max) {
		return sampleExhaustive(options, constraint, total, checker)
	}

	logger.Debug().
		Uint64("space", total).
		Int("max", max).
		Msg("Space exceeds combination budget, sampling at random")

	valid := make([]Assignment, 0, max)
	tried := make(map[uint64]struct{}, max)

	for len(valid) < max && uint64(len(tried)) < total {
		index := rand.Uint64N(total)
		if _, seen := tried[index]; seen {
			continue
		}
		tried[index] = struct{}{}

		assignment := Decode(index, options)
		ok, err := checker.Check(constraint, assignment)
		if err != nil {
			return nil, err
		}
		if ok {
			valid = append(valid, assignment)
		}
	}

	return valid, nil
}

func sampleExhaustive(options []string, constraint string, total uint64, checker ConstraintChecker) ([]Assignment, error) {
	var valid []Assignment
	for index := uint64(0); index < total; index++ {
		assignment := Decode(index, options)
		ok, err := checker.Check(constraint, assignment)
		if err != nil {
			return nil, err
		}
		if ok {
			valid = append(valid, assignment)
		}
	}
	return valid, nil
}

// sampleWide draws assignments bit by bit for option sets too large
// to index with an integer. The space dwarfs any practical budget, so
// duplicates are tracked by the joined assignment instead of an
// index.
func sampleWide(options []string, constraint string, max int, checker ConstraintChecker) ([]Assignment, error) {
	valid := make([]Assignment, 0, max)
	tried := make(map[string]struct{}, max)

	// The tried set can never cover a space this large, so an
	// unsatisfiable constraint needs an explicit stop.
	const maxProbes = 1 << 20

	for probes := 0; len(valid) < max && probes < maxProbes; probes++ {
		assignment := make(Assignment, len(options))
		for k, option := range options {
			if rand.IntN(2) == 1 {
				assignment[k] = option
			} else {
				assignment[k] = "-" + option
			}
		}

		key := assignment.String()
		if _, seen := tried[key]; seen {
			continue
		}
		tried[key] = struct{}{}

		ok, err := checker.Check(constraint, assignment)
		if err != nil {
			return nil, err
		}
		if ok {
			valid = append(valid, assignment)
		}
	}

	return valid, nil
}
