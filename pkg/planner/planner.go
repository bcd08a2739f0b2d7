// Package planner turns package metadata and operator policy into an
// ordered list of build jobs.
package planner

import (
	"strings"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/portage"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/useflags"
)

// Test feature scopes: enable FEATURES=test for every run, for one
// extra default-flags run, or not at all.
const (
	TestScopeNever  = "never"
	TestScopeOnce   = "once"
	TestScopeAlways = "always"
)

// USE flag scopes: overrides apply to the tested atom or to */*.
const (
	FlagScopeLocal  = "local"
	FlagScopeGlobal = "global"
)

// Policy is the operator's exploration policy for one run.
type Policy struct {
	MaxUseCombinations int
	TestFeatureScope   string
	UseFlagsScope      string
	// AppendRequiredUse is appended to the package's own REQUIRED_USE
	// before sampling, e.g. "!systemd" to keep a flag off everywhere.
	AppendRequiredUse string
}

// Job is one planned build: a package atom, an optional USE flag
// assignment (nil means package defaults) and the test phase toggle.
// Jobs are immutable once planned and executed in order.
type Job struct {
	Atom          *portage.Atom
	Assignment    useflags.Assignment
	TestFeature   bool
	UseFlagsScope string
}

// Plan samples USE flag combinations for the package and derives the
// job list. Sampling that comes back empty, either because the
// package has no testable flags or because no tried assignment
// satisfied REQUIRED_USE, degrades to a single default-flags build.
func Plan(md *portage.PackageMetadata, policy Policy, checker useflags.ConstraintChecker) ([]Job, error) {
	logger := logging.GetLogger("planner")

	requiredUse := strings.Join(md.RequiredUse, " ")
	if policy.AppendRequiredUse != "" {
		requiredUse = strings.TrimSpace(requiredUse + " " + policy.AppendRequiredUse)
	}

	var combinations []useflags.Assignment
	if len(md.IUSE) > 0 {
		var err error
		combinations, err = useflags.Sample(md.IUSE, requiredUse, policy.MaxUseCombinations, checker)
		if err != nil {
			return nil, err
		}
	}

	if len(combinations) == 0 {
		testFeature := md.HasTests && policy.TestFeatureScope != TestScopeNever
		logger.Debug().
			Str("atom", md.Atom.Raw).
			Bool("testFeature", testFeature).
			Msg("No USE flag combinations, planning a single default build")

		return []Job{{
			Atom:          md.Atom,
			TestFeature:   testFeature,
			UseFlagsScope: policy.UseFlagsScope,
		}}, nil
	}

	testEveryRun := md.HasTests && policy.TestFeatureScope == TestScopeAlways

	jobs := make([]Job, 0, len(combinations)+1)
	for _, assignment := range combinations {
		jobs = append(jobs, Job{
			Atom:          md.Atom,
			Assignment:    assignment,
			TestFeature:   testEveryRun,
			UseFlagsScope: policy.UseFlagsScope,
		})
	}

	// One trailing default-flags run with the test phase enabled.
	if md.HasTests && policy.TestFeatureScope == TestScopeOnce {
		jobs = append(jobs, Job{
			Atom:          md.Atom,
			TestFeature:   true,
			UseFlagsScope: policy.UseFlagsScope,
		})
	}

	logger.Debug().
		Str("atom", md.Atom.Raw).
		Int("combinations", len(combinations)).
		Int("jobs", len(jobs)).
		Msg("Planned jobs")

	return jobs, nil
}
