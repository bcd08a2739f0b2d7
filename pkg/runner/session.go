package runner

import (
	"context"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/config"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/planner"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/portage"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/useflags"
)

// Session drives a whole testing run: it unmasks and keywords every
// atom up front, then plans and executes the jobs of each atom in
// order, collecting results.
type Session struct {
	Config  *config.Config
	Source  portage.MetadataSource
	Checker useflags.ConstraintChecker
	Runner  *Runner
	// Progress receives operator-facing status lines; nil disables
	// them.
	Progress func(format string, args ...interface{})
}

// Run executes all jobs for all atoms and returns every result in
// execution order. Job failures are recorded, not returned as errors;
// the error return is reserved for conditions that abort the run.
func (s *Session) Run(ctx context.Context, atoms []string, policy planner.Policy) ([]JobResult, error) {
	logger := logging.GetLogger("runner.session")

	// Unconditionally unmask and keyword the packages selected by
	// atom for the duration of the whole run. No reason to check what
	// arch we are on or whether they were masked in the first place.
	scope, err := AcquireOverrideScope(s.Config.PortageConfigRoot, DirAcceptKeywords, DirUnmask)
	if err != nil {
		return nil, err
	}
	defer scope.Close()

	for _, atom := range atoms {
		if err := scope.WriteLine(DirAcceptKeywords, "%s **", atom); err != nil {
			return nil, err
		}
		if err := scope.WriteLine(DirUnmask, "%s", atom); err != nil {
			return nil, err
		}
	}
	if err := scope.Flush(); err != nil {
		return nil, err
	}

	var results []JobResult
	for _, atom := range atoms {
		atomResults, err := s.runAtom(ctx, atom, policy)
		if err != nil {
			return nil, err
		}
		results = append(results, atomResults...)
	}

	logger.Info().Int("results", len(results)).Msg("Testing run finished")
	return results, nil
}

func (s *Session) runAtom(ctx context.Context, atom string, policy planner.Policy) ([]JobResult, error) {
	logger := logging.GetLogger("runner.session")

	md, err := s.Source.Metadata(atom)
	if err != nil {
		return nil, err
	}

	for _, flag := range md.IUSE {
		if desc, ok := md.FlagDescriptions[flag]; ok {
			logger.Debug().Str("flag", flag).Str("description", desc).Msg("USE flag under test")
		}
	}

	jobs, err := planner.Plan(md, policy, s.Checker)
	if err != nil {
		return nil, err
	}

	withFlags := 0
	for _, job := range jobs {
		if len(job.Assignment) > 0 {
			withFlags++
		}
	}

	results := make([]JobResult, 0, len(jobs))
	for i, job := range jobs {
		switch {
		case len(job.Assignment) > 0:
			s.progress("Running %d of %d build for '%s' with '%s' USE flags ...", i+1, withFlags, job.Atom.Raw, job.Assignment.String())
		case job.TestFeature && withFlags > 0:
			s.progress("Additional run for '%s' with FEATURES=test and default USE flags ...", job.Atom.Raw)
		case job.TestFeature:
			s.progress("Running build for '%s' with default USE flags and FEATURES=test ...", job.Atom.Raw)
		default:
			s.progress("Running build for '%s' with default USE flags ...", job.Atom.Raw)
		}

		result, err := s.Runner.Execute(ctx, job, md)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	return results, nil
}

func (s *Session) progress(format string, args ...interface{}) {
	if s.Progress != nil {
		s.Progress(format, args...)
	}
}

// Failures filters the results down to the failed ones.
func Failures(results []JobResult) []JobResult {
	var failed []JobResult
	for _, result := range results {
		if result.ExitCode != 0 {
			failed = append(failed, result)
		}
	}
	return failed
}
