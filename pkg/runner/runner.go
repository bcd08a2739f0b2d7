package runner

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/config"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/planner"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/portage"
)

// timeLayout matches the original report format: ISO-8601 at second
// precision, no zone.
const timeLayout = "2006-01-02T15:04:05"

// TimeSpan brackets one build.
type TimeSpan struct {
	Started  string `json:"started" yaml:"started"`
	Finished string `json:"finished" yaml:"finished"`
}

// JobResult is the immutable record of one finished build.
type JobResult struct {
	UseFlags          string   `json:"use_flags" yaml:"use_flags"`
	ExitCode          int      `json:"exit_code" yaml:"exit_code"`
	Features          string   `json:"features" yaml:"features"`
	EmergeDefaultOpts string   `json:"emerge_default_opts" yaml:"emerge_default_opts"`
	EmergeCmdline     string   `json:"emerge_cmdline" yaml:"emerge_cmdline"`
	TestFeatureToggle bool     `json:"test_feature_toggle" yaml:"test_feature_toggle"`
	Atom              string   `json:"atom" yaml:"atom"`
	Time              TimeSpan `json:"time" yaml:"time"`
}

// Runner executes planned jobs one at a time. Override files live in
// Portage-global configuration directories, so jobs must never
// overlap: each scope is fully released before the next job starts.
type Runner struct {
	Config *config.Config
	// ExtraArgs are operator-supplied arguments appended to the
	// emerge command line, taken from after "--" on our own one.
	ExtraArgs []string
}

// Execute runs one job to completion and records its result. A
// non-zero exit code is a recorded outcome, not an error; errors mean
// the build could not be attempted at all.
func (r *Runner) Execute(ctx context.Context, job planner.Job, md *portage.PackageMetadata) (*JobResult, error) {
	logger := logging.GetLogger("runner")

	started := time.Now().Format(timeLayout)

	cmdline := []string{
		r.Config.Emerge.Binary,
		"--verbose", "y",
		"--autounmask", "n",
		"--usepkg-exclude", md.Atom.CP,
		"--deep", "--backtrack", strconv.Itoa(r.Config.Emerge.Backtrack),
	}
	cmdline = append(cmdline, r.ExtraArgs...)
	cmdline = append(cmdline, job.Atom.Raw)

	scope, err := AcquireOverrideScope(r.Config.PortageConfigRoot, DirEnv, DirPackageEnv, DirPackageUse)
	if err != nil {
		return nil, err
	}
	defer scope.Close()

	if job.TestFeature {
		if err := scope.WriteLine(DirEnv, `FEATURES="test"`); err != nil {
			return nil, err
		}
	}

	if err := scope.WriteLine(DirPackageEnv, "%s %s", md.Atom.CP, scope.FileName(DirEnv)); err != nil {
		return nil, err
	}

	if len(job.Assignment) > 0 {
		prefix := job.Atom.Raw
		if job.UseFlagsScope == planner.FlagScopeGlobal {
			prefix = "*/*"
		}
		if err := scope.WriteLine(DirPackageUse, "%s %s", prefix, job.Assignment.String()); err != nil {
			return nil, err
		}
	}

	if err := scope.Flush(); err != nil {
		return nil, err
	}

	if r.Config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Config.JobTimeout)
		defer cancel()
	}

	logging.LogCommand(cmdline[0], cmdline[1:])

	cmd := exec.CommandContext(ctx, cmdline[0], cmdline[1:]...)
	cmd.Env = buildEnvironment(r.Config.Features)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()

	exitCode := 0
	switch {
	case runErr == nil:
	case ctx.Err() != nil:
		// Deadline or cancellation: the process was killed, record
		// the failure and keep going.
		logger.Warn().Str("atom", job.Atom.Raw).Err(ctx.Err()).Msg("Build aborted by deadline")
		exitCode = cmd.ProcessState.ExitCode()
	default:
		var exitErr *exec.ExitError
		if !stderrors.As(runErr, &exitErr) {
			return nil, errors.Wrapf(runErr, errors.ErrBuildSpawn, "failed to run %s", cmdline[0])
		}
		exitCode = exitErr.ExitCode()
	}

	result := &JobResult{
		UseFlags:          job.Assignment.String(),
		ExitCode:          exitCode,
		Features:          md.Features,
		EmergeDefaultOpts: md.EmergeDefaultOpts,
		EmergeCmdline:     strings.Join(cmdline, " "),
		TestFeatureToggle: job.TestFeature,
		Atom:              job.Atom.Raw,
		Time: TimeSpan{
			Started:  started,
			Finished: time.Now().Format(timeLayout),
		},
	}

	logger.Info().
		Str("atom", result.Atom).
		Str("useFlags", result.UseFlags).
		Int("exitCode", result.ExitCode).
		Bool("testFeature", result.TestFeatureToggle).
		Msg("Build finished")

	return result, nil
}

func buildEnvironment(features string) []string {
	env := os.Environ()
	for i, entry := range env {
		if value, ok := strings.CutPrefix(entry, "FEATURES="); ok {
			env[i] = "FEATURES=" + value + " " + features
			return env
		}
	}
	return append(env, "FEATURES="+features)
}
