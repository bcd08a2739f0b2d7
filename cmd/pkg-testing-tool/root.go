package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fff7d1bc/pkg-testing-tools/internal/version"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/config"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/planner"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/portage"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/report"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/runner"
)

var (
	verbosity int

	packageAtoms       []string
	appendRequiredUse  string
	maxUseCombinations int
	useFlagsScope      string
	testFeatureScope   string
	reportPath         string
	portageConfigRoot  string
	jobTimeout         time.Duration

	rootCmd = &cobra.Command{
		Use:     "pkg-testing-tool",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTesting,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.Flags().StringArrayVarP(&packageAtoms, "package-atom", "p", nil,
		"Valid Portage package atom, like '=app-category/foo-1.2.3'. Can be specified multiple times to unmask/keyword all of them and test them one by one")
	rootCmd.Flags().StringVar(&appendRequiredUse, "append-required-use", "",
		"Append REQUIRED_USE entries, useful for blacklisting flags, like '!systemd !libressl' on systems that run neither")
	rootCmd.Flags().IntVar(&maxUseCombinations, "max-use-combinations", 16,
		"Generate up to N combinations of USE flags, random out of those which pass the check for REQUIRED_USE")
	rootCmd.Flags().StringVar(&useFlagsScope, "use-flags-scope", "local",
		"'local' sets USE flags for the package specified by atom, 'global' sets flags for */*")
	rootCmd.Flags().StringVar(&testFeatureScope, "test-feature-scope", "once",
		"Enable FEATURES='test' once, for default USE flags, always, for every run, or never")
	rootCmd.Flags().StringVar(&reportPath, "report", "",
		"Save report under specified path, as YAML when the path ends in .yaml/.yml and JSON otherwise")
	rootCmd.Flags().StringVar(&portageConfigRoot, "portage-config-root", "",
		"Directory holding the override locations (env, package.env, package.use, ...), /etc/portage by default")
	rootCmd.Flags().DurationVar(&jobTimeout, "job-timeout", 0,
		"Abort a single build after this long and record it as failed, 0 disables")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(genConfigCmd)
	rootCmd.AddCommand(completionCmd)
}

func runTesting(cmd *cobra.Command, args []string) error {
	if len(packageAtoms) == 0 {
		_ = cmd.Help()
		return errors.New(errors.ErrInvalidInput, "at least one --package-atom is required")
	}

	extraArgs := args
	if cmd.ArgsLenAtDash() > 0 {
		return errors.New(errors.ErrInvalidInput, "custom arguments that are meant to be passed to emerge are to be placed after '--'")
	}
	if cmd.ArgsLenAtDash() < 0 && len(args) > 0 {
		return errors.New(errors.ErrInvalidInput, "custom arguments that are meant to be passed to emerge are to be placed after '--'")
	}

	cfg, err := config.Load(flagOverrides(cmd))
	if err != nil {
		return err
	}

	policy := planner.Policy{
		MaxUseCombinations: cfg.MaxUseCombinations,
		TestFeatureScope:   cfg.TestFeatureScope,
		UseFlagsScope:      cfg.UseFlagsScope,
		AppendRequiredUse:  appendRequiredUse,
	}

	session := &runner.Session{
		Config:   cfg,
		Source:   portage.NewPortageqSource(),
		Checker:  portage.RequiredUseChecker{},
		Runner:   &runner.Runner{Config: cfg, ExtraArgs: extraArgs},
		Progress: einfo,
	}

	results, err := session.Run(context.Background(), packageAtoms, policy)
	if err != nil {
		return err
	}

	if reportPath != "" {
		if err := report.Write(reportPath, results); err != nil {
			return err
		}
	}

	if failures := runner.Failures(results); len(failures) > 0 {
		printFailureSummary(failures)
		return fmt.Errorf("%d of %d runs failed", len(failures), len(results))
	}

	einfo(MsgAllGood)
	return nil
}

// flagOverrides collects explicitly set command line flags as a
// configuration layer that wins over files and environment.
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	if cmd.Flags().Changed("max-use-combinations") {
		overrides["max-use-combinations"] = maxUseCombinations
	}
	if cmd.Flags().Changed("use-flags-scope") {
		overrides["use-flags-scope"] = useFlagsScope
	}
	if cmd.Flags().Changed("test-feature-scope") {
		overrides["test-feature-scope"] = testFeatureScope
	}
	if cmd.Flags().Changed("portage-config-root") {
		overrides["portage-config-root"] = portageConfigRoot
	}
	if cmd.Flags().Changed("job-timeout") {
		overrides["job-timeout"] = jobTimeout
	}
	return overrides
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: MsgVersionShort,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pkg-testing-tool version %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}

var completionCmd = &cobra.Command{
	Use:                   "completion [bash|zsh|fish|powershell]",
	Short:                 MsgCompletionShort,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			if err := cmd.Root().GenBashCompletion(cmd.OutOrStdout()); err != nil {
				log.Error().Err(err).Msg("Failed to generate bash completion")
			}
		case "zsh":
			if err := cmd.Root().GenZshCompletion(cmd.OutOrStdout()); err != nil {
				log.Error().Err(err).Msg("Failed to generate zsh completion")
			}
		case "fish":
			if err := cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true); err != nil {
				log.Error().Err(err).Msg("Failed to generate fish completion")
			}
		case "powershell":
			if err := cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()); err != nil {
				log.Error().Err(err).Msg("Failed to generate powershell completion")
			}
		}
	},
}
