package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/runner"
)

// stdoutIsTerminal gates pterm styling: styled output on a tty,
// plain greppable prefixes when piped.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func einfo(format string, args ...interface{}) {
	if stdoutIsTerminal() {
		pterm.Info.Printfln(format, args...)
		return
	}
	fmt.Printf("[INFO] >>> "+format+"\n", args...)
}

func eerror(format string, args ...interface{}) {
	if stdoutIsTerminal() {
		pterm.Error.Printfln(format, args...)
		return
	}
	fmt.Printf("[ERROR] >>> "+format+"\n", args...)
}

// printFailureSummary lists every failed job, one line per failing
// assignment so the operator can reproduce it.
func printFailureSummary(failures []runner.JobResult) {
	eerror(MsgRunsFailed)

	if !stdoutIsTerminal() {
		for _, failure := range failures {
			fmt.Printf(MsgFailureItem+"\n", failure.Atom, failure.UseFlags)
		}
		return
	}

	rows := pterm.TableData{{"Atom", "USE flags", "Exit code", "Test phase"}}
	for _, failure := range failures {
		rows = append(rows, []string{
			failure.Atom,
			failure.UseFlags,
			fmt.Sprintf("%d", failure.ExitCode),
			fmt.Sprintf("%t", failure.TestFeatureToggle),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		for _, failure := range failures {
			fmt.Printf(MsgFailureItem+"\n", failure.Atom, failure.UseFlags)
		}
	}
}
