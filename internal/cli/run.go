package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scopekit/scopekit/internal/harness"
	"github.com/scopekit/scopekit/internal/trace"
)

// RunResult is the serializable outcome of a single scenario run.
type RunResult struct {
	Name   string             `json:"name"`
	Pass   bool               `json:"pass"`
	Errors []string           `json:"errors,omitempty"`
	Events []trace.TraceEvent `json:"events"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a single scenario",
		Long: `Run one scenario file against the scoping engine and report the
trace and assertion results.

Exit codes:
  0 - Scenario passed
  1 - Scenario assertions failed
  2 - Command error (file missing, scenario invalid)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runScenarioFile(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		formatter.Error(ErrCodeParse, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "scenario load failed", Err: err}
	}
	formatter.VerboseLog("Loaded scenario %q (%d script steps)", scenario.Name, len(scenario.Script))

	result, err := harness.Run(scenario)
	if err != nil {
		formatter.Error(ErrCodeScenario, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "scenario execution failed", Err: err}
	}

	if opts.Format == "json" {
		formatter.Success(RunResult{
			Name:   scenario.Name,
			Pass:   result.Pass,
			Errors: result.Errors,
			Events: result.Trace,
		})
	} else {
		printRunText(formatter, scenario.Name, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed", scenario.Name))
	}
	return nil
}

func printRunText(f *OutputFormatter, name string, result *harness.Result) {
	status := "PASS"
	if !result.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(f.Writer, "%s  %s\n", status, name)

	if f.Verbose || !result.Pass {
		for _, event := range result.Trace {
			if len(event.Detail) > 0 {
				fmt.Fprintf(f.Writer, "  [%d] %s %s %v\n", event.Seq, event.Kind, event.Subject, event.Detail)
			} else {
				fmt.Fprintf(f.Writer, "  [%d] %s %s\n", event.Seq, event.Kind, event.Subject)
			}
		}
	}
	for _, msg := range result.Errors {
		// Assertion messages are multi-line; indent them as a block.
		fmt.Fprintf(f.Writer, "  %s\n", strings.ReplaceAll(msg, "\n", "\n  "))
	}
}
