package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scopekit/scopekit/internal/harness"
	"github.com/scopekit/scopekit/internal/trace"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Print a scenario's canonical trace",
		Long: `Run a scenario and print its trace as canonical JSON.

The output is the exact byte form used for golden comparison: sorted
keys, NFC-normalized strings, no HTML escaping. Redirect it to create
a golden file:

  scopekit trace scenarios/unit_worker_basic.yaml > testdata/golden/unit-worker-basic.golden`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTrace(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	result, err := harness.Run(scenario)
	if err != nil {
		formatter.Error(ErrCodeScenario, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "scenario execution failed", Err: err}
	}

	snapshot := trace.Snapshot{Name: scenario.Name, Events: result.Trace}
	canonical, err := snapshot.MarshalCanonical()
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "canonical serialization failed", Err: err}
	}

	// Canonical bytes regardless of --format: the point is byte identity.
	fmt.Fprintf(cmd.OutOrStdout(), "%s", canonical)
	return nil
}
