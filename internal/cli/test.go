package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scopekit/scopekit/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario name filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run a directory of scenarios",
		Long: `Run every scenario file in a directory and evaluate its assertions.

Scenario files use the .yaml or .yml extension. The filter matches
scenario names, not file names.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  scopekit test ./scenarios
  scopekit test ./scenarios --filter "unit-*"
  scopekit test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name glob pattern")
	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "failed to list scenarios", Err: err}
	}
	if len(files) == 0 {
		if opts.Format == "json" {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files))}
	for _, file := range files {
		sr := runOneScenario(file, opts)
		if sr == nil {
			continue // filtered out
		}
		result.Scenarios = append(result.Scenarios, *sr)
		result.Total++
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		formatter.Success(result)
	} else {
		for _, sr := range result.Scenarios {
			status := "PASS"
			if !sr.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(formatter.Writer, "%s  %s (%s)\n", status, sr.Name, sr.File)
			if opts.Verbose {
				for _, msg := range sr.Errors {
					fmt.Fprintf(formatter.Writer, "    %s\n", msg)
				}
			}
		}
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed, %d total\n",
			result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runOneScenario loads and runs a single file. Returns nil if the scenario
// name does not match the filter. Load and execution errors become failing
// results rather than aborting the whole run.
func runOneScenario(file string, opts *TestOptions) *ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return &ScenarioResult{
			Name:   filepath.Base(file),
			File:   file,
			Errors: []string{err.Error()},
		}
	}

	if opts.Filter != "" {
		matched, err := filepath.Match(opts.Filter, scenario.Name)
		if err != nil || !matched {
			return nil
		}
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return &ScenarioResult{
			Name:   scenario.Name,
			File:   file,
			Errors: []string{err.Error()},
		}
	}
	return &ScenarioResult{
		Name:   scenario.Name,
		File:   file,
		Pass:   result.Pass,
		Errors: result.Errors,
	}
}

// findScenarioFiles lists YAML files directly under dir, sorted by name.
func findScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
