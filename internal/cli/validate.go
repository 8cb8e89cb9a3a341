package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scopekit/scopekit/internal/harness"
)

//go:embed schema.cue
var scenarioSchema string

// FileValidation holds validation results for one scenario file.
type FileValidation struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationResult holds validation results across all checked files.
type ValidationResult struct {
	Files   []FileValidation `json:"files"`
	Valid   bool             `json:"valid"`
	Checked int              `json:"checked"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml|scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML against the CUE schema and the loader's
referential checks, without executing the script.

Schema validation catches structural mistakes (wrong types, unknown
fields, empty identifiers); the loader catches dangling references
(activating an undeclared unit, forking a nonexistent step).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	info, err := os.Stat(path)
	if err != nil {
		formatter.Error(ErrCodeIO, fmt.Sprintf("cannot access %s", path), err.Error())
		return &ExitError{Code: ExitCommandError, Message: "path not accessible", Err: err}
	}

	var files []string
	if info.IsDir() {
		files, err = findScenarioFiles(path)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "failed to list scenarios", Err: err}
		}
		if len(files) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("no scenario files in %s", path))
		}
	} else {
		files = []string{path}
	}

	schema, err := compileSchema()
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "schema compilation failed", Err: err}
	}

	result := ValidationResult{Valid: true, Checked: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		fv := validateFile(schema, file)
		result.Files = append(result.Files, fv)
		if !fv.Valid {
			result.Valid = false
		}
	}

	if opts.Format == "json" {
		formatter.Success(result)
	} else {
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(formatter.Writer, "OK    %s\n", fv.File)
				continue
			}
			fmt.Fprintf(formatter.Writer, "ERROR %s\n", fv.File)
			for _, msg := range fv.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", msg)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// compileSchema compiles the embedded scenario schema and resolves the
// #Scenario definition.
func compileSchema() (cue.Value, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioSchema)
	if err := schema.Err(); err != nil {
		return cue.Value{}, err
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if !def.Exists() {
		return cue.Value{}, fmt.Errorf("schema has no #Scenario definition")
	}
	return def, nil
}

// validateFile runs both validation layers over one file: the CUE schema
// first, then the loader's referential checks.
func validateFile(schema cue.Value, file string) FileValidation {
	fv := FileValidation{File: file, Valid: true}

	data, err := os.ReadFile(file)
	if err != nil {
		fv.Valid = false
		fv.Errors = append(fv.Errors, err.Error())
		return fv
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		fv.Valid = false
		fv.Errors = append(fv.Errors, fmt.Sprintf("%s: YAML parse failed: %v", ErrCodeParse, err))
		return fv
	}

	unified := schema.Unify(schema.Context().Encode(doc))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		fv.Valid = false
		for _, e := range cueerrors.Errors(err) {
			fv.Errors = append(fv.Errors, fmt.Sprintf("%s: %v", ErrCodeSchema, e))
		}
		return fv
	}

	if _, err := harness.ParseScenario(data); err != nil {
		fv.Valid = false
		fv.Errors = append(fv.Errors, fmt.Sprintf("%s: %v", ErrCodeParse, err))
	}
	return fv
}
