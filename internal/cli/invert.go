package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mapmend/internal/feature"
	"github.com/roach88/mapmend/internal/revert"
)

// InvertOptions holds flags for the invert command.
type InvertOptions struct {
	*RootOptions
	Version        int64
	StrictVersions bool
}

// NewInvertCommand creates the invert command.
func NewInvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invert <history-file>",
		Short: "Compute the inverse of one entity history",
		Long: `Compute the corrective record for a single entity history read from a
JSON file. The file holds either the wrapped form the API serves
([{"feat":{...}},...]) or bare version records.

Example:
  mapmend invert history.json
  mapmend invert history.json --version 3 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvert(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Version, "version", 0, "target version to revert (default: latest)")
	cmd.Flags().BoolVar(&opts.StrictVersions, "strict-versions", false, "reject history records without a version field")

	return cmd
}

func runInvert(opts *InvertOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	history, err := readHistoryFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	target := opts.Version
	if target == 0 {
		target = int64(len(history))
	}

	inv, err := revert.Invert(history, target, revert.Options{StrictVersions: opts.StrictVersions})
	if err != nil {
		code := string(revert.CodeOf(err))
		if code == "" {
			code = "INVERT_FAILED"
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "invert failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(inv)
	}

	out, err := json.Marshal(inv)
	if err != nil {
		return WrapExitError(ExitFailure, "encode inverse", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// readHistoryFile loads a history from disk, accepting both the wrapped
// API form and bare version records.
func readHistoryFile(path string) (feature.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapped []feature.HistoryEntry
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped) > 0 && wrapped[0].Feat.Action != "" {
		return feature.Unwrap(wrapped), nil
	}

	var bare feature.History
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return bare, nil
}
