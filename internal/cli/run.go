package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mapmend/internal/cache"
	"github.com/roach88/mapmend/internal/pipeline"
	"github.com/roach88/mapmend/internal/remote"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	JobFile string
	Job     Job

	// API allows overriding the remote collaborator (for testing).
	// If nil, an HTTP client is built from the job's APIURL.
	API pipeline.RemoteAPI
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cache a delta range and stream its inverse records",
		Long: `Run a full revert pass: fetch every entity history referenced by the
delta range, cache them in a fresh per-run store, then stream one
corrective record per entity as JSON lines.

Settings come from a YAML job file, MAPMEND_* environment variables,
and flags, in that order of precedence.

Example:
  mapmend run --api https://api.example.org/v1 --from 5 --to 7
  mapmend run --job nightly.yaml --out inverses.ndjson --fail-fast`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := resolveJob(cmd, opts)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid job", err)
			}
			opts.Job = job
			return runRevert(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.JobFile, "job", "", "path to YAML job file")
	cmd.Flags().StringVar(&opts.Job.APIURL, "api", "", "base URL of the editing API")
	cmd.Flags().Int64Var(&opts.Job.Start, "from", 0, "first delta id (inclusive)")
	cmd.Flags().Int64Var(&opts.Job.End, "to", 0, "last delta id (inclusive)")
	cmd.Flags().IntVar(&opts.Job.Concurrency, "concurrency", 0, "max in-flight history fetches (0 = sequential)")
	cmd.Flags().BoolVar(&opts.Job.StrictVersions, "strict-versions", false, "reject history records without a version field")
	cmd.Flags().BoolVar(&opts.Job.FailFast, "fail-fast", false, "abort on the first entity whose inverse fails")
	cmd.Flags().StringVar(&opts.Job.Out, "out", "", "output file for inverse records (default stdout)")
	cmd.Flags().StringVar(&opts.Job.CacheDir, "cache-dir", "", "directory for the per-run cache file (default OS temp)")

	return cmd
}

// resolveJob layers job file, environment, and explicitly set flags.
func resolveJob(cmd *cobra.Command, opts *RunOptions) (Job, error) {
	flagJob := opts.Job

	job, err := LoadJob(opts.JobFile)
	if err != nil {
		return Job{}, err
	}

	if cmd.Flags().Changed("api") {
		job.APIURL = flagJob.APIURL
	}
	if cmd.Flags().Changed("from") {
		job.Start = flagJob.Start
	}
	if cmd.Flags().Changed("to") {
		job.End = flagJob.End
	}
	if cmd.Flags().Changed("concurrency") {
		job.Concurrency = flagJob.Concurrency
	}
	if cmd.Flags().Changed("strict-versions") {
		job.StrictVersions = flagJob.StrictVersions
	}
	if cmd.Flags().Changed("fail-fast") {
		job.FailFast = flagJob.FailFast
	}
	if cmd.Flags().Changed("out") {
		job.Out = flagJob.Out
	}
	if cmd.Flags().Changed("cache-dir") {
		job.CacheDir = flagJob.CacheDir
	}

	if opts.API == nil {
		if err := job.Validate(); err != nil {
			return Job{}, err
		}
	}
	return job, nil
}

func runRevert(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	job := opts.Job
	api := opts.API
	if api == nil {
		api = remote.NewClient(job.APIURL)
	}

	log.Info("opening cache store", "dir", job.CacheDir)
	store, err := cache.Open(job.CacheDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open cache store", err)
	}
	defer store.Close()
	log.Debug("cache store created", "path", store.Path())

	ctx := cmd.Context()

	log.Info("caching deltas", "from", job.Start, "to", job.End, "concurrency", job.Concurrency)
	err = pipeline.Cache(ctx, pipeline.Config{
		Start:       job.Start,
		End:         job.End,
		Concurrency: job.Concurrency,
		Logger:      log,
	}, api, store)
	if err != nil {
		return WrapExitError(ExitFailure, "caching aborted", err)
	}

	cached, err := store.Count(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "cache unreadable", err)
	}
	log.Info("cache populated", "entities", cached)

	sink, closeSink, err := openSink(job.Out, cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open output", err)
	}

	sum, iterErr := pipeline.Iterate(ctx, store, sink, pipeline.IterateOptions{
		FailFast:       job.FailFast,
		StrictVersions: job.StrictVersions,
		Logger:         log,
	})
	if err := closeSink(); err != nil && iterErr == nil {
		iterErr = err
	}
	if iterErr != nil {
		return WrapExitError(ExitFailure, "revert stream aborted", iterErr)
	}

	log.Info("revert stream complete", "written", sum.Written, "skipped", sum.Skipped)
	if sum.Skipped > 0 {
		log.Warn("some entities were skipped", "skipped", sum.Skipped)
	}
	return nil
}

// openSink returns the writer for the inverse stream and its cleanup.
// Stdout is never closed; files are.
func openSink(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
