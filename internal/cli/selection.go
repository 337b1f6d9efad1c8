package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/domain"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
	"github.com/storeops/cam-cli/internal/service/directory"
	"github.com/storeops/cam-cli/internal/service/fetch"
	"github.com/storeops/cam-cli/internal/service/output"
)

// selectionFlags pick the store scope for bulk commands.
type selectionFlags struct {
	All     bool
	Stores  []string
	Regions []string
	PLUs    []string
}

func addSelectionFlags(cmd *cobra.Command, flags *selectionFlags) {
	cmd.Flags().BoolVar(&flags.All, "all", false, "Select every store in the directory.")
	cmd.Flags().StringSliceVar(&flags.Stores, "stores", nil, "Store three-letter codes to select (repeatable or comma separated).")
	cmd.Flags().StringSliceVar(&flags.Regions, "regions", nil, "Region short codes to select (repeatable or comma separated).")
	cmd.Flags().StringSliceVar(&flags.PLUs, "plus", nil, "Only keep records with these PLU/UPC scan codes (repeatable or comma separated).")
}

// fetchFlags tune the batched download pipeline.
type fetchFlags struct {
	BatchSize   int
	PageSize    int
	MaxAttempts int
	Concurrency int
}

func addFetchFlags(cmd *cobra.Command, flags *fetchFlags) {
	cmd.Flags().IntVar(&flags.BatchSize, "batch-size", 0, "Stores per availability request. Defaults to the profile batch size, then 10.")
	cmd.Flags().IntVar(&flags.PageSize, "page-size", 0, "Records requested per batch. Defaults to the profile page size, then 10000.")
	cmd.Flags().IntVar(&flags.MaxAttempts, "max-attempts", 0, "Attempts per batch before giving up. Defaults to the profile setting, then 10.")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", 0, "In-flight batch requests. 1 runs sequentially; defaults to 4.")
}

// fetchSelectedItems resolves the store selection and runs the batched
// fetch, streaming progress to stderr in table mode. Emitted errors are
// already rendered; callers return them as-is.
func fetchSelectedItems(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	selection selectionFlags,
	tuning fetchFlags,
	settings runtimeSettings,
	format output.Format,
	auth camgateway.AuthContext,
) (*fetch.Result, error) {
	parsed, err := directory.ParseSelection(selection.All, selection.Stores, selection.Regions)
	if err != nil {
		return nil, emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INVALID_ARGUMENT", err.Error())
	}

	resolver := directory.NewResolver(deps.CAM, deps.Logger)
	storeIDs, err := resolver.Resolve(cmd.Context(), parsed, auth)
	if err != nil {
		return nil, emitUpstreamError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, flags.Verbose, err)
	}
	if len(storeIDs) == 0 {
		return nil, emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INVALID_ARGUMENT", "selection matched no stores")
	}

	opts := fetch.Options{
		BatchSize:       settings.BatchSize,
		PageSize:        settings.PageSize,
		MaxAttempts:     settings.MaxAttempts,
		InterBatchDelay: fetch.DefaultInterBatchDelay,
		PLUFilter:       selection.PLUs,
	}
	if tuning.BatchSize > 0 {
		opts.BatchSize = tuning.BatchSize
	}
	if tuning.PageSize > 0 {
		opts.PageSize = tuning.PageSize
	}
	if tuning.MaxAttempts > 0 {
		opts.MaxAttempts = tuning.MaxAttempts
	}
	if tuning.Concurrency > 0 {
		opts.Concurrency = tuning.Concurrency
	}
	if format == output.FormatTable {
		opts.OnProgress = func(progress fetch.Progress) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "fetched %d/%d stores\n", progress.CompletedStores, progress.TotalStores)
		}
	}

	fetcher := fetch.NewFetcher(deps.CAM, deps.Logger)
	result, err := fetcher.FetchAll(cmd.Context(), storeIDs, auth, opts)
	if err != nil {
		return nil, emitUpstreamError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, flags.Verbose, err)
	}
	return result, nil
}

func fetchWarnings(result *fetch.Result) []string {
	warnings := append([]string{}, result.Warnings...)
	for _, batch := range result.FailedBatches {
		warnings = append(warnings, fmt.Sprintf("store batch %v exhausted its attempt budget and was skipped", batch))
	}
	return warnings
}

func andonEnabledOnly(items []domain.ItemAvailability) []domain.ItemAvailability {
	filtered := make([]domain.ItemAvailability, 0, len(items))
	for _, item := range items {
		if item.AndonCordState {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
