package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/service/desync"
	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
	"github.com/storeops/cam-cli/internal/service/upload"
)

const desyncFileName = "Desynced_Items.xlsx"

func newDesyncCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var selection selectionFlags
	var tuning fetchFlags
	var listingPath string

	cmd := &cobra.Command{
		Use:   "desync",
		Short: "Find items whose andon cord state disagrees with a merchant listing export.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			if strings.TrimSpace(listingPath) == "" {
				return fmt.Errorf("%s", requiredArg("--listing"))
			}
			settings := resolveRuntime(cmd.Context(), deps, flags)
			auth := buildAuthContextWithProfile(cmd.Context(), deps, flags)
			if err := requireAuth(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, auth); err != nil {
				return err
			}

			content, err := os.ReadFile(listingPath)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", err.Error())
			}
			table, err := upload.Parse(listingPath, content, upload.Options{})
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", err.Error())
			}
			listings, err := desync.ParseListingTable(table.Header, table.Rows)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", err.Error())
			}

			result, err := fetchSelectedItems(cmd, deps, flags, selection, tuning, settings, format, auth)
			if err != nil {
				return err
			}

			detection := desync.NewDetector(deps.Logger).Detect(result.Items, listings)
			fields := make([][]string, 0, len(detection.Rows))
			for _, row := range detection.Rows {
				fields = append(fields, row.Fields())
			}
			workbook, buildErr := export.BuildWorkbook("Desynced Items", desync.ReportHeaders, fields)
			if buildErr != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", buildErr.Error())
			}
			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			path, err := writer.Write(desyncFileName, workbook)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			warnings := fetchWarnings(result)
			if detection.UnmatchedListings > 0 {
				warnings = append(warnings, fmt.Sprintf("%d listing rows had no CAM counterpart", detection.UnmatchedListings))
			}
			if detection.UnmatchedItems > 0 {
				warnings = append(warnings, fmt.Sprintf("%d CAM items were absent from the listing export", detection.UnmatchedItems))
			}

			if format == output.FormatTable {
				summary := fmt.Sprintf("Found %d desynced items, report at %s", len(detection.Rows), path)
				for _, warning := range warnings {
					summary += "\nwarning: " + warning
				}
				return writeTable(cmd, summary, flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file":       path,
				"mismatches": len(detection.Rows),
			}, warnings, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	addSelectionFlags(cmd, &selection)
	addFetchFlags(cmd, &tuning)
	cmd.Flags().StringVar(&listingPath, "listing", "", "Merchant listing-status export (.csv or .xlsx) to compare against.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
