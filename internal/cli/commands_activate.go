package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/domain"
	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
	"github.com/storeops/cam-cli/internal/service/project"
	"github.com/storeops/cam-cli/internal/service/upload"
)

const activateFileName = "upload_items_data.csv"

func newActivateCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var selection selectionFlags
	var tuning fetchFlags
	var andonValue string
	var startDate string
	var endDate string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Build an upload that sets andon cord state for selected items.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			andon := strings.TrimSpace(andonValue)
			if andon != domain.AndonEnabled && andon != domain.AndonDisabled {
				return fmt.Errorf("--andon must be %s or %s", domain.AndonEnabled, domain.AndonDisabled)
			}
			if err := upload.ValidateTrackingDates(startDate, endDate); err != nil {
				return err
			}
			settings := resolveRuntime(cmd.Context(), deps, flags)
			auth := buildAuthContextWithProfile(cmd.Context(), deps, flags)
			if err := requireAuth(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, auth); err != nil {
				return err
			}

			result, err := fetchSelectedItems(cmd, deps, flags, selection, tuning, settings, format, auth)
			if err != nil {
				return err
			}
			rows := project.ProjectAll(result.Items, project.Context{
				ForceAndon:        true,
				AndonValue:        andon,
				TrackingStartDate: startDate,
				TrackingEndDate:   endDate,
			})
			fields := make([][]string, 0, len(rows))
			for _, row := range rows {
				fields = append(fields, row.Fields())
			}

			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			path, err := writer.Write(activateFileName, []byte(export.ToCSV(project.UploadHeaders, fields)))
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			warnings := fetchWarnings(result)
			if format == output.FormatTable {
				summary := fmt.Sprintf("Wrote %d records with Andon Cord %s to %s", len(rows), andon, path)
				for _, warning := range warnings {
					summary += "\nwarning: " + warning
				}
				return writeTable(cmd, summary, flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file":       path,
				"records":    len(rows),
				"andon_cord": andon,
			}, warnings, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	addSelectionFlags(cmd, &selection)
	addFetchFlags(cmd, &tuning)
	cmd.Flags().StringVar(&andonValue, "andon", domain.AndonEnabled, "Andon Cord value to force onto every row: Enabled or Disabled.")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Tracking start date (MM/DD/YYYY). Requires --end-date.")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Tracking end date (MM/DD/YYYY). Requires --start-date.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
