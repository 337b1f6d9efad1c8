package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
	"github.com/storeops/cam-cli/internal/service/project"
)

const downloadFileName = "Cam_Item_Data.csv"

func newDownloadCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var selection selectionFlags
	var tuning fetchFlags
	var asXLSX bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download item availability for selected stores into an upload-schema file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
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
			rows := project.ProjectAll(result.Items, project.Context{})

			fields := make([][]string, 0, len(rows))
			for _, row := range rows {
				fields = append(fields, row.Fields())
			}
			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			var path string
			if asXLSX {
				workbook, buildErr := export.BuildWorkbook("Item Data", project.UploadHeaders, fields)
				if buildErr != nil {
					return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", buildErr.Error())
				}
				path, err = writer.Write("Cam_Item_Data.xlsx", workbook)
			} else {
				path, err = writer.Write(downloadFileName, []byte(export.ToCSV(project.UploadHeaders, fields)))
			}
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			warnings := fetchWarnings(result)
			if format == output.FormatTable {
				summary := fmt.Sprintf("Wrote %d records to %s", len(rows), path)
				for _, warning := range warnings {
					summary += "\nwarning: " + warning
				}
				return writeTable(cmd, summary, flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file":    path,
				"records": len(rows),
			}, warnings, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	addSelectionFlags(cmd, &selection)
	addFetchFlags(cmd, &tuning)
	cmd.Flags().BoolVar(&asXLSX, "xlsx", false, "Write an XLSX workbook instead of CSV.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
