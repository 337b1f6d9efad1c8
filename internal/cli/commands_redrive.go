package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
	"github.com/storeops/cam-cli/internal/service/project"
)

const redriveZipName = "RedriveFiles.zip"

func newRedriveCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var selection selectionFlags
	var tuning fetchFlags
	var allPLUs bool

	cmd := &cobra.Command{
		Use:   "redrive",
		Short: "Build a restore/redrive upload pair that flips and restores andon cord state.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			if len(selection.PLUs) == 0 && !allPLUs {
				return fmt.Errorf("%s", requiredArg("--plus"))
			}
			if allPLUs {
				selection.PLUs = nil
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
			if len(result.Items) == 0 {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INVALID_ARGUMENT", "no records matched the PLU selection")
			}

			restoreRows := make([][]string, 0, len(result.Items))
			redriveRows := make([][]string, 0, len(result.Items))
			for _, item := range result.Items {
				pair := project.ProjectToggle(item, project.Context{})
				restoreRows = append(restoreRows, pair.Restore.Fields())
				redriveRows = append(redriveRows, pair.Redrive.Fields())
			}

			restoreCSV := export.ToCSV(project.UploadHeaders, restoreRows)
			redriveCSV := export.ToCSV(project.UploadHeaders, redriveRows)
			files := export.ChunkedZipFiles("Redrive Restore", restoreCSV, export.DefaultChunkRows)
			files = append(files, export.ChunkedZipFiles("Redrive", redriveCSV, export.DefaultChunkRows)...)
			archive, err := export.BuildZip(files)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			path, err := writer.Write(redriveZipName, archive)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			warnings := fetchWarnings(result)
			if format == output.FormatTable {
				summary := fmt.Sprintf("Wrote %d record pairs to %s", len(result.Items), path)
				summary += "\nUpload Redrive.csv first, then Redrive Restore.csv to return items to their recorded state."
				for _, warning := range warnings {
					summary += "\nwarning: " + warning
				}
				return writeTable(cmd, summary, flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file":    path,
				"records": len(result.Items),
			}, warnings, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	cmd.Flags().BoolVar(&allPLUs, "all-plus", false, "Redrive every item in the selected stores instead of a --plus list.")
	addSelectionFlags(cmd, &selection)
	addFetchFlags(cmd, &tuning)
	addGlobalFlags(cmd, &flags)
	return cmd
}
