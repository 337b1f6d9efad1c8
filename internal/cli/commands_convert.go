package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/domain"
	"github.com/storeops/cam-cli/internal/service/convert"
	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
	"github.com/storeops/cam-cli/internal/service/project"
	"github.com/storeops/cam-cli/internal/service/upload"
)

const meatUploadFileName = "Inventory_Upload.csv"

func newConvertCommand(deps Dependencies) *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert external inventory sheets into upload files.",
	}
	convertCmd.AddCommand(newConvertMeatCommand(deps))
	return convertCmd
}

func newConvertMeatCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var inputPath string
	var andonValue string
	var startDate string
	var endDate string

	cmd := &cobra.Command{
		Use:   "meat",
		Short: "Unpivot a meat allocation sheet into an upload-schema CSV.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			if strings.TrimSpace(inputPath) == "" {
				return fmt.Errorf("%s", requiredArg("--file"))
			}
			andon := strings.TrimSpace(andonValue)
			if andon != domain.AndonEnabled && andon != domain.AndonDisabled {
				return fmt.Errorf("--andon must be %s or %s", domain.AndonEnabled, domain.AndonDisabled)
			}
			settings := resolveRuntime(cmd.Context(), deps, flags)

			content, err := os.ReadFile(inputPath)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", err.Error())
			}
			rawRows, err := upload.ReadRaw(inputPath, content)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", err.Error())
			}

			converter := convert.NewConverter(deps.Logger)
			rows := converter.Convert(rawRows, convert.Options{
				AndonCord: andon,
				StartDate: startDate,
				EndDate:   endDate,
			})
			if len(rows) == 0 {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", "no allocation blocks found in the sheet")
			}

			fields := make([][]string, 0, len(rows))
			for _, row := range rows {
				fields = append(fields, row.Fields())
			}
			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			path, err := writer.Write(meatUploadFileName, []byte(export.ToCSV(project.UploadHeaders, fields)))
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			if format == output.FormatTable {
				return writeTable(cmd, fmt.Sprintf("Converted %d upload rows to %s", len(rows), path), flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file": path,
				"rows": len(rows),
			}, nil, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	cmd.Flags().StringVar(&inputPath, "file", "", "Allocation sheet (.csv or .xlsx) to convert.")
	cmd.Flags().StringVar(&andonValue, "andon", domain.AndonEnabled, "Andon Cord value for every generated row: Enabled or Disabled.")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Tracking start date as YYYY-MM-DD.")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Tracking end date as YYYY-MM-DD.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
