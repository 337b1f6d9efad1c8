package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
	"github.com/storeops/cam-cli/internal/service/upload"
)

const chunkZipName = "chunked_files.zip"

func newChunkCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var inputPath string
	var rowsPerChunk int
	var skipHeaderCheck bool

	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Split an upload file into a zip of smaller upload chunks.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			if strings.TrimSpace(inputPath) == "" {
				return fmt.Errorf("%s", requiredArg("--file"))
			}
			if rowsPerChunk <= 0 {
				return fmt.Errorf("--rows must be positive")
			}
			settings := resolveRuntime(cmd.Context(), deps, flags)

			content, err := os.ReadFile(inputPath)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", err.Error())
			}
			table, err := upload.Parse(inputPath, content, upload.Options{ValidateHeader: !skipHeaderCheck})
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INPUT_ERROR", err.Error())
			}

			full := export.ToCSV(table.Header, table.Rows)
			chunks := export.SplitChunks(full, rowsPerChunk)
			files := make([]export.File, 0, len(chunks))
			for i, chunk := range chunks {
				files = append(files, export.File{
					Name:    fmt.Sprintf("chunk_%d.csv", i+1),
					Content: []byte(chunk),
				})
			}
			archive, err := export.BuildZip(files)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}
			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			path, err := writer.Write(chunkZipName, archive)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			if format == output.FormatTable {
				return writeTable(cmd, fmt.Sprintf("Split %d rows into %d chunks at %s", len(table.Rows), len(chunks), path), flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file":   path,
				"rows":   len(table.Rows),
				"chunks": len(chunks),
			}, nil, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	cmd.Flags().StringVar(&inputPath, "file", "", "Upload CSV or XLSX file to split.")
	cmd.Flags().IntVar(&rowsPerChunk, "rows", export.DefaultChunkRows, "Maximum data rows per chunk.")
	cmd.Flags().BoolVar(&skipHeaderCheck, "skip-header-check", false, "Accept files whose header does not match the upload schema.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
