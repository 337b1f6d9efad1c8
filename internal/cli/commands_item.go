package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
)

const itemResolveFileName = "plu_to_asin_data.csv"

func newItemCommand(deps Dependencies) *cobra.Command {
	item := &cobra.Command{
		Use:   "item",
		Short: "Inspect individual items.",
	}
	item.AddCommand(newItemResolveCommand(deps))
	return item
}

func newItemResolveCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var store string
	var plus []string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve PLU/UPC scan codes to ASINs for one store.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			if strings.TrimSpace(store) == "" {
				return fmt.Errorf("%s", requiredArg("--store"))
			}
			codes := splitScanCodes(plus)
			if len(codes) == 0 {
				return fmt.Errorf("%s", requiredArg("--plus"))
			}
			settings := resolveRuntime(cmd.Context(), deps, flags)
			auth := buildAuthContextWithProfile(cmd.Context(), deps, flags)
			if err := requireAuth(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, auth); err != nil {
				return err
			}

			// Lookup failures keep their slot in the output with "error"
			// markers so the result lines up with the requested codes.
			rows := make([][]string, 0, len(codes))
			for _, code := range codes {
				detail, lookupErr := deps.CAM.ItemAvailability(cmd.Context(), store, code, auth)
				if lookupErr != nil || detail == nil {
					rows = append(rows, []string{code, "error", "error", "error"})
					continue
				}
				rows = append(rows, []string{
					code,
					fallbackValue(detail.ASIN),
					fallbackValue(detail.MerchantID),
					fallbackValue(detail.ItemName),
				})
			}

			lines := make([]string, 0, len(rows)+1)
			lines = append(lines, "PLU,ASIN,Merchant ID,Item Name")
			for _, row := range rows {
				lines = append(lines, strings.Join(row, ","))
			}
			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			path, err := writer.Write(itemResolveFileName, []byte(strings.Join(lines, "\n")))
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			if format == output.FormatTable {
				table := output.RenderTable("PLU to ASIN: "+store, []string{"PLU", "ASIN", "Merchant ID", "Item Name"}, rows)
				return writeTable(cmd, table+"\n\nWrote "+path, flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file":  path,
				"store": store,
				"items": len(rows),
			}, nil, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "Store three-letter code to resolve against.")
	cmd.Flags().StringSliceVar(&plus, "plus", nil, "PLU/UPC scan codes to resolve (repeatable or comma separated).")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func splitScanCodes(raw []string) []string {
	codes := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			code := strings.TrimSpace(part)
			if code == "" {
				continue
			}
			codes = append(codes, code)
		}
	}
	return codes
}

func fallbackValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "error"
	}
	return value
}
