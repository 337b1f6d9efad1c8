package cli

import (
	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/service/directory"
	"github.com/storeops/cam-cli/internal/service/output"
)

func newStoresCommand(deps Dependencies) *cobra.Command {
	stores := &cobra.Command{
		Use:   "stores",
		Short: "Inspect the CAM store directory.",
	}
	stores.AddCommand(newStoresListCommand(deps))
	return stores
}

func newStoresListCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var region string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stores grouped by region with their activation state.",
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

			resolver := directory.NewResolver(deps.CAM, deps.Logger)
			records, err := resolver.List(cmd.Context(), auth)
			if err != nil {
				return emitUpstreamError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, flags.Verbose, err)
			}
			if region != "" {
				selection, selErr := directory.ParseSelection(false, nil, []string{region})
				if selErr != nil {
					return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INVALID_ARGUMENT", selErr.Error())
				}
				kept := records[:0]
				for _, record := range records {
					if selection.Matches(record) {
						kept = append(kept, record)
					}
				}
				records = kept
			}

			if format == output.FormatTable {
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{record.StoreTLC, record.StoreName, record.RegionCode, record.State})
				}
				return writeTable(cmd, output.RenderTable("CAM stores", []string{"Code", "Name", "Region", "State"}, rows), flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"stores": records,
				"count":  len(records),
			}, nil, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Only list stores in this region short code.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
