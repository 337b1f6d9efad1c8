package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/service/audit"
	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/output"
)

const auditFileName = "AuditHistoryData.xlsx"

func newAuditCommand(deps Dependencies) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Compile item audit-history reports.",
	}
	auditCmd.AddCommand(newAuditPullCommand(deps))
	return auditCmd
}

func newAuditPullCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var selection selectionFlags
	var tuning fetchFlags
	var resolveASIN bool
	var includeDisabled bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Walk audit history for selected items and write an XLSX report.",
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
			items := result.Items
			if !includeDisabled {
				items = andonEnabledOnly(items)
			}
			if len(items) == 0 {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_INVALID_ARGUMENT", "no items matched the selection; pass --include-disabled to audit items without an active andon cord")
			}

			puller := audit.NewPuller(deps.CAM, deps.Logger)
			opts := audit.Options{ResolveASIN: resolveASIN}
			if format == output.FormatTable {
				opts.OnProgress = func(done, total int) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "audited %d/%d items\n", done, total)
				}
			}
			rows, pullErr := puller.Pull(cmd.Context(), items, auth, opts)
			if pullErr != nil && len(rows) == 0 {
				return emitUpstreamError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, flags.Verbose, pullErr)
			}

			warnings := fetchWarnings(result)
			if pullErr != nil {
				warnings = append(warnings, "audit walk stopped early; the report is partial")
			}

			fields := make([][]string, 0, len(rows))
			for _, row := range rows {
				fields = append(fields, row.Fields())
			}
			workbook, buildErr := export.BuildWorkbook("Audit History", audit.ReportHeaders, fields)
			if buildErr != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", buildErr.Error())
			}
			writer := export.NewWriter(settings.OutputDir, deps.Logger)
			path, err := writer.Write(auditFileName, workbook)
			if err != nil {
				return emitError(cmd, format, settings.ProfileLabel, settings.Environment, flags.Output, "CAM_EXPORT_ERROR", err.Error())
			}

			if format == output.FormatTable {
				summary := fmt.Sprintf("Wrote %d audit events for %d items to %s", len(rows), len(items), path)
				for _, warning := range warnings {
					summary += "\nwarning: " + warning
				}
				return writeTable(cmd, summary, flags.Output)
			}
			env := output.BuildEnvelope(settings.ProfileLabel, settings.Environment, map[string]any{
				"file":   path,
				"events": len(rows),
				"items":  len(items),
			}, warnings, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	addSelectionFlags(cmd, &selection)
	addFetchFlags(cmd, &tuning)
	cmd.Flags().BoolVar(&resolveASIN, "resolve-asin", false, "Look up each item's ASIN via the singular item endpoint (noticeably slower).")
	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "Audit every selected item instead of only those with the andon cord enabled.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
