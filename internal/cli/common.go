package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
	"github.com/storeops/cam-cli/internal/service/fetch"
	"github.com/storeops/cam-cli/internal/service/output"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

type globalFlags struct {
	Format      string
	Profile     string
	Environment string
	Cookies     []string
	OutputDir   string
	Output      string
	Verbose     bool
}

const sharedGlobalFlagAnnotation = "cam_cli_shared_global"

func addGlobalFlags(cmd *cobra.Command, flags *globalFlags) {
	addSharedGlobalFlag(cmd, "format", func() {
		cmd.Flags().StringVar(&flags.Format, "format", "table", "Output format: table, json, or yaml.")
	})
	addSharedGlobalFlag(cmd, "profile", func() {
		cmd.Flags().StringVar(&flags.Profile, "profile", "", "Profile name for saved local defaults.")
	})
	addSharedGlobalFlag(cmd, "env", func() {
		cmd.Flags().StringVar(&flags.Environment, "env", "", "CAM backend stage: prod or gamma. Defaults to the profile environment, then prod.")
	})
	addSharedGlobalFlag(cmd, "cookie", func() {
		cmd.Flags().StringArrayVar(&flags.Cookies, "cookie", nil, "CAM session cookie header value to forward (repeatable).")
	})
	addSharedGlobalFlag(cmd, "output-dir", func() {
		cmd.Flags().StringVar(&flags.OutputDir, "output-dir", "", "Directory for generated report and upload files. Defaults to the profile output dir, then the working directory.")
	})
	addSharedGlobalFlag(cmd, "output", func() {
		cmd.Flags().StringVar(&flags.Output, "output", "", "Also write the rendered command output to this file path.")
	})
	addSharedGlobalFlag(cmd, "verbose", func() {
		cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output (prints upstream request trace and detailed error diagnostics).")
	})
}

func addSharedGlobalFlag(cmd *cobra.Command, name string, register func()) {
	if cmd.Flags().Lookup(name) != nil {
		return
	}
	register()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	if flag.Annotations == nil {
		flag.Annotations = map[string][]string{}
	}
	flag.Annotations[sharedGlobalFlagAnnotation] = []string{"true"}
}

// runtimeSettings is the merged view of profile defaults and flag overrides
// for one command invocation. Flags always win.
type runtimeSettings struct {
	ProfileLabel string
	Environment  string
	OutputDir    string
	BatchSize    int
	PageSize     int
	MaxAttempts  int
}

func resolveRuntime(ctx context.Context, deps Dependencies, flags globalFlags) runtimeSettings {
	settings := runtimeSettings{
		ProfileLabel: resolveProfileLabel(flags.Profile),
		Environment:  camgateway.EnvironmentProd,
		OutputDir:    ".",
		BatchSize:    fetch.DefaultBatchSize,
		PageSize:     fetch.DefaultPageSize,
		MaxAttempts:  fetch.DefaultMaxAttempts,
	}
	if deps.Profiles != nil {
		if profile, err := deps.Profiles.Find(ctx, flags.Profile); err == nil {
			settings.ProfileLabel = profile.Name
			if strings.TrimSpace(profile.Environment) != "" {
				settings.Environment = profile.Environment
			}
			if strings.TrimSpace(profile.OutputDir) != "" {
				settings.OutputDir = profile.OutputDir
			}
			if profile.BatchSize > 0 {
				settings.BatchSize = profile.BatchSize
			}
			if profile.PageSize > 0 {
				settings.PageSize = profile.PageSize
			}
			if profile.MaxAttempts > 0 {
				settings.MaxAttempts = profile.MaxAttempts
			}
		}
	}
	if strings.TrimSpace(flags.Environment) != "" {
		settings.Environment = strings.TrimSpace(flags.Environment)
	}
	if strings.TrimSpace(flags.OutputDir) != "" {
		settings.OutputDir = flags.OutputDir
	}
	applyEnvironment(deps.CAM, settings.Environment)
	return settings
}

type environmentSetter interface {
	SetEnvironment(environment string)
}

func applyEnvironment(upstream any, environment string) {
	if upstream == nil {
		return
	}
	setter, ok := upstream.(environmentSetter)
	if !ok {
		return
	}
	setter.SetEnvironment(environment)
}

func resolveProfileLabel(profileName string) string {
	profile := strings.TrimSpace(profileName)
	if profile == "" {
		return "anonymous"
	}
	return profile
}

func parseOutputFormat(format string) (output.Format, error) {
	return output.ParseFormat(format)
}

func writeTable(cmd *cobra.Command, text string, outputPath string) error {
	return output.WriteOutput(cmd.OutOrStdout(), text, outputPath)
}

func writeMachinePayload(cmd *cobra.Command, env output.Envelope, format output.Format, outputPath string) error {
	rendered, err := output.RenderPayload(env, format)
	if err != nil {
		return err
	}
	return output.WriteOutput(cmd.OutOrStdout(), rendered, outputPath)
}

func emitError(
	cmd *cobra.Command,
	format output.Format,
	profile string,
	environment string,
	outputPath string,
	code string,
	message string,
) error {
	if format == output.FormatTable {
		if err := output.WriteOutput(cmd.OutOrStdout(), message, outputPath); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	env := output.BuildEnvelope(profile, environment, nil, []string{}, map[string]any{
		"code":    code,
		"message": message,
	})
	if err := writeMachinePayload(cmd, env, format, outputPath); err != nil {
		return err
	}
	return &exitError{code: 1}
}

func emitUpstreamError(
	cmd *cobra.Command,
	format output.Format,
	profile string,
	environment string,
	outputPath string,
	verbose bool,
	err error,
) error {
	if err == nil {
		err = camgateway.ErrUpstream
	}
	if verbose {
		return emitError(cmd, format, profile, environment, outputPath, "CAM_UPSTREAM_ERROR", err.Error())
	}

	message := camgateway.ErrUpstream.Error() + " (use --verbose for details)"
	var upstreamErr *camgateway.UpstreamRequestError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode > 0 {
		message = fmt.Sprintf("%s (status %d, use --verbose for details)", camgateway.ErrUpstream.Error(), upstreamErr.StatusCode)
	}
	return emitError(cmd, format, profile, environment, outputPath, "CAM_UPSTREAM_ERROR", message)
}

func requiredArg(name string) string {
	return fmt.Sprintf("%s is required", name)
}

func normalizeCookieInputs(raw []string) []string {
	cookies := make([]string, 0, len(raw))
	for _, cookie := range raw {
		trimmed := strings.TrimSpace(cookie)
		if trimmed == "" {
			continue
		}
		cookies = append(cookies, trimmed)
	}
	return cookies
}

func buildAuthContext(flags globalFlags) camgateway.AuthContext {
	return camgateway.AuthContext{
		Cookies: normalizeCookieInputs(flags.Cookies),
	}
}

func buildAuthContextWithProfile(ctx context.Context, deps Dependencies, flags globalFlags) camgateway.AuthContext {
	auth := buildAuthContext(flags)
	if len(auth.Cookies) > 0 || deps.Profiles == nil {
		return auth
	}
	profile, err := deps.Profiles.Find(ctx, flags.Profile)
	if err != nil {
		return auth
	}
	auth.Cookies = normalizeCookieInputs(profile.Cookies)
	return auth
}

func requireAuth(
	cmd *cobra.Command,
	format output.Format,
	profile string,
	environment string,
	outputPath string,
	auth camgateway.AuthContext,
) error {
	if auth.HasCredentials() {
		return nil
	}
	return emitError(
		cmd,
		format,
		profile,
		environment,
		outputPath,
		"CAM_AUTH_REQUIRED",
		"Authentication is required. Provide at least one --cookie or configure a profile with session cookies.",
	)
}

func defaultProfileName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "default"
	}
	return trimmed
}
