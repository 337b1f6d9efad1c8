package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storeops/cam-cli/internal/domain"
)

func newConfigureCommand(deps Dependencies) *cobra.Command {
	var profileName string
	var environment string
	var cookies []string
	var outputDir string
	var batchSize int
	var pageSize int
	var maxAttempts int
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create and manage local profile configuration.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cookieInputs := normalizeCookieInputs(cookies)

			existingCfg, loadErr := deps.Config.Load(cmd.Context())
			hasExisting := loadErr == nil
			if hasExisting && !overwrite {
				if len(cookieInputs) == 0 && strings.TrimSpace(environment) == "" && strings.TrimSpace(outputDir) == "" && batchSize == 0 && pageSize == 0 && maxAttempts == 0 {
					return fmt.Errorf("provide --cookie, --cam-env, --out-dir, or a tuning flag to update the profile")
				}
				index := findProfileIndex(existingCfg, profileName)
				if index < 0 {
					return fmt.Errorf("profile %q not found in existing config", profileName)
				}
				if len(cookieInputs) > 0 {
					existingCfg.Profiles[index].Cookies = cookieInputs
				}
				if strings.TrimSpace(environment) != "" {
					existingCfg.Profiles[index].Environment = strings.TrimSpace(environment)
				}
				if strings.TrimSpace(outputDir) != "" {
					existingCfg.Profiles[index].OutputDir = strings.TrimSpace(outputDir)
				}
				if batchSize > 0 {
					existingCfg.Profiles[index].BatchSize = batchSize
				}
				if pageSize > 0 {
					existingCfg.Profiles[index].PageSize = pageSize
				}
				if maxAttempts > 0 {
					existingCfg.Profiles[index].MaxAttempts = maxAttempts
				}
				if err := deps.Config.Save(cmd.Context(), existingCfg); err != nil {
					return err
				}
				return writeTable(cmd, "🏁 Config updated successfully!", "")
			}

			cfg := domain.Config{
				Profiles: []domain.Profile{
					{
						Name:        defaultProfileName(profileName),
						IsDefault:   true,
						Environment: strings.TrimSpace(environment),
						Cookies:     cookieInputs,
						OutputDir:   strings.TrimSpace(outputDir),
						BatchSize:   batchSize,
						PageSize:    pageSize,
						MaxAttempts: maxAttempts,
					},
				},
			}
			if err := deps.Config.Save(cmd.Context(), cfg); err != nil {
				return err
			}
			return writeTable(cmd, "🏁 Config was created successfully!", "")
		},
	}

	cmd.Flags().StringVar(&profileName, "profile-name", "Default", "Profile name")
	cmd.Flags().StringVar(&environment, "cam-env", "", "CAM backend stage saved with the profile: prod or gamma.")
	cmd.Flags().StringArrayVar(&cookies, "cookie", nil, "CAM session cookie saved with the profile (repeatable).")
	cmd.Flags().StringVar(&outputDir, "out-dir", "", "Default directory for generated files.")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Default stores per availability request.")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Default records requested per batch.")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Default attempts per batch before giving up.")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing config")
	return cmd
}

func findProfileIndex(cfg domain.Config, profileName string) int {
	trimmed := strings.TrimSpace(profileName)
	if trimmed != "" {
		for i, profile := range cfg.Profiles {
			if strings.EqualFold(strings.TrimSpace(profile.Name), trimmed) {
				return i
			}
		}
	}
	for i, profile := range cfg.Profiles {
		if profile.IsDefault {
			return i
		}
	}
	if len(cfg.Profiles) == 1 {
		return 0
	}
	return -1
}
