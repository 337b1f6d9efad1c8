package domain

// Profile stores per-user CAM session defaults.
type Profile struct {
	Name        string   `json:"name"`
	IsDefault   bool     `json:"is_default"`
	Environment string   `json:"environment,omitempty"`
	Cookies     []string `json:"cookies,omitempty"`
	OutputDir   string   `json:"output_dir,omitempty"`
	BatchSize   int      `json:"batch_size,omitempty"`
	PageSize    int      `json:"page_size,omitempty"`
	MaxAttempts int      `json:"max_attempts,omitempty"`
}

// Config stores all local profiles.
type Config struct {
	Profiles []Profile `json:"profiles"`
}
