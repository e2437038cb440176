// Package config loads the Sluice process configuration from environment
// variables, following the 12-factor methodology. The CLI loads a local
// .env file first, so development and deployment read the same knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the complete process configuration.
type Config struct {
	// ProjectID is the Google Cloud project jobs are submitted to.
	ProjectID string

	// Region is the region jobs run in.
	Region string

	// BucketPath is the gs:// path used for staging, temp, and archival.
	BucketPath string

	// Templates configures the catalog source tree.
	Templates TemplateConfig

	// Model configures the completion service used for template matching.
	Model ModelConfig

	// ServerPort is the port `sluice serve` listens on.
	ServerPort string
}

// TemplateConfig locates the template catalog.
type TemplateConfig struct {
	// RepoURL is the upstream template source tree.
	RepoURL string

	// Branch to track; "main" when unset.
	Branch string

	// WorkDir is the local working-copy path.
	WorkDir string

	// MappingPath is the flat mapping file enumerating templates: a path
	// relative to the working copy, or a gs:// URI.
	MappingPath string
}

// ModelConfig selects the hosted completion model.
type ModelConfig struct {
	// Name is the model identifier (e.g. "gemini-2.5-pro").
	Name string

	// Location is the Vertex AI region.
	Location string
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ProjectID:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Region:     getEnvOrDefault("SLUICE_REGION", "us-central1"),
		BucketPath: os.Getenv("SLUICE_BUCKET_PATH"),
		Templates: TemplateConfig{
			RepoURL:     getEnvOrDefault("SLUICE_TEMPLATE_REPO_URL", "https://github.com/GoogleCloudPlatform/DataflowTemplates"),
			Branch:      getEnvOrDefault("SLUICE_TEMPLATE_BRANCH", "main"),
			WorkDir:     getEnvOrDefault("SLUICE_TEMPLATE_WORKDIR", filepath.Join(os.TempDir(), "sluice", "templates")),
			MappingPath: getEnvOrDefault("SLUICE_TEMPLATE_MAPPING", "template_mapping.json"),
		},
		Model: ModelConfig{
			Name:     getEnvOrDefault("SLUICE_MODEL", "gemini-2.5-pro"),
			Location: getEnvOrDefault("GOOGLE_CLOUD_LOCATION", "us-central1"),
		},
		ServerPort: getEnvOrDefault("SLUICE_PORT", "8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that every required knob is set.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.BucketPath == "" {
		return fmt.Errorf("SLUICE_BUCKET_PATH is required")
	}
	if c.Templates.RepoURL == "" {
		return fmt.Errorf("SLUICE_TEMPLATE_REPO_URL must not be empty")
	}
	if c.Templates.MappingPath == "" {
		return fmt.Errorf("SLUICE_TEMPLATE_MAPPING must not be empty")
	}
	return nil
}

// StagingLocation is the staging path under the configured bucket.
func (c *Config) StagingLocation() string {
	return c.BucketPath + "/staging"
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
