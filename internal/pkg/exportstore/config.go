package exportstore

import (
	"errors"
	"fmt"

	"github.com/launchcrm/launchcrm/internal/pkg/env"
)

// Config holds export storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads export storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("EXPORT_STORE_ENABLED", "false") == "true",
	}

	// Validate required fields if the export store is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the export store is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the export store is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the export store is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the export store is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// GetObjectKey generates a standardized S3 object key for a data export.
// Exports are grouped by company so a tenant's exports can be listed or
// purged together.
func (c *Config) GetObjectKey(companyID, userID uint, exportID string, year, month int) string {
	// Format: exports/YYYY/MM/company-ID/user-ID-exportID.json
	return fmt.Sprintf("exports/%04d/%02d/company-%d/user-%d-%s.json", year, month, companyID, userID, exportID)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}

// GetBucketName returns the bucket name as configured (no automatic prefixing)
func (c *Config) GetBucketName() string {
	return c.BucketName
}
