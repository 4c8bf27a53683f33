package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unalkalkan/folio/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. FOLIO_SERVER_PORT.
const EnvPrefix = "FOLIO_"

// Load reads the YAML file at configPath on top of GetDefault, applies
// FOLIO_ environment overrides and validates the result. An empty
// configPath skips the file.
func Load(configPath string) (*types.Config, error) {
	cfg := GetDefault()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process
// environment without replacing variables that are already set. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks cfg and fills in defaults for optional settings
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}

	switch cfg.Storage.Adapter {
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return errors.New("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return errors.New("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return errors.New("s3 region is required")
		}
	default:
		return fmt.Errorf("invalid storage adapter: %q (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Library.MaxUploadMB < 0 {
		return fmt.Errorf("invalid library max_upload_mb: %d", cfg.Library.MaxUploadMB)
	}

	if cfg.Extraction.Scheme == "" {
		cfg.Extraction.Scheme = "epub://"
	}
	if !strings.HasSuffix(cfg.Extraction.Scheme, "://") {
		return fmt.Errorf("extraction scheme must end in \"://\": %q", cfg.Extraction.Scheme)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "":
		cfg.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "":
		cfg.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %q", cfg.Logging.Format)
	}

	return nil
}

// applyEnvOverrides applies FOLIO_ environment variables to cfg
func applyEnvOverrides(cfg *types.Config) error {
	strs := map[string]*string{
		"SERVER_HOST":                  &cfg.Server.Host,
		"STORAGE_ADAPTER":              &cfg.Storage.Adapter,
		"STORAGE_LOCAL_BASE_PATH":      &cfg.Storage.Local.BasePath,
		"STORAGE_S3_ENDPOINT":          &cfg.Storage.S3.Endpoint,
		"STORAGE_S3_REGION":            &cfg.Storage.S3.Region,
		"STORAGE_S3_BUCKET":            &cfg.Storage.S3.Bucket,
		"STORAGE_S3_PREFIX":            &cfg.Storage.S3.Prefix,
		"STORAGE_S3_ACCESS_KEY_ID":     &cfg.Storage.S3.AccessKeyID,
		"STORAGE_S3_SECRET_ACCESS_KEY": &cfg.Storage.S3.SecretAccessKey,
		"EXTRACTION_SCHEME":            &cfg.Extraction.Scheme,
		"LOGGING_LEVEL":                &cfg.Logging.Level,
		"LOGGING_FORMAT":               &cfg.Logging.Format,
	}
	for name, dst := range strs {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			*dst = val
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":           &cfg.Server.Port,
		"SERVER_READ_TIMEOUT":   &cfg.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":  &cfg.Server.WriteTimeout,
		"LIBRARY_MAX_UPLOAD_MB": &cfg.Library.MaxUploadMB,
	}
	for name, dst := range ints {
		val := os.Getenv(EnvPrefix + name)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q", EnvPrefix, name, val)
		}
		*dst = n
	}
	return nil
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 60,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/folio",
			},
		},
		Library: types.LibraryConfig{
			MaxUploadMB: 100,
		},
		Extraction: types.ExtractionConfig{
			Scheme: "epub://",
		},
		Logging: types.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
