package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/closureme/closureme/database"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for the mirror tool.
type Config struct {
	APIURL             string        `mapstructure:"api_url" validate:"omitempty,url"`
	ImageDownloadDir   string        `mapstructure:"image_download_dir"`
	MemoryDownloadDir  string        `mapstructure:"memory_download_dir"`
	ProfileDownloadDir string        `mapstructure:"profile_download_dir"`
	ModelDownloadDir   string        `mapstructure:"model_download_dir"`
	VoiceDownloadDir   string        `mapstructure:"voice_download_dir"`
	FBXUploadDir       string        `mapstructure:"fbx_upload_dir"`
	IndexOutputDir     string        `mapstructure:"index_output_dir"`
	Storage            StorageConfig `mapstructure:"storage"`
	Ledger             LedgerConfig  `mapstructure:"ledger"`
	Log                LogConfig     `mapstructure:"log"`
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Backend   string `mapstructure:"backend" validate:"required,oneof=s3 stowry"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Backend s3"`
	Region    string `mapstructure:"region" validate:"required"`
	Endpoint  string `mapstructure:"endpoint" validate:"required_if=Backend stowry"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LedgerConfig holds the transfer ledger settings.
// The ledger is only opened when Enabled is set.
type LedgerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	database.Config `mapstructure:",squash"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"api-url":        "api_url",
	"storage":        "storage.backend",
	"bucket":         "storage.bucket",
	"region":         "storage.region",
	"endpoint":       "storage.endpoint",
	"ledger":         "ledger.enabled",
	"ledger-type":    "ledger.type",
	"ledger-dsn":     "ledger.dsn",
	"log-level":      "log.level",
	"image-dir":      "image_download_dir",
	"memory-dir":     "memory_download_dir",
	"profile-dir":    "profile_download_dir",
	"model-dir":      "model_download_dir",
	"voice-dir":      "voice_download_dir",
	"fbx-dir":        "fbx_upload_dir",
	"index-dir":      "index_output_dir",
	"transfer-table": "ledger.tables.transfers",
}

// envAliases binds the environment names the original scripts read.
var envAliases = map[string]string{
	"api_url":            "API_URL",
	"storage.access_key": "AWS_ACCESS_KEY_ID",
	"storage.secret_key": "AWS_SECRET_ACCESS_KEY",
	"storage.bucket":     "AWS_S3_BUCKET",
	"storage.region":     "AWS_REGION",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// bindEnv binds CLOSUREME_ prefixed variables for every key and the
// unprefixed aliases. The prefixed form wins when both are set.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CLOSUREME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envAliases {
		_ = v.BindEnv(key, "CLOSUREME_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "")

	v.SetDefault("image_download_dir", "./downloads/images")
	v.SetDefault("memory_download_dir", "./downloads/memory")
	v.SetDefault("profile_download_dir", "./downloads/profile")
	v.SetDefault("model_download_dir", "./downloads/model")
	v.SetDefault("voice_download_dir", "./downloads/voice")
	v.SetDefault("fbx_upload_dir", "./fbx")
	v.SetDefault("index_output_dir", "")

	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.bucket", "closureme-assets")
	v.SetDefault("storage.region", "ap-east-2")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")

	v.SetDefault("ledger.enabled", false)
	v.SetDefault("ledger.type", "sqlite")
	v.SetDefault("ledger.dsn", "closureme.db")
	v.SetDefault("ledger.tables.transfers", "closureme_transfers")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	bindEnv(v)

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Ledger.Enabled {
		if err := cfg.Ledger.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	return &cfg, nil
}
