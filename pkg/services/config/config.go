package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/services/extract"
)

const EnvPrefix = "TRANSPARENCY"

type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

// InputConfig locates the category exports: a local directory or an S3 prefix.
type InputConfig struct {
	Dir      string   `mapstructure:"dir"`
	Manifest string   `mapstructure:"manifest" validate:"omitempty,file"`
	S3       S3Config `mapstructure:"s3"`
}

type OutputConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats" validate:"dive,oneof=csv xlsx"`
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	Profile string `mapstructure:"profile"`
	Region  string `mapstructure:"region"`
}

type AnalysisConfig struct {
	TopN         int      `mapstructure:"top_n" validate:"gte=1"`
	ZeroDivision string   `mapstructure:"zero_division" validate:"oneof=nan zero"`
	Workers      int      `mapstructure:"workers" validate:"gte=1,lte=64"`
	Categories   []string `mapstructure:"categories" validate:"dive,category"`
}

type StoreConfig struct {
	DbPath string `mapstructure:"db_path"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.dir", "")
	v.SetDefault("input.manifest", "")
	v.SetDefault("input.s3.bucket", "")
	v.SetDefault("input.s3.prefix", "")
	v.SetDefault("input.s3.profile", "")
	v.SetDefault("input.s3.region", "")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.formats", []string{"csv"})
	v.SetDefault("output.s3.bucket", "")
	v.SetDefault("output.s3.prefix", "")
	v.SetDefault("output.s3.profile", "")
	v.SetDefault("output.s3.region", "")
	v.SetDefault("analysis.top_n", 10)
	v.SetDefault("analysis.zero_division", string(extract.ZeroDivisionNaN))
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.categories", []string{})
	v.SetDefault("store.db_path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("server.addr", ":8080")
}

// Load reads the configuration like Read and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadServe reads the configuration like Read and validates only what serving
// stored reports needs, so no input or output location is required.
func LoadServe(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads the YAML file at path, if any, and applies TRANSPARENCY_*
// environment overrides (e.g. TRANSPARENCY_ANALYSIS_TOP_N). Callers layering
// flags on top validate once they are applied.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(InputConfig)
		if in.Dir == "" && in.S3.Bucket == "" {
			sl.ReportError(in.Dir, "Dir", "dir", "dir_or_bucket", "")
		}
	}, InputConfig{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		out := sl.Current().Interface().(OutputConfig)
		if out.Dir == "" && out.S3.Bucket == "" {
			sl.ReportError(out.Dir, "Dir", "dir", "dir_or_bucket", "")
		}
	}, OutputConfig{})
	return v
}

func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateServe checks the server and logging sections only.
func (c *Config) ValidateServe() error {
	v := newValidator()
	if err := v.Struct(c.Server); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := v.Struct(c.Logging); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ZeroDivision returns the configured division-by-zero policy.
func (c *Config) ZeroDivision() extract.ZeroDivision {
	p, err := extract.ParseZeroDivision(c.Analysis.ZeroDivision)
	if err != nil {
		return extract.ZeroDivisionNaN
	}
	return p
}

// Categories returns the configured categories, or all of them when none
// are listed.
func (c *Config) Categories() []domain.Category {
	if len(c.Analysis.Categories) == 0 {
		return append([]domain.Category(nil), domain.Categories...)
	}
	out := make([]domain.Category, 0, len(c.Analysis.Categories))
	for _, s := range c.Analysis.Categories {
		out = append(out, domain.Category(s))
	}
	return out
}
