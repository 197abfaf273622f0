package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is the prefix of environment variables that override settings:
// pagerank.damping is read from RISKGRAPH_PAGERANK_DAMPING.
const EnvPrefix = "RISKGRAPH"

// PageRankConfig holds the scoring engine settings.
type PageRankConfig struct {
	Damping          float64 `mapstructure:"damping" validate:"gt=0,lt=1"`
	MaxIterations    int     `mapstructure:"max_iterations" validate:"gte=1"`
	Tolerance        float64 `mapstructure:"tolerance" validate:"gt=0"`
	TimeLimitSeconds float64 `mapstructure:"time_limit_seconds" validate:"gte=0"`
	Method           string  `mapstructure:"method" validate:"oneof=sparse gonum"`
}

// TimeLimit returns the wall-clock budget as a duration. Budgets too large
// for a time.Duration, including +Inf, saturate at the maximum duration.
func (p PageRankConfig) TimeLimit() time.Duration {
	ns := p.TimeLimitSeconds * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// Config holds all runtime configuration for a scoring run.
// Values are populated from .riskgraph.yaml, .env, RISKGRAPH_* env vars,
// and CLI flags.
type Config struct {
	Input         string         `mapstructure:"input" validate:"required"`
	Output        string         `mapstructure:"output" validate:"required"`
	MaxRows       int            `mapstructure:"max_rows" validate:"gte=0"`
	DeriveDomains bool           `mapstructure:"derive_domains"`
	PageRank      PageRankConfig `mapstructure:"pagerank"`

	SQLitePath      string `mapstructure:"sqlite_path"`
	ReportPath      string `mapstructure:"report_path"`
	TelemetryPath   string `mapstructure:"telemetry_path"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`

	Log LogConfig `mapstructure:"log"`
}

// ConfigureEnv makes v read RISKGRAPH_* environment variables, mapping
// nested keys with underscores.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from v, applying built-in defaults for any
// values not set by config file, environment, or flags. Load does not
// validate; commands that run the pipeline call Validate.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("input", "")
	v.SetDefault("output", "-")
	v.SetDefault("max_rows", 0)
	v.SetDefault("derive_domains", false)
	v.SetDefault("pagerank.damping", 0.85)
	v.SetDefault("pagerank.max_iterations", 100)
	v.SetDefault("pagerank.tolerance", 1e-6)
	v.SetDefault("pagerank.time_limit_seconds", 10.0)
	v.SetDefault("pagerank.method", "sparse")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("report_path", "")
	v.SetDefault("telemetry_path", "")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Validate checks every setting against its documented range. Field
// errors are reported by their configuration key.
func (c Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// newValidator returns a validator that names fields by their mapstructure
// key, so errors read "pagerank.damping" instead of "Config.PageRank.Damping".
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.pagerank.damping"; drop the root type name.
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", key, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s must be %s %s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
	}
}
