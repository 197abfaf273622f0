package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Input", cfg.Input, ""},
		{"Output", cfg.Output, "-"},
		{"MaxRows", cfg.MaxRows, 0},
		{"DeriveDomains", cfg.DeriveDomains, false},
		{"Damping", cfg.PageRank.Damping, 0.85},
		{"MaxIterations", cfg.PageRank.MaxIterations, 100},
		{"Tolerance", cfg.PageRank.Tolerance, 1e-6},
		{"TimeLimitSeconds", cfg.PageRank.TimeLimitSeconds, 10.0},
		{"Method", cfg.PageRank.Method, "sparse"},
		{"SQLitePath", cfg.SQLitePath, ""},
		{"LogLevel", cfg.Log.Level, "info"},
		{"LogFormat", cfg.Log.Format, "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if got := cfg.PageRank.TimeLimit(); got != 10*time.Second {
		t.Errorf("TimeLimit() = %v, want 10s", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "input",
			envKey: "RISKGRAPH_INPUT",
			envVal: "/data/records.csv",
			field:  func(c Config) any { return c.Input },
			want:   "/data/records.csv",
		},
		{
			name:   "max_rows",
			envKey: "RISKGRAPH_MAX_ROWS",
			envVal: "5000",
			field:  func(c Config) any { return c.MaxRows },
			want:   5000,
		},
		{
			name:   "pagerank.damping",
			envKey: "RISKGRAPH_PAGERANK_DAMPING",
			envVal: "0.9",
			field:  func(c Config) any { return c.PageRank.Damping },
			want:   0.9,
		},
		{
			name:   "pagerank.time_limit_seconds",
			envKey: "RISKGRAPH_PAGERANK_TIME_LIMIT_SECONDS",
			envVal: "2.5",
			field:  func(c Config) any { return c.PageRank.TimeLimit() },
			want:   2500 * time.Millisecond,
		},
		{
			name:   "pagerank.method",
			envKey: "RISKGRAPH_PAGERANK_METHOD",
			envVal: "gonum",
			field:  func(c Config) any { return c.PageRank.Method },
			want:   "gonum",
		},
		{
			name:   "derive_domains",
			envKey: "RISKGRAPH_DERIVE_DOMAINS",
			envVal: "true",
			field:  func(c Config) any { return c.DeriveDomains },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)
			v := viper.New()
			ConfigureEnv(v)

			cfg, err := Load(v)
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".riskgraph.yaml")
	data := "input: records.csv\noutput: out/metrics.csv\npagerank:\n  max_iterations: 250\n  tolerance: 1.0e-9\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input != "records.csv" || cfg.Output != "out/metrics.csv" {
		t.Errorf("Input/Output = %q/%q", cfg.Input, cfg.Output)
	}
	if cfg.PageRank.MaxIterations != 250 || cfg.PageRank.Tolerance != 1e-9 {
		t.Errorf("PageRank = %+v", cfg.PageRank)
	}
	// Unset keys keep their defaults.
	if cfg.PageRank.Damping != 0.85 {
		t.Errorf("Damping = %v, want 0.85", cfg.PageRank.Damping)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load(viper.New())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		cfg.Input = "in.csv"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config: Validate() = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"missing input", func(c *Config) { c.Input = "" }, "input"},
		{"damping too high", func(c *Config) { c.PageRank.Damping = 1 }, "pagerank.damping"},
		{"damping zero", func(c *Config) { c.PageRank.Damping = 0 }, "pagerank.damping"},
		{"zero iterations", func(c *Config) { c.PageRank.MaxIterations = 0 }, "pagerank.max_iterations"},
		{"zero tolerance", func(c *Config) { c.PageRank.Tolerance = 0 }, "pagerank.tolerance"},
		{"negative time limit", func(c *Config) { c.PageRank.TimeLimitSeconds = -1 }, "pagerank.time_limit_seconds"},
		{"unknown method", func(c *Config) { c.PageRank.Method = "exact" }, "pagerank.method"},
		{"negative max rows", func(c *Config) { c.MaxRows = -1 }, "max_rows"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q does not name %q", err, tt.wantKey)
			}
		})
	}
}

func TestValidate_ZeroTimeLimitAllowed(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Input = "in.csv"
	cfg.PageRank.TimeLimitSeconds = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestPageRankConfig_TimeLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seconds float64
		want    time.Duration
	}{
		{"zero", 0, 0},
		{"fractional", 0.5, 500 * time.Millisecond},
		{"one billion seconds", 1e9, 1e9 * time.Second},
		{"beyond duration range", 1e10, time.Duration(math.MaxInt64)},
		{"far beyond duration range", 1e12, time.Duration(math.MaxInt64)},
		{"infinite", math.Inf(1), time.Duration(math.MaxInt64)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := PageRankConfig{TimeLimitSeconds: tt.seconds}.TimeLimit()
			if got != tt.want {
				t.Errorf("TimeLimit() = %v, want %v", got, tt.want)
			}
			if got < 0 {
				t.Errorf("TimeLimit() = %v, must not be negative", got)
			}
		})
	}
}

func TestValidate_UnboundedTimeLimitAllowed(t *testing.T) {
	for _, seconds := range []float64{1e10, math.Inf(1)} {
		cfg, err := Load(viper.New())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		cfg.Input = "in.csv"
		cfg.PageRank.TimeLimitSeconds = seconds
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate(time_limit_seconds=%v) = %v, want nil", seconds, err)
		}
	}
}
