package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/heron/pkg/logger"
)

// FileName is the config file looked up in the working directory.
const FileName = "heron.yml"

// EnvPrefix prefixes environment overrides, e.g. HERON_SWAGGER_URL.
const EnvPrefix = "HERON"

// Config represents heron.yml
type Config struct {
	Swagger SwaggerConfig `yaml:"swagger"`
	Check   CheckConfig   `yaml:"check"`
	Log     LogConfig     `yaml:"log"`
}

// SwaggerConfig locates the schema document.
type SwaggerConfig struct {
	URL      string `yaml:"url"`
	Version  int    `yaml:"version"`
	CacheDir string `yaml:"cache_dir"`
}

// CheckConfig controls a conformance run.
type CheckConfig struct {
	Workers    int      `yaml:"workers"`
	FailOn     string   `yaml:"fail_on"`
	IgnoreDirs []string `yaml:"ignore_dirs,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		Swagger: SwaggerConfig{
			Version:  2,
			CacheDir: defaultCacheDir(),
		},
		Check: CheckConfig{
			FailOn: "defect",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".heron", "cache")
	}
	return filepath.Join(dir, "heron")
}

// Load reads configuration. With an empty path, heron.yml in the working
// directory is used when present and defaults otherwise; an explicit path
// must exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yml"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("swagger.url", def.Swagger.URL)
	v.SetDefault("swagger.version", def.Swagger.Version)
	v.SetDefault("swagger.cache_dir", def.Swagger.CacheDir)
	v.SetDefault("check.workers", def.Check.Workers)
	v.SetDefault("check.fail_on", def.Check.FailOn)
	v.SetDefault("check.ignore_dirs", def.Check.IgnoreDirs)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return &Config{
		Swagger: SwaggerConfig{
			URL:      v.GetString("swagger.url"),
			Version:  v.GetInt("swagger.version"),
			CacheDir: v.GetString("swagger.cache_dir"),
		},
		Check: CheckConfig{
			Workers:    v.GetInt("check.workers"),
			FailOn:     v.GetString("check.fail_on"),
			IgnoreDirs: v.GetStringSlice("check.ignore_dirs"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}, nil
}

// Save writes configuration to a YAML file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// ValidationError is one invalid setting.
type ValidationError struct {
	Key        string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Key, e.Message)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "config validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "found %d config errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&buf, "  %d. %s\n", i+1, err.Error())
	}
	return buf.String()
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Swagger.URL == "" {
		errs = append(errs, ValidationError{
			Key:        "swagger.url",
			Message:    "no schema location set",
			Suggestion: "set swagger.url in " + FileName + ", HERON_SWAGGER_URL, or pass --schema",
		})
	}
	if c.Swagger.Version != 2 && c.Swagger.Version != 3 {
		errs = append(errs, ValidationError{
			Key:     "swagger.version",
			Message: fmt.Sprintf("unsupported version %d", c.Swagger.Version),
		})
	}
	if c.Check.Workers < 0 {
		errs = append(errs, ValidationError{
			Key:        "check.workers",
			Message:    "must not be negative",
			Suggestion: "use 0 for one worker per CPU",
		})
	}
	switch strings.ToLower(c.Check.FailOn) {
	case "", "defect", "maintainability", "unresolved":
	default:
		errs = append(errs, ValidationError{
			Key:        "check.fail_on",
			Message:    fmt.Sprintf("unknown threshold %q", c.Check.FailOn),
			Suggestion: "use defect, maintainability or unresolved",
		})
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Key: "log.level", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
