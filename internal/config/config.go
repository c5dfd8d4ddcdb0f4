package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"webmc/internal/dirs"
	"webmc/internal/model"
)

// Keys shared by flags, env (WEBMC_*) and the config file.
const (
	KeyJobs        = "jobs"
	KeyScale       = "scale"
	KeyWidth       = "width"
	KeyHeight      = "height"
	KeyFFmpeg      = "ffmpeg"
	KeyFFprobe     = "ffprobe"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyLogFile     = "log-file"
	KeyMetricsAddr = "metrics-addr"
	KeyVerbose     = "verbose"
)

// Config is the effective configuration after flag > env > file > default.
type Config struct {
	Jobs        int
	Scale       model.ScaleOptions
	FFmpeg      string
	FFprobe     string
	LogLevel    string
	LogFormat   string
	LogFile     string
	MetricsAddr string
	Verbose     bool
}

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: a missing config file is not an error.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}
	setup(viper.GetViper())

	for _, key := range []string{
		KeyJobs, KeyScale, KeyWidth, KeyHeight, KeyFFmpeg, KeyFFprobe,
		KeyLogLevel, KeyLogFormat, KeyLogFile, KeyMetricsAddr, KeyVerbose,
	} {
		if f := root.PersistentFlags().Lookup(key); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func setup(v *viper.Viper) {
	v.SetEnvPrefix("WEBMC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyJobs, 1)
	v.SetDefault(KeyScale, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load returns the effective configuration.
func Load() (Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (Config, error) {
	c := Config{
		Jobs: v.GetInt(KeyJobs),
		Scale: model.ScaleOptions{
			Enabled: v.GetBool(KeyScale),
			Width:   v.GetInt(KeyWidth),
			Height:  v.GetInt(KeyHeight),
		},
		FFmpeg:      v.GetString(KeyFFmpeg),
		FFprobe:     v.GetString(KeyFFprobe),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		LogFile:     v.GetString(KeyLogFile),
		MetricsAddr: v.GetString(KeyMetricsAddr),
		Verbose:     v.GetBool(KeyVerbose),
	}
	if c.Jobs < 1 {
		return c, fmt.Errorf("%w: jobs must be at least 1, got %d", model.ErrInvalidArgument, c.Jobs)
	}
	if err := c.Scale.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Settings returns every effective key, for display.
func Settings() map[string]any {
	return viper.AllSettings()
}

// DefaultPath is where Save writes when no path is given.
func DefaultPath() (string, error) {
	d, err := dirs.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Save persists the scale form and parallelism of c to path. The format
// follows the file extension.
func Save(path string, c Config) error {
	v := viper.New()
	v.Set(KeyJobs, c.Jobs)
	v.Set(KeyScale, c.Scale.Enabled)
	v.Set(KeyWidth, c.Scale.Width)
	v.Set(KeyHeight, c.Scale.Height)
	if err := dirs.Ensure(filepath.Dir(path)); err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
