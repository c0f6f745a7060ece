package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/terabiome/ksxen/pkg/constants"
	"github.com/terabiome/ksxen/pkg/fileserver"
	"github.com/terabiome/ksxen/pkg/passwd"
)

type Config struct {
	XLPath           string
	CommandTimeout   time.Duration
	ConsoleTimeout   time.Duration
	KillGrace        time.Duration
	SettleDelay      time.Duration
	HTTPTimeout      time.Duration
	ListenAddress    string
	ArtifactPath     string
	Artifacts        []string
	KickstartFile    string
	BackupSuffix     string
	WorkdirPattern   string
	PasswordScheme   string
	InstallTemplate  string
	SteadyTemplate   string
	LogLevel         string
	LogFormat        string
	TelemetryEnabled bool
}

func Load() (*Config, error) {
	viper.SetDefault("xl_path", "/usr/sbin/xl")
	viper.SetDefault("command_timeout", 10*time.Minute)
	viper.SetDefault("console_timeout", 6*time.Hour)
	viper.SetDefault("kill_grace", 10*time.Second)
	viper.SetDefault("settle_delay", 5*time.Second)
	viper.SetDefault("http_timeout", 10*time.Minute)
	viper.SetDefault("listen_address", fileserver.DefaultAddress)
	viper.SetDefault("artifact_path", constants.BootArtifactPath)
	viper.SetDefault("artifacts", constants.BootArtifacts)
	viper.SetDefault("kickstart_file", constants.KickstartFilename)
	viper.SetDefault("backup_suffix", constants.ImageBackupSuffix)
	viper.SetDefault("workdir_pattern", "ksxen-")
	viper.SetDefault("password_scheme", passwd.SchemeSHA512)
	viper.SetDefault("install_template", "")
	viper.SetDefault("steady_template", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("telemetry_enabled", false)

	viper.SetEnvPrefix("ksxen")
	viper.AutomaticEnv()

	cfg := &Config{
		XLPath:           viper.GetString("xl_path"),
		CommandTimeout:   viper.GetDuration("command_timeout"),
		ConsoleTimeout:   viper.GetDuration("console_timeout"),
		KillGrace:        viper.GetDuration("kill_grace"),
		SettleDelay:      viper.GetDuration("settle_delay"),
		HTTPTimeout:      viper.GetDuration("http_timeout"),
		ListenAddress:    viper.GetString("listen_address"),
		ArtifactPath:     viper.GetString("artifact_path"),
		Artifacts:        viper.GetStringSlice("artifacts"),
		KickstartFile:    viper.GetString("kickstart_file"),
		BackupSuffix:     viper.GetString("backup_suffix"),
		WorkdirPattern:   viper.GetString("workdir_pattern"),
		PasswordScheme:   viper.GetString("password_scheme"),
		InstallTemplate:  viper.GetString("install_template"),
		SteadyTemplate:   viper.GetString("steady_template"),
		LogLevel:         viper.GetString("log_level"),
		LogFormat:        viper.GetString("log_format"),
		TelemetryEnabled: viper.GetBool("telemetry_enabled"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.XLPath == "" {
		return fmt.Errorf("xl path must not be empty")
	}

	timeouts := map[string]time.Duration{
		"command timeout": c.CommandTimeout,
		"console timeout": c.ConsoleTimeout,
		"kill grace":      c.KillGrace,
		"http timeout":    c.HTTPTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay)
	}

	if c.ListenAddress == "" {
		return fmt.Errorf("listen address must not be empty")
	}

	if c.KickstartFile == "" {
		return fmt.Errorf("kickstart file name must not be empty")
	}

	if c.BackupSuffix == "" {
		return fmt.Errorf("backup suffix must not be empty")
	}

	if !passwd.ValidScheme(c.PasswordScheme) {
		return fmt.Errorf("invalid password scheme: %s (valid: sha512, md5)", c.PasswordScheme)
	}

	if c.InstallTemplate != "" {
		if err := validateFileExists(c.InstallTemplate); err != nil {
			return fmt.Errorf("install template: %w", err)
		}
	}

	if c.SteadyTemplate != "" {
		if err := validateFileExists(c.SteadyTemplate); err != nil {
			return fmt.Errorf("steady template: %w", err)
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.LogFormat)
	}

	return nil
}

func validateFileExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	} else if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	return nil
}
