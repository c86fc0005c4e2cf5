package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".fasttrack"
	envPrefix  = "FT"

	NotifyConsole = "console"
	NotifyNATS    = "nats"
	NotifyNone    = "none"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	API        APIConfig
	Fast       FastConfig
	Milestones MilestonesConfig
	Reminders  RemindersConfig
	Hydration  HydrationConfig
	Notify     NotifyConfig
	Watch      WatchConfig
	SecretsDir string
	LogLevel   slog.Level
	// File is the config file that was read, empty when none exists.
	File string
}

type APIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Token    string
	TokenKey string
}

type FastConfig struct {
	DefaultProtocol domain.Protocol
	StaleAfter      time.Duration
}

type MilestonesConfig struct {
	Hours        []int
	PollInterval time.Duration
}

type RemindersConfig struct {
	Interval    time.Duration
	ActiveHours domain.ActiveHours
	Threshold   float64
}

type HydrationConfig struct {
	GoalML    int
	Path      string
	Retention time.Duration
}

type NotifyConfig struct {
	Backend string
	NATSURL string
	Subject string
}

type WatchConfig struct {
	Listen string
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	base := filepath.Join(homeDir, configDir)

	v.SetDefault("api.base_url", "https://fasttrack.example/wp-json/fasttrack/v1")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.token", "")
	v.SetDefault("api.token_key", "fasttrack/api_token")
	v.SetDefault("fast.default_protocol", domain.DefaultProtocolName)
	v.SetDefault("fast.stale_after", 7*24*time.Hour)
	v.SetDefault("milestones.hours", domain.DefaultMilestoneHours())
	v.SetDefault("milestones.poll_interval", time.Minute)
	v.SetDefault("reminders.interval", 2*time.Hour)
	v.SetDefault("reminders.active_start", 8)
	v.SetDefault("reminders.active_end", 22)
	v.SetDefault("reminders.threshold", 0.8)
	v.SetDefault("hydration.goal_ml", 2500)
	v.SetDefault("hydration.path", filepath.Join(base, "hydration.toml"))
	v.SetDefault("hydration.retention", 30*24*time.Hour)
	v.SetDefault("notify.backend", NotifyConsole)
	v.SetDefault("notify.nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("notify.subject", "fasttrack.notifications")
	v.SetDefault("watch.listen", "")
	v.SetDefault("secrets.dir", filepath.Join(base, "secrets"))
	v.SetDefault("log.level", "info")
}

// Load reads ~/.fasttrack/config.toml (optional) and FT_* environment
// overrides into v, then validates the result. Resolved paths are written back
// into v so adapters that read v see the same values.
func Load(v *viper.Viper, homeDir string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v, homeDir)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(homeDir, configDir))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		API: APIConfig{
			BaseURL:  strings.TrimSpace(v.GetString("api.base_url")),
			Timeout:  v.GetDuration("api.timeout"),
			Token:    strings.TrimSpace(v.GetString("api.token")),
			TokenKey: strings.TrimSpace(v.GetString("api.token_key")),
		},
		Fast: FastConfig{
			StaleAfter: v.GetDuration("fast.stale_after"),
		},
		Milestones: MilestonesConfig{
			Hours:        domain.NormalizeMilestoneHours(v.GetIntSlice("milestones.hours")),
			PollInterval: v.GetDuration("milestones.poll_interval"),
		},
		Reminders: RemindersConfig{
			Interval: v.GetDuration("reminders.interval"),
			ActiveHours: domain.ActiveHours{
				StartHour: v.GetInt("reminders.active_start"),
				EndHour:   v.GetInt("reminders.active_end"),
			},
			Threshold: v.GetFloat64("reminders.threshold"),
		},
		Hydration: HydrationConfig{
			GoalML:    v.GetInt("hydration.goal_ml"),
			Path:      expandHome(v.GetString("hydration.path"), homeDir),
			Retention: v.GetDuration("hydration.retention"),
		},
		Notify: NotifyConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("notify.backend"))),
			NATSURL: strings.TrimSpace(v.GetString("notify.nats_url")),
			Subject: strings.TrimSpace(v.GetString("notify.subject")),
		},
		Watch:      WatchConfig{Listen: strings.TrimSpace(v.GetString("watch.listen"))},
		SecretsDir: expandHome(v.GetString("secrets.dir"), homeDir),
		File:       v.ConfigFileUsed(),
	}
	if len(cfg.Milestones.Hours) == 0 {
		cfg.Milestones.Hours = domain.DefaultMilestoneHours()
	}

	var errs []error

	protocol, err := domain.ProtocolByName(v.GetString("fast.default_protocol"))
	if err != nil {
		errs = append(errs, fmt.Errorf("fast.default_protocol: %w", err))
	}
	cfg.Fast.DefaultProtocol = protocol

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	v.Set("hydration.path", cfg.Hydration.Path)
	v.Set("secrets.dir", cfg.SecretsDir)

	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error

	if parsed, err := url.Parse(c.API.BaseURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.API.TokenKey == "" {
		errs = append(errs, errors.New("api.token_key is empty"))
	}
	if c.Fast.StaleAfter <= 0 {
		errs = append(errs, errors.New("fast.stale_after must be positive"))
	}
	if c.Milestones.PollInterval <= 0 {
		errs = append(errs, errors.New("milestones.poll_interval must be positive"))
	}
	if c.Reminders.Interval <= 0 {
		errs = append(errs, errors.New("reminders.interval must be positive"))
	}
	window := c.Reminders.ActiveHours
	if window.StartHour < 0 || window.EndHour > 24 || window.StartHour >= window.EndHour {
		errs = append(errs, fmt.Errorf("reminders active window [%d, %d) is not within a day", window.StartHour, window.EndHour))
	}
	if c.Reminders.Threshold <= 0 || c.Reminders.Threshold > 1 {
		errs = append(errs, fmt.Errorf("reminders.threshold %v must be in (0, 1]", c.Reminders.Threshold))
	}
	if c.Hydration.GoalML < 0 {
		errs = append(errs, errors.New("hydration.goal_ml must not be negative"))
	}
	if c.Hydration.Path == "" {
		errs = append(errs, errors.New("hydration.path is empty"))
	}
	if c.Hydration.Retention <= 0 {
		errs = append(errs, errors.New("hydration.retention must be positive"))
	}
	switch c.Notify.Backend {
	case NotifyConsole, NotifyNone:
	case NotifyNATS:
		if c.Notify.Subject == "" {
			errs = append(errs, errors.New("notify.subject is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("notify.backend %q is not one of console, nats, none", c.Notify.Backend))
	}

	return errs
}

// FilePath is where Load looks for the config file under homeDir.
func FilePath(homeDir string) string {
	return filepath.Join(homeDir, configDir, configName+"."+configType)
}

// SetDefaultProtocol stores fast.default_protocol in the config file at path,
// keeping every other key in the file as it was.
func SetDefaultProtocol(path, name string) error {
	protocol, err := domain.ProtocolByName(name)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	fast, _ := doc["fast"].(map[string]any)
	if fast == nil {
		fast = map[string]any{}
	}
	fast["default_protocol"] = protocol.Name
	doc["fast"] = fast

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func expandHome(path, homeDir string) string {
	path = strings.TrimSpace(path)
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// HomeDir is os.UserHomeDir with a clearer error.
func HomeDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return homeDir, nil
}
