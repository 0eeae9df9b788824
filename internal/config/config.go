package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`
	PiP        PiPConfig     `mapstructure:"pip"`
}

// PiPConfig drives the picture-in-picture compositor and its floating window.
type PiPConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Room              string        `mapstructure:"room"`
	Width             int           `mapstructure:"width"`
	Height            int           `mapstructure:"height"`
	FPS               int           `mapstructure:"fps"`
	Background        string        `mapstructure:"background"`
	FrameFormat       string        `mapstructure:"frame_format"`
	FrameQuality      int           `mapstructure:"frame_quality"`
	StageStaleAfter   time.Duration `mapstructure:"stage_stale_after"`
	AvatarBackgrounds []string      `mapstructure:"avatar_backgrounds"`
	AutoEnterOnHidden bool          `mapstructure:"auto_enter_on_hidden"`
	ToggleLimit       int           `mapstructure:"toggle_limit"`
	ToggleInterval    time.Duration `mapstructure:"toggle_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 3<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("log_level", "info")

	v.SetDefault("pip.enabled", true)
	v.SetDefault("pip.room", "main")
	v.SetDefault("pip.width", 1280)
	v.SetDefault("pip.height", 720)
	v.SetDefault("pip.fps", 24)
	v.SetDefault("pip.background", "#0E0E10")
	v.SetDefault("pip.frame_format", "webp")
	v.SetDefault("pip.frame_quality", 75)
	v.SetDefault("pip.stage_stale_after", "2s")
	v.SetDefault("pip.avatar_backgrounds", []string{})
	v.SetDefault("pip.auto_enter_on_hidden", true)
	v.SetDefault("pip.toggle_limit", 5)
	v.SetDefault("pip.toggle_interval", "10s")
}

// Load reads config/config.<CONFIG_ENV>.yaml on top of the defaults.
func Load() (*Config, error) {
	cfg, _, err := load()
	return cfg, err
}

func load() (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Bool("pip", cfg.PiP.Enabled).
		Msg("config ready")
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.PiP.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (p PiPConfig) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("pip: invalid surface size %dx%d", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("pip: fps must be positive, got %d", p.FPS)
	}
	switch p.FrameFormat {
	case "webp", "jpeg":
	default:
		return fmt.Errorf("pip: unknown frame_format %q", p.FrameFormat)
	}
	if p.FrameQuality < 1 || p.FrameQuality > 100 {
		return fmt.Errorf("pip: frame_quality must be within 1..100, got %d", p.FrameQuality)
	}
	return nil
}

// LoadAndWatch loads the config and calls onChange with the re-decoded config
// every time the file changes on disk. Invalid edits are logged and skipped.
func LoadAndWatch(onChange func(*Config)) (*Config, error) {
	cfg, v, err := load()
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() == "" {
		return cfg, nil
	}
	if _, statErr := os.Stat(v.ConfigFileUsed()); statErr != nil {
		return cfg, nil
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload rejected")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Msg("config reloaded")
		onChange(next)
	})
	v.WatchConfig()
	return cfg, nil
}
