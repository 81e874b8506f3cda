package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Bounce   BounceConfig   `mapstructure:"bounce"`
	Database DatabaseConfig `mapstructure:"database"`
}

// Telegram bot configuration
type BotConfig struct {
	Token   string        `mapstructure:"token"`
	OwnerID int64         `mapstructure:"owner_id"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration
type WebhookConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ListenPort string `mapstructure:"listen_port"`
	DebugPath  string `mapstructure:"debug_path"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory  string            `mapstructure:"directory"`
	Rotation   LogRotationConfig `mapstructure:"rotation"`
	Timezone   string            `mapstructure:"timezone"`
	TimeFormat string            `mapstructure:"time_format"`
	Level      string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// bounce detection defaults, applied to groups without explicit settings
type BounceConfig struct {
	Enabled            bool         `mapstructure:"enabled"`
	WindowSeconds      int          `mapstructure:"window_seconds"`
	BanDuration        string       `mapstructure:"ban_duration"`
	IncludeBots        bool         `mapstructure:"include_bots"`
	WelcomeEnabled     bool         `mapstructure:"welcome_enabled"`
	MaxContacts        int          `mapstructure:"max_contacts"`
	SettleDelaySeconds int          `mapstructure:"settle_delay_seconds"`
	Repeat             RepeatConfig `mapstructure:"repeat_detection"`
}

// repeat-offense detector settings; the detector is an extension point
// and currently never flags anyone
type RepeatConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	WindowMinutes int  `mapstructure:"window_minutes"`
	Threshold     int  `mapstructure:"threshold"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.owner_id", 0)
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.debug_path", "/debug")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.timezone", "Local")
	v.SetDefault("logger.time_format", "2006/01/02 15:04:05")
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.enabled", false)

	v.SetDefault("bounce.enabled", false)
	v.SetDefault("bounce.window_seconds", 60)
	v.SetDefault("bounce.ban_duration", "1d")
	v.SetDefault("bounce.include_bots", false)
	v.SetDefault("bounce.welcome_enabled", false)
	v.SetDefault("bounce.max_contacts", 25)
	v.SetDefault("bounce.settle_delay_seconds", 5)
	v.SetDefault("bounce.repeat_detection.enabled", false)
	v.SetDefault("bounce.repeat_detection.window_minutes", 5)
	v.SetDefault("bounce.repeat_detection.threshold", 3)
}
