package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath           = "config.toml"
	DefaultHTTPAddr             = ":8080"
	DefaultEngineTimeoutSeconds = 60
	DefaultEngineTokenTTL       = 10 * time.Minute
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Engine   EngineConfig   `toml:"engine"`
	Telegram TelegramConfig `toml:"telegram"`
	Discord  DiscordConfig  `toml:"discord"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type EngineConfig struct {
	BaseURL        string           `toml:"base_url"`
	TimeoutSeconds int              `toml:"timeout_seconds"`
	Auth           EngineAuthConfig `toml:"auth"`
}

// EngineAuthConfig selects the credential source for the engine gateway:
// a fixed bearer token, or a signing secret for minted short-lived
// identity tokens. Token wins when both are set.
type EngineAuthConfig struct {
	Token         string `toml:"token"`
	JWTSecret     string `toml:"jwt_secret"`
	JWTIssuer     string `toml:"jwt_issuer"`
	JWTTTLMinutes int    `toml:"jwt_ttl_minutes"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
}

type DiscordConfig struct {
	BotToken string `toml:"bot_token"`
}

func (c EngineConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultEngineTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (c EngineAuthConfig) JWTTTL() time.Duration {
	if c.JWTTTLMinutes <= 0 {
		return DefaultEngineTokenTTL
	}
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Engine: EngineConfig{
			TimeoutSeconds: DefaultEngineTimeoutSeconds,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
