// Package config loads server and bot settings from an optional YAML file,
// a .env file and LUNABLOCK_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. LUNABLOCK_SERVER_ADDRESS.
const EnvPrefix = "LUNABLOCK"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Logging LoggingConfig `mapstructure:"logging"`
	Bot     BotConfig     `mapstructure:"bot"`
}

// ServerConfig controls the HTTP listener and websocket connections.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PingPeriod is how often the server pings a connection. It must be shorter
// than PongWait.
func (s ServerConfig) PingPeriod() time.Duration {
	return s.PongWait * 9 / 10
}

// GameConfig holds match rules.
type GameConfig struct {
	RetargetInterval  time.Duration `mapstructure:"retarget_interval"`
	DefaultMaxPlayers int           `mapstructure:"default_max_players"`
	MinPlayers        int           `mapstructure:"min_players"`
	MaxPlayers        int           `mapstructure:"max_players"`
	SingleLineChance  float64       `mapstructure:"single_line_chance"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BotConfig drives the headless lunabot client. A hosting bot starts a
// match once MinPlayers players are seated.
type BotConfig struct {
	ServerURL  string        `mapstructure:"server_url"`
	Nickname   string        `mapstructure:"nickname"`
	Room       string        `mapstructure:"room"`
	MinPlayers int           `mapstructure:"min_players"`
	Tick       time.Duration `mapstructure:"tick"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3001")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_buffer_size", 1024)
	v.SetDefault("server.write_buffer_size", 1024)
	v.SetDefault("server.write_wait", 10*time.Second)
	v.SetDefault("server.pong_wait", 60*time.Second)
	v.SetDefault("server.max_message_size", 64*1024)
	v.SetDefault("server.send_buffer", 256)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("game.retarget_interval", 15*time.Second)
	v.SetDefault("game.default_max_players", 6)
	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.max_players", 50)
	v.SetDefault("game.single_line_chance", 0.3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("bot.server_url", "ws://localhost:3001/ws")
	v.SetDefault("bot.nickname", "lunabot")
	v.SetDefault("bot.room", "")
	v.SetDefault("bot.min_players", 2)
	v.SetDefault("bot.tick", 50*time.Millisecond)
}

// Load reads configuration. A missing config file or .env file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.PongWait <= 0 || c.Server.WriteWait <= 0 {
		errs = append(errs, errors.New("server.pong_wait and server.write_wait must be positive"))
	}
	if c.Server.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("server.max_message_size must be positive"))
	}
	if c.Server.SendBuffer <= 0 {
		errs = append(errs, errors.New("server.send_buffer must be positive"))
	}

	g := c.Game
	if g.RetargetInterval <= 0 {
		errs = append(errs, errors.New("game.retarget_interval must be positive"))
	}
	if g.MinPlayers < 2 {
		errs = append(errs, errors.New("game.min_players must be at least 2"))
	}
	if g.MaxPlayers < g.MinPlayers {
		errs = append(errs, fmt.Errorf("game.max_players %d is below game.min_players %d", g.MaxPlayers, g.MinPlayers))
	}
	if g.DefaultMaxPlayers < g.MinPlayers || g.DefaultMaxPlayers > g.MaxPlayers {
		errs = append(errs, fmt.Errorf("game.default_max_players %d is outside [%d, %d]",
			g.DefaultMaxPlayers, g.MinPlayers, g.MaxPlayers))
	}
	if g.SingleLineChance < 0 || g.SingleLineChance > 1 {
		errs = append(errs, errors.New("game.single_line_chance must be within [0, 1]"))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
