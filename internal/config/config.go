// Package config holds the startup settings of the duel server
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/cardduel/internal/api"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/server"
	"github.com/mcoot/cardduel/internal/services/duel"
	redisstorage "github.com/mcoot/cardduel/internal/storage/redis"
)

// EnvPrefix prefixes the environment variable of every flag
const EnvPrefix = "DUEL"

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds every setting read at startup. It is never reloaded.
type Config struct {
	Host     string
	Port     int
	HTTPHost string
	HTTPPort int // 0 disables the status API

	InitialHP         int
	BaseDamage        int
	PowerAttackDamage int
	CounterDamage     int
	HandSize          int
	ResultDelay       time.Duration
	AllowInstaWin     bool
	StrictHand        bool

	WriteTimeout time.Duration
	MaxFrameSize int

	StorageType     string
	RedisURL        string
	MatchHistoryTTL time.Duration

	LogLevel string
}

// Default returns the stock configuration
func Default() Config {
	rules := duel.DefaultConfig()
	conn := server.DefaultConfig()
	return Config{
		Host:              "0.0.0.0",
		Port:              65432,
		HTTPHost:          "",
		HTTPPort:          8080,
		InitialHP:         rules.InitialHP,
		BaseDamage:        rules.BaseDamage,
		PowerAttackDamage: rules.PowerAttackDamage,
		CounterDamage:     rules.CounterDamage,
		HandSize:          rules.HandSize,
		ResultDelay:       rules.ResultDelay,
		AllowInstaWin:     rules.AllowInstaWin,
		StrictHand:        rules.StrictHand,
		WriteTimeout:      conn.WriteTimeout,
		MaxFrameSize:      conn.MaxFrameSize,
		StorageType:       StorageMemory,
		RedisURL:          redisstorage.DefaultConfig().URL,
		MatchHistoryTTL:   redisstorage.DefaultConfig().MatchTTL,
		LogLevel:          "info",
	}
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid http port (must be between 0-65535 inclusive): %d", c.HTTPPort))
	}
	if c.InitialHP < 1 {
		errs = append(errs, fmt.Errorf("initial hp must be positive: %d", c.InitialHP))
	}
	if c.BaseDamage < 0 || c.PowerAttackDamage < 0 || c.CounterDamage < 0 {
		errs = append(errs, errors.New("damage values must not be negative"))
	}
	if c.HandSize < 1 || c.HandSize > len(model.Catalog()) {
		errs = append(errs, fmt.Errorf("hand size must be between 1-%d inclusive: %d", len(model.Catalog()), c.HandSize))
	}
	if c.ResultDelay < 0 {
		errs = append(errs, fmt.Errorf("result delay must not be negative: %s", c.ResultDelay))
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("write timeout must not be negative: %s", c.WriteTimeout))
	}
	if c.MaxFrameSize < 1 {
		errs = append(errs, fmt.Errorf("max frame size must be positive: %d", c.MaxFrameSize))
	}
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("--redis-url is required when --storage is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage %q: must be %q or %q", c.StorageType, StorageMemory, StorageRedis))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr is the TCP game listener address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SlogLevel parses LogLevel
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", c.LogLevel)
	}
	return level, nil
}

// Duel returns the game rules
func (c Config) Duel() duel.Config {
	return duel.Config{
		InitialHP:         c.InitialHP,
		BaseDamage:        c.BaseDamage,
		PowerAttackDamage: c.PowerAttackDamage,
		CounterDamage:     c.CounterDamage,
		HandSize:          c.HandSize,
		ResultDelay:       c.ResultDelay,
		AllowInstaWin:     c.AllowInstaWin,
		StrictHand:        c.StrictHand,
	}
}

// Server returns the connection settings of the game listener
func (c Config) Server() server.Config {
	cfg := server.DefaultConfig()
	cfg.WriteTimeout = c.WriteTimeout
	cfg.MaxFrameSize = c.MaxFrameSize
	return cfg
}

// HTTP returns the status API server settings
func (c Config) HTTP() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.HTTPHost
	cfg.Port = c.HTTPPort
	return cfg
}

// Redis returns the redis store settings
func (c Config) Redis() redisstorage.Config {
	cfg := redisstorage.DefaultConfig()
	cfg.URL = c.RedisURL
	cfg.MatchTTL = c.MatchHistoryTTL
	return cfg
}

// RegisterFlags defines one flag per setting, defaulting to the current
// values of c
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Host, "host", "b", c.Host, "address to accept game connections on (env: DUEL_HOST)")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "port to accept game connections on (env: DUEL_PORT)")
	fs.StringVar(&c.HTTPHost, "http-host", c.HTTPHost, "address of the status API (env: DUEL_HTTP_HOST)")
	fs.IntVar(&c.HTTPPort, "http-port", c.HTTPPort, "port of the status API, 0 disables it (env: DUEL_HTTP_PORT)")
	fs.IntVar(&c.InitialHP, "initial-hp", c.InitialHP, "health each player starts a game with (env: DUEL_INITIAL_HP)")
	fs.IntVar(&c.BaseDamage, "base-damage", c.BaseDamage, "damage dealt by a winning card (env: DUEL_BASE_DAMAGE)")
	fs.IntVar(&c.PowerAttackDamage, "power-attack-damage", c.PowerAttackDamage, "damage dealt by a winning power attack (env: DUEL_POWER_ATTACK_DAMAGE)")
	fs.IntVar(&c.CounterDamage, "counter-damage", c.CounterDamage, "damage a losing counter card reflects (env: DUEL_COUNTER_DAMAGE)")
	fs.IntVar(&c.HandSize, "hand-size", c.HandSize, "cards dealt each round (env: DUEL_HAND_SIZE)")
	fs.DurationVar(&c.ResultDelay, "result-delay", c.ResultDelay, "pause between a result and the next round (env: DUEL_RESULT_DELAY)")
	fs.BoolVar(&c.AllowInstaWin, "allow-insta-win", c.AllowInstaWin, "honour insta_win messages (env: DUEL_ALLOW_INSTA_WIN)")
	fs.BoolVar(&c.StrictHand, "strict-hand", c.StrictHand, "ignore choices not in the player's hand (env: DUEL_STRICT_HAND)")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "deadline for writing one frame to a client (env: DUEL_WRITE_TIMEOUT)")
	fs.IntVar(&c.MaxFrameSize, "max-frame-size", c.MaxFrameSize, "largest accepted frame payload in bytes (env: DUEL_MAX_FRAME_SIZE)")
	fs.StringVar(&c.StorageType, "storage", c.StorageType, "match history backend: memory or redis (env: DUEL_STORAGE)")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "redis connection URL (env: DUEL_REDIS_URL)")
	fs.DurationVar(&c.MatchHistoryTTL, "match-history-ttl", c.MatchHistoryTTL, "how long redis keeps match summaries (env: DUEL_MATCH_HISTORY_TTL)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error (env: DUEL_LOG_LEVEL)")
}

// ApplyEnv sets every flag not given on the command line from its
// DUEL_<FLAG> environment variable
func ApplyEnv(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("env %s_%s: %w", EnvPrefix, envKey(f.Name), err))
			}
		}
	})
	return errors.Join(errs...)
}

func envKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
