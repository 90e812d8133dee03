package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// GeneratorConfig holds pool generator tuning.
type GeneratorConfig struct {
	CreatureShare float64 `json:"creature_share" env:"POOL_CREATURE_SHARE"`
	MaxAttempts   int     `json:"max_attempts" env:"POOL_MAX_ATTEMPTS"`
}

// Config holds all server parameters.
type Config struct {
	HTTPPort      int    `json:"http_port" env:"PORT"`
	CatalogPath   string `json:"catalog_path" env:"CATALOG_PATH"`
	MaxNameLength int    `json:"max_name_length" env:"MAX_NAME_LENGTH"`

	// Room lifecycle.
	EmptyRoomGraceSec int `json:"empty_room_grace_sec" env:"EMPTY_ROOM_GRACE_SEC"`
	RoomMaxAgeHours   int `json:"room_max_age_hours" env:"ROOM_MAX_AGE_HOURS"`
	ReapIntervalMin   int `json:"reap_interval_min" env:"REAP_INTERVAL_MIN"`
	JoinRateLimitMS   int `json:"join_rate_limit_ms" env:"JOIN_RATE_LIMIT_MS"`

	// TicketSecret signs seat tickets. A random secret is generated at startup when empty,
	// which invalidates tickets across restarts.
	TicketSecret   string `json:"-" env:"TICKET_SECRET"`
	TicketTTLHours int    `json:"ticket_ttl_hours" env:"TICKET_TTL_HOURS"`
	SecretHashCost int    `json:"secret_hash_cost" env:"SECRET_HASH_COST"`

	// DatabaseURL enables the completed-draft archive. postgres:// URLs use Postgres,
	// anything else is a SQLite file path.
	DatabaseURL string `json:"-" env:"DATABASE_URL"`

	LogLevel      string `json:"log_level" env:"LOG_LEVEL"`
	AllowedOrigin string `json:"allowed_origin" env:"ALLOWED_ORIGIN"`

	Generator GeneratorConfig `json:"generator"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		HTTPPort:          3001,
		CatalogPath:       "data/cards.yaml",
		MaxNameLength:     24,
		EmptyRoomGraceSec: 300,
		RoomMaxAgeHours:   12,
		ReapIntervalMin:   60,
		JoinRateLimitMS:   1000,
		TicketTTLHours:    12,
		SecretHashCost:    bcrypt.DefaultCost,
		LogLevel:          "info",
		AllowedOrigin:     "*",
		Generator: GeneratorConfig{
			CreatureShare: 0.6,
			MaxAttempts:   5000,
		},
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	return LoadFrom("config.json")
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
	}

	// Fields that fail to parse keep their previous value.
	if err := env.Parse(cfg); err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				slog.Warn("invalid environment override", "tag", "config", "err", e)
			}
		} else {
			slog.Warn("invalid environment override", "tag", "config", "err", err)
		}
	}
	keepPositive(cfg)
	return cfg
}

// keepPositive restores the default for every setting that must be positive.
func keepPositive(cfg *Config) {
	def := Defaults()
	fields := []struct {
		name string
		val  *int
		def  int
	}{
		{"reap_interval_min", &cfg.ReapIntervalMin, def.ReapIntervalMin},
		{"room_max_age_hours", &cfg.RoomMaxAgeHours, def.RoomMaxAgeHours},
		{"ticket_ttl_hours", &cfg.TicketTTLHours, def.TicketTTLHours},
		{"max_name_length", &cfg.MaxNameLength, def.MaxNameLength},
		{"generator.max_attempts", &cfg.Generator.MaxAttempts, def.Generator.MaxAttempts},
	}
	for _, f := range fields {
		if *f.val <= 0 {
			slog.Warn("non-positive setting ignored", "tag", "config", "field", f.name, "value", *f.val, "default", f.def)
			*f.val = f.def
		}
	}
}

// EmptyRoomGrace is how long an empty room survives before deletion.
func (c *Config) EmptyRoomGrace() time.Duration {
	return time.Duration(c.EmptyRoomGraceSec) * time.Second
}

// RoomMaxAge is the age past which an empty room is reaped.
func (c *Config) RoomMaxAge() time.Duration {
	return time.Duration(c.RoomMaxAgeHours) * time.Hour
}

// ReapInterval is the period of the idle-room sweep.
func (c *Config) ReapInterval() time.Duration {
	return time.Duration(c.ReapIntervalMin) * time.Minute
}

// JoinRateLimit is the minimum spacing between join_room messages on one connection.
func (c *Config) JoinRateLimit() time.Duration {
	return time.Duration(c.JoinRateLimitMS) * time.Millisecond
}

// TicketTTL is how long a seat ticket stays valid.
func (c *Config) TicketTTL() time.Duration {
	return time.Duration(c.TicketTTLHours) * time.Hour
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
