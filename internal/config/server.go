package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default relay configuration values
const (
	DefaultAddr           = ":8080"
	DefaultRedisKeyPrefix = "room:"
	DefaultBufferTTL      = time.Hour
	DefaultRoomTTL        = 10 * time.Minute
	DefaultSweepInterval  = time.Minute
	DefaultSendQueue      = 256
)

// ServerConfig holds relay configuration
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string

	// RedisURL selects the Redis buffer store. Empty keeps buffers in memory.
	RedisURL       string
	RedisKeyPrefix string
	BufferTTL      time.Duration

	RoomTTL         time.Duration
	SweepInterval   time.Duration
	SendQueue       int
	HostOnlyControl bool
}

// ServerOptions carries CLI flag overrides. Zero values defer to the
// environment.
type ServerOptions struct {
	Addr            string
	AllowedOrigins  string
	RedisURL        string
	RedisKeyPrefix  string
	BufferTTL       time.Duration
	RoomTTL         time.Duration
	SweepInterval   time.Duration
	SendQueue       int
	HostOnlyControl *bool
}

// LoadServer reads relay configuration: CLI flag > env > default.
func LoadServer(opts ServerOptions) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Addr:           firstNonEmpty(opts.Addr, os.Getenv("ADDR"), DefaultAddr),
		AllowedOrigins: splitList(firstNonEmpty(opts.AllowedOrigins, os.Getenv("ALLOWED_ORIGINS"))),
		RedisURL:       firstNonEmpty(opts.RedisURL, os.Getenv("REDIS_URL")),
		RedisKeyPrefix: firstNonEmpty(opts.RedisKeyPrefix, os.Getenv("REDIS_KEY_PREFIX"), DefaultRedisKeyPrefix),
	}

	var err error
	if cfg.BufferTTL, err = loadDuration(opts.BufferTTL, "BUFFER_TTL", DefaultBufferTTL); err != nil {
		return nil, err
	}
	if cfg.RoomTTL, err = loadDuration(opts.RoomTTL, "ROOM_TTL", DefaultRoomTTL); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = loadDuration(opts.SweepInterval, "SWEEP_INTERVAL", DefaultSweepInterval); err != nil {
		return nil, err
	}

	cfg.SendQueue = opts.SendQueue
	if cfg.SendQueue == 0 {
		cfg.SendQueue = DefaultSendQueue
		if v := os.Getenv("SEND_QUEUE"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("SEND_QUEUE must be a positive integer, got %q", v)
			}
			cfg.SendQueue = n
		}
	}

	switch {
	case opts.HostOnlyControl != nil:
		cfg.HostOnlyControl = *opts.HostOnlyControl
	case os.Getenv("HOST_ONLY_CONTROL") != "":
		v, err := strconv.ParseBool(os.Getenv("HOST_ONLY_CONTROL"))
		if err != nil {
			return nil, fmt.Errorf("HOST_ONLY_CONTROL: %w", err)
		}
		cfg.HostOnlyControl = v
	}

	return cfg, nil
}

func loadDuration(flag time.Duration, env string, def time.Duration) (time.Duration, error) {
	if flag != 0 {
		return flag, nil
	}
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", env, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", env, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
