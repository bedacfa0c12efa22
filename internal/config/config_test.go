package config

import (
	"slices"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DOMAIN", "INSECURE", "STUN_SERVER", "TURN_SERVER", "TURN_USERNAME", "TURN_PASSWORD",
		"ADDR", "ALLOWED_ORIGINS", "REDIS_URL", "REDIS_KEY_PREFIX", "BUFFER_TTL",
		"ROOM_TTL", "SWEEP_INTERVAL", "SEND_QUEUE", "HOST_ONLY_CONTROL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WebSocketURL != "ws://localhost:8080/ws" {
		t.Errorf("WebSocketURL = %q", cfg.WebSocketURL)
	}
	if cfg.StatsURL != "http://localhost:8080/stats" {
		t.Errorf("StatsURL = %q", cfg.StatsURL)
	}
	if got := cfg.GetRoomLink("ABC123"); got != "http://localhost:8080/r/ABC123" {
		t.Errorf("GetRoomLink = %q", got)
	}
	if got := cfg.GetSTUNServers(); !slices.Equal(got, []string{DefaultSTUN}) {
		t.Errorf("GetSTUNServers = %v", got)
	}
	if got := cfg.GetTURNServers(); got != nil {
		t.Errorf("GetTURNServers = %v", got)
	}
}

func TestLoadPriority(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOMAIN", "env.example.com")
	t.Setenv("STUN_SERVER", "stun:env.example.com:3478")

	cfg, err := Load(Options{Domain: "flag.example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Domain != "flag.example.com" {
		t.Errorf("Domain = %q, flag should win", cfg.Domain)
	}
	if cfg.STUNServer != "stun:env.example.com:3478" {
		t.Errorf("STUNServer = %q, env should win over default", cfg.STUNServer)
	}
	if cfg.WebSocketURL != "wss://flag.example.com/ws" {
		t.Errorf("WebSocketURL = %q", cfg.WebSocketURL)
	}
}

func TestLoadInsecure(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name   string
		domain string
		env    string
		flag   *bool
		want   bool
	}{
		{"public host", "watch.example.com", "", nil, false},
		{"localhost", "localhost:9000", "", nil, true},
		{"loopback ip", "127.0.0.1:8080", "", nil, true},
		{"env forces", "watch.example.com", "true", nil, true},
		{"flag beats env", "watch.example.com", "true", &no, false},
		{"flag on public host", "watch.example.com", "", &yes, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("INSECURE", tt.env)

			cfg, err := Load(Options{Domain: tt.domain, Insecure: tt.flag})
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Insecure != tt.want {
				t.Errorf("Insecure = %v, want %v", cfg.Insecure, tt.want)
			}
		})
	}
}

func TestLoadRejectsURL(t *testing.T) {
	clearEnv(t)
	if _, err := Load(Options{Domain: "https://watch.example.com"}); err == nil {
		t.Error("expected an error for a domain with a scheme")
	}
}

func TestTURNServers(t *testing.T) {
	clearEnv(t)
	t.Setenv("TURN_SERVER", "turn.example.com")
	t.Setenv("TURN_USERNAME", "user")
	t.Setenv("TURN_PASSWORD", "pass")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"turn:turn.example.com:3478?transport=udp",
		"turn:turn.example.com:3478?transport=tcp",
		"turns:turn.example.com:5349?transport=tcp",
	}
	if got := cfg.GetTURNServers(); !slices.Equal(got, want) {
		t.Errorf("GetTURNServers = %v", got)
	}
	if u, p := cfg.GetTURNCredentials(); u != "user" || p != "pass" {
		t.Errorf("credentials = %q, %q", u, p)
	}
}

func TestLoadServerDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadServer(ServerOptions{})
	if err != nil {
		t.Fatal(err)
	}

	want := ServerConfig{
		Addr:           DefaultAddr,
		RedisKeyPrefix: DefaultRedisKeyPrefix,
		BufferTTL:      DefaultBufferTTL,
		RoomTTL:        DefaultRoomTTL,
		SweepInterval:  DefaultSweepInterval,
		SendQueue:      DefaultSendQueue,
	}
	if cfg.Addr != want.Addr || cfg.RedisKeyPrefix != want.RedisKeyPrefix ||
		cfg.BufferTTL != want.BufferTTL || cfg.RoomTTL != want.RoomTTL ||
		cfg.SweepInterval != want.SweepInterval || cfg.SendQueue != want.SendQueue ||
		cfg.HostOnlyControl || cfg.RedisURL != "" || cfg.AllowedOrigins != nil {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoadServerEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ROOM_TTL", "30s")
	t.Setenv("SEND_QUEUE", "64")
	t.Setenv("HOST_ONLY_CONTROL", "true")

	cfg, err := LoadServer(ServerOptions{RoomTTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Addr != ":9999" || cfg.RedisURL != "redis://localhost:6379/0" || cfg.SendQueue != 64 || !cfg.HostOnlyControl {
		t.Errorf("config = %+v", cfg)
	}
	if !slices.Equal(cfg.AllowedOrigins, []string{"https://a.example.com", "https://b.example.com"}) {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.RoomTTL != time.Minute {
		t.Errorf("RoomTTL = %v, flag should win", cfg.RoomTTL)
	}
}

func TestLoadServerInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ROOM_TTL", "soon"},
		{"BUFFER_TTL", "-1h"},
		{"SEND_QUEUE", "0"},
		{"SEND_QUEUE", "lots"},
		{"HOST_ONLY_CONTROL", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadServer(ServerOptions{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
