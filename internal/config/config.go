package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Default client configuration values
const (
	DefaultDomain = "localhost:8080"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
)

// Config holds client configuration
type Config struct {
	// Domain is the relay host, with an optional port
	Domain string

	// Insecure selects ws:// and http:// instead of wss:// and https://
	Insecure bool

	// WebSocketURL and StatsURL are constructed from domain
	WebSocketURL string
	StatsURL     string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain     string
	Insecure   *bool
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := firstNonEmpty(opts.Domain, os.Getenv("DOMAIN"), DefaultDomain)
	domain = strings.TrimSuffix(domain, "/")
	if strings.Contains(domain, "://") {
		return nil, fmt.Errorf("DOMAIN must be a host, got %q", domain)
	}

	insecure := isLocal(domain)
	switch {
	case opts.Insecure != nil:
		insecure = *opts.Insecure
	case os.Getenv("INSECURE") != "":
		v, err := strconv.ParseBool(os.Getenv("INSECURE"))
		if err != nil {
			return nil, fmt.Errorf("INSECURE: %w", err)
		}
		insecure = v
	}

	wsScheme, httpScheme := "wss", "https"
	if insecure {
		wsScheme, httpScheme = "ws", "http"
	}

	return &Config{
		Domain:       domain,
		Insecure:     insecure,
		WebSocketURL: fmt.Sprintf("%s://%s/ws", wsScheme, domain),
		StatsURL:     fmt.Sprintf("%s://%s/stats", httpScheme, domain),
		STUNServer:   firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer:   firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:     firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:     firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
	}, nil
}

// GetRoomLink returns the shareable URL for a room ID
func (c *Config) GetRoomLink(roomID string) string {
	scheme := "https"
	if c.Insecure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/r/%s", scheme, c.Domain, roomID)
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	host := strings.TrimPrefix(c.TURNServer, "turn:")
	return []string{
		fmt.Sprintf("turn:%s:3478?transport=udp", host),
		fmt.Sprintf("turn:%s:3478?transport=tcp", host),
		fmt.Sprintf("turns:%s:5349?transport=tcp", host),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isLocal(domain string) bool {
	host := domain
	if h, _, err := net.SplitHostPort(domain); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
