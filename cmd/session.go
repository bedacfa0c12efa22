package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/config"
	"github.com/spf13/cobra"
)

// connFlags are the relay and ICE flags shared by host and watch.
type connFlags struct {
	domain   string
	insecure bool
	stun     string
	turn     string
	turnUser string
	turnPass string
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.domain, "domain", "d", "", "Relay domain, e.g. watch.example.com")
	cmd.Flags().BoolVar(&f.insecure, "insecure", false, "Use ws:// and http:// instead of wss:// and https://")
	cmd.Flags().StringVarP(&f.stun, "stun", "s", "", "Custom STUN server")
	cmd.Flags().StringVarP(&f.turn, "turn", "t", "", "Custom TURN server")
	cmd.Flags().StringVarP(&f.turnUser, "turn-user", "u", "", "TURN username")
	cmd.Flags().StringVarP(&f.turnPass, "turn-pass", "p", "", "TURN password")
}

// options leaves Insecure nil unless the flag was given, so the env and
// localhost defaults still apply.
func (f *connFlags) options(cmd *cobra.Command) config.Options {
	opts := config.Options{
		Domain:     f.domain,
		STUNServer: f.stun,
		TURNServer: f.turn,
		TURNUser:   f.turnUser,
		TURNPass:   f.turnPass,
	}
	if cmd.Flags().Changed("insecure") {
		insecure := f.insecure
		opts.Insecure = &insecure
	}
	return opts
}

// ConnectionContext is an open relay connection with its event handler.
type ConnectionContext struct {
	Client  *client.Client
	Handler *client.Handler
	Config  *config.Config
}

func NewConnectionContext(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	c := client.NewClient(cfg.WebSocketURL)
	if err := c.Connect(ctx); err != nil {
		return nil, client.NewError("connect to relay", err)
	}

	handler := client.NewHandler(c)
	go handler.Start()

	return &ConnectionContext{
		Client:  c,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, client.NewError("load config", err)
	}
	if cfg.TURNServer != "" && (cfg.TURNUser == "" || cfg.TURNPass == "") {
		slog.Warn("TURN server configured without credentials", "turn", cfg.TURNServer)
	}
	return cfg, nil
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
