package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/BioHazard786/syncwatch/internal/buffer"
	"github.com/BioHazard786/syncwatch/internal/config"
	"github.com/BioHazard786/syncwatch/internal/logging"
	"github.com/BioHazard786/syncwatch/internal/server"
	"github.com/BioHazard786/syncwatch/internal/signaling"
	"github.com/spf13/cobra"
)

var (
	flagServeAddr          string
	flagServeOrigins       string
	flagServeRedisURL      string
	flagServeRedisPrefix   string
	flagServeBufferTTL     time.Duration
	flagServeRoomTTL       time.Duration
	flagServeSweepInterval time.Duration
	flagServeSendQueue     int
	flagServeHostOnly      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Long: `Run the relay that hosts rooms, forwards signaling and buffers video chunks.

Chunk buffers live in memory unless --redis-url (or REDIS_URL) is set.

Examples:
  syncwatch serve
  syncwatch serve --addr :9000 --allowed-origins https://watch.example.com
  syncwatch serve --redis-url redis://localhost:6379/0 --host-only-control`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := config.ServerOptions{
			Addr:           flagServeAddr,
			AllowedOrigins: flagServeOrigins,
			RedisURL:       flagServeRedisURL,
			RedisKeyPrefix: flagServeRedisPrefix,
			BufferTTL:      flagServeBufferTTL,
			RoomTTL:        flagServeRoomTTL,
			SweepInterval:  flagServeSweepInterval,
			SendQueue:      flagServeSendQueue,
		}
		if cmd.Flags().Changed("host-only-control") {
			hostOnly := flagServeHostOnly
			opts.HostOnlyControl = &hostOnly
		}

		cfg, err := config.LoadServer(opts)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.ServerConfig) error {
	// The relay logs at info unless LOG_LEVEL says otherwise.
	log := logging.Init(slog.LevelInfo)

	ctx, stop := signalContext()
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := signaling.NewHub(signaling.Options{
		Store:           store,
		Logger:          log,
		SendQueue:       cfg.SendQueue,
		RoomTTL:         cfg.RoomTTL,
		SweepInterval:   cfg.SweepInterval,
		HostOnlyControl: cfg.HostOnlyControl,
	})

	srv, err := server.Listen(cfg.Addr, hub, cfg.AllowedOrigins, log)
	if err != nil {
		return err
	}

	log.Info("relay listening",
		"addr", srv.Addr(),
		"redis", cfg.RedisURL != "",
		"host_only_control", cfg.HostOnlyControl,
		"origins", len(cfg.AllowedOrigins),
	)
	return srv.Serve(ctx)
}

func openStore(ctx context.Context, cfg *config.ServerConfig) (buffer.Store, func(), error) {
	if cfg.RedisURL == "" {
		return buffer.NewMemoryStore(), func() {}, nil
	}

	store, err := buffer.NewRedisStore(ctx, buffer.RedisOptions{
		URL:       cfg.RedisURL,
		KeyPrefix: cfg.RedisKeyPrefix,
		TTL:       cfg.BufferTTL,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&flagServeAddr, "addr", "a", "", "Listen address (default :8080)")
	serveCmd.Flags().StringVar(&flagServeOrigins, "allowed-origins", "", "Comma separated browser origins allowed to connect")
	serveCmd.Flags().StringVar(&flagServeRedisURL, "redis-url", "", "Redis URL for chunk buffers")
	serveCmd.Flags().StringVar(&flagServeRedisPrefix, "redis-prefix", "", "Redis key prefix (default room:)")
	serveCmd.Flags().DurationVar(&flagServeBufferTTL, "buffer-ttl", 0, "Expiry of idle Redis buffers (default 1h)")
	serveCmd.Flags().DurationVar(&flagServeRoomTTL, "room-ttl", 0, "How long vacant rooms are kept (default 10m)")
	serveCmd.Flags().DurationVar(&flagServeSweepInterval, "sweep-interval", 0, "How often vacant rooms are swept (default 1m)")
	serveCmd.Flags().IntVar(&flagServeSendQueue, "send-queue", 0, "Per-connection outbound queue length (default 256)")
	serveCmd.Flags().BoolVar(&flagServeHostOnly, "host-only-control", false, "Only the host may send playback events and chunks")
}
