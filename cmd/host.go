package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/protocol"
	"github.com/BioHazard786/syncwatch/internal/stream"
	"github.com/BioHazard786/syncwatch/internal/ui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	defaultPushRate = 2 * 1024 * 1024
	seekStep        = 10.0
	createTimeout   = 15 * time.Second
)

var (
	flagHostConn      connFlags
	flagHostRate      int64
	flagHostChunkSize int
	flagHostPlain     bool
)

var hostCmd = &cobra.Command{
	Use:     "host <video-file>",
	Aliases: []string{"h"},
	Short:   "Create a room and stream a video to its viewers",
	Long: `Create a watch room and stream a local video file to every viewer.

Each viewer gets the file over its own WebRTC data channel; the same chunks
are pushed to the relay so late joiners can catch up at the live edge.

Controls: space plays or pauses, left and right seek by 10 seconds, q quits.
With --plain, type play, pause or seek <seconds> on stdin instead.

Examples:
  syncwatch host movie.mp4
  syncwatch host --domain watch.example.com movie.mp4
  syncwatch host --rate 0 --plain movie.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostVideo(cmd, args[0])
	},
}

func hostVideo(cmd *cobra.Command, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return client.WrapError("open video", err, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	cfg, err := LoadConfig(flagHostConn.options(cmd))
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Println()
	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	conn, err := NewConnectionContext(ctx, cfg)
	stopSpinner()
	if err != nil {
		return err
	}
	defer conn.Close()

	participantID := uuid.NewString()
	videoName := filepath.Base(path)

	roomID, err := createRoom(ctx, conn, participantID, videoName)
	if err != nil {
		return err
	}
	ui.NewRoomInfo(roomID, cfg.GetRoomLink(roomID), videoName).Render()

	host, err := stream.NewHost(conn.Client, stream.HostOptions{
		Config:        cfg,
		RoomID:        roomID,
		ParticipantID: participantID,
		Path:          path,
		ChunkSize:     flagHostChunkSize,
		PushRate:      flagHostRate,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- host.Run(ctx, conn.Handler)
	}()

	if flagHostPlain {
		go readCommands(ctx, os.Stdin, host)
		err = <-runErr
	} else {
		err = runHostView(host, roomID, cfg.GetRoomLink(roomID), cancel, runErr)
	}

	if errors.Is(err, context.Canceled) {
		ui.PrintSuccess("Room closed")
		return nil
	}
	return err
}

func createRoom(ctx context.Context, conn *ConnectionContext, participantID, videoName string) (string, error) {
	err := conn.Client.Send(protocol.EventCreateRoom, protocol.CreateRoom{
		CreatorID: participantID,
		VideoName: videoName,
	})
	if err != nil {
		return "", client.NewError("create room", err)
	}

	timeout := time.NewTimer(createTimeout)
	defer timeout.Stop()

	select {
	case created := <-conn.Handler.RoomCreated:
		return created.RoomID, nil
	case e := <-conn.Handler.Error:
		return "", client.WrapError("create room", client.ErrServer, e.Error)
	case <-conn.Handler.Disconnected:
		return "", client.NewError("create room", client.ErrDisconnected)
	case <-timeout.C:
		return "", client.NewError("create room", client.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readCommands applies play, pause and seek lines from r until EOF.
func readCommands(ctx context.Context, r io.Reader, host *stream.Host) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		c, err := stream.ParseCommand(scanner.Text())
		if err != nil {
			ui.PrintWarning(err.Error())
			continue
		}
		if err := c.Apply(host); err != nil {
			ui.PrintError(err.Error())
		}
	}
}

func runHostView(host *stream.Host, roomID, link string, cancel context.CancelFunc, runErr <-chan error) error {
	view := ui.NewLiveView(func() ui.LiveStatus {
		s := host.Status()
		return ui.LiveStatus{
			Title:    "Hosting " + roomID,
			Video:    s.Name,
			State:    fmt.Sprintf("%d viewer(s) watching", s.Viewers),
			Position: s.Position,
			Playing:  s.Playing,
			Received: s.Pushed,
			Size:     s.Size,
			Details: [][2]string{
				{"Link", link},
				{"Pushed to relay", ui.FormatSize(s.Pushed)},
				{"Viewers", strconv.Itoa(s.Viewers)},
			},
		}
	}, func(key string) {
		hostKey(host, key)
	}, "space play/pause • ←/→ seek 10s • q quit")

	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		err = <-runErr
		view.Stop()
	}()

	if viewErr := view.Run(); viewErr != nil {
		cancel()
		<-done
		return viewErr
	}

	cancel()
	<-done
	return err
}

func hostKey(host *stream.Host, key string) {
	var err error
	switch key {
	case " ", "p":
		if host.Status().Playing {
			err = host.Pause()
		} else {
			err = host.Play()
		}
	case "left", "h":
		err = host.Seek(max(0, host.Status().Position-seekStep))
	case "right", "l":
		err = host.Seek(host.Status().Position + seekStep)
	}
	if err != nil {
		ui.PrintError(err.Error())
	}
}

func init() {
	rootCmd.AddCommand(hostCmd)

	flagHostConn.register(hostCmd)
	hostCmd.Flags().Int64Var(&flagHostRate, "rate", defaultPushRate, "Bytes per second pushed to the relay buffer, 0 disables")
	hostCmd.Flags().IntVar(&flagHostChunkSize, "chunk-size", stream.DefaultChunkSize, "Bytes per video chunk")
	hostCmd.Flags().BoolVar(&flagHostPlain, "plain", false, "Read playback commands from stdin instead of showing the live view")
}
