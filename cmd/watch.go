package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/protocol"
	"github.com/BioHazard786/syncwatch/internal/stream"
	"github.com/BioHazard786/syncwatch/internal/ui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagWatchConn connFlags
	flagWatchOut  string
	flagWatchID   string
)

var watchCmd = &cobra.Command{
	Use:     "watch <room-id|url>",
	Aliases: []string{"w"},
	Short:   "Join a room and follow the host's video",
	Long: `Join a watch room, receive the host's video and follow its playback.

The video is written to --out (default: the host's file name in the current
directory) as chunks arrive from the host or the relay buffer.

Examples:
  syncwatch watch ABC123
  syncwatch watch https://watch.example.com/r/ABC123
  syncwatch watch ABC123 --out ~/Videos/movie.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		return watchRoom(cmd, roomID)
	},
}

func watchRoom(cmd *cobra.Command, roomID string) error {
	cfg, err := LoadConfig(flagWatchConn.options(cmd))
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

	participantID := flagWatchID
	if participantID == "" {
		participantID = uuid.NewString()
	}

	viewer := stream.NewViewer(conn.Client, stream.ViewerOptions{
		Config:        cfg,
		RoomID:        roomID,
		ParticipantID: participantID,
		OutPath:       flagWatchOut,
	})
	defer viewer.Close()

	stopSpinner = ui.RunWaitingSpinner("Joining room " + roomID + "...")
	joined, err := viewer.Join(ctx, conn.Handler)
	stopSpinner()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ui.ParticipantTable(joined.Participants, joined.HostID, participantID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	runErr := make(chan error, 1)
	go func() {
		runErr <- viewer.Run(ctx, conn.Handler)
	}()

	err = runWatchView(viewer, cancel, runErr)

	s := viewer.Status()
	ui.RenderSessionSummary(ui.SessionSummary{
		Status:    watchOutcome(s, err),
		Video:     s.Name,
		Received:  s.Received,
		Size:      s.Size,
		FromPeer:  s.FromPeer,
		FromRelay: s.FromRelay,
		Position:  s.Position,
		Path:      s.Path,
		Duration:  time.Since(start),
	})

	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, stream.ErrHostLeft) {
		return nil
	}
	return err
}

func runWatchView(viewer *stream.Viewer, cancel context.CancelFunc, runErr <-chan error) error {
	view := ui.NewLiveView(func() ui.LiveStatus {
		s := viewer.Status()
		return ui.LiveStatus{
			Title:    "Watching " + s.RoomID,
			Video:    s.Name,
			State:    "Peer " + s.PeerState,
			Position: s.Position,
			Playing:  s.Playing,
			Received: s.Received,
			Size:     s.Size,
			Complete: s.Complete,
			Details: [][2]string{
				{"Chunks from host", strconv.Itoa(s.FromPeer)},
				{"Chunks from relay", strconv.Itoa(s.FromRelay)},
				{"Saving to", s.Path},
			},
		}
	}, nil, "q quit")

	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		err = <-runErr
		view.Stop()
	}()

	viewErr := view.Run()
	cancel()
	<-done
	if viewErr != nil {
		return viewErr
	}
	return err
}

func watchOutcome(s stream.ViewerStatus, err error) string {
	switch {
	case errors.Is(err, stream.ErrHostLeft):
		return "Host left"
	case errors.Is(err, client.ErrDisconnected):
		return "Disconnected"
	case s.Complete:
		return "Complete"
	case err == nil || errors.Is(err, context.Canceled):
		return "Stopped"
	}
	return "Failed"
}

// parseRoomInput accepts a room code or a room link such as
// https://watch.example.com/r/ABC123.
func parseRoomInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("room ID cannot be empty")
	}

	roomID := input
	if strings.Contains(input, "/") {
		var err error
		if roomID, err = extractRoomIDFromURL(input); err != nil {
			return "", err
		}
	}

	roomID = protocol.NormalizeRoomID(roomID)
	if !protocol.ValidRoomID(roomID) {
		return "", fmt.Errorf("invalid room ID %q: expected 6 hex characters", roomID)
	}
	return roomID, nil
}

func extractRoomIDFromURL(urlStr string) (string, error) {
	if !strings.Contains(urlStr, "://") {
		urlStr = "https://" + urlStr
	}
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", client.NewError("parse URL", err)
	}

	parts := strings.Split(strings.TrimSuffix(parsedURL.Path, "/"), "/")
	for i, part := range parts {
		if part == "r" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}

	return "", fmt.Errorf("could not extract room ID from URL: %s", urlStr)
}

func init() {
	rootCmd.AddCommand(watchCmd)

	flagWatchConn.register(watchCmd)
	watchCmd.Flags().StringVarP(&flagWatchOut, "out", "o", "", "Where to save the video")
	watchCmd.Flags().StringVar(&flagWatchID, "id", "", "Participant id to rejoin with (default: random)")
}
