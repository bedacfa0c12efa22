package stream

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/config"
	"github.com/BioHazard786/syncwatch/internal/protocol"
	"github.com/BioHazard786/syncwatch/internal/server"
	"github.com/BioHazard786/syncwatch/internal/signaling"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func dialRelay(t *testing.T, url string) (*client.Client, *client.Handler) {
	t.Helper()
	c := client.NewClient(url)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	h := client.NewHandler(c)
	go h.Start()
	return c, h
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// The viewer must end up with the host's file whichever path delivers it,
// and its clock must follow the host's controls.
func TestHostToViewer(t *testing.T) {
	hub := signaling.NewHub(signaling.Options{Logger: discard})
	ts := httptest.NewServer(server.NewRouter(hub, nil, discard))
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	// No ICE servers keeps the test off the network.
	cfg := &config.Config{}

	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	content := bytes.Repeat([]byte("0123456789abcdef"), 3*1024) // 48 KiB, 3 chunks
	if err := os.WriteFile(video, content, 0644); err != nil {
		t.Fatal(err)
	}

	hostClient, hostEvents := dialRelay(t, url)
	hostClient.Send(protocol.EventCreateRoom, protocol.CreateRoom{CreatorID: "host-1", VideoName: "clip.mp4"})

	var roomID string
	select {
	case created := <-hostEvents.RoomCreated:
		roomID = created.RoomID
	case <-time.After(2 * time.Second):
		t.Fatal("no room-created")
	}

	host, err := NewHost(hostClient, HostOptions{
		Config:        cfg,
		RoomID:        roomID,
		ParticipantID: "host-1",
		Path:          video,
		PushRate:      10 * 1024 * 1024,
		SyncInterval:  50 * time.Millisecond,
		Logger:        discard,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go host.Run(ctx, hostEvents)

	eventually(t, "host to push the file", func() bool {
		return host.Status().Pushed == uint64(len(content))
	})

	viewerClient, viewerEvents := dialRelay(t, url)
	viewer := NewViewer(viewerClient, ViewerOptions{
		Config:        cfg,
		RoomID:        roomID,
		ParticipantID: "viewer-1",
		OutPath:       filepath.Join(dir, "out", "clip.mp4"),
		Logger:        discard,
	})
	defer viewer.Close()

	joined, err := viewer.Join(ctx, viewerEvents)
	if err != nil {
		t.Fatal(err)
	}
	if joined.HostID != "host-1" || joined.VideoName != "clip.mp4" {
		t.Errorf("room-joined = %+v", joined)
	}
	go viewer.Run(ctx, viewerEvents)

	eventually(t, "viewer to receive the file", func() bool {
		return viewer.Status().Complete
	})

	status := viewer.Status()
	got, err := os.ReadFile(status.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("received %d bytes that differ from the %d sent", len(got), len(content))
	}

	if err := host.Seek(42); err != nil {
		t.Fatal(err)
	}
	eventually(t, "viewer clock to follow the seek", func() bool {
		p := viewer.Status().Position
		return p >= 42 && p < 43
	})

	if err := host.Play(); err != nil {
		t.Fatal(err)
	}
	eventually(t, "viewer to start playing", func() bool {
		return viewer.Status().Playing
	})
}

func TestNewHostMissingFile(t *testing.T) {
	_, err := NewHost(nil, HostOptions{Path: filepath.Join(t.TempDir(), "missing.mp4")})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestDefaultOutPath(t *testing.T) {
	tests := []struct {
		joined protocol.RoomJoined
		want   string
	}{
		{protocol.RoomJoined{RoomID: "ABC123", VideoName: "movie.mkv"}, "movie.mkv"},
		{protocol.RoomJoined{RoomID: "ABC123", VideoName: "../../etc/movie.mkv"}, "movie.mkv"},
		{protocol.RoomJoined{RoomID: "ABC123"}, "syncwatch-ABC123.bin"},
	}

	for _, tt := range tests {
		if got := defaultOutPath(tt.joined); got != tt.want {
			t.Errorf("defaultOutPath(%+v) = %q, want %q", tt.joined, got, tt.want)
		}
	}
}
