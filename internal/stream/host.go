package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/config"
	"github.com/BioHazard786/syncwatch/internal/protocol"
)

// HostOptions configures a hosting session.
type HostOptions struct {
	Config        *config.Config
	RoomID        string
	ParticipantID string

	// Path is the video file to share.
	Path string

	ChunkSize int

	// PushRate caps the bytes per second pushed to the relay buffer.
	// Zero disables pushing.
	PushRate int64

	// SyncInterval is how often the playback position is broadcast.
	SyncInterval time.Duration

	Logger *slog.Logger
}

// HostStatus is a snapshot for the terminal UI.
type HostStatus struct {
	Name     string
	Size     uint64
	Position float64
	Playing  bool
	Viewers  int
	Pushed   uint64
}

// Host streams a file to every viewer and drives the shared clock.
type Host struct {
	opts  HostOptions
	sig   Sender
	name  string
	size  uint64
	clock *Clock
	log   *slog.Logger

	mu      sync.Mutex
	viewers map[string]*peer

	pushed atomic.Uint64
}

// NewHost prepares a session for opts.Path.
func NewHost(sig Sender, opts HostOptions) (*Host, error) {
	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, client.WrapError("open video", err, opts.Path)
	}
	if info.IsDir() {
		return nil, client.WrapError("open video", errors.New("is a directory"), opts.Path)
	}

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Host{
		opts:    opts,
		sig:     sig,
		name:    filepath.Base(opts.Path),
		size:    uint64(info.Size()),
		clock:   NewClock(),
		log:     opts.Logger.With("room", opts.RoomID),
		viewers: make(map[string]*peer),
	}, nil
}

// Status reports the current session state.
func (h *Host) Status() HostStatus {
	h.mu.Lock()
	viewers := len(h.viewers)
	h.mu.Unlock()

	return HostStatus{
		Name:     h.name,
		Size:     h.size,
		Position: h.clock.Position(),
		Playing:  h.clock.Playing(),
		Viewers:  viewers,
		Pushed:   h.pushed.Load(),
	}
}

// Play starts the shared clock and tells the room.
func (h *Host) Play() error {
	h.clock.Play()
	return h.sig.Send(protocol.EventPlayPause, protocol.PlayPause{
		RoomID: h.opts.RoomID,
		Action: protocol.ActionPlay,
		UserID: h.opts.ParticipantID,
	})
}

// Pause stops the shared clock and tells the room.
func (h *Host) Pause() error {
	h.clock.Pause()
	return h.sig.Send(protocol.EventPlayPause, protocol.PlayPause{
		RoomID: h.opts.RoomID,
		Action: protocol.ActionPause,
		UserID: h.opts.ParticipantID,
	})
}

// Seek moves the shared clock and tells the room.
func (h *Host) Seek(t float64) error {
	h.clock.Seek(t)
	return h.sig.Send(protocol.EventSeek, protocol.Seek{
		RoomID: h.opts.RoomID,
		Time:   &t,
		UserID: h.opts.ParticipantID,
	})
}

// Run serves viewers until ctx is done or the relay connection drops.
func (h *Host) Run(ctx context.Context, events *client.Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer h.closeAll()

	if h.opts.PushRate > 0 {
		go h.pushLoop(ctx)
	}

	ticker := time.NewTicker(h.opts.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-events.Disconnected:
			return client.NewError("host", client.ErrDisconnected)

		case vj := <-events.ViewerJoined:
			if err := h.addViewer(ctx, vj.ViewerID); err != nil {
				h.log.Warn("viewer setup failed", "viewer", vj.ViewerID, "err", err)
			}

		case s := <-events.Signal:
			h.mu.Lock()
			p := h.viewers[s.From]
			h.mu.Unlock()
			if p == nil {
				h.log.Debug("signal from unknown viewer", "from", s.From)
				continue
			}
			if err := p.handleSignal(s.Payload); err != nil {
				h.log.Warn("signal failed", "viewer", s.From, "err", err)
			}

		case left := <-events.ParticipantLeft:
			h.removeViewer(left.ParticipantID)

		case pp := <-events.PlayPause:
			h.clock.Apply(pp.Action)

		case sk := <-events.Seek:
			if sk.Time != nil {
				h.clock.Seek(*sk.Time)
			}

		case e := <-events.Error:
			h.log.Warn("relay rejected event", "event", e.Event, "err", e.Error)

		case <-ticker.C:
			now := h.clock.Position()
			if err := h.sig.Send(protocol.EventSync, protocol.Sync{RoomID: h.opts.RoomID, CurrentTime: &now}); err != nil {
				h.log.Debug("sync not sent", "err", err)
			}
		}
	}
}

// addViewer negotiates a peer connection and media channel for a viewer.
// A viewer that rejoins gets a fresh connection.
func (h *Host) addViewer(ctx context.Context, viewerID string) error {
	h.removeViewer(viewerID)

	p, err := newPeer(h.opts.Config, h.sig, h.opts.RoomID, h.opts.ParticipantID, viewerID, h.log)
	if err != nil {
		return err
	}

	ordered := true
	dc, err := p.pc.CreateDataChannel(MediaChannel, &pion.DataChannelInit{Ordered: &ordered})
	if err != nil {
		p.close()
		return client.NewError("create data channel", err)
	}
	dc.OnOpen(func() {
		go func() {
			if err := h.streamTo(ctx, newChannelSender(dc)); err != nil && !errors.Is(err, context.Canceled) {
				h.log.Warn("stream to viewer stopped", "viewer", viewerID, "err", err)
			}
		}()
	})

	h.mu.Lock()
	h.viewers[viewerID] = p
	h.mu.Unlock()

	h.log.Info("viewer joined", "viewer", viewerID)
	return p.offer()
}

func (h *Host) removeViewer(viewerID string) {
	h.mu.Lock()
	p, ok := h.viewers[viewerID]
	delete(h.viewers, viewerID)
	h.mu.Unlock()

	if ok {
		p.close()
		h.log.Info("viewer left", "viewer", viewerID)
	}
}

func (h *Host) closeAll() {
	h.mu.Lock()
	viewers := h.viewers
	h.viewers = make(map[string]*peer)
	h.mu.Unlock()

	for _, p := range viewers {
		p.close()
	}
}

// streamTo sends the metadata frame and then the whole file over one channel.
func (h *Host) streamTo(ctx context.Context, s *channelSender) error {
	if err := s.send(ctx, Frame{Type: FrameMetadata, Name: h.name, Size: h.size}); err != nil {
		return err
	}

	file, err := os.Open(h.opts.Path)
	if err != nil {
		return client.WrapError("open video", err, h.opts.Path)
	}
	defer file.Close()

	chunks := NewChunker(file, h.size, h.opts.ChunkSize)
	for {
		f, err := chunks.Next()
		if err == io.EOF {
			s.drain()
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.send(ctx, f); err != nil {
			return fmt.Errorf("chunk %d: %w", f.Seq, err)
		}
	}
}

// pushLoop reads the file once at PushRate and pushes every frame to the
// relay buffer so late joiners can start from the live edge.
func (h *Host) pushLoop(ctx context.Context) {
	file, err := os.Open(h.opts.Path)
	if err != nil {
		h.log.Warn("push disabled", "err", err)
		return
	}
	defer file.Close()

	interval := time.Duration(float64(time.Second) * float64(h.opts.ChunkSize) / float64(h.opts.PushRate))
	interval = max(interval, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	chunks := NewChunker(file, h.size, h.opts.ChunkSize)
	for {
		f, err := chunks.Next()
		if err == io.EOF {
			h.log.Debug("push finished", "bytes", h.pushed.Load())
			return
		}
		if err != nil {
			h.log.Warn("push stopped", "err", err)
			return
		}

		data, err := f.Encode()
		if err != nil {
			h.log.Warn("push stopped", "err", err)
			return
		}
		if err := h.sig.Send(protocol.EventPushChunk, protocol.PushChunk{RoomID: h.opts.RoomID, Chunk: data}); err != nil {
			h.log.Debug("push stopped", "err", err)
			return
		}
		h.pushed.Add(uint64(len(f.Bytes)))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
