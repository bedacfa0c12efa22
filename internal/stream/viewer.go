package stream

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/config"
	"github.com/BioHazard786/syncwatch/internal/protocol"
)

const (
	joinTimeout = 15 * time.Second

	// driftTolerance is how far the local clock may wander from the host's
	// sync before it is snapped back.
	driftTolerance = 500 * time.Millisecond

	// bufferPollInterval paces request-buffer while no data channel is open.
	bufferPollInterval = 2 * time.Second
)

// ViewerOptions configures a watching session.
type ViewerOptions struct {
	Config        *config.Config
	RoomID        string
	ParticipantID string

	// OutPath is where the video is written. Defaults to the announced
	// video name in the current directory.
	OutPath string

	Logger *slog.Logger
}

// ViewerStatus is a snapshot for the terminal UI.
type ViewerStatus struct {
	RoomID     string
	HostID     string
	Name       string
	Path       string
	Position   float64
	Playing    bool
	Received   uint64
	Size       uint64
	Complete   bool
	PeerState  string
	FromPeer   int
	FromRelay  int
	HostIsGone bool
}

// Viewer joins a room, receives the host's frames and follows its clock.
type Viewer struct {
	opts  ViewerOptions
	sig   Sender
	clock *Clock
	log   *slog.Logger

	mu        sync.Mutex
	hostID    string
	name      string
	writer    *Writer
	peer      *peer
	channel   bool
	fromPeer  int
	fromRelay int
	hostGone  bool
}

func NewViewer(sig Sender, opts ViewerOptions) *Viewer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Viewer{
		opts:  opts,
		sig:   sig,
		clock: NewClock(),
		log:   opts.Logger.With("room", opts.RoomID),
	}
}

// Join sends join-room and waits for the relay's snapshot.
func (v *Viewer) Join(ctx context.Context, events *client.Handler) (protocol.RoomJoined, error) {
	err := v.sig.Send(protocol.EventJoinRoom, protocol.JoinRoom{
		RoomID:        v.opts.RoomID,
		ParticipantID: v.opts.ParticipantID,
	})
	if err != nil {
		return protocol.RoomJoined{}, err
	}

	timeout := time.NewTimer(joinTimeout)
	defer timeout.Stop()

	var joined protocol.RoomJoined
	select {
	case joined = <-events.RoomJoined:
	case e := <-events.Error:
		return protocol.RoomJoined{}, client.WrapError("join room", client.ErrServer, e.Error)
	case <-events.Disconnected:
		return protocol.RoomJoined{}, client.NewError("join room", client.ErrDisconnected)
	case <-timeout.C:
		return protocol.RoomJoined{}, client.NewError("join room", client.ErrTimeout)
	case <-ctx.Done():
		return protocol.RoomJoined{}, ctx.Err()
	}

	if joined.CurrentTime != nil {
		v.clock.Seek(*joined.CurrentTime)
	}

	path := v.opts.OutPath
	if path == "" {
		path = defaultOutPath(joined)
	}
	w, err := NewWriter(path)
	if err != nil {
		return protocol.RoomJoined{}, err
	}

	v.mu.Lock()
	v.hostID = joined.HostID
	v.name = joined.VideoName
	v.writer = w
	v.mu.Unlock()

	v.log.Info("joined room", "host", joined.HostID, "participants", len(joined.Participants), "out", w.Path())
	return joined, nil
}

func defaultOutPath(joined protocol.RoomJoined) string {
	if joined.VideoName != "" {
		if name := filepath.Base(joined.VideoName); name != "." && name != "/" {
			return name
		}
	}
	return fmt.Sprintf("syncwatch-%s.bin", joined.RoomID)
}

// Run follows the room until ctx is done, the relay drops or the host leaves.
func (v *Viewer) Run(ctx context.Context, events *client.Handler) error {
	defer v.closePeer()

	poll := time.NewTicker(bufferPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-events.Disconnected:
			return client.NewError("watch", client.ErrDisconnected)

		case s := <-events.Signal:
			if err := v.handleSignal(s); err != nil {
				v.log.Warn("signal failed", "from", s.From, "err", err)
			}

		case buf := <-events.Buffer:
			v.handleBuffer(buf)

		case s := <-events.Sync:
			if v.clock.Correct(s.CurrentTime, driftTolerance) {
				v.log.Debug("clock corrected", "position", s.CurrentTime)
			}

		case pp := <-events.PlayPause:
			v.clock.Apply(pp.Action)

		case sk := <-events.Seek:
			if sk.Time != nil {
				v.clock.Seek(*sk.Time)
			}

		case left := <-events.ParticipantLeft:
			v.mu.Lock()
			isHost := left.ParticipantID == v.hostID
			if isHost {
				v.hostGone = true
			}
			v.mu.Unlock()
			if isHost {
				v.clock.Pause()
				return client.NewError("watch", ErrHostLeft)
			}

		case e := <-events.Error:
			v.log.Warn("relay rejected event", "event", e.Event, "err", e.Error)

		case <-poll.C:
			v.mu.Lock()
			open := v.channel
			done := v.writer != nil && v.writer.Complete()
			v.mu.Unlock()
			if open || done {
				continue
			}
			if err := v.sig.Send(protocol.EventRequestBuffer, protocol.RequestBuffer{RoomID: v.opts.RoomID}); err != nil {
				v.log.Debug("buffer request not sent", "err", err)
			}
		}
	}
}

func (v *Viewer) handleSignal(s protocol.SignalRelay) error {
	v.mu.Lock()
	p := v.peer
	v.mu.Unlock()

	if p == nil {
		var err error
		p, err = newPeer(v.opts.Config, v.sig, v.opts.RoomID, v.opts.ParticipantID, s.From, v.log)
		if err != nil {
			return err
		}
		p.pc.OnDataChannel(v.attachChannel)

		v.mu.Lock()
		v.peer = p
		v.mu.Unlock()
	}
	return p.handleSignal(s.Payload)
}

func (v *Viewer) attachChannel(dc *pion.DataChannel) {
	if dc.Label() != MediaChannel {
		return
	}

	dc.OnOpen(func() {
		v.mu.Lock()
		v.channel = true
		v.mu.Unlock()
		v.log.Info("media channel open")
	})
	dc.OnClose(func() {
		v.mu.Lock()
		v.channel = false
		v.mu.Unlock()
	})
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		f, err := ParseFrame(msg.Data)
		if err != nil {
			v.log.Warn("bad frame from host", "err", err)
			return
		}
		v.handleFrame(f, true)
	})
}

func (v *Viewer) handleBuffer(buf protocol.Buffer) {
	for _, chunk := range buf.Chunks {
		f, err := ParseFrame(chunk)
		if err != nil {
			v.log.Debug("skipping buffered chunk", "err", err)
			continue
		}
		v.handleFrame(f, false)
	}
}

func (v *Viewer) handleFrame(f Frame, fromPeer bool) {
	v.mu.Lock()
	w := v.writer
	v.mu.Unlock()
	if w == nil {
		return
	}

	switch f.Type {
	case FrameMetadata:
		w.SetSize(f.Size)
		v.mu.Lock()
		if v.name == "" {
			v.name = f.Name
		}
		v.mu.Unlock()

	case FrameChunk:
		stored, err := w.Write(f)
		if err != nil {
			v.log.Warn("chunk not stored", "seq", f.Seq, "err", err)
			return
		}
		if !stored {
			return
		}
		v.mu.Lock()
		if fromPeer {
			v.fromPeer++
		} else {
			v.fromRelay++
		}
		v.mu.Unlock()
	}
}

// Status reports the current session state.
func (v *Viewer) Status() ViewerStatus {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := ViewerStatus{
		RoomID:     v.opts.RoomID,
		HostID:     v.hostID,
		Name:       v.name,
		Position:   v.clock.Position(),
		Playing:    v.clock.Playing(),
		PeerState:  "waiting",
		FromPeer:   v.fromPeer,
		FromRelay:  v.fromRelay,
		HostIsGone: v.hostGone,
	}
	if v.peer != nil {
		s.PeerState = v.peer.state()
	}
	if v.writer != nil {
		s.Path = v.writer.Path()
		s.Received, s.Size = v.writer.Progress()
		s.Complete = v.writer.Complete()
	}
	return s
}

func (v *Viewer) closePeer() {
	v.mu.Lock()
	p := v.peer
	v.peer = nil
	v.mu.Unlock()

	if p != nil {
		p.close()
	}
}

// Close releases the output file.
func (v *Viewer) Close() error {
	v.closePeer()

	v.mu.Lock()
	w := v.writer
	v.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
