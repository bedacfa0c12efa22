package signaling

import (
	"context"
	"errors"
	"fmt"

	"github.com/BioHazard786/syncwatch/internal/protocol"
)

// Handle routes one inbound event from c. Malformed events are answered with
// an error to c alone; the connection stays open.
func (h *Hub) Handle(c *Conn, msg *protocol.Message) {
	payload, err := protocol.Parse(msg)
	if err != nil {
		h.reject(c, msg.Event, err)
		return
	}

	c.log.Debug("event received", "event", msg.Event)

	ctx := context.Background()
	switch p := payload.(type) {
	case *protocol.CreateRoom:
		h.handleCreateRoom(ctx, c, p)
	case *protocol.JoinRoom:
		h.handleJoinRoom(ctx, c, p)
	case *protocol.Signal:
		h.handleSignal(c, p)
	case *protocol.Sync:
		h.handleSync(c, p)
	case *protocol.PlayPause:
		h.handlePlayback(c, p.RoomID, protocol.EventPlayPauseOut, msg)
	case *protocol.Seek:
		h.handlePlayback(c, p.RoomID, protocol.EventSeek, msg)
	case *protocol.PushChunk:
		h.handlePushChunk(ctx, c, p)
	case *protocol.RequestBuffer:
		h.handleRequestBuffer(ctx, c, p)
	}
}

// reject reports err to the sender only.
func (h *Hub) reject(c *Conn, event string, err error) {
	c.log.Debug("event rejected", "event", event, "err", err)
	c.Send(protocol.MustMessage(protocol.EventError, protocol.Error{
		Event: event,
		Error: err.Error(),
	}))
}

func (h *Hub) handleCreateRoom(ctx context.Context, c *Conn, p *protocol.CreateRoom) {
	var roomID string
	for attempt := 0; ; attempt++ {
		if attempt == maxRoomIDAttempts {
			h.reject(c, protocol.EventCreateRoom, errors.New("could not allocate a room id"))
			return
		}
		id, err := h.opts.NewRoomID()
		if err != nil {
			h.reject(c, protocol.EventCreateRoom, err)
			return
		}
		if _, created := h.rooms.Create(id, p.CreatorID, p.VideoName); created {
			roomID = id
			break
		}
		c.log.Debug("room id collision", "room", id)
	}

	// A remote store may still hold chunks written under this id by an
	// earlier process.
	h.clearBuffer(ctx, roomID)

	h.bind(c, p.CreatorID)
	h.joinGroup(roomID, c)

	c.log.Info("room created", "room", roomID, "host", p.CreatorID)

	c.Send(protocol.MustMessage(protocol.EventRoomCreated, protocol.RoomCreated{RoomID: roomID}))
}

func (h *Hub) handleJoinRoom(ctx context.Context, c *Conn, p *protocol.JoinRoom) {
	res, err := h.rooms.Join(p.RoomID, p.ParticipantID)
	if err != nil {
		c.log.Info("room join failed", "room", p.RoomID, "err", err)
		h.reject(c, protocol.EventJoinRoom, fmt.Errorf("%s: %w", p.RoomID, err))
		return
	}
	if res.Reopened {
		c.log.Warn("vacant room reopened", "room", p.RoomID, "participant", p.ParticipantID)
		h.clearBuffer(ctx, p.RoomID)
	}

	h.bind(c, p.ParticipantID)
	h.joinGroup(p.RoomID, c)

	c.log.Info("client joined room", "room", p.RoomID, "participant", p.ParticipantID, "new", res.Joined)

	snapshot, _ := h.rooms.Get(p.RoomID)
	hostID, hasHost := snapshot.Host()

	joined := protocol.RoomJoined{
		RoomID:       p.RoomID,
		HostID:       hostID,
		Participants: snapshot.Participants,
		VideoName:    snapshot.VideoName,
	}
	if snapshot.HasPlaybackTime {
		t := snapshot.PlaybackTime
		joined.CurrentTime = &t
	}
	c.Send(protocol.MustMessage(protocol.EventRoomJoined, joined))

	// Late joiners get whatever the host already pushed.
	if chunks := h.readBuffer(ctx, p.RoomID); len(chunks) > 0 {
		c.Send(protocol.MustMessage(protocol.EventBuffer, protocol.Buffer{RoomID: p.RoomID, Chunks: chunks}))
	}

	if hasHost && hostID != p.ParticipantID {
		h.unicast(hostID, protocol.MustMessage(protocol.EventViewerJoined, protocol.ViewerJoined{
			RoomID:             p.RoomID,
			ViewerID:           p.ParticipantID,
			ViewerConnectionID: c.ID,
		}))
	}
}

// handleSignal forwards an opaque negotiation payload. An unknown target is
// an expected race and the message is dropped.
func (h *Hub) handleSignal(c *Conn, p *protocol.Signal) {
	msg := protocol.MustMessage(protocol.EventSignal, protocol.SignalRelay{From: p.From, Payload: p.Payload})
	if !h.unicast(p.To, msg) {
		c.log.Debug("signal dropped", "room", p.RoomID, "from", p.From, "to", p.To)
	}
}

func (h *Hub) handleSync(c *Conn, p *protocol.Sync) {
	if !h.authorized(c, p.RoomID, protocol.EventSync) {
		return
	}
	h.rooms.SetPlaybackTime(p.RoomID, *p.CurrentTime)
	h.broadcast(p.RoomID, c, protocol.MustMessage(protocol.EventSync, protocol.SyncRelay{CurrentTime: *p.CurrentTime}))
}

// handlePlayback re-broadcasts play-pause and seek with their data untouched.
func (h *Hub) handlePlayback(c *Conn, roomID, outEvent string, msg *protocol.Message) {
	if !h.authorized(c, roomID, msg.Event) {
		return
	}
	n := h.broadcast(roomID, c, &protocol.Message{Event: outEvent, Data: msg.Data})
	c.log.Debug("playback event relayed", "room", roomID, "event", outEvent, "receivers", n)
}

// handlePushChunk drops chunks for unknown rooms so the store never holds
// buffers nobody can reach.
func (h *Hub) handlePushChunk(ctx context.Context, c *Conn, p *protocol.PushChunk) {
	if !h.rooms.Exists(p.RoomID) {
		c.log.Debug("chunk for unknown room dropped", "room", p.RoomID)
		return
	}
	if !h.authorized(c, p.RoomID, protocol.EventPushChunk) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.StoreTimeout)
	defer cancel()

	if err := h.store.Push(ctx, p.RoomID, p.Chunk); err != nil {
		c.log.Warn("buffer push failed", "room", p.RoomID, "err", err)
	}
}

func (h *Hub) handleRequestBuffer(ctx context.Context, c *Conn, p *protocol.RequestBuffer) {
	chunks := [][]byte{}
	if h.rooms.Exists(p.RoomID) {
		chunks = h.readBuffer(ctx, p.RoomID)
	}
	c.Send(protocol.MustMessage(protocol.EventBuffer, protocol.Buffer{RoomID: p.RoomID, Chunks: chunks}))
}

// authorized enforces HostOnlyControl when it is enabled.
func (h *Hub) authorized(c *Conn, roomID, event string) bool {
	if !h.opts.HostOnlyControl {
		return true
	}
	sender, ok := h.registry.FindIdentityByConnection(c.ID)
	host, hasHost := h.rooms.Host(roomID)
	if ok && hasHost && sender == host {
		return true
	}
	h.reject(c, event, &protocol.ValidationError{Event: event, Err: protocol.ErrNotAuthorized})
	return false
}
