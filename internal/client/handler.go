package client

import (
	"log/slog"

	"github.com/BioHazard786/syncwatch/internal/protocol"
)

// Handler routes incoming relay events to typed channels.
//
// Delivery never blocks the read loop: when nobody drains a channel and its
// buffer is full, the event is dropped and logged.
type Handler struct {
	client *Client
	log    *slog.Logger

	RoomCreated     chan protocol.RoomCreated
	RoomJoined      chan protocol.RoomJoined
	ViewerJoined    chan protocol.ViewerJoined
	Signal          chan protocol.SignalRelay
	Sync            chan protocol.SyncRelay
	PlayPause       chan protocol.PlayPause
	Seek            chan protocol.Seek
	Buffer          chan protocol.Buffer
	ParticipantLeft chan protocol.ParticipantLeft
	Error           chan protocol.Error

	// Disconnected is closed once the connection ends.
	Disconnected chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:          client,
		log:             client.log,
		RoomCreated:     make(chan protocol.RoomCreated, 1),
		RoomJoined:      make(chan protocol.RoomJoined, 1),
		ViewerJoined:    make(chan protocol.ViewerJoined, 16),
		Signal:          make(chan protocol.SignalRelay, 64),
		Sync:            make(chan protocol.SyncRelay, 4),
		PlayPause:       make(chan protocol.PlayPause, 8),
		Seek:            make(chan protocol.Seek, 8),
		Buffer:          make(chan protocol.Buffer, 4),
		ParticipantLeft: make(chan protocol.ParticipantLeft, 16),
		Error:           make(chan protocol.Error, 4),
		Disconnected:    make(chan struct{}),
	}
}

// Start routes incoming messages until the connection ends.
func (h *Handler) Start() {
	defer close(h.Disconnected)

	for msg := range h.client.Incoming() {
		switch msg.Event {
		case protocol.EventRoomCreated:
			route(h, h.RoomCreated, msg)
		case protocol.EventRoomJoined:
			route(h, h.RoomJoined, msg)
		case protocol.EventViewerJoined:
			route(h, h.ViewerJoined, msg)
		case protocol.EventSignal:
			route(h, h.Signal, msg)
		case protocol.EventSync:
			route(h, h.Sync, msg)
		case protocol.EventPlayPauseOut:
			route(h, h.PlayPause, msg)
		case protocol.EventSeek:
			route(h, h.Seek, msg)
		case protocol.EventBuffer:
			route(h, h.Buffer, msg)
		case protocol.EventParticipantLeft:
			route(h, h.ParticipantLeft, msg)
		case protocol.EventError:
			route(h, h.Error, msg)
		default:
			h.log.Debug("ignoring event", "event", msg.Event)
		}
	}
}

func route[T any](h *Handler, ch chan T, msg *protocol.Message) {
	var v T
	if err := msg.DecodeData(&v); err != nil {
		h.log.Warn("bad payload from relay", "event", msg.Event, "err", err)
		return
	}
	select {
	case ch <- v:
	default:
		h.log.Warn("dropping event, nobody listening", "event", msg.Event)
	}
}
