// Package protocol defines the JSON messages exchanged between the relay and
// its clients over WebSocket.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message is the envelope of every WebSocket frame, in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client to server events.
const (
	EventCreateRoom    = "create-room"
	EventJoinRoom      = "join-room"
	EventSignal        = "signal"
	EventSync          = "sync"
	EventPlayPause     = "play-pause"
	EventSeek          = "seek"
	EventPushChunk     = "push-chunk"
	EventRequestBuffer = "request-buffer"
)

// Server to client events. signal, sync and seek keep their inbound names.
const (
	EventRoomCreated     = "room-created"
	EventRoomJoined      = "room-joined"
	EventViewerJoined    = "viewer-joined"
	EventPlayPauseOut    = "playPause"
	EventBuffer          = "buffer"
	EventParticipantLeft = "participant-left"
	EventError           = "error"
)

// Playback actions carried by play-pause.
const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

// CreateRoom is sent by the future host.
type CreateRoom struct {
	CreatorID string `json:"creatorId"`
	VideoName string `json:"videoName,omitempty"`
}

// JoinRoom adds the sender to a room.
type JoinRoom struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

// Signal carries an opaque negotiation payload from one participant to another.
type Signal struct {
	RoomID  string          `json:"roomId"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

// Sync reports the host's playback position in seconds.
type Sync struct {
	RoomID      string   `json:"roomId"`
	CurrentTime *float64 `json:"currentTime"`
}

// PlayPause toggles playback.
type PlayPause struct {
	RoomID string `json:"roomId"`
	Action string `json:"action"`
	UserID string `json:"userId"`
}

// Seek jumps to a position in seconds.
type Seek struct {
	RoomID string   `json:"roomId"`
	Time   *float64 `json:"time"`
	UserID string   `json:"userId"`
}

// PushChunk appends a media fragment to the room's buffer.
type PushChunk struct {
	RoomID string `json:"roomId"`
	Chunk  []byte `json:"chunk"`
}

// RequestBuffer asks for the room's buffered chunks.
type RequestBuffer struct {
	RoomID string `json:"roomId"`
}

// RoomCreated answers create-room.
type RoomCreated struct {
	RoomID string `json:"roomId"`
}

// RoomJoined answers a successful join-room.
type RoomJoined struct {
	RoomID       string   `json:"roomId"`
	HostID       string   `json:"hostId"`
	Participants []string `json:"participants"`
	CurrentTime  *float64 `json:"currentTime,omitempty"`
	VideoName    string   `json:"videoName,omitempty"`
}

// ViewerJoined tells the host a viewer is ready to negotiate.
type ViewerJoined struct {
	RoomID             string `json:"roomId"`
	ViewerID           string `json:"viewerId"`
	ViewerConnectionID string `json:"viewerConnectionId"`
}

// SignalRelay is the forwarded form of Signal.
type SignalRelay struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// SyncRelay is the forwarded form of Sync.
type SyncRelay struct {
	CurrentTime float64 `json:"currentTime"`
}

// Buffer carries the buffered chunks oldest first.
type Buffer struct {
	RoomID string   `json:"roomId"`
	Chunks [][]byte `json:"chunks"`
}

// ParticipantLeft is broadcast when a participant's connection goes away.
type ParticipantLeft struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

// Error reports a rejected event to its sender.
type Error struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}

// NewMessage builds an envelope around payload.
func NewMessage(event string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event, err)
	}
	return &Message{Event: event, Data: data}, nil
}

// MustMessage is NewMessage for payloads that always marshal.
func MustMessage(event string, payload any) *Message {
	msg, err := NewMessage(event, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// DecodeData unmarshals the envelope data into v.
func (m *Message) DecodeData(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%w: no data", ErrMalformed)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
