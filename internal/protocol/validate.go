package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	ErrMalformed     = errors.New("malformed message")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrMissingField  = errors.New("missing field")
	ErrInvalidField  = errors.New("invalid field")
	ErrNotAuthorized = errors.New("only the host may do this")
)

// ValidationError pins a rejection to an event and, when relevant, a field.
type ValidationError struct {
	Event string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %v: %s", e.Event, e.Err, e.Field)
	}
	return fmt.Sprintf("%s: %v", e.Event, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func missing(event, field string) error {
	return &ValidationError{Event: event, Field: field, Err: ErrMissingField}
}

func invalid(event, field string) error {
	return &ValidationError{Event: event, Field: field, Err: ErrInvalidField}
}

func validTime(v *float64) bool {
	return !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

// Validate checks required fields.
func (p *CreateRoom) Validate() error {
	if p.CreatorID == "" {
		return missing(EventCreateRoom, "creatorId")
	}
	return nil
}

func (p *JoinRoom) Validate() error {
	switch {
	case p.RoomID == "":
		return missing(EventJoinRoom, "roomId")
	case p.ParticipantID == "":
		return missing(EventJoinRoom, "participantId")
	}
	return nil
}

// Validate checks routing fields only; the payload stays opaque.
func (p *Signal) Validate() error {
	switch {
	case p.From == "":
		return missing(EventSignal, "from")
	case p.To == "":
		return missing(EventSignal, "to")
	case len(bytes.TrimSpace(p.Payload)) == 0 || bytes.Equal(bytes.TrimSpace(p.Payload), []byte("null")):
		return missing(EventSignal, "payload")
	}
	return nil
}

func (p *Sync) Validate() error {
	switch {
	case p.RoomID == "":
		return missing(EventSync, "roomId")
	case p.CurrentTime == nil:
		return missing(EventSync, "currentTime")
	case !validTime(p.CurrentTime):
		return invalid(EventSync, "currentTime")
	}
	return nil
}

func (p *PlayPause) Validate() error {
	switch {
	case p.RoomID == "":
		return missing(EventPlayPause, "roomId")
	case p.Action == "":
		return missing(EventPlayPause, "action")
	case p.Action != ActionPlay && p.Action != ActionPause:
		return invalid(EventPlayPause, "action")
	}
	return nil
}

func (p *Seek) Validate() error {
	switch {
	case p.RoomID == "":
		return missing(EventSeek, "roomId")
	case p.Time == nil:
		return missing(EventSeek, "time")
	case !validTime(p.Time):
		return invalid(EventSeek, "time")
	}
	return nil
}

func (p *PushChunk) Validate() error {
	switch {
	case p.RoomID == "":
		return missing(EventPushChunk, "roomId")
	case len(p.Chunk) == 0:
		return missing(EventPushChunk, "chunk")
	}
	return nil
}

func (p *RequestBuffer) Validate() error {
	if p.RoomID == "" {
		return missing(EventRequestBuffer, "roomId")
	}
	return nil
}

type validator interface {
	Validate() error
}

// Parse decodes and validates an inbound client event. The returned value is
// a pointer to one of the client to server payload types.
func Parse(msg *Message) (any, error) {
	var v validator
	switch msg.Event {
	case EventCreateRoom:
		v = &CreateRoom{}
	case EventJoinRoom:
		v = &JoinRoom{}
	case EventSignal:
		v = &Signal{}
	case EventSync:
		v = &Sync{}
	case EventPlayPause:
		v = &PlayPause{}
	case EventSeek:
		v = &Seek{}
	case EventPushChunk:
		v = &PushChunk{}
	case EventRequestBuffer:
		v = &RequestBuffer{}
	case "":
		return nil, &ValidationError{Event: "?", Field: "event", Err: ErrMissingField}
	default:
		return nil, &ValidationError{Event: msg.Event, Err: ErrUnknownEvent}
	}

	if err := msg.DecodeData(v); err != nil {
		return nil, &ValidationError{Event: msg.Event, Err: err}
	}
	normalizeRoomID(v)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

var roomIDPattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

// NormalizeRoomID trims and upper-cases a room code typed by a user.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidRoomID reports whether id is six upper-case hex characters.
func ValidRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}

func normalizeRoomID(v any) {
	switch p := v.(type) {
	case *JoinRoom:
		p.RoomID = NormalizeRoomID(p.RoomID)
	case *Signal:
		p.RoomID = NormalizeRoomID(p.RoomID)
	case *Sync:
		p.RoomID = NormalizeRoomID(p.RoomID)
	case *PlayPause:
		p.RoomID = NormalizeRoomID(p.RoomID)
	case *Seek:
		p.RoomID = NormalizeRoomID(p.RoomID)
	case *PushChunk:
		p.RoomID = NormalizeRoomID(p.RoomID)
	case *RequestBuffer:
		p.RoomID = NormalizeRoomID(p.RoomID)
	}
}
