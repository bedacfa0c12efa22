package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"create room", `{"event":"create-room","data":{"creatorId":"u1"}}`, nil},
		{"create room without creator", `{"event":"create-room","data":{}}`, ErrMissingField},
		{"join room", `{"event":"join-room","data":{"roomId":"ABC123","participantId":"u2"}}`, nil},
		{"join without participant", `{"event":"join-room","data":{"roomId":"ABC123"}}`, ErrMissingField},
		{"signal", `{"event":"signal","data":{"roomId":"R","from":"u2","to":"u1","payload":{"type":"offer","sdp":"v=0"}}}`, nil},
		{"signal without target", `{"event":"signal","data":{"from":"u2","payload":{}}}`, ErrMissingField},
		{"signal with null payload", `{"event":"signal","data":{"from":"u2","to":"u1","payload":null}}`, ErrMissingField},
		{"sync", `{"event":"sync","data":{"roomId":"R","currentTime":0}}`, nil},
		{"sync without time", `{"event":"sync","data":{"roomId":"R"}}`, ErrMissingField},
		{"sync with negative time", `{"event":"sync","data":{"roomId":"R","currentTime":-1}}`, ErrInvalidField},
		{"play", `{"event":"play-pause","data":{"roomId":"R","action":"play","userId":"u1"}}`, nil},
		{"bad action", `{"event":"play-pause","data":{"roomId":"R","action":"rewind"}}`, ErrInvalidField},
		{"seek", `{"event":"seek","data":{"roomId":"R","time":30.5,"userId":"u1"}}`, nil},
		{"seek without time", `{"event":"seek","data":{"roomId":"R"}}`, ErrMissingField},
		{"push chunk", `{"event":"push-chunk","data":{"roomId":"R","chunk":"AAEC"}}`, nil},
		{"push empty chunk", `{"event":"push-chunk","data":{"roomId":"R"}}`, ErrMissingField},
		{"request buffer", `{"event":"request-buffer","data":{"roomId":"R"}}`, nil},
		{"no data", `{"event":"request-buffer"}`, ErrMalformed},
		{"wrong type", `{"event":"sync","data":{"roomId":"R","currentTime":"soon"}}`, ErrMalformed},
		{"unknown event", `{"event":"explode","data":{}}`, ErrUnknownEvent},
		{"no event", `{"data":{}}`, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg Message
			if err := json.Unmarshal([]byte(tt.raw), &msg); err != nil {
				t.Fatalf("unmarshal envelope: %v", err)
			}

			v, err := Parse(&msg)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				if v == nil {
					t.Fatal("Parse returned nil payload")
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err %T is not a *ValidationError", err)
			}
		})
	}
}

func TestParseKeepsSignalPayloadOpaque(t *testing.T) {
	payload := `{"candidate":{"candidate":"candidate:1 1 udp 2122260223 10.0.0.2 54321 typ host","sdpMid":"0"},"extra":[1,2,3]}`
	msg := &Message{
		Event: EventSignal,
		Data:  json.RawMessage(`{"roomId":"R","from":"u2","to":"u1","payload":` + payload + `}`),
	}

	v, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sig := v.(*Signal)
	if string(sig.Payload) != payload {
		t.Errorf("payload = %s, want it byte for byte", sig.Payload)
	}
}

func TestParseChunkBytes(t *testing.T) {
	want := []byte{0x00, 0x01, 0xfe}
	msg := MustMessage(EventPushChunk, PushChunk{RoomID: "R", Chunk: want})

	v, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := v.(*PushChunk).Chunk; string(got) != string(want) {
		t.Errorf("chunk = %v, want %v", got, want)
	}
}

func TestParseNormalizesRoomID(t *testing.T) {
	msg := MustMessage(EventJoinRoom, JoinRoom{RoomID: " ab12cd ", ParticipantID: "u2"})

	v, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := v.(*JoinRoom).RoomID; got != "AB12CD" {
		t.Errorf("RoomID = %q, want AB12CD", got)
	}
}

func TestValidRoomID(t *testing.T) {
	for id, want := range map[string]bool{
		"AB12CD":  true,
		"000000":  true,
		"ab12cd":  false,
		"AB12C":   false,
		"AB12CDE": false,
		"GHIJKL":  false,
		"":        false,
	} {
		if got := ValidRoomID(id); got != want {
			t.Errorf("ValidRoomID(%q) = %v, want %v", id, got, want)
		}
	}
}
