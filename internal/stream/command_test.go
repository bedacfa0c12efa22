package stream

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{"play", Command{Action: "play"}, false},
		{"  PAUSE ", Command{Action: "pause"}, false},
		{"seek 12.5", Command{Action: "seek", Time: 12.5}, false},
		{"seek 0", Command{Action: "seek"}, false},
		{"seek", Command{}, true},
		{"seek -1", Command{}, true},
		{"seek abc", Command{}, true},
		{"play now", Command{}, true},
		{"rewind", Command{}, true},
		{"", Command{}, true},
	}

	for _, tt := range tests {
		got, err := ParseCommand(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCommand(%q) err = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}
