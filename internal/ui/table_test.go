package ui

import (
	"strings"
	"testing"
	"time"
)

func TestParticipantTable(t *testing.T) {
	out := ParticipantTable([]string{"u1", "u2"}, "u1", "u2")

	for _, want := range []string{"u1", "u2 (you)", "host", "viewer"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if got := ParticipantTable(nil, "", ""); !strings.Contains(got, "No participants") {
		t.Errorf("empty table = %q", got)
	}
}

func TestStatsView(t *testing.T) {
	out := StatsView("localhost:8080", RelayStats{Rooms: 3, VacantRooms: 1, Participants: 5, Connections: 6, Bindings: 5})

	for _, want := range []string{"Relay localhost:8080", "Vacant rooms", "3", "6"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestSessionSummaryView(t *testing.T) {
	out := SessionSummaryView(SessionSummary{
		Status:   "complete",
		Video:    "clip.mp4",
		Received: 2048,
		Size:     2048,
		FromPeer: 1,
		Position: 75,
		Path:     "/tmp/clip.mp4",
		Duration: 2 * time.Second,
	})

	for _, want := range []string{"clip.mp4", "2.00 KB / 2.00 KB", "1:15", "/tmp/clip.mp4", "2s", "1.00 KB/s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
