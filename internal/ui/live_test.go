package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestLiveModel(t *testing.T) {
	calls := 0
	var keys []string

	v := NewLiveView(func() LiveStatus {
		calls++
		return LiveStatus{
			Title:    "Watching",
			Video:    "clip.mp4",
			Position: 83,
			Playing:  true,
			Received: 512,
			Size:     1024,
			Details:  [][2]string{{"Peer", "connected"}},
		}
	}, func(key string) { keys = append(keys, key) }, "q quit")

	m := v.model
	m.Update(refreshMsg{})
	if calls < 2 {
		t.Errorf("status polled %d times", calls)
	}

	out := m.View()
	for _, want := range []string{"Watching", "clip.mp4", "1:23", "50.0%", "Peer: connected", "q quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if len(keys) != 1 || keys[0] != " " {
		t.Errorf("keys = %q", keys)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !m.quitting {
		t.Error("q did not quit")
	}
	if m.View() != "" {
		t.Error("view not cleared after quit")
	}
}
