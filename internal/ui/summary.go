package ui

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RelayStats mirrors the relay's /stats document.
type RelayStats struct {
	Rooms        int `json:"rooms"`
	VacantRooms  int `json:"vacantRooms"`
	Participants int `json:"participants"`
	Connections  int `json:"connections"`
	Bindings     int `json:"bindings"`
}

func newPrettyTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Header = text.Colors{text.Bold, text.FgHiMagenta}
	t.Style().Title.Colors = text.Colors{text.Bold, text.FgHiMagenta}
	t.AppendHeader(table.Row{"Metric", "Value"})
	return t
}

// StatsView renders relay counters.
func StatsView(domain string, s RelayStats) string {
	t := newPrettyTable("Relay " + domain)
	t.AppendRows([]table.Row{
		{"Rooms", s.Rooms},
		{"Vacant rooms", s.VacantRooms},
		{"Participants", s.Participants},
		{"Connections", s.Connections},
		{"Bound identities", s.Bindings},
	})
	return t.Render()
}

type SessionSummary struct {
	Status    string
	Video     string
	Received  uint64
	Size      uint64
	FromPeer  int
	FromRelay int
	Position  float64
	Path      string
	Duration  time.Duration
}

// SessionSummaryView renders the end-of-session table.
func SessionSummaryView(s SessionSummary) string {
	t := newPrettyTable("Watch Summary")
	t.AppendRows([]table.Row{
		{"Status", s.Status},
		{"Video", TruncateString(s.Video, 40)},
		{"Received", fmt.Sprintf("%s / %s", FormatSize(s.Received), FormatSize(s.Size))},
		{"Chunks (peer / relay)", fmt.Sprintf("%d / %d", s.FromPeer, s.FromRelay)},
		{"Last position", FormatPosition(s.Position)},
	})
	if s.Duration > 0 {
		t.AppendRow(table.Row{"Duration", FormatDuration(s.Duration)})
		t.AppendRow(table.Row{"Average speed", FormatSpeed(float64(s.Received) / s.Duration.Seconds())})
	}
	if s.Path != "" {
		t.AppendRow(table.Row{"Saved to", s.Path})
	}
	return t.Render()
}

func RenderSessionSummary(s SessionSummary) {
	fmt.Println(SessionSummaryView(s))
}
