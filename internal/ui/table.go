package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type RoomInfo struct {
	RoomID    string
	RoomLink  string
	VideoName string
}

func NewRoomInfo(roomID, roomLink, videoName string) *RoomInfo {
	return &RoomInfo{
		RoomID:    roomID,
		RoomLink:  roomLink,
		VideoName: videoName,
	}
}

func (r *RoomInfo) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(green).
		Padding(1, 2)

	content := fmt.Sprintf("%s Room Created!\n\n%s Room ID:    %s\n%s Room Link:  %s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconWeb, MutedStyle.Render(r.RoomLink),
	)
	if r.VideoName != "" {
		content += fmt.Sprintf("\n%s Video:      %s", IconVideo, TruncateString(r.VideoName, 40))
	}

	return boxStyle.Render(content)
}

func (r *RoomInfo) Render() {
	fmt.Println(r.View())
}

// ParticipantTable lists a room's participants in join order, host first.
func ParticipantTable(participants []string, hostID, self string) string {
	if len(participants) == 0 {
		return MutedStyle.Render("No participants")
	}

	rows := make([][]string, 0, len(participants))
	for i, p := range participants {
		role := IconPeer + " viewer"
		if p == hostID {
			role = IconHost + " host"
		}
		name := TruncateString(p, 36)
		if p == self {
			name += " (you)"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), name, role})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "Participant", "Role").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}
