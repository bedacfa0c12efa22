package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const refreshInterval = 200 * time.Millisecond

// LiveStatus is what the live view renders on every refresh.
type LiveStatus struct {
	Title    string
	Video    string
	State    string
	Position float64
	Playing  bool
	Received uint64
	Size     uint64
	Complete bool

	// Details are extra key/value lines shown under the progress bar.
	Details [][2]string
}

// LiveView is a bubbletea screen that polls a status function.
type LiveView struct {
	program *tea.Program
	model   *liveModel
	once    sync.Once
}

type liveModel struct {
	status   func() LiveStatus
	onKey    func(key string)
	help     string
	current  LiveStatus
	bar      progress.Model
	spinner  spinner.Model
	quitting bool
}

type refreshMsg time.Time

// NewLiveView builds the view. onKey receives every key except q and
// ctrl+c, which quit.
func NewLiveView(status func() LiveStatus, onKey func(key string), help string) *LiveView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := &liveModel{
		status:  status,
		onKey:   onKey,
		help:    help,
		current: status(),
		bar: progress.New(
			progress.WithGradient(ProgressStart, ProgressEnd),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		spinner: s,
	}

	return &LiveView{
		model:   m,
		program: tea.NewProgram(m),
	}
}

// Run blocks until the user quits or Stop is called.
func (v *LiveView) Run() error {
	_, err := v.program.Run()
	return err
}

// Stop ends Run. Safe to call more than once.
func (v *LiveView) Stop() {
	v.once.Do(v.program.Quit)
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *liveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refresh())
}

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if m.onKey != nil {
			m.onKey(msg.String())
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(30, msg.Width-50))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshMsg:
		m.current = m.status()
		return m, refresh()
	}

	return m, nil
}

func (m *liveModel) View() string {
	if m.quitting {
		return ""
	}
	return renderLive(m.current, m.bar, m.spinner.View(), m.help)
}

func renderLive(s LiveStatus, bar progress.Model, spin, help string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n%s %s", IconWatch, TitleStyle.Render(s.Title)))
	if s.Video != "" {
		b.WriteString(" " + BoldStyle.Render(TruncateString(s.Video, 40)))
	}
	b.WriteString("\n\n")

	state := s.State
	if state == "" {
		state = "Connected"
	}
	b.WriteString(fmt.Sprintf("%s %s\n\n", spin, state))

	icon := IconPause
	if s.Playing {
		icon = IconPlay
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", icon, BoldStyle.Render(FormatPosition(s.Position))))

	if s.Size > 0 {
		percent := min(1, float64(s.Received)/float64(s.Size))
		b.WriteString(fmt.Sprintf("  %s %5.1f%% %s\n",
			bar.ViewAs(percent),
			percent*100,
			MutedStyle.Render(fmt.Sprintf("%s / %s", FormatSize(s.Received), FormatSize(s.Size))),
		))
	}
	if s.Complete {
		b.WriteString("  " + SuccessStyle.Render("Video fully received") + "\n")
	}

	for _, d := range s.Details {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %s: %s", d[0], d[1])) + "\n")
	}

	if help != "" {
		b.WriteString("\n" + MutedStyle.Render(help))
	}
	return b.String()
}
