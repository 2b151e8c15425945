package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prabalesh/tasktop/internal/models"
	"github.com/prabalesh/tasktop/internal/sampler"
)

type screen int

const (
	screenWelcome screen = iota
	screenMonitor
)

type snapshotMsg models.Snapshot

// samplerClosedMsg arrives when the sampling loop has stopped and no more
// snapshots will come.
type samplerClosedMsg struct{}

type App struct {
	sampler *sampler.Sampler
	table   table.Model
	snap    models.Snapshot
	screen  screen
	width   int
	height  int
}

func NewApp(s *sampler.Sampler) *App {
	columns := []table.Column{
		{Title: "PID", Width: 7},
		{Title: "Name", Width: 24},
		{Title: "State", Width: 5},
		{Title: "PPID", Width: 7},
		{Title: "Memory", Width: 10},
		{Title: "CPU%", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = TableHeaderStyle.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("240"))
	styles.Selected = SelectedRowStyle
	t.SetStyles(styles)

	return &App{
		sampler: s,
		table:   t,
		screen:  screenWelcome,
	}
}

func (a *App) Init() tea.Cmd {
	return a.waitForSnapshot()
}

// waitForSnapshot blocks on the sampler's snapshot stream and turns whatever
// arrives into a message. Re-issued after every snapshot so the stream keeps
// flowing through the program loop.
func (a *App) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-a.sampler.Snapshots()
		if !ok {
			return samplerClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Leave room for the header lines and the table border.
		if h := a.height - 7; h > 3 {
			a.table.SetHeight(h)
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			a.sampler.Quit()
			return a, tea.Quit
		case "enter":
			if a.screen == screenWelcome {
				a.screen = screenMonitor
			}
			return a, nil
		}
		// Arrow keys and the rest go to the table.
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(msg)
		return a, cmd

	case snapshotMsg:
		a.snap = models.Snapshot(msg)
		a.table.SetRows(snapshotRows(a.snap))
		return a, a.waitForSnapshot()

	case samplerClosedMsg:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) View() string {
	if a.screen == screenWelcome {
		return a.welcomeView()
	}
	return a.monitorView()
}

func (a *App) welcomeView() string {
	return "\n" + BannerStyle.Render(banner()) + "\n\n" +
		TitleStyle.Render("Welcome to the tasktop task manager!") + "\n\n" +
		HintStyle.Render("Press Enter to start monitoring processes...") + "\n"
}

func (a *App) monitorView() string {
	header := TitleStyle.Render("tasktop") + "  " +
		HintStyle.Render("press 'q' or 'esc' to quit")

	status := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		LabelStyle.Render("tasks:"), ValueStyle.Render(strconv.Itoa(a.snap.Total)),
		LabelStyle.Render("running:"), ValueStyle.Render(strconv.Itoa(a.snap.Running)),
		LabelStyle.Render("sleeping:"), ValueStyle.Render(strconv.Itoa(a.snap.Sleeping)),
		LabelStyle.Render("zombie:"), ValueStyle.Render(strconv.Itoa(a.snap.Zombie)),
	)
	if !a.snap.Taken.IsZero() {
		status += "  " + HintStyle.Render(a.snap.Taken.Format("15:04:05"))
	}

	return header + "\n" + status + "\n\n" + BaseStyle.Render(a.table.View()) + "\n"
}

func snapshotRows(snap models.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snap.Processes))
	for _, p := range snap.Processes {
		rows = append(rows, table.Row{
			strconv.Itoa(p.PID),
			p.Name,
			p.State,
			strconv.Itoa(p.PPID),
			formatMemory(p.MemRSS),
			fmt.Sprintf("%.1f", p.CPUPercent),
		})
	}
	return rows
}

func formatMemory(bytes uint64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
