// Package tui implements the "watch" subcommand's live dashboard: a
// polling table of every connection a server is currently tracking.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sshtest/server/internal/connmanager"
	"github.com/sshtest/server/internal/util"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

type tickMsg time.Time

func tickCmd(refreshSeconds int) tea.Cmd {
	return tea.Tick(time.Duration(refreshSeconds)*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// SnapshotFunc returns the current set of tracked connections. A
// *connmanager.Manager's Snapshot method satisfies it directly.
type SnapshotFunc func() []connmanager.Snapshot

// Model polls a SnapshotFunc on an interval and renders the result as a
// table. It depends only on the function, not on connmanager.Manager
// itself, so callers outside internal/ can supply any equivalent source.
type Model struct {
	snapshot       SnapshotFunc
	addr           string
	table          table.Model
	refreshSeconds int
	lastCount      int
}

// New builds a Model that watches snapshot for connections on a server
// bound to addr.
func New(snapshot SnapshotFunc, addr string, refreshSeconds int) Model {
	if refreshSeconds <= 0 {
		refreshSeconds = util.DefaultRefreshSeconds
	}
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Remote Addr", Width: 22},
		{Title: "Login", Width: 14},
		{Title: "State", Width: 16},
		{Title: "Age", Width: 10},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(false), table.WithHeight(12))
	return Model{snapshot: snapshot, addr: addr, table: t, refreshSeconds: refreshSeconds}
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.refreshSeconds)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		snaps := m.snapshot()
		m.lastCount = len(snaps)
		m.table.SetRows(rowsFromSnapshots(snaps))
		return m, tickCmd(m.refreshSeconds)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("sshtest watch — %s (%d connections)", m.addr, m.lastCount))
	footer := footerStyle.Render("q to quit")
	return header + "\n\n" + m.table.View() + "\n" + footer + "\n"
}

func rowsFromSnapshots(snaps []connmanager.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", s.ID),
			s.RemoteAddr,
			util.EmptyDash(s.Login),
			string(s.State),
			time.Since(s.StartedAt).Round(time.Second).String(),
		})
	}
	return rows
}
