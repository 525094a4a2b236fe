package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/osuradio/internal/logtail"
)

// handleLogsKey processes scrolling in the log viewport.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
			return m, m.refreshLogs()
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logFollow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.PageUp):
		// Scrolling back pauses follow so the next refresh does not jump.
		m.logFollow = false
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m *Model) updateLogViewport() {
	m.logViewport.SetContent(m.renderLogLines())
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

// renderLogLines styles decoded log entries for the viewport.
func (m Model) renderLogLines() string {
	styles := m.theme.Styles()
	if m.logErr != nil {
		return styles.DangerText.Render("Unable to read log: " + m.logErr.Error())
	}
	if len(m.logEntries) == 0 {
		path := "the daemon log"
		if m.config != nil {
			path = m.config.LogPath()
		}
		return styles.MutedText.Render("No log lines yet in " + path)
	}

	var b strings.Builder
	for i, e := range m.logEntries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderLogEntry(styles, e))
	}
	return b.String()
}

func (m Model) renderLogEntry(styles Styles, e logtail.Entry) string {
	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, styles.FaintText.Render(e.Time.Local().Format("2006-01-02 15:04:05")))
	}
	level := strings.ToUpper(strings.TrimSpace(e.Level))
	if level == "" {
		level = "INFO"
	}
	parts = append(parts, m.levelStyle(styles, level).Render(level))
	if e.Component != "" {
		parts = append(parts, styles.InfoText.Render("["+e.Component+"]"))
	}
	if e.Message != "" {
		parts = append(parts, styles.FaintText.Render("–"), styles.Text.Render(e.Message))
	}
	line := strings.Join(parts, " ")

	details := e.Details()
	if len(details) == 0 {
		return line
	}
	detailStyle := styles.MutedText
	if e.IsError() {
		detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Danger))
	}
	for _, d := range details {
		line += "\n" + detailStyle.Render(truncate(d, max(m.width, 20)))
	}
	return line
}

func (m Model) levelStyle(styles Styles, level string) lipgloss.Style {
	switch level {
	case "ERROR", "FATAL", "PANIC":
		return styles.DangerText
	case "WARN":
		return styles.WarningText.Bold(true)
	case "DEBUG", "TRACE":
		return styles.InfoText
	default:
		return styles.SuccessText
	}
}

func (m Model) renderLogs() string {
	return m.logViewport.View()
}
