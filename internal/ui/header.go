package ui

import (
	"fmt"
	"strings"
	"time"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	if !m.snapshot.HasStatus || m.snapshot.IsOffline() {
		return styles.Header.Width(m.width).Render(m.connectingContent(styles, bg))
	}

	status := m.snapshot.Status
	compact := m.width < 100

	parts := []string{
		bg.Render("osuradio", styles.Logo),
		styles.ConnectionStyle(status.Connection).Render(strings.ToUpper(status.Connection)),
	}

	libLabel := "Library:"
	likedLabel := "Liked:"
	if compact {
		libLabel, likedLabel = "L:", "♥:"
	}
	parts = append(parts,
		bg.Render(libLabel, styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", status.LibrarySize), styles.Text),
		bg.Render(likedLabel, styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", status.LikedCount), styles.AccentText),
	)
	if status.MPD {
		parts = append(parts, bg.Render("MPD", styles.InfoText))
	}
	if !status.StartedAt.IsZero() && !compact {
		parts = append(parts,
			bg.Render("up", styles.FaintText)+bg.Space()+
				bg.Render(humanizeDuration(time.Since(status.StartedAt)), styles.MutedText))
	}
	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}
	if m.snapshot.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// connectingContent shows the waiting or unreachable state.
func (m Model) connectingContent(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)
	logo := bg.Render("osuradio", styles.Logo)

	if m.snapshot.LastError == nil {
		return logo + sep + bg.Render("Connecting to daemon...", styles.WarningText.Bold(true))
	}

	last := "soon"
	if !m.snapshot.LastUpdated.IsZero() {
		last = m.snapshot.LastUpdated.Format("15:04:05")
	}
	parts := []string{
		logo,
		bg.Render("DAEMON "+classifyConnectionError(m.snapshot.LastError), styles.DangerText),
		bg.Render("Retrying...", styles.WarningText.Bold(true)),
		bg.Render(last, styles.MutedText),
	}
	if m.config != nil {
		parts = append(parts,
			bg.Render("logs", styles.FaintText)+bg.Space()+
				bg.Render(truncateMiddle(m.config.LogPath(), 50), styles.MutedText))
	}
	return strings.Join(parts, sep)
}

// formatTimestamp formats the last update time with a relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}
	since := time.Since(m.lastUpdated)
	ts := m.lastUpdated.Format("15:04:05")
	switch {
	case since < time.Minute:
		return ts
	case since < time.Hour:
		return fmt.Sprintf("%s (%dm ago)", ts, int(since.Minutes()))
	default:
		return fmt.Sprintf("%s (%dh ago)", ts, int(since.Hours()))
	}
}

// renderCommandBar renders the per-view key hints, or the latest action
// result while it is fresh.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	if m.flash != "" && time.Since(m.flashAt) <= flashTTL {
		style := styles.SuccessText
		if m.flashError {
			style = styles.DangerText
		}
		return styles.Header.Width(m.width).Render(bg.Render(truncate(m.flash, max(m.width-2, 1)), style))
	}

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logFollow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"G", "Bottom"},
		}
	case ViewLibrary:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"l", "Like"},
			{"r", "Rescan"},
		}
	default:
		commands = []cmd{
			{"l", "Like"},
			{"c", "Connect"},
			{"r", "Rescan"},
		}
	}
	commands = append(commands, cmd{"Tab", m.nextViewLabel()}, cmd{"?", "More"})

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

func (m Model) nextViewLabel() string {
	switch m.currentView {
	case ViewNowPlaying:
		return "Library"
	case ViewLibrary:
		return "Logs"
	default:
		return "Playing"
	}
}
