package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/osuradio/internal/presence"
)

func newProgressBar(t Theme) progress.Model {
	bar := progress.New(
		progress.WithSolidFill(t.Accent),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = t.SurfaceAlt
	bar.Width = 40
	return bar
}

// renderNowPlaying shows the reported track and the presence card the
// daemon last sent for it.
func (m Model) renderNowPlaying() string {
	styles := m.theme.Styles()
	status := m.snapshot.Status
	var b strings.Builder

	b.WriteString(styles.Section.Render("Now Playing"))
	b.WriteString("\n")

	np := status.NowPlaying
	if np == nil {
		b.WriteString(styles.MutedText.Render("Nothing reported yet. Start a song in the player."))
		b.WriteString("\n")
	} else {
		now := time.Now()
		liked := ""
		if m.snapshot.IsLiked(np.ID) {
			liked = " " + styles.AccentText.Render("♥")
		}
		b.WriteString(styles.Title.Render(truncate(np.Title, max(m.width-4, 10))) + liked)
		b.WriteString("\n")
		byline := np.Artist
		if np.Creator != "" {
			byline += " · mapped by " + np.Creator
		}
		b.WriteString(styles.MutedText.Render(truncate(byline, max(m.width-2, 10))))
		b.WriteString("\n\n")

		state := styles.SuccessText.Render("▶ Playing")
		if !np.Playing {
			state = styles.WarningText.Render("❚❚ " + presence.PausedLabel)
		}
		clock := formatClock(np.Elapsed(now))
		if np.Duration > 0 {
			clock += " / " + formatClock(np.Duration)
		}
		b.WriteString(m.progressBar.ViewAs(np.Progress(now)))
		b.WriteString("  ")
		b.WriteString(styles.Text.Render(clock))
		b.WriteString("  ")
		b.WriteString(state)
		b.WriteString("\n")
	}

	b.WriteString(styles.Section.Render("Presence"))
	b.WriteString("\n")
	b.WriteString(m.renderPresence(styles))
	return b.String()
}

func (m Model) renderPresence(styles Styles) string {
	status := m.snapshot.Status
	rows := [][2]string{
		{"Connection", styles.ConnectionStyle(status.Connection).Render(status.Connection)},
		{"Client ID", styles.MutedText.Render(status.ClientID)},
	}

	if p := status.Presence; p != nil {
		rows = append(rows,
			[2]string{"Details", styles.Text.Render(p.Details)},
			[2]string{"State", styles.Text.Render(p.State)},
			[2]string{"Image", styles.MutedText.Render(truncateMiddle(p.LargeImageKey, max(m.width-16, 10)))},
		)
		if p.HasTimestamps() {
			start := time.UnixMilli(p.StartTimestamp)
			end := time.UnixMilli(p.EndTimestamp)
			rows = append(rows, [2]string{"Window", styles.MutedText.Render(
				fmt.Sprintf("%s → %s", start.Format("15:04:05"), end.Format("15:04:05")))})
		}
		for _, btn := range p.Buttons {
			rows = append(rows, [2]string{"Button", styles.InfoText.Render(btn.Label)})
		}
	} else {
		rows = append(rows, [2]string{"Details", styles.FaintText.Render("nothing sent yet")})
	}

	if last := status.LastSent; last != nil {
		ago := humanizeDuration(time.Since(last.SentAt))
		rows = append(rows, [2]string{"Last sent", styles.MutedText.Render(
			fmt.Sprintf("%s at %s (%s)", truncate(last.Title, 40), formatClock(last.Position), ago))})
	}

	label := styles.FaintText.Width(12)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(r[0]), r[1]))
	}
	return strings.Join(lines, "\n")
}
