package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/osuradio/internal/library"
)

var errNoClient = errors.New("no daemon client")

const likedMark = "♥"

// libraryColumns splits the width between title, artist and creator.
func libraryColumns(width int) []table.Column {
	const likeW, setW = 2, 9
	// Each column carries one cell of padding on either side.
	flex := max(width-likeW-setW-5*2, 30)
	titleW := flex * 45 / 100
	artistW := flex * 30 / 100
	creatorW := flex - titleW - artistW
	return []table.Column{
		{Title: likedMark, Width: likeW},
		{Title: "Title", Width: titleW},
		{Title: "Artist", Width: artistW},
		{Title: "Mapper", Width: creatorW},
		{Title: "Set", Width: setW},
	}
}

// updateLibraryTable rebuilds the rows from the snapshot, keeping the cursor
// on the same row index when possible.
func (m *Model) updateLibraryTable() {
	songs := m.snapshot.Songs
	rows := make([]table.Row, 0, len(songs))
	for _, s := range songs {
		mark := ""
		if m.snapshot.IsLiked(s.ID) {
			mark = likedMark
		}
		rows = append(rows, table.Row{mark, s.Title, s.Artist, s.Creator, s.BeatmapSetID})
	}
	cursor := m.libraryTable.Cursor()
	m.libraryTable.SetRows(rows)
	switch {
	case len(rows) == 0:
		m.libraryTable.SetCursor(0)
	case cursor >= len(rows):
		m.libraryTable.SetCursor(len(rows) - 1)
	case cursor < 0:
		m.libraryTable.SetCursor(0)
	}
}

func (m Model) selectedSong() (library.Song, bool) {
	idx := m.libraryTable.Cursor()
	if idx < 0 || idx >= len(m.snapshot.Songs) {
		return library.Song{}, false
	}
	return m.snapshot.Songs[idx], true
}

// handleLibraryKey processes navigation in the library table.
func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.snapshot.Songs) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Top):
		m.libraryTable.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.libraryTable.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.libraryTable, cmd = m.libraryTable.Update(msg)
	return m, cmd
}

func (m Model) renderLibrary() string {
	styles := m.theme.Styles()
	if len(m.snapshot.Songs) == 0 {
		var b strings.Builder
		b.WriteString(styles.Section.Render("Library"))
		b.WriteString("\n")
		msg := "No songs found."
		if m.config != nil {
			msg = fmt.Sprintf("No songs found in %s. Press r to rescan.", truncateMiddle(m.config.SongsDir(), 60))
		}
		b.WriteString(styles.MutedText.Render(msg))
		return b.String()
	}
	return m.libraryTable.View()
}

func pluralSongs(n int) string {
	if n == 1 {
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}
