package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/live"
	"github.com/iamasit07/arcade/internal/protocol"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#505050"))
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#303030")).Padding(0, 1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#505050")).Padding(0, 1)
)

// chessGlyphs is indexed by piece code; white pieces are upper case.
var chessGlyphs = [...]byte{'.', 'k', 'q', 'r', 'b', 'n', 'p'}

func cellGlyph(name domain.GameName, v int) string {
	if name == domain.Chess {
		code, white := v, false
		if code > 10 {
			code, white = code-10, true
		}
		if code <= 0 || code >= len(chessGlyphs) {
			return "."
		}
		g := string(chessGlyphs[code])
		if white {
			return strings.ToUpper(g)
		}
		return g
	}
	switch domain.PlayerID(v) {
	case domain.Player1:
		return "X"
	case domain.Player2:
		return "O"
	}
	return "."
}

// RenderBoard draws a game board with row numbers on the left and column
// numbers below, or file letters for chess.
func RenderBoard(s domain.BoardGameState) string {
	if s.GameName == domain.NoGame || len(s.Board) == 0 || len(s.Board[0]) == 0 {
		return "no game"
	}
	var b strings.Builder
	for r, row := range s.Board {
		if s.GameName == domain.Chess {
			fmt.Fprintf(&b, "%d ", 8-r)
		} else {
			fmt.Fprintf(&b, "%d ", r)
		}
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(cellGlyph(s.GameName, v))
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	for c := range s.Board[0] {
		if c > 0 {
			b.WriteByte(' ')
		}
		if s.GameName == domain.Chess {
			b.WriteByte(byte('a' + c))
		} else {
			fmt.Fprintf(&b, "%d", c%10)
		}
	}
	return b.String()
}

// RenderGame is the board plus who plays and whose turn it is.
func RenderGame(s domain.BoardGameState, me string) string {
	if s.GameName == domain.NoGame {
		return "No game in this room.\n/game create <name>"
	}
	lines := []string{fmt.Sprintf("%s · %s", s.GameName, s.Status), RenderBoard(s)}
	for i, p := range s.Players {
		marker := " "
		if s.Status == domain.StatusInProgress && s.TurnPlayer() == p {
			marker = ">"
		}
		label := p
		if p == me {
			label += " (you)"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", marker, cellGlyph(s.GameName, seatSample(s.GameName, i)), label))
	}
	if s.Winner != "" {
		lines = append(lines, "winner: "+s.Winner)
	}
	return strings.Join(lines, "\n")
}

// seatSample is the value a seat's pieces carry, for the legend.
func seatSample(name domain.GameName, seat int) int {
	if name == domain.Chess {
		if seat == 0 {
			return 11
		}
		return 1
	}
	return int(domain.SeatMarker(seat))
}

func RenderMines(m *domain.Minesweeper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "minesweeper · %s · %d left\n", m.Status(), m.MinesLeft())
	over := m.Status() == domain.MinesLost || m.Status() == domain.MinesWon
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			cell := m.Cell(r, c)
			switch {
			case cell.State == domain.CellFlagged:
				b.WriteByte('F')
			case cell.HasMine && (over || cell.State == domain.CellRevealed):
				b.WriteByte('*')
			case cell.State == domain.CellHidden:
				b.WriteByte('#')
			case cell.Adjacent == 0:
				b.WriteByte(' ')
			default:
				b.WriteByte(byte('0' + cell.Adjacent))
			}
		}
		if r < m.Rows()-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatEntry(e live.LogEntry) string {
	switch {
	case e.Kind == protocol.TypeError:
		return errorStyle.Render("! " + e.Message)
	case e.IsSystem():
		return systemStyle.Render("* " + e.Message)
	}
	name := e.DisplayName
	if name == "" {
		name = e.Sender
	}
	return fmt.Sprintf("%s %s %s", nameStyle.Render(name), borderStyle.Render("│"), e.Message)
}

func renderLog(entries []live.LogEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = formatEntry(e)
	}
	return strings.Join(lines, "\n")
}
