package domain

import (
	"fmt"
	"math/rand/v2"
)

type CellState string

const (
	CellHidden   CellState = "hidden"
	CellFlagged  CellState = "flagged"
	CellRevealed CellState = "revealed"
)

type MineCell struct {
	State    CellState `json:"state"`
	HasMine  bool      `json:"hasMine"`
	Adjacent int       `json:"adj"`
}

type MinesweeperStatus string

const (
	MinesWaiting MinesweeperStatus = "waiting"
	MinesPlaying MinesweeperStatus = "playing"
	MinesWon     MinesweeperStatus = "won"
	MinesLost    MinesweeperStatus = "lost"
)

// Minesweeper runs entirely on the client. Mines are placed on the first
// reveal so the opening click and its neighbors are always safe.
type Minesweeper struct {
	rows, cols, mines int
	board             [][]MineCell
	status            MinesweeperStatus
	revealed          int
	flagged           int
	shuffle           func(n int, swap func(i, j int))
}

// NewMinesweeper builds an empty board. rng may be nil to use the global
// source; tests pass a seeded one.
func NewMinesweeper(rows, cols, mines int, rng *rand.Rand) (*Minesweeper, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("minesweeper board must be at least 1x1, got %dx%d", rows, cols)
	}
	// a 3x3 safe zone has to fit wherever the first click lands
	maxMines := rows*cols - min(9, rows*cols)
	if mines < 0 || mines > maxMines {
		return nil, fmt.Errorf("minesweeper %dx%d supports 0..%d mines, got %d", rows, cols, maxMines, mines)
	}

	m := &Minesweeper{
		rows:    rows,
		cols:    cols,
		mines:   mines,
		status:  MinesWaiting,
		shuffle: rand.Shuffle,
	}
	if rng != nil {
		m.shuffle = rng.Shuffle
	}
	m.board = make([][]MineCell, rows)
	for r := range m.board {
		m.board[r] = make([]MineCell, cols)
		for c := range m.board[r] {
			m.board[r][c] = MineCell{State: CellHidden}
		}
	}
	return m, nil
}

func (m *Minesweeper) Rows() int                 { return m.rows }
func (m *Minesweeper) Cols() int                 { return m.cols }
func (m *Minesweeper) Mines() int                { return m.mines }
func (m *Minesweeper) Status() MinesweeperStatus { return m.status }
func (m *Minesweeper) Revealed() int             { return m.revealed }
func (m *Minesweeper) Flagged() int              { return m.flagged }

// MinesLeft is the counter shown in the toolbar; it goes negative when the
// player over-flags.
func (m *Minesweeper) MinesLeft() int {
	return m.mines - m.flagged
}

func (m *Minesweeper) Cell(row, col int) MineCell {
	return m.board[row][col]
}

// Board returns a copy of the grid.
func (m *Minesweeper) Board() [][]MineCell {
	out := make([][]MineCell, m.rows)
	for r := range m.board {
		out[r] = append([]MineCell{}, m.board[r]...)
	}
	return out
}

func (m *Minesweeper) inBounds(row, col int) bool {
	return row >= 0 && row < m.rows && col >= 0 && col < m.cols
}

func (m *Minesweeper) neighbors(row, col int) []Position {
	out := make([]Position, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if r, c := row+dr, col+dc; m.inBounds(r, c) {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// placeMines picks mine cells uniformly among everything outside the 3x3
// block around the first click, then fills in adjacency counts.
func (m *Minesweeper) placeMines(row, col int) {
	candidates := make([]Position, 0, m.rows*m.cols)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if abs(r-row) <= 1 && abs(c-col) <= 1 {
				continue
			}
			candidates = append(candidates, Position{Row: r, Col: c})
		}
	}
	m.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, p := range candidates[:m.mines] {
		m.board[p.Row][p.Col].HasMine = true
		for _, n := range m.neighbors(p.Row, p.Col) {
			m.board[n.Row][n.Col].Adjacent++
		}
	}
}

// Reveal opens a hidden cell, or chords an already revealed number whose
// flag count matches. Flagged cells ignore reveals.
func (m *Minesweeper) Reveal(row, col int) error {
	if !m.inBounds(row, col) {
		return ErrOutOfBounds
	}
	switch m.status {
	case MinesWon, MinesLost:
		return ErrMinesweeperOver
	case MinesWaiting:
		m.placeMines(row, col)
		m.status = MinesPlaying
	}

	cell := &m.board[row][col]
	switch cell.State {
	case CellFlagged:
		return nil
	case CellRevealed:
		m.chord(row, col)
	default:
		m.open(row, col)
	}
	m.settle()
	return nil
}

func (m *Minesweeper) chord(row, col int) {
	cell := m.board[row][col]
	if cell.Adjacent == 0 {
		return
	}
	neighbors := m.neighbors(row, col)
	flags := 0
	for _, n := range neighbors {
		if m.board[n.Row][n.Col].State == CellFlagged {
			flags++
		}
	}
	if flags != cell.Adjacent {
		return
	}
	for _, n := range neighbors {
		if m.board[n.Row][n.Col].State == CellHidden {
			m.open(n.Row, n.Col)
		}
	}
}

// open reveals one hidden cell. A mine loses the game; a zero floods out
// through an explicit stack, stopping at revealed and flagged cells.
func (m *Minesweeper) open(row, col int) {
	if m.board[row][col].HasMine {
		m.board[row][col].State = CellRevealed
		m.status = MinesLost
		return
	}

	stack := []Position{{Row: row, Col: col}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := &m.board[p.Row][p.Col]
		if cell.State != CellHidden {
			continue
		}
		cell.State = CellRevealed
		m.revealed++
		if cell.Adjacent != 0 {
			continue
		}
		for _, n := range m.neighbors(p.Row, p.Col) {
			if m.board[n.Row][n.Col].State == CellHidden {
				stack = append(stack, n)
			}
		}
	}
}

func (m *Minesweeper) settle() {
	if m.status != MinesPlaying {
		return
	}
	if m.revealed == m.rows*m.cols-m.mines {
		m.status = MinesWon
	}
}

// Flag toggles hidden and flagged while a game is being played.
func (m *Minesweeper) Flag(row, col int) error {
	if !m.inBounds(row, col) {
		return ErrOutOfBounds
	}
	if m.status != MinesPlaying {
		return nil
	}
	cell := &m.board[row][col]
	switch cell.State {
	case CellHidden:
		cell.State = CellFlagged
		m.flagged++
	case CellFlagged:
		cell.State = CellHidden
		m.flagged--
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
