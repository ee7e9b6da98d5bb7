package domain

// Grid is a seat-marker board used by the tictactoe and connect4 rules.
// Row 0 is the top row.
type Grid [][]PlayerID

const (
	TicTacToeSize  = 3
	Connect4Rows   = 6
	Connect4Cols   = 7
	Connect4ToWin  = 4
	TicTacToeToWin = 3
)

func NewGrid(rows, cols int) Grid {
	board := make(Grid, rows)
	for i := range board {
		board[i] = make([]PlayerID, cols)
	}
	return board
}

func (g Grid) Rows() int {
	return len(g)
}

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows() && col >= 0 && col < g.Cols()
}

// DropRow returns the row a disk would land on in column, or -1 when the
// column is full or outside the board.
func (g Grid) DropRow(column int) int {
	if column < 0 || column >= g.Cols() {
		return -1
	}
	for row := g.Rows() - 1; row >= 0; row-- {
		if g[row][column] == Empty {
			return row
		}
	}
	return -1
}

func (g Grid) DropDisk(column int, player PlayerID) (int, error) {
	if column < 0 || column >= g.Cols() {
		return -1, ErrOutOfBounds
	}
	// shifting the disk from top to bottom till it reaches the end or another disk
	row := g.DropRow(column)
	if row < 0 {
		return -1, ErrColumnFull
	}
	g[row][column] = player
	return row, nil
}

// IsFull reports whether no cell is empty.
func (g Grid) IsFull() bool {
	for _, row := range g {
		for _, cell := range row {
			if cell == Empty {
				return false
			}
		}
	}
	return true
}

// this creates a deep copy of the board
func (g Grid) Copy() Grid {
	newBoard := make(Grid, len(g))
	for i := range g {
		newBoard[i] = make([]PlayerID, len(g[i]))
		copy(newBoard[i], g[i])
	}
	return newBoard
}

// Ints converts the board into the wire representation.
func (g Grid) Ints() [][]int {
	intBoard := make([][]int, len(g))
	for i := range g {
		intBoard[i] = make([]int, len(g[i]))
		for j := range g[i] {
			intBoard[i][j] = int(g[i][j])
		}
	}
	return intBoard
}

// CountInDirection counts consecutive cells owned by player starting one
// step away from (row, col).
func (g Grid) CountInDirection(row, col, deltaRow, deltaCol int, player PlayerID) int {
	count := 0
	r, c := row+deltaRow, col+deltaCol
	for g.InBounds(r, c) && g[r][c] == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}
