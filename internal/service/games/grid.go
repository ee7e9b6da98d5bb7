package games

import "github.com/iamasit07/arcade/internal/domain"

type ticTacToe struct {
	board domain.Grid
}

func NewTicTacToe() Rules {
	return &ticTacToe{board: domain.NewGrid(domain.TicTacToeSize, domain.TicTacToeSize)}
}

func (t *ticTacToe) Board() [][]int {
	return t.board.Ints()
}

func (t *ticTacToe) Apply(seat int, move domain.Move) (Outcome, error) {
	row, col := move.To.Row, move.To.Col
	if !t.board.InBounds(row, col) {
		return Ongoing, domain.ErrInvalidMove
	}
	if t.board[row][col] != domain.Empty {
		return Ongoing, domain.ErrCellTaken
	}
	marker := domain.SeatMarker(seat)
	t.board[row][col] = marker

	if domain.CheckWin(t.board, row, col, marker, domain.TicTacToeToWin) {
		return Won, nil
	}
	if t.board.IsFull() {
		return Drawn, nil
	}
	return Ongoing, nil
}

func (t *ticTacToe) ValidMoves(int) []domain.Move {
	return placements(domain.EmptyCells(t.board))
}

type connect4 struct {
	board domain.Grid
}

func NewConnect4() Rules {
	return &connect4{board: domain.NewGrid(domain.Connect4Rows, domain.Connect4Cols)}
}

func (c *connect4) Board() [][]int {
	return c.board.Ints()
}

// Apply only looks at the column; the disk falls to the lowest free row.
func (c *connect4) Apply(seat int, move domain.Move) (Outcome, error) {
	marker := domain.SeatMarker(seat)
	row, err := c.board.DropDisk(move.To.Col, marker)
	if err != nil {
		return Ongoing, err
	}
	if domain.CheckWin(c.board, row, move.To.Col, marker, domain.Connect4ToWin) {
		return Won, nil
	}
	if c.board.IsFull() {
		return Drawn, nil
	}
	return Ongoing, nil
}

func (c *connect4) ValidMoves(int) []domain.Move {
	return placements(domain.DropTargets(c.board))
}

func placements(cells []domain.Position) []domain.Move {
	moves := make([]domain.Move, len(cells))
	for i, pos := range cells {
		moves[i] = domain.Move{To: pos}
	}
	return moves
}
