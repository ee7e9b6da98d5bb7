package domain

var lineDirections = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// CheckWin only checks lines passing through (row, column), which is all a
// single placement can complete.
func CheckWin(board Grid, row, column int, player PlayerID, toWin int) bool {
	if player == Empty || !board.InBounds(row, column) || board[row][column] != player {
		return false
	}
	for _, dir := range lineDirections {
		count := 1 +
			board.CountInDirection(row, column, dir[0], dir[1], player) +
			board.CountInDirection(row, column, -dir[0], -dir[1], player)
		if count >= toWin {
			return true
		}
	}
	return false
}

// FindWinner scans the whole board and returns the first player owning a
// line of toWin cells.
func FindWinner(board Grid, toWin int) PlayerID {
	for r := 0; r < board.Rows(); r++ {
		for c := 0; c < board.Cols(); c++ {
			if p := board[r][c]; p != Empty && CheckWin(board, r, c, p, toWin) {
				return p
			}
		}
	}
	return Empty
}

// EmptyCells lists the placements still open, row-major.
func EmptyCells(board Grid) []Position {
	var cells []Position
	for r := range board {
		for c := range board[r] {
			if board[r][c] == Empty {
				cells = append(cells, Position{Row: r, Col: c})
			}
		}
	}
	return cells
}

// DropTargets lists one landing cell per non-full column.
func DropTargets(board Grid) []Position {
	var cells []Position
	for c := 0; c < board.Cols(); c++ {
		if r := board.DropRow(c); r >= 0 {
			cells = append(cells, Position{Row: r, Col: c})
		}
	}
	return cells
}
