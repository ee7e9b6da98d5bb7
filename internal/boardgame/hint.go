package boardgame

import (
	"math"
	"sort"

	"github.com/iamasit07/arcade/internal/domain"
)

const ErrNoHint domain.Error = "hints are only available in connect4"

const (
	hintDepth   = 6
	scoreWin    = 1_000_000
	threeWeight = 500
	twoWeight   = 50
	centerBonus = 20
)

// Hint suggests a column for the local player in a connect4 game.
func (c *Controller) Hint() (int, error) {
	c.mu.Lock()
	s := c.state
	me := c.self()
	c.mu.Unlock()

	if s.GameName != domain.Connect4 {
		return -1, ErrNoHint
	}
	if err := canMove(&s, me); err != nil {
		return -1, err
	}
	return BestColumn(gridOf(s.Board), domain.SeatMarker(s.Seat(me)), hintDepth), nil
}

func gridOf(board [][]int) domain.Grid {
	g := make(domain.Grid, len(board))
	for r, row := range board {
		g[r] = make([]domain.PlayerID, len(row))
		for c, v := range row {
			g[r][c] = domain.PlayerID(v)
		}
	}
	return g
}

func opponentOf(p domain.PlayerID) domain.PlayerID {
	if p == domain.Player1 {
		return domain.Player2
	}
	return domain.Player1
}

// openColumns lists playable columns, centre first, which makes alpha-beta
// cut off sooner.
func openColumns(g domain.Grid) []int {
	var cols []int
	for c := 0; c < g.Cols(); c++ {
		if g.DropRow(c) >= 0 {
			cols = append(cols, c)
		}
	}
	center := g.Cols() / 2
	sort.SliceStable(cols, func(i, j int) bool {
		return abs(cols[i]-center) < abs(cols[j]-center)
	})
	return cols
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// BestColumn searches depth plies with alpha-beta pruning and returns the
// column for me, or -1 when the board is full. An immediate win is always
// taken.
func BestColumn(g domain.Grid, me domain.PlayerID, depth int) int {
	cols := openColumns(g)
	if len(cols) == 0 {
		return -1
	}
	opp := opponentOf(me)

	best, bestScore := cols[0], math.MinInt
	alpha := math.MinInt
	for _, col := range cols {
		next := g.Copy()
		row, _ := next.DropDisk(col, me)
		if domain.CheckWin(next, row, col, me, domain.Connect4ToWin) {
			return col
		}
		score := search(next, depth-1, alpha, math.MaxInt, false, me, opp)
		if score > bestScore {
			best, bestScore = col, score
		}
		alpha = max(alpha, bestScore)
	}
	return best
}

// search scores wins by remaining depth so a nearer win beats a later one
// and a later loss beats a nearer one.
func search(g domain.Grid, depth, alpha, beta int, maximizing bool, me, opp domain.PlayerID) int {
	cols := openColumns(g)
	if depth == 0 || len(cols) == 0 {
		return evaluate(g, me, opp)
	}

	mover := opp
	if maximizing {
		mover = me
	}
	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}
	for _, col := range cols {
		next := g.Copy()
		row, _ := next.DropDisk(col, mover)
		if domain.CheckWin(next, row, col, mover, domain.Connect4ToWin) {
			if maximizing {
				return scoreWin + depth
			}
			return -scoreWin - depth
		}
		score := search(next, depth-1, alpha, beta, !maximizing, me, opp)
		if maximizing {
			best = max(best, score)
			alpha = max(alpha, score)
		} else {
			best = min(best, score)
			beta = min(beta, score)
		}
		if beta <= alpha {
			break
		}
	}
	return best
}

// evaluate scores every window of four cells: open lines of two and three
// count for whoever owns them, plus a bonus for holding the centre column.
func evaluate(g domain.Grid, me, opp domain.PlayerID) int {
	score := 0
	center := g.Cols() / 2
	for r := 0; r < g.Rows(); r++ {
		switch g[r][center] {
		case me:
			score += centerBonus
		case opp:
			score -= centerBonus
		}
	}

	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			for _, d := range dirs {
				endR, endC := r+d[0]*(domain.Connect4ToWin-1), c+d[1]*(domain.Connect4ToWin-1)
				if !g.InBounds(endR, endC) {
					continue
				}
				mine, theirs := 0, 0
				for i := 0; i < domain.Connect4ToWin; i++ {
					switch g[r+d[0]*i][c+d[1]*i] {
					case me:
						mine++
					case opp:
						theirs++
					}
				}
				score += windowScore(mine, theirs) - windowScore(theirs, mine)
			}
		}
	}
	return score
}

func windowScore(own, other int) int {
	if other > 0 {
		return 0
	}
	switch own {
	case 3:
		return threeWeight
	case 2:
		return twoWeight
	}
	return 0
}
