package games

import (
	"fmt"

	"github.com/corentings/chess/v2"

	"github.com/iamasit07/arcade/internal/domain"
)

// Piece codes on the wire board. White pieces add WhiteOffset.
const (
	CodeKing    = 1
	CodeQueen   = 2
	CodeRook    = 3
	CodeBishop  = 4
	CodeKnight  = 5
	CodePawn    = 6
	WhiteOffset = 10
)

type chessRules struct {
	game *chess.Game
}

// NewChess seats white at seat 0.
func NewChess() Rules {
	return &chessRules{game: chess.NewGame()}
}

// square maps a board cell to a square; row 0 is rank 8 and col 0 is file a.
func square(pos domain.Position) string {
	return fmt.Sprintf("%c%d", 'a'+pos.Col, 8-pos.Row)
}

func cell(sq chess.Square) domain.Position {
	return domain.Position{Row: 7 - int(sq.Rank()), Col: int(sq.File())}
}

var promoLetters = map[chess.PieceType]string{
	chess.Queen:  "q",
	chess.Rook:   "r",
	chess.Bishop: "b",
	chess.Knight: "n",
}

func (c *chessRules) Apply(seat int, move domain.Move) (Outcome, error) {
	if move.From == nil {
		return Ongoing, fmt.Errorf("%w: chess moves need a from square", domain.ErrInvalidMove)
	}
	if !inBoard(*move.From) || !inBoard(move.To) {
		return Ongoing, domain.ErrOutOfBounds
	}

	uci := square(*move.From) + square(move.To) + move.Change
	decoded, err := chess.UCINotation{}.Decode(c.game.Position(), uci)
	if err != nil {
		return Ongoing, fmt.Errorf("%w: %q: %v", domain.ErrInvalidMove, uci, err)
	}
	if err := c.game.Move(decoded, nil); err != nil {
		return Ongoing, fmt.Errorf("%w: illegal move %q: %v", domain.ErrInvalidMove, uci, err)
	}

	switch c.game.Outcome() {
	case chess.NoOutcome:
		return Ongoing, nil
	case chess.WhiteWon, chess.BlackWon:
		return Won, nil
	default:
		return Drawn, nil
	}
}

func inBoard(pos domain.Position) bool {
	return pos.Row >= 0 && pos.Row < 8 && pos.Col >= 0 && pos.Col < 8
}

func (c *chessRules) Board() [][]int {
	board := c.game.Position().Board()
	out := make([][]int, 8)
	for i := 0; i < 8; i++ {
		out[i] = make([]int, 8)
		for j := 0; j < 8; j++ {
			out[i][j] = pieceCode(board.Piece(chess.Square((7-i)*8 + j)))
		}
	}
	return out
}

func pieceCode(piece chess.Piece) int {
	if piece == chess.NoPiece {
		return 0
	}
	var code int
	switch piece.Type() {
	case chess.King:
		code = CodeKing
	case chess.Queen:
		code = CodeQueen
	case chess.Rook:
		code = CodeRook
	case chess.Bishop:
		code = CodeBishop
	case chess.Knight:
		code = CodeKnight
	case chess.Pawn:
		code = CodePawn
	}
	if piece.Color() == chess.White {
		code += WhiteOffset
	}
	return code
}

// ValidMoves lists the legal moves of the side to move. A promotion shows
// up once per piece it can become.
func (c *chessRules) ValidMoves(int) []domain.Move {
	legal := c.game.ValidMoves()
	moves := make([]domain.Move, 0, len(legal))
	for _, mv := range legal {
		from := cell(mv.S1())
		moves = append(moves, domain.Move{
			From:   &from,
			To:     cell(mv.S2()),
			Change: promoLetters[mv.Promo()],
		})
	}
	return moves
}
