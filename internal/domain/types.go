package domain

// GameName identifies one of the networked board games. The empty name
// means no game exists in the room.
type GameName string

const (
	NoGame    GameName = ""
	TicTacToe GameName = "tictactoe"
	Connect4  GameName = "connect4"
	Chess     GameName = "chess"
)

// GameNames lists the games a room can create, in menu order.
var GameNames = []GameName{TicTacToe, Connect4, Chess}

func (n GameName) Valid() bool {
	for _, name := range GameNames {
		if n == name {
			return true
		}
	}
	return false
}

// to represent the game status
type GameStatus string

const (
	StatusWaiting      GameStatus = "waiting"
	StatusInProgress   GameStatus = "in_progress"
	StatusWin          GameStatus = "win"
	StatusDraw         GameStatus = "draw"
	StatusFinished     GameStatus = "finished"
	StatusDisconnected GameStatus = "disconnected"
)

// Over reports whether the game reached a result. Older servers reported
// every result as "finished" with the winner field set.
func (s GameStatus) Over() bool {
	return s == StatusWin || s == StatusDraw || s == StatusFinished
}

const MaxSeats = 2

// PlayerID is a seat marker as stored in tictactoe and connect4 boards.
type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// SeatMarker maps a seat index to the value written on the board.
func SeatMarker(seat int) PlayerID {
	return PlayerID(seat + 1)
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidMove     Error = "invalid move"
	ErrColumnFull      Error = "column is full"
	ErrCellTaken       Error = "cell already taken"
	ErrNotYourTurn     Error = "not your turn"
	ErrNotInProgress   Error = "game is not in progress"
	ErrNoGame          Error = "no game in this room"
	ErrGameExists      Error = "game already exists in this room"
	ErrGameFull        Error = "game is full"
	ErrAlreadySeated   Error = "already joined this game"
	ErrNotSeated       Error = "not a player in this game"
	ErrUnknownGame     Error = "game type not supported"
	ErrOutOfBounds     Error = "position is outside the board"
	ErrNotJoinable     Error = "game is not accepting players"
	ErrNothingToLeave  Error = "nothing to leave"
	ErrMoveNotOffered  Error = "move is not in the list of valid moves"
	ErrMinesweeperOver Error = "minesweeper game is over"
)
