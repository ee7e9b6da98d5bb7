package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iamasit07/arcade/internal/domain"
)

const (
	ErrUsage    domain.Error = "usage"
	ErrBadParse domain.Error = "could not read move"
)

// Command is one slash command typed into the input line.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits "/name arg arg". Anything not starting with a slash
// is chat and reports false.
func ParseCommand(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{}, false
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return Command{}, true
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Rest joins the arguments back, for commands that take free text.
func (c Command) Rest() string {
	return strings.Join(c.Args, " ")
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrBadParse, s)
	}
	return n, nil
}

// ParseMove reads a move in one of the forms
//
//	row col                  place (tictactoe)
//	row col row col [change] from/to (chess by coordinates)
//	e2e4, e7e8q              chess square names
func ParseMove(args []string) (domain.Move, error) {
	switch len(args) {
	case 1:
		return parseSquares(args[0])
	case 2:
		r, err := atoi(args[0])
		if err != nil {
			return domain.Move{}, err
		}
		c, err := atoi(args[1])
		if err != nil {
			return domain.Move{}, err
		}
		return domain.Move{To: domain.Position{Row: r, Col: c}}, nil
	case 4, 5:
		var n [4]int
		for i := range n {
			v, err := atoi(args[i])
			if err != nil {
				return domain.Move{}, err
			}
			n[i] = v
		}
		m := domain.Move{
			From: &domain.Position{Row: n[0], Col: n[1]},
			To:   domain.Position{Row: n[2], Col: n[3]},
		}
		if len(args) == 5 {
			m.Change = strings.ToLower(args[4])
		}
		return m, nil
	}
	return domain.Move{}, fmt.Errorf("%w: /game move <row> <col> | <from> <to> | e2e4", ErrUsage)
}

// square maps "e2" to board coordinates: row 0 is rank 8, col 0 is file a.
func square(s string) (domain.Position, error) {
	if len(s) != 2 {
		return domain.Position{}, fmt.Errorf("%w: bad square %q", ErrBadParse, s)
	}
	file, rank := s[0], s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return domain.Position{}, fmt.Errorf("%w: bad square %q", ErrBadParse, s)
	}
	return domain.Position{Row: 8 - int(rank-'0'), Col: int(file - 'a')}, nil
}

func parseSquares(s string) (domain.Move, error) {
	s = strings.ToLower(s)
	if len(s) != 4 && len(s) != 5 {
		return domain.Move{}, fmt.Errorf("%w: %q", ErrBadParse, s)
	}
	from, err := square(s[:2])
	if err != nil {
		return domain.Move{}, err
	}
	to, err := square(s[2:4])
	if err != nil {
		return domain.Move{}, err
	}
	m := domain.Move{From: &from, To: to}
	if len(s) == 5 {
		m.Change = s[4:]
	}
	return m, nil
}

// ParseCell reads "row col" for the minesweeper commands.
func ParseCell(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%w: <row> <col>", ErrUsage)
	}
	r, err := atoi(args[0])
	if err != nil {
		return 0, 0, err
	}
	c, err := atoi(args[1])
	if err != nil {
		return 0, 0, err
	}
	return r, c, nil
}

const helpText = `Commands:
  /login <name>            register as a guest
  /logout
  /join <room>  /leave  /who  /rooms
  /game get|create <tictactoe|connect4|chess>|join|leave
  /game move <row> <col> | <r1> <c1> <r2> <c2> [piece] | e2e4
  /drop <col>              connect4 shortcut
  /hint                    suggest a connect4 column
  /mines new [rows cols mines] | reveal <row> <col> | flag <row> <col>
  /call join|leave|peers
  /clear                   clear the shared canvas
  /quit`
