package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iamasit07/arcade/internal/auth"
	"github.com/iamasit07/arcade/internal/call"
	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/live"
	"github.com/iamasit07/arcade/internal/protocol"
)

const (
	sideWidth      = 36
	requestTimeout = 15 * time.Second
)

type Session interface {
	Snapshot() live.Snapshot
	Send(f protocol.Frame) error
	SendChat(displayName, message string) error
	JoinRoom(room string) error
	LeaveRoom() error
	RequestClients() error
}

type Game interface {
	State() domain.BoardGameState
	Refresh() error
	Create(name domain.GameName) error
	Join() error
	Leave() error
	Move(m domain.Move) error
	DropInColumn(col int) error
	Hint() (int, error)
}

type Account interface {
	Credential() auth.Credential
	Login(ctx context.Context, displayName string) error
	Logout(ctx context.Context) error
}

type Call interface {
	Join() error
	Leave() error
	InCall() bool
	Peers() []call.PeerPhase
}

type Canvas interface {
	Clear() error
}

// Deps are the client pieces the model drives. Wake is poked by their
// change callbacks; the model re-reads everything when it fires.
type Deps struct {
	Session Session
	Game    Game
	Account Account
	Call    Call
	Canvas  Canvas
	Wake    <-chan struct{}
}

// Waker is a coalescing notification channel.
type Waker chan struct{}

func NewWaker() Waker { return make(Waker, 1) }

// Poke never blocks; several pokes before a read collapse into one.
func (w Waker) Poke() {
	select {
	case w <- struct{}{}:
	default:
	}
}

type wakeMsg struct{}

type resultMsg struct {
	text string
	err  error
}

type Model struct {
	deps     Deps
	viewport viewport.Model
	input    textinput.Model
	ready    bool

	snap   live.Snapshot
	game   domain.BoardGameState
	mines  *domain.Minesweeper
	notice string
	width  int

	// confirm runs when the next line answers yes to the prompt in notice.
	confirm func() error
}

func New(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message or /help"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 20

	m := Model{deps: deps, input: ti, game: domain.EmptyState()}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForWake())
}

func (m Model) waitForWake() tea.Cmd {
	wake := m.deps.Wake
	if wake == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-wake; !ok {
			return nil
		}
		return wakeMsg{}
	}
}

func (m *Model) refresh() {
	if m.deps.Session != nil {
		m.snap = m.deps.Session.Snapshot()
	}
	if m.deps.Game != nil {
		m.game = m.deps.Game.State()
	}
	if m.ready {
		m.viewport.SetContent(renderLog(m.snap.Log))
		m.viewport.GotoBottom()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.SetValue("")
			cmd := m.submit(line)
			m.refresh()
			return m, cmd
		}

	case wakeMsg:
		m.refresh()
		return m, m.waitForWake()

	case resultMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = msg.text
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		footerHeight := 4
		m.width = msg.Width
		logWidth := max(msg.Width-sideWidth, 20)
		if !m.ready {
			m.viewport = viewport.New(logWidth, msg.Height-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = logWidth
			m.viewport.Height = msg.Height - footerHeight
		}
		m.input.Width = msg.Width
		m.refresh()
	}

	m.input, tiCmd = m.input.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m Model) displayName() string {
	if m.deps.Account == nil {
		return ""
	}
	return m.deps.Account.Credential().DisplayName
}

// async runs fn off the update loop and reports text when it succeeds.
func async(text string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: text}
	}
}

func (m *Model) submit(line string) tea.Cmd {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if confirm := m.confirm; confirm != nil {
		m.confirm = nil
		switch strings.ToLower(line) {
		case "y", "yes":
			m.report(confirm(), "")
		default:
			m.notice = "Cancelled"
		}
		return nil
	}
	cmd, ok := ParseCommand(line)
	if !ok {
		m.report(m.deps.Session.SendChat(m.displayName(), line), "")
		return nil
	}

	switch cmd.Name {
	case "quit", "exit":
		return tea.Quit
	case "help", "":
		m.notice = helpText
	case "login":
		if len(cmd.Args) != 1 {
			m.notice = "usage: /login <name>"
			return nil
		}
		name := cmd.Args[0]
		return async("Logged in as "+name, func(ctx context.Context) error {
			return m.deps.Account.Login(ctx, name)
		})
	case "logout":
		return async("Logged out", m.deps.Account.Logout)
	case "join":
		if len(cmd.Args) == 0 {
			m.notice = "usage: /join <room>"
			return nil
		}
		m.report(m.deps.Session.JoinRoom(cmd.Rest()), "")
	case "leave":
		m.report(m.deps.Session.LeaveRoom(), "")
	case "who":
		m.report(m.deps.Session.RequestClients(), "")
	case "rooms":
		m.report(m.deps.Session.Send(protocol.Rooms{}), "")
	case "game":
		m.gameCommand(cmd.Args)
	case "drop":
		if len(cmd.Args) != 1 {
			m.notice = "usage: /drop <col>"
			return nil
		}
		col, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			m.notice = "column must be a number"
			return nil
		}
		m.report(m.deps.Game.DropInColumn(col), "")
	case "hint":
		col, err := m.deps.Game.Hint()
		m.report(err, fmt.Sprintf("try column %d", col))
	case "mines":
		m.minesCommand(cmd.Args)
	case "call":
		m.callCommand(cmd.Args)
	case "clear":
		m.report(m.deps.Canvas.Clear(), "Canvas cleared")
	default:
		m.notice = fmt.Sprintf("unknown command /%s, try /help", cmd.Name)
	}
	return nil
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = ok
}

func (m *Model) gameCommand(args []string) {
	if len(args) == 0 {
		m.notice = "usage: /game get|create|join|leave|move"
		return
	}
	g := m.deps.Game
	switch args[0] {
	case "get":
		m.report(g.Refresh(), "")
	case "create":
		if len(args) != 2 || !domain.GameName(args[1]).Valid() {
			m.notice = "usage: /game create tictactoe|connect4|chess"
			return
		}
		m.report(g.Create(domain.GameName(args[1])), "")
	case "join":
		m.report(g.Join(), "")
	case "leave":
		m.confirm = g.Leave
		m.notice = "Leave the game? A game in progress is forfeited. (y/n)"
	case "move":
		mv, err := ParseMove(args[1:])
		if err != nil {
			m.notice = err.Error()
			return
		}
		m.report(g.Move(mv), "")
	default:
		m.notice = "unknown game action " + args[0]
	}
}

func (m *Model) minesCommand(args []string) {
	if len(args) == 0 {
		m.notice = "usage: /mines new|reveal|flag"
		return
	}
	switch args[0] {
	case "new":
		rows, cols, count := 9, 9, 10
		if len(args) == 4 {
			var err error
			if rows, err = atoi(args[1]); err == nil {
				if cols, err = atoi(args[2]); err == nil {
					count, err = atoi(args[3])
				}
			}
			if err != nil {
				m.notice = err.Error()
				return
			}
		}
		board, err := domain.NewMinesweeper(rows, cols, count, nil)
		if err != nil {
			m.notice = err.Error()
			return
		}
		m.mines = board
		m.notice = ""
	case "reveal", "flag":
		if m.mines == nil {
			m.notice = "start a board with /mines new"
			return
		}
		r, c, err := ParseCell(args[1:])
		if err != nil {
			m.notice = err.Error()
			return
		}
		if args[0] == "reveal" {
			err = m.mines.Reveal(r, c)
		} else {
			err = m.mines.Flag(r, c)
		}
		m.report(err, "")
	default:
		m.notice = "unknown mines action " + args[0]
	}
}

func (m *Model) callCommand(args []string) {
	if m.deps.Call == nil {
		m.notice = "calls are not available"
		return
	}
	action := "peers"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "join":
		m.report(m.deps.Call.Join(), "Joined the call")
	case "leave":
		m.report(m.deps.Call.Leave(), "Left the call")
	case "peers":
		peers := m.deps.Call.Peers()
		if len(peers) == 0 {
			m.notice = "no peers in the call"
			return
		}
		parts := make([]string, len(peers))
		for i, p := range peers {
			parts[i] = fmt.Sprintf("%s (%s)", p.Peer, p.Phase)
		}
		m.notice = strings.Join(parts, ", ")
	default:
		m.notice = "usage: /call join|leave|peers"
	}
}

func (m Model) header() string {
	user := "not logged in"
	if m.deps.Account != nil {
		if cred := m.deps.Account.Credential(); cred.LoggedIn() {
			user = cred.DisplayName + " (" + cred.AccountType + ")"
		}
	}
	room := m.snap.Room
	if room == "" {
		room = "-"
	}
	return headerStyle.Render(fmt.Sprintf("%s · room %s · %d here · %s", m.snap.Status, room, len(m.snap.Clients), user))
}

func (m Model) side() string {
	parts := []string{RenderGame(m.game, m.selfName())}
	if m.mines != nil {
		parts = append(parts, RenderMines(m.mines))
	}
	if m.deps.Call != nil && m.deps.Call.InCall() {
		parts = append(parts, fmt.Sprintf("in call with %d", len(m.deps.Call.Peers())))
	}
	return panelStyle.Width(sideWidth - 4).Render(strings.Join(parts, "\n\n"))
}

func (m Model) selfName() string {
	if m.deps.Account == nil {
		return ""
	}
	return m.deps.Account.Credential().Username
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	status := m.notice
	if m.snap.Error != "" {
		status = errorStyle.Render(m.snap.Error)
		if m.notice != "" {
			status += "  " + m.notice
		}
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.side())
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		m.header(),
		body,
		status,
		borderStyle.Render(strings.Repeat("─", max(m.width, 1))),
		m.input.View(),
	)
}
