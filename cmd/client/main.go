package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iamasit07/arcade/internal/auth"
	"github.com/iamasit07/arcade/internal/boardgame"
	"github.com/iamasit07/arcade/internal/call"
	"github.com/iamasit07/arcade/internal/config"
	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/live"
	"github.com/iamasit07/arcade/internal/reconnect"
	"github.com/iamasit07/arcade/internal/tui"
	"github.com/iamasit07/arcade/pkg/useragent"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadClientConfig()

	// The UI owns the terminal, so logs go to a file.
	logFile, err := tea.LogToFile(cfg.LogFile, "arcade")
	if err != nil {
		log.Fatalf("Could not open log file: %v", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := auth.NewClient(cfg.Origin+cfg.APIBase, nil)
	if err != nil {
		log.Fatalf("Invalid API address: %v", err)
	}

	store, err := auth.OpenStore(cfg.StorePath)
	if err != nil {
		log.Fatalf("Could not open credential store: %v", err)
	}
	defer store.Close()

	gate := auth.NewGate(auth.GateConfig{
		Refresher:      client,
		Persister:      store,
		RefreshBefore:  cfg.RefreshBefore,
		RefreshTimeout: 10 * time.Second,
	})
	if cred, ok, err := store.Load(); err != nil {
		log.Printf("[AUTH] Stored credential unreadable: %v", err)
	} else if ok {
		gate.Restore(cred)
	}
	// The live connection needs a fresh access token for as long as the
	// client runs.
	gate.AddDependent("websocket")
	defer gate.RemoveDependent("websocket")

	url, err := live.Endpoint(cfg.Origin, cfg.LivePath)
	if err != nil {
		log.Fatalf("Invalid live endpoint: %v", err)
	}
	self := func() string { return gate.Credential().Username }
	session := live.NewSession(live.SessionConfig{
		URL: url,
		Dialer: &live.WSDialer{
			Jar:    client.Jar(),
			Header: http.Header{
				"Origin":     []string{cfg.Origin},
				"User-Agent": []string{useragent.TerminalAgent + "/1"},
			},
		},
		Credentials: gate,
		Self:        self,
	})
	go session.Run(ctx)

	policy := reconnect.DefaultPolicy()
	policy.Initial = cfg.ReconnectInitialDelay
	policy.Max = cfg.ReconnectMaxDelay
	policy.MaxAttempts = cfg.ReconnectMaxAttempts
	policy.Cooldown = cfg.ReconnectCooldown
	supervisor := reconnect.NewSupervisor(gate, session, policy)
	go supervisor.Run(ctx, cfg.ReconcileInterval)

	strokes := live.NewStrokeBatcher(session, cfg.DrawStrokeInterval)
	go strokes.Run(ctx)

	game, err := boardgame.Mount(session, session, self)
	if err != nil {
		log.Fatalf("Board game setup failed: %v", err)
	}
	defer game.Unmount()

	tracker, err := call.NewTracker(session, session, call.Config{Self: self})
	if err != nil {
		log.Fatalf("Call setup failed: %v", err)
	}
	defer tracker.Close()

	wake := tui.NewWaker()
	session.Watch(func(live.Snapshot) { wake.Poke() })
	gate.OnChange(func(auth.Credential) { wake.Poke() })
	game.OnChange(func(domain.BoardGameState) { wake.Poke() })
	tracker.OnEvent(func(call.Event) { wake.Poke() })

	model := tui.New(tui.Deps{
		Session: session,
		Game:    game,
		Account: tui.GuestAccount{Client: client, Gate: gate},
		Call:    tracker,
		Canvas:  strokes,
		Wake:    wake,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Printf("UI exited with error: %v", err)
		os.Exit(1)
	}
}
