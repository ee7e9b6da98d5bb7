package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	clientauth "github.com/iamasit07/arcade/internal/auth"
	"github.com/iamasit07/arcade/internal/config"
	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/repository/postgres"
	"github.com/iamasit07/arcade/internal/service/account"
	"github.com/iamasit07/arcade/internal/service/games"
	"github.com/iamasit07/arcade/internal/service/live"
	"github.com/iamasit07/arcade/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type captureMailer struct {
	codes map[string]string
}

func (m *captureMailer) SendCode(to, purpose, code string) error {
	m.codes[purpose] = code
	return nil
}

type fakeHistory struct {
	records []games.Record
}

func (f *fakeHistory) GetUserGameHistory(_ context.Context, username string, limit int) ([]games.Record, error) {
	var out []games.Record
	for _, rec := range f.records {
		if rec.Players[0] == username || rec.Players[1] == username {
			out = append(out, rec)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeHistory) GetGameByID(_ context.Context, id string) (games.Record, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return games.Record{}, postgres.ErrGameNotFound
}

func newTestRouter(t *testing.T) (*gin.Engine, *captureMailer, *fakeHistory) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.ServerConfig{
		JWTSecret:             "http-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   1,
		BcryptCost:            4,
	}
	t.Cleanup(func() { config.AppConfig = prev })

	mail := &captureMailer{codes: map[string]string{}}
	history := &fakeHistory{}
	svc := account.NewService(account.NewMemoryUsers(), account.NewMemoryCache(), mail)
	router := NewRouter(RouterConfig{
		Auth:    NewAuthHandler(svc),
		History: NewHistoryHandler(history),
	})
	return router, mail, history
}

func do(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGuestValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing", `{}`, "This field is required"},
		{"short", `{"name":"abc"}`, "Must be at least 5 characters"},
		{"long", `{"name":"` + strings.Repeat("a", 31) + `"}`, "Cannot be longer than 30 characters"},
		{"symbols", `{"name":"bad name!"}`, "Must contain only letters and numbers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/auth/guest", tc.body, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			var resp struct {
				Fields map[string]string `json:"fields"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Fields["name"] != tc.want {
				t.Errorf("fields = %v", resp.Fields)
			}
		})
	}

	if w := do(router, http.MethodPost, "/api/auth/guest", `not json`, ""); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", w.Code)
	}
}

func TestGuestResponse(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/auth/guest", `{"name":"alice"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.User.Username, "guest_alice_") || resp.User.DisplayName != "alice" || resp.User.AccountType != account.AccountGuest {
		t.Errorf("user = %+v", resp.User)
	}
	if exp := time.UnixMilli(resp.AccessExp); exp.Before(time.Now()) {
		t.Errorf("accessExp = %v", exp)
	}

	cookies := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.HttpOnly
	}
	if !cookies["access_token"] || !cookies["refresh_token"] {
		t.Errorf("cookies = %v", cookies)
	}
}

func TestRefreshAndLogoutWithoutCookie(t *testing.T) {
	router, _, _ := newTestRouter(t)

	if w := do(router, http.MethodPost, "/api/auth/logout", "", ""); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "No refresh token provided") {
		t.Errorf("logout = %d %s", w.Code, w.Body)
	}
	if w := do(router, http.MethodPost, "/api/auth/refresh", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("refresh = %d", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/auth/email/setup", `{"email":"a@b.co"}`, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("protected route without token = %d", w.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	router, mail, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx := context.Background()
	client, err := clientauth.NewClient(srv.URL+"/api", nil)
	if err != nil {
		t.Fatal(err)
	}

	guest, err := client.RegisterGuest(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if !guest.LoggedIn() || guest.AccountType != account.AccountGuest {
		t.Fatalf("guest = %+v", guest)
	}

	refreshed, err := client.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Username != guest.Username {
		t.Errorf("refresh changed user: %+v", refreshed)
	}

	if err := client.SetEmail(ctx, "carol@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.VerifyEmail(ctx, "12345"); err == nil {
		t.Error("short code accepted")
	}
	verified, err := client.VerifyEmail(ctx, mail.codes["email setup"])
	if err != nil {
		t.Fatal(err)
	}
	if verified.AccountType != account.AccountEmail {
		t.Errorf("verified = %+v", verified)
	}

	if err := client.GetPassCode(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.SetPass(ctx, "correct-horse", mail.codes["password"]); err != nil {
		t.Fatal(err)
	}

	if err := client.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	var apiErr *clientauth.APIError
	if _, err := client.Refresh(ctx); !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("refresh after logout: %v", err)
	}

	if _, err := client.LoginWithPassword(ctx, "carol@example.com", "wrong-horse"); !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("wrong password: %v", err)
	}
	back, err := client.LoginWithPassword(ctx, "carol@example.com", "correct-horse")
	if err != nil || back.Username != guest.Username {
		t.Fatalf("password login = %+v, %v", back, err)
	}

	if err := client.GetLoginCode(ctx, "carol@example.com"); err != nil {
		t.Fatal(err)
	}
	if cred, err := client.LoginWithCode(ctx, "carol@example.com", mail.codes["login"]); err != nil || cred.Username != guest.Username {
		t.Errorf("code login = %+v, %v", cred, err)
	}
}

func TestHistory(t *testing.T) {
	router, _, history := newTestRouter(t)
	end := time.Unix(1_700_000_600, 0)
	history.records = []games.Record{
		{ID: "g1", GameName: domain.Connect4, Players: []string{"alice", "bob"}, Winner: "alice", Status: domain.StatusWin, Moves: 7, EndedAt: end},
		{ID: "g2", GameName: domain.TicTacToe, Players: []string{"bob", "alice"}, Status: domain.StatusDraw, Moves: 9, EndedAt: end},
		{ID: "g3", GameName: domain.Chess, Players: []string{"bob", "carol"}, Winner: "carol", Status: domain.StatusWin},
	}
	token, _, err := auth.GenerateAccessToken("alice", "Alice", account.AccountGuest)
	if err != nil {
		t.Fatal(err)
	}

	w := do(router, http.MethodGet, "/api/history", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var items []historyItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Result != "win" || items[0].OpponentUsername != "bob" || items[1].Result != "draw" {
		t.Errorf("items = %+v", items)
	}

	if w := do(router, http.MethodGet, "/api/history?limit=zero", "", token); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/api/history/g1", "", token); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"winner":"alice"`) {
		t.Errorf("details = %d %s", w.Code, w.Body)
	}
	if w := do(router, http.MethodGet, "/api/history/g3", "", token); w.Code != http.StatusNotFound {
		t.Errorf("someone else's game = %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/api/history/nope", "", token); w.Code != http.StatusNotFound {
		t.Errorf("missing game = %d", w.Code)
	}
}

type fakeRooms []live.RoomSummary

func (f fakeRooms) Overview() []live.RoomSummary { return f }

func TestRooms(t *testing.T) {
	newTestRouter(t) // installs the token config
	game := domain.BoardGameState{
		GameName: domain.Connect4,
		Players:  []string{"alice", "bob"},
		Turn:     domain.SeatTurn(1),
		Status:   domain.StatusInProgress,
	}
	router := NewRouter(RouterConfig{
		Auth:  NewAuthHandler(account.NewService(account.NewMemoryUsers(), account.NewMemoryCache(), &captureMailer{})),
		Rooms: NewRoomsHandler(fakeRooms{
			{Name: "Lobby", Members: 3},
			{Name: "den", Members: 2, Game: &game},
		}),
	})

	if w := do(router, http.MethodGet, "/api/rooms", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d", w.Code)
	}

	token, _, err := auth.GenerateAccessToken("alice", "Alice", account.AccountGuest)
	if err != nil {
		t.Fatal(err)
	}
	w := do(router, http.MethodGet, "/api/rooms", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rooms []roomResponse
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 2 || rooms[0].Game != nil || rooms[1].Game == nil {
		t.Fatalf("rooms = %+v", rooms)
	}
	if g := rooms[1].Game; g.GameName != domain.Connect4 || g.Turn != "bob" || g.Status != domain.StatusInProgress {
		t.Errorf("game = %+v", *g)
	}
}
