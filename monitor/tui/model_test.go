package tui

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"yt2x/types"
)

func TestStatusUpdateConnects(t *testing.T) {
	m := NewModel("http://localhost:0")
	status := &types.StatusResponse{State: types.StateSleeping, Cursor: "abc", FeedURL: "feed"}

	next, _ := m.Update(StatusUpdateMsg{Status: status})
	got := next.(Model)
	if !got.Connected || got.Status.Cursor != "abc" {
		t.Fatalf("expected connected model with status, got %+v", got)
	}
	view := got.View()
	if !strings.Contains(view, "abc") || !strings.Contains(view, "Sleeping") {
		t.Errorf("view missing cursor/state:\n%s", view)
	}
}

func TestStatusErrorDisconnects(t *testing.T) {
	m := NewModel("http://localhost:0")
	next, _ := m.Update(StatusUpdateMsg{Err: errors.New("connection refused")})
	got := next.(Model)
	if got.Connected {
		t.Fatal("expected disconnected")
	}
	if !strings.Contains(got.View(), "Not connected") {
		t.Errorf("expected not-connected banner")
	}
}

func TestQuitKey(t *testing.T) {
	m := NewModel("http://localhost:0")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestClient(t *testing.T) {
	var override map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			json.NewEncoder(w).Encode(types.StatusResponse{State: types.StatePolling, Cursor: "xyz"})
		case "/api/cursor":
			json.NewDecoder(r.Body).Decode(&override)
			w.WriteHeader(http.StatusAccepted)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewStatusClient(srv.URL + "/")
	status, err := c.GetStatus()
	if err != nil || status.Cursor != "xyz" {
		t.Fatalf("unexpected status %+v %v", status, err)
	}
	if err := c.SetCursor("abc", "cli"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if override["item_id"] != "abc" || override["requested_by"] != "cli" {
		t.Errorf("unexpected override body %v", override)
	}
}
