package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hollowtree-labs/harmonia/internal/events"
	"github.com/hollowtree-labs/harmonia/internal/shared"
)

func newTestHub(t *testing.T) (*Hub, *Dispatcher, string) {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	dispatcher := NewDispatcher(logger)
	hub := NewHub(dispatcher, logger)

	srv := httptest.NewServer(NewRouter(hub, logger))
	t.Cleanup(srv.Close)

	return hub, dispatcher, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub, _, url := newTestHub(t)

	first := dial(t, url)
	second := dial(t, url)
	waitFor(t, func() bool { return hub.SessionCount() == 2 })

	hub.Emit(events.ToastMessage, map[string]string{"title": "hi", "message": "there"})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		if f.Event != events.ToastMessage {
			t.Errorf("event = %q, want %q", f.Event, events.ToastMessage)
		}

		var payload map[string]string
		if err := json.Unmarshal(f.Data, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload["title"] != "hi" {
			t.Errorf("title = %q, want hi", payload["title"])
		}
	}
}

func TestHubConnectDisconnectCommands(t *testing.T) {
	hub, dispatcher, url := newTestHub(t)

	var mu sync.Mutex
	counts := map[string]int{}
	record := func(name string) func(context.Context, json.RawMessage) {
		return func(context.Context, json.RawMessage) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		}
	}
	dispatcher.Register(events.CmdConnect, record(events.CmdConnect))
	dispatcher.Register(events.CmdDisconnect, record(events.CmdDisconnect))

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.SessionCount() == 1 })
	conn.Close()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts[events.CmdConnect] == 1 && counts[events.CmdDisconnect] == 1
	})
}

func TestHubInboundFrame(t *testing.T) {
	_, dispatcher, url := newTestHub(t)

	got := make(chan string, 1)
	dispatcher.Register("adder", func(_ context.Context, payload json.RawMessage) {
		var mbid string
		json.Unmarshal(payload, &mbid)
		got <- mbid
	})

	conn := dial(t, url)
	if err := conn.WriteJSON(frame{Event: "adder", Data: json.RawMessage(`"abc-123"`)}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case mbid := <-got:
		if mbid != "abc-123" {
			t.Errorf("mbid = %q, want abc-123", mbid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never dispatched")
	}
}

func TestDispatcher(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("unknown command is dropped", func(t *testing.T) {
		d := NewDispatcher(logger)
		d.Dispatch("nope", nil)
		d.Wait()
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		d := NewDispatcher(logger)
		d.Register("boom", func(context.Context, json.RawMessage) { panic("boom") })
		d.Dispatch("boom", nil)
		d.Wait()
	})

	t.Run("wait observes completion", func(t *testing.T) {
		d := NewDispatcher(logger)
		done := false
		d.Register("slow", func(context.Context, json.RawMessage) {
			time.Sleep(20 * time.Millisecond)
			done = true
		})
		d.Dispatch("slow", nil)
		d.Wait()
		if !done {
			t.Error("Wait returned before the handler finished")
		}
	})
}

func TestRouterPages(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	hub := NewHub(NewDispatcher(logger), logger)
	srv := httptest.NewServer(NewRouter(hub, logger))
	defer srv.Close()

	t.Run("index", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "Harmonia") {
			t.Error("index page missing app name")
		}
	})

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var payload map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload["status"] != "ok" {
			t.Errorf("status = %q, want ok", payload["status"])
		}
	})
}
