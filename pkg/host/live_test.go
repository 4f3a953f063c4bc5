package host

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/pageroutes/pkg/deferred"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

func dialLive(t *testing.T, srv *httptest.Server, hub *LiveHub) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/_live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
	return conn
}

// readUntil reads messages until one for element arrives.
func readUntil(t *testing.T, conn *websocket.Conn, element string) LiveMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if msg.Element == element {
			return msg
		}
	}
}

func TestLiveHub_PublishesSettledStates(t *testing.T) {
	bindings := []pageroute.Binding{
		{Path: "/pages/$.html", Loader: static("<html><!--outlet--></html>")},
		{Path: "/pages/ok.html", Loader: static("ok")},
		{Path: "/pages/bad.html", Loader: func(context.Context) (deferred.Component, error) {
			return nil, errors.New("boom")
		}},
	}
	hub := NewLiveHub(nil, nil)
	t.Cleanup(hub.Close)

	r := chi.NewRouter()
	nodes, err := pageroute.CompileRoutes(bindings)
	if err != nil {
		t.Fatal(err)
	}
	h, err := Mount(r, nodes, WithLiveHub("/_live", hub))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	conn := dialLive(t, srv, hub)

	if resp, err := http.Get(srv.URL + "/ok"); err != nil {
		t.Fatal(err)
	} else {
		resp.Body.Close()
	}
	msg := readUntil(t, conn, "/pages/ok.html")
	if msg.Type != LiveState || msg.State != "Ready" {
		t.Errorf("message = %+v, want Ready state", msg)
	}

	if resp, err := http.Get(srv.URL + "/bad"); err != nil {
		t.Fatal(err)
	} else {
		resp.Body.Close()
	}
	msg = readUntil(t, conn, "/pages/bad.html")
	if msg.State != "Failed" || !strings.Contains(msg.Error, "boom") {
		t.Errorf("message = %+v, want Failed with error", msg)
	}
}

func TestLiveHub_NotifyReload(t *testing.T) {
	hub := NewLiveHub(nil, nil)
	t.Cleanup(hub.Close)

	r := chi.NewRouter()
	r.Get("/_live", hub.ServeHTTP)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	conn := dialLive(t, srv, hub)

	hub.NotifyReload()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg LiveMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != LiveReload {
		t.Errorf("Type = %q, want %q", msg.Type, LiveReload)
	}
}

func TestLiveHub_ClientLeaves(t *testing.T) {
	hub := NewLiveHub(nil, nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	conn.Close()

	deadline = time.Now().Add(time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed after disconnect")
		}
		time.Sleep(time.Millisecond)
	}
}
