package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubSendUnknownClient(t *testing.T) {
	hub := NewHub(nil)
	if err := hub.Send("ghost", Update{}); !errors.Is(err, ErrUnknownClient) {
		t.Fatalf("expected ErrUnknownClient, got %v", err)
	}
}

func TestHubDeliversOverWebsocket(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		c := NewConn(r.URL.Query().Get("client_id"), ws, hub)
		hub.Register(c)
		go c.WritePump(ctx)
		go c.ReadPump(ctx)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?client_id=c1"
	peer, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer peer.Close()

	deadline := time.Now().Add(time.Second)
	for !hub.Connected("c1") {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for registration")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := hub.Send("c1", NewMessage("e1", "hello", "")); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	_ = peer.SetReadDeadline(time.Now().Add(time.Second))
	var got Update
	if err := peer.ReadJSON(&got); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Message != "hello" {
		t.Fatalf("expected hello, got %+v", got)
	}
}

func TestConnTrySendAfterCloseFails(t *testing.T) {
	hub := NewHub(nil)
	c := &Conn{ID: "c1", hub: hub, send: make(chan Update, 1)}
	hub.Register(c)
	hub.Unregister(c)

	if c.TrySend(Update{}) {
		t.Fatal("expected send on closed connection to fail")
	}
	if hub.Count() != 0 {
		t.Fatalf("expected empty hub, got %d", hub.Count())
	}
}

func TestHubRegisterReplacesPreviousConnection(t *testing.T) {
	hub := NewHub(nil)
	first := &Conn{ID: "c1", hub: hub, send: make(chan Update, 1)}
	second := &Conn{ID: "c1", hub: hub, send: make(chan Update, 1)}
	hub.Register(first)
	hub.Register(second)

	if first.TrySend(Update{}) {
		t.Fatal("expected replaced connection to be closed")
	}
	hub.Unregister(first)
	if !hub.Connected("c1") {
		t.Fatal("expected stale unregister to keep the newer connection")
	}
	if err := hub.Send("c1", Update{}); err != nil {
		t.Fatalf("expected send to newer connection, got %v", err)
	}
	if err := hub.Send("c1", Update{}); !errors.Is(err, ErrSlowClient) {
		t.Fatalf("expected full buffer to report slow client, got %v", err)
	}
}
