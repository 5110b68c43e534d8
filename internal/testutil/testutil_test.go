package testutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/providers"
)

func TestClockHelpers(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := NowAt(now)(); !got.Equal(now) {
		t.Fatalf("expected fixed time, got %v", got)
	}
	if MustParseRFC3339(now.Format(time.RFC3339)) != now {
		t.Fatalf("expected parse round trip")
	}
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on invalid RFC3339")
		}
	}()
	MustParseRFC3339("not-a-time")
}

func TestFixturesHelper(t *testing.T) {
	ev := SampleEvent("Arsenal", "Chelsea", Kickoff)
	if ev.ID == "" || ev.Title() != "Arsenal vs Chelsea" || !ev.StartTime.Equal(Kickoff) {
		t.Fatalf("unexpected event fixture %+v", ev)
	}
	snap := SampleSnapshot(ev, 23, events.SubEvent{Type: "Goal"}, events.SubEvent{Type: "Yellow Card"})
	if snap.EventID != ev.ID || len(snap.Events) != 2 {
		t.Fatalf("unexpected snapshot fixture %+v", snap)
	}
	if snap.Events[0].Order != 1 || snap.Events[1].Order != 2 {
		t.Fatalf("expected orders assigned in sequence, got %+v", snap.Events)
	}
}

func TestServeHelpers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	rr := Serve(handler, http.MethodPost, "/test", strings.NewReader("{}"))
	AssertStatus(t, rr, http.StatusCreated)
	var body map[string]bool
	DecodeJSON(t, rr, &body)
	if !body["ok"] {
		t.Fatalf("expected ok=true")
	}

	req := httptest.NewRequest(http.MethodGet, "/req", nil)
	rr2 := ServeRequest(handler, req)
	AssertStatus(t, rr2, http.StatusCreated)
}

func TestServerStubs(t *testing.T) {
	p := &StubPoller{Err: errors.New("stop")}
	p.Start(context.Background())
	if err := p.Stop(context.Background()); !errors.Is(err, p.Err) {
		t.Fatalf("expected stop error")
	}
	if p.StartCalls != 1 || p.StopCalls != 1 {
		t.Fatalf("unexpected call counts %+v", p)
	}

	sh := &StubHTTPServer{ListenErr: errors.New("boom"), ShutdownErr: errors.New("down")}
	sh.HandlerVal = http.NewServeMux()
	_ = sh.ListenAndServe()
	_ = sh.Shutdown(context.Background())
	_ = sh.Handler()
	_ = sh.Addr()
	if sh.ListenCalls != 1 || sh.ShutdownCalls != 1 {
		t.Fatalf("expected listen/shutdown calls, got %+v", sh)
	}

	b := &BlockingHTTPServer{Unblock: make(chan struct{}), HandlerVal: http.NewServeMux()}
	if err := b.ListenAndServe(); err != nil {
		t.Fatalf("expected nil listen error for blocking server")
	}
	done := make(chan error, 1)
	go func() { done <- b.Shutdown(context.Background()) }()
	close(b.Unblock)
	_ = b.Handler()
	if b.Addr() != b.AddrVal {
		t.Fatalf("expected blocking server addr passthrough")
	}
	if err := <-done; err != nil {
		t.Fatalf("expected nil shutdown err, got %v", err)
	}
	if b.ShutdownCalls != 1 {
		t.Fatalf("expected shutdown called once")
	}

	e := &ErrHTTPServer{}
	_ = e.ListenAndServe()
	_ = e.Shutdown(context.Background())
	_ = e.Handler()
	if e.Addr() == "" {
		t.Fatalf("expected addr from ErrHTTPServer")
	}
	if e.ShutdownCalls != 1 {
		t.Fatalf("expected shutdown call for ErrHTTPServer")
	}

	c := &CloseableHTTPServer{}
	_ = c.ListenAndServe()
	_ = c.Shutdown(context.Background())
	_ = c.Handler()
	if c.Addr() == "" {
		t.Fatalf("expected addr from CloseableHTTPServer")
	}
	if c.ShutdownCalls != 1 {
		t.Fatalf("expected shutdown call for CloseableHTTPServer")
	}

	// verify Status passthrough
	if p.Status() != p.StatusVal {
		t.Fatalf("expected status passthrough")
	}
}

func TestLoggerAndMetricsHelpers(t *testing.T) {
	logger, buf := NewBufferLogger()
	logger.Info("hello", "k", "v")
	if buf.Len() == 0 {
		t.Fatalf("expected buffered log output")
	}
	rec, shutdown := NewRecorderWithShutdown()
	if rec == nil || shutdown == nil {
		t.Fatalf("expected recorder and shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil shutdown error, got %v", err)
	}
}

func TestProviderHelpers(t *testing.T) {
	ctx := context.Background()
	ev := SampleEvent("Arsenal", "Chelsea", Kickoff)

	p := GoodProvider{Events: []events.Event{ev}}
	if got, _ := p.FetchEvents(ctx); len(got) != 1 {
		t.Fatalf("expected events from GoodProvider")
	}
	if snap, _ := p.FetchSnapshot(ctx, ev); snap.EventID != ev.ID {
		t.Fatalf("expected snapshot stamped with event id")
	}
	if l, _ := p.FetchLineups(ctx, ev); l.EventID != ev.ID {
		t.Fatalf("expected lineups stamped with event id")
	}

	unavail := UnavailableProvider{}
	if _, err := unavail.FetchEvents(ctx); !errors.Is(err, providers.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable")
	}
	if _, err := unavail.FetchSnapshot(ctx, ev); !errors.Is(err, providers.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable")
	}
	if _, err := unavail.FetchLineups(ctx, ev); !errors.Is(err, providers.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable")
	}
}

func TestRedisHelper(t *testing.T) {
	mr, client := NewRedis(t)
	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("expected value in miniredis, got %q", got)
	}
}
