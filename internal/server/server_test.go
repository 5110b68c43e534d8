package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/config"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/goals"
	"github.com/preston-bernstein/footy-live-service/internal/http/handlers"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
	"github.com/preston-bernstein/footy-live-service/internal/scheduler"
	"github.com/preston-bernstein/footy-live-service/internal/subscription"
	"github.com/preston-bernstein/footy-live-service/internal/testutil"
)

func testConfig() config.Config {
	return config.Config{
		Port:     "0",
		Provider: "fixture",
		Scheduler: config.SchedulerConfig{
			PollInterval: time.Minute,
			Workers:      2,
		},
		Livescore: config.LivescoreConfig{RefreshInterval: time.Minute},
		Goals:     config.GoalsConfig{PollInterval: 30 * time.Second},
	}
}

func newTestServer(t *testing.T, evs ...events.Event) *Server {
	t.Helper()
	_, client := testutil.NewRedis(t)
	srv, err := newServer(context.Background(), testConfig(), nil, client, testutil.GoodProvider{Events: evs}, metrics.NewRecorder())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.scheduler.Stop(ctx)
	})
	return srv
}

func TestServerServesSubscriptionAPI(t *testing.T) {
	ev := testutil.SampleEvent("Arsenal", "Chelsea", time.Now().Add(3*time.Hour))
	srv := newTestServer(t, ev)
	router := srv.Handler()

	rr := testutil.Serve(router, http.MethodGet, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	body := `{"client":"conn-1","group":"g","query":"arsenal"}`
	rr = testutil.Serve(router, http.MethodPost, "/subscriptions", strings.NewReader(body))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var res subscription.Result
	testutil.DecodeJSON(t, rr, &res)
	if res.SubID != ev.ID {
		t.Fatalf("expected subscription to %s, got %+v", ev.ID, res)
	}

	rr = testutil.Serve(router, http.MethodGet, "/subscriptions?client=conn-1&group=g", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var list handlers.ListResponse
	testutil.DecodeJSON(t, rr, &list)
	if len(list.Subscriptions) != 1 || list.Subscriptions[0].ID != ev.ID {
		t.Fatalf("unexpected listing %+v", list)
	}

	if !srv.scheduler.HasJob(subscription.JobID(ev.ID, subscription.PhaseScheduled)) {
		t.Fatalf("expected kickoff job scheduled")
	}
	if !srv.scheduler.HasJob(goals.JobID) {
		t.Fatalf("expected goal pipeline job scheduled")
	}

	rr = testutil.Serve(router, http.MethodDelete, "/subscriptions/"+ev.ID+"?client=conn-1&group=g", nil)
	testutil.AssertStatus(t, rr, http.StatusNoContent)
	if srv.scheduler.HasJob(subscription.JobID(ev.ID, subscription.PhaseScheduled)) {
		t.Fatalf("expected jobs cleared after last unsubscribe")
	}
}

func TestServerReadyFollowsFeed(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Handler()

	rr := testutil.Serve(router, http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)

	// A subscribe query warms the feed list.
	rr = testutil.Serve(router, http.MethodPost, "/subscriptions", strings.NewReader(`{"client":"conn-1","query":"nobody"}`))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.Serve(router, http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestNewFailsWithoutRedis(t *testing.T) {
	cases := map[string]string{
		"malformed":   "://not-a-url",
		"unreachable": "redis://127.0.0.1:1/0",
	}
	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Redis.URL = url
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if srv, err := New(ctx, cfg, nil); err == nil || srv != nil {
				t.Fatalf("expected error for redis url %q", url)
			}
		})
	}
}

func TestNewConnectsToRedis(t *testing.T) {
	mr, _ := testutil.NewRedis(t)
	cfg := testConfig()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"

	srv, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if srv.Handler() == nil {
		t.Fatalf("expected server with handler")
	}
	srv.gracefulShutdown()
}

func TestGracefulShutdownCallsStopAndShutdown(t *testing.T) {
	p := &testutil.StubPoller{}
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestGracefulShutdownTimesOutLongRunningShutdown(t *testing.T) {
	p := &testutil.StubPoller{}
	blocking := &testutil.BlockingHTTPServer{
		AddrVal:    ":0",
		HandlerVal: http.NewServeMux(),
		Unblock:    make(chan struct{}),
	}

	original := shutdownTimeout
	shutdownTimeout = 5 * time.Millisecond
	defer func() { shutdownTimeout = original }()

	srv := newServerWithDeps(config.Config{}, nil, blocking, p)

	start := time.Now()
	srv.gracefulShutdown()
	elapsed := time.Since(start)

	if blocking.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", blocking.ShutdownCalls)
	}
	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took too long: %s", elapsed)
	}
}

func TestGracefulShutdownContinuesWhenPollerStopErrors(t *testing.T) {
	p := &testutil.StubPoller{Err: errors.New("stop failure")}
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestGracefulShutdownStopsEngine(t *testing.T) {
	srv := newTestServer(t)
	closed := 0
	srv.closers = append(srv.closers, closer{name: "sink", close: func() error {
		closed++
		return errors.New("already closed")
	}})
	srv.httpServer = &testutil.StubHTTPServer{}

	srv.gracefulShutdown()

	if closed != 1 {
		t.Fatalf("expected sinks closed once, got %d", closed)
	}
	if err := srv.scheduler.AddJob("late", func(context.Context) {}, scheduler.DateTrigger{At: time.Now().Add(time.Hour)}); err == nil {
		t.Fatalf("expected scheduler to refuse jobs after shutdown")
	}
}

func TestServerStartHandlesListenErrorAndStops(t *testing.T) {
	srv := newServerWithDeps(config.Config{}, nil, &testutil.ErrHTTPServer{}, &testutil.StubPoller{})

	var wg sync.WaitGroup
	wg.Add(1)
	stopCalled := make(chan struct{})
	stop := func() {
		close(stopCalled)
		wg.Done()
	}

	srv.startServer(stop)

	select {
	case <-stopCalled:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected stop to be called on listen failure")
	}

	wg.Wait()
}

func TestRunCancelsAndStopsComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plr := &testutil.StubPoller{}
	httpSrv := &testutil.CloseableHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, plr)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	// Let Start be invoked.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("run did not return after cancel")
	}

	if plr.StartCalls != 1 {
		t.Fatalf("expected poller Start called once, got %d", plr.StartCalls)
	}
	if plr.StopCalls != 1 {
		t.Fatalf("expected poller Stop called once, got %d", plr.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestRunRestoresSubscriptions(t *testing.T) {
	ev := testutil.SampleEvent("Arsenal", "Chelsea", time.Now().Add(3*time.Hour))
	_, client := testutil.NewRedis(t)

	first, err := newServer(context.Background(), testConfig(), nil, client, testutil.GoodProvider{Events: []events.Event{ev}}, metrics.NewRecorder())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	if _, err := first.manager.Subscribe(context.Background(), "conn-1", "g", "arsenal"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_ = first.scheduler.Stop(context.Background())

	second, err := newServer(context.Background(), testConfig(), nil, client, testutil.GoodProvider{}, metrics.NewRecorder())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	second.httpServer = &testutil.CloseableHTTPServer{}
	second.poller = &testutil.StubPoller{}
	second.redis = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		second.Run(ctx, cancel)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for !second.scheduler.HasJob(subscription.JobID(ev.ID, subscription.PhaseScheduled)) {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("expected restored kickoff job")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}
