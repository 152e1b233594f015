package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	worker := &fakeService{name: "worker", startErr: errors.New("redis unreachable")}
	httpSvc := &fakeService{name: "http", block: true}
	runner := NewRunner(worker, httpSvc)

	var order []string
	runner.OnShutdown(func() { order = append(order, "container") })
	runner.OnShutdown(func() { order = append(order, "logger") })

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "redis unreachable" {
		t.Fatalf("expected start error, got %v", err)
	}
	if !worker.stopped.Load() || !httpSvc.stopped.Load() {
		t.Fatalf("all services should be stopped")
	}
	if len(order) != 2 || order[0] != "logger" || order[1] != "container" {
		t.Fatalf("cleanups should run in reverse order, got %v", order)
	}
}

func TestRunnerCleanExitStopsSiblings(t *testing.T) {
	oneShot := &fakeService{name: "one-shot"}
	httpSvc := &fakeService{name: "http", block: true}
	done := make(chan error, 1)
	go func() { done <- NewRunner(oneShot, httpSvc).Run(context.Background(), time.Second, nil) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("clean exit should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner should stop once any service exits")
	}
	if !httpSvc.stopped.Load() {
		t.Fatalf("sibling service should be stopped")
	}
}

func TestRunnerCancelledContextReturnsNil(t *testing.T) {
	blocking := &fakeService{name: "http", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if !blocking.stopped.Load() {
		t.Fatalf("service should be stopped")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	runner := NewRunner(nil)
	if names := runner.Names(); len(names) != 0 {
		t.Fatalf("nil service should be skipped, got %v", names)
	}
	if err := runner.Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("runner without services should fail")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeAll, "all": ModeAll, " API ": ModeAPI, "worker": ModeWorker}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseMode("batch"); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
	opts := Options{}.withDefaults()
	if opts.Mode != ModeAll || opts.ShutdownTimeout != defaultShutdownTimeout || opts.Logger == nil {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestBuildRunnerRejectsInvalidInput(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
}

func TestHTTPServiceServesAndShutsDown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	svc := NewHTTPService("127.0.0.1:0", handler)
	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	var addr string
	select {
	case a := <-svc.Ready():
		addr = a.String()
	case err := <-done:
		t.Fatalf("start failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("http service did not become ready")
	}

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body: %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("start should return nil after shutdown, got %v", err)
	}
}

func TestHTTPServiceAddressInUse(t *testing.T) {
	first := NewHTTPService("127.0.0.1:0", http.NotFoundHandler())
	go func() { _ = first.Start(context.Background()) }()
	addr := (<-first.Ready()).String()
	defer first.Stop(context.Background())

	second := NewHTTPService(addr, http.NotFoundHandler())
	if err := second.Start(context.Background()); err == nil {
		t.Fatalf("binding a busy port should fail")
	}
}
