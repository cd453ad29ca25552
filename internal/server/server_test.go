package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"
)

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(http.NotFoundHandler(), Options{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, logger)
}

func TestShutdown_RunsHooksInReverseOrder(t *testing.T) {
	srv := newTestServer()

	var order []string
	for _, name := range []string{"store", "redis", "publisher"} {
		name := name
		srv.OnShutdown(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := srv.Shutdown(); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	want := []string{"publisher", "redis", "store"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("shutdown order = %v, want %v", order, want)
	}
}

func TestShutdown_ContinuesAfterHookError(t *testing.T) {
	srv := newTestServer()

	var ranFirst bool
	srv.OnShutdown("store", func(ctx context.Context) error {
		ranFirst = true
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return errors.New("connection reset")
	})

	err := srv.Shutdown()
	if err == nil {
		t.Fatal("expected error from failing hook")
	}
	if !strings.Contains(err.Error(), "redis") || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error should name the failing component: %v", err)
	}
	if !ranFirst {
		t.Error("remaining hooks should still run after a failure")
	}
}

func TestRunContext_StopsOnCancel(t *testing.T) {
	srv := newTestServer()

	stopped := make(chan struct{})
	srv.OnShutdown("store", func(ctx context.Context) error {
		close(stopped)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunContext returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}

	select {
	case <-stopped:
	default:
		t.Error("shutdown hook was not called")
	}
}

func TestAddr(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(http.NotFoundHandler(), Options{Port: 9090}, logger)
	if srv.Addr() != ":9090" {
		t.Errorf("Addr = %q, want :9090", srv.Addr())
	}
}
