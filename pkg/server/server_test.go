package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStartAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	s, err := Start(Options{Addr: "127.0.0.1:0"}, handler, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != "pong" {
		t.Errorf("Expected body 'pong', got '%s'", string(body))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Expected clean shutdown, got: %v", err)
	}
}

func TestStartBindError(t *testing.T) {
	s, err := Start(Options{Addr: "127.0.0.1:0"}, http.NotFoundHandler(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer s.Shutdown(context.Background())

	if _, err := Start(Options{Addr: s.Addr().String()}, http.NotFoundHandler(), zerolog.Nop()); err == nil {
		t.Error("Expected error binding an address already in use")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, http.NotFoundHandler(), zerolog.Nop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil error after cancel, got: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
