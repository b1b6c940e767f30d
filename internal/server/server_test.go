package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhirschtritt/orderly/internal/config"
)

func TestServer_StartStopsWhenContextDone(t *testing.T) {
	s := &Server{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		startTime: time.Now(),
		config:    &config.Config{ShutdownTimeout: time.Second},
		Server:    &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_StartReturnsListenerError(t *testing.T) {
	s := &Server{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		startTime: time.Now(),
		config:    &config.Config{ShutdownTimeout: time.Second},
		Server:    &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()},
	}

	err := s.Start(context.Background())
	assert.Error(t, err)
}
