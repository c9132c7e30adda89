package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mschirtzinger/yoga/internal/store"
	"github.com/mschirtzinger/yoga/internal/studio"
	yogasync "github.com/mschirtzinger/yoga/internal/sync"
	"github.com/mschirtzinger/yoga/internal/telemetry"
)

// app is the process-wide composition built once per command.
type app struct {
	client   *yogasync.Client
	studio   *studio.Studio
	shutdown func(context.Context) error
}

func openApp(ctx context.Context) (*app, error) {
	shutdown, err := telemetry.Setup(ctx, "yoga", cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	db, err := store.Open(cfg.DB.Path)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	client := yogasync.New(db, yogasync.Config{
		BaseURL:   cfg.Sync.BaseURL,
		Timeout:   cfg.Sync.Timeout,
		QueueSize: cfg.Sync.QueueSize,
		Logger:    logs.Logger("sync"),
	})

	return &app{
		client:   client,
		studio:   studio.New(db, client, logs.Logger("studio")),
		shutdown: shutdown,
	}, nil
}

// Close lets queued pushes finish before the process exits, then releases
// the store.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Sync.Timeout+5*time.Second)
	defer cancel()

	var errs []error
	if err := a.client.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
	}
	if err := a.studio.Store().Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// withApp runs fn against an open app and always closes it.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", cerr)
		}
	}()
	return fn(a)
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}
