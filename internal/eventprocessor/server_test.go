// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats-server/v2/server"
)

func TestEmbeddedServerLifecycle(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig(t.TempDir())
	cfg.Port = server.RANDOM_PORT
	cfg.ReadyTimeout = 10 * time.Second

	srv, err := StartEmbeddedServer(cfg)
	if err != nil {
		t.Fatalf("StartEmbeddedServer: %v", err)
	}
	if !strings.HasPrefix(srv.ClientURL(), "nats://127.0.0.1:") {
		t.Errorf("ClientURL = %q", srv.ClientURL())
	}
	if err := srv.Check(); err != nil {
		t.Errorf("Check on a running broker: %v", err)
	}

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := nc.MaxPayload(); got != maxEventPayload {
		t.Errorf("MaxPayload = %d, want %d", got, maxEventPayload)
	}
	nc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := srv.Check(); err == nil {
		t.Error("Check should fail after Shutdown")
	}
}

func TestStartEmbeddedServerNeedsStoreDir(t *testing.T) {
	t.Parallel()

	_, err := StartEmbeddedServer(DefaultServerConfig(""))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}
