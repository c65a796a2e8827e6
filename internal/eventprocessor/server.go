// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// maxEventPayload caps message size on the embedded broker. A storage event
// names one object and stays far below it.
const maxEventPayload = 1 << 20

// EmbeddedServer is the in-process JetStream broker that carries storage
// events in a single-node deployment. Only the server binary starts one;
// lakectl connects to it as an ordinary client.
type EmbeddedServer struct {
	ns  *server.Server
	url string
}

// StartEmbeddedServer starts a broker that persists the lake stream under
// cfg.StoreDir and returns once it accepts clients.
func StartEmbeddedServer(cfg ServerConfig) (*EmbeddedServer, error) {
	if cfg.StoreDir == "" {
		return nil, fmt.Errorf("%w: embedded NATS needs a store directory", ErrInvalidConfig)
	}
	ns, err := server.NewServer(cfg.options())
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS: %w", err)
	}
	go ns.Start()

	ready := cfg.ReadyTimeout
	if ready <= 0 {
		ready = 30 * time.Second
	}
	if !ns.ReadyForConnections(ready) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS not accepting clients after %v", ready)
	}
	if !ns.JetStreamEnabled() {
		ns.Shutdown()
		return nil, errors.New("embedded NATS started without JetStream")
	}
	return &EmbeddedServer{ns: ns, url: ns.ClientURL()}, nil
}

// options maps the lake broker settings onto nats-server options. Logging
// and signal handling stay with the host process.
func (c ServerConfig) options() *server.Options {
	return &server.Options{
		ServerName:         "mealreco-lake",
		Host:               c.Host,
		Port:               c.Port,
		JetStream:          true,
		StoreDir:           c.StoreDir,
		JetStreamMaxMemory: c.JetStreamMaxMem,
		JetStreamMaxStore:  c.JetStreamMaxStore,
		MaxPayload:         maxEventPayload,
		NoLog:              true,
		NoSigs:             true,
	}
}

// ClientURL is the address publishers and stage consumers dial.
func (s *EmbeddedServer) ClientURL() string {
	return s.url
}

// Check fails once the broker stopped or lost JetStream, for example after
// its store directory became unwritable.
func (s *EmbeddedServer) Check() error {
	switch {
	case !s.ns.Running():
		return errors.New("embedded NATS stopped")
	case !s.ns.JetStreamEnabled():
		return errors.New("embedded NATS lost JetStream")
	}
	return nil
}

// Shutdown stops the broker. It returns ctx.Err() if the broker is still
// draining when ctx ends.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.ns.Shutdown()

	done := make(chan struct{})
	go func() {
		s.ns.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
