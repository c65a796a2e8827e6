// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/pipeline"
)

// Bus owns the storage event bus: the optional embedded server, the
// stream, the publisher the lake writes through, and the router that
// feeds the stages.
//
// Build it with NewBus, hand Publisher to objectstore.NewNotifyingStore,
// build the stages over that store, then call Attach and Start.
type Bus struct {
	cfg         config.NATSConfig
	logger      watermill.LoggerAdapter
	url         string
	server      *EmbeddedServer
	conn        *natsgo.Conn
	streams     *StreamInitializer
	publisher   *Publisher
	router      *Router
	subscribers []message.Subscriber

	mu      sync.Mutex
	running bool
}

// NewBus starts the embedded server when configured, connects, makes sure
// the stream exists and creates the publisher.
func NewBus(ctx context.Context, cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	b := &Bus{cfg: *cfg, logger: logger, url: cfg.URL}
	log := logging.WithComponent("bus")

	if cfg.EmbeddedServer {
		serverCfg := DefaultServerConfig(cfg.StoreDir)
		if cfg.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.MaxStore
		}
		srv, err := StartEmbeddedServer(serverCfg)
		if err != nil {
			return nil, err
		}
		b.server = srv
		b.url = srv.ClientURL()
		log.Info().Str("url", b.url).Msg("Embedded NATS server started")
	} else {
		log.Info().Str("url", b.url).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(b.url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	b.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	streamCfg := StreamConfigFrom(cfg)
	b.streams, err = NewStreamInitializer(js, &streamCfg)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, err
	}
	stream, err := b.streams.EnsureStream(ctx)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	info := stream.CachedInfo()
	log.Info().Str("name", info.Config.Name).Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).Msg("JetStream stream ready")

	pub, err := NewPublisher(DefaultPublisherConfig(b.url), logger)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, err
	}
	pub.SetCircuitBreaker(NewCircuitBreaker(DefaultCircuitBreakerConfig("lake-publisher")))
	b.publisher = pub
	return b, nil
}

// Publisher returns the storage event publisher.
func (b *Bus) Publisher() *Publisher {
	return b.publisher
}

// Attach creates one durable subscriber per stage and registers the
// stage handlers on a new router.
func (b *Bus) Attach(stages pipeline.Stages) error {
	routerCfg := RouterConfigFrom(&b.cfg)
	router, err := NewRouter(&routerCfg, b.publisher.WatermillPublisher(), b.logger)
	if err != nil {
		return err
	}
	err = RegisterStages(router, stages, func(stage models.Stage) (message.Subscriber, error) {
		subCfg := SubscriberConfigFor(&b.cfg, b.url, stage)
		sub, err := NewSubscriber(&subCfg, b.logger)
		if err != nil {
			return nil, err
		}
		b.subscribers = append(b.subscribers, sub)
		return sub, nil
	})
	if err != nil {
		return err
	}
	b.router = router
	return nil
}

// Start runs the router in the background and returns once it is running.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	if b.router == nil {
		return fmt.Errorf("%w: no stages attached", ErrInvalidConfig)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.router.Run(ctx)
	}()
	select {
	case <-b.router.Running():
	case err := <-errCh:
		return fmt.Errorf("router stopped during startup: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
	b.running = true
	log := logging.WithComponent("bus")
	log.Info().Strs("handlers", b.router.Handlers()).Msg("Stage router running")
	return nil
}

// IsRunning reports whether the router is processing messages.
func (b *Bus) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running && b.router.IsRunning()
}

// Check reports whether the connection and the stream are usable.
func (b *Bus) Check(ctx context.Context) error {
	if b.server != nil {
		if err := b.server.Check(); err != nil {
			return err
		}
	}
	if b.conn == nil || !b.conn.IsConnected() {
		return errors.New("NATS not connected")
	}
	if !b.streams.IsHealthy(ctx) {
		return fmt.Errorf("stream %s unavailable", b.streams.Config().Name)
	}
	return nil
}

// Shutdown stops the router, subscribers, publisher, connection and
// server, in that order. Failures are logged.
func (b *Bus) Shutdown(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	log := logging.WithComponent("bus")

	if b.router != nil {
		if err := b.router.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close router")
		}
	}
	for _, sub := range b.subscribers {
		closeWithLog(sub, "subscriber")
	}
	b.subscribers = nil
	if b.publisher != nil {
		closeWithLog(b.publisher, "publisher")
	}
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		if err := b.server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("NATS server shutdown incomplete")
		}
	}
	b.running = false
}

type closer interface{ Close() error }

func closeWithLog(c closer, what string) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Str("component", what).Msg("Close failed")
	}
}
