// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package eventprocessor

import (
	"strings"
	"time"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/models"
)

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
	// ReadyTimeout bounds startup; 0 means 30 seconds.
	ReadyTimeout time.Duration
}

// StreamConfig configures the JetStream stream that carries storage events.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// PublisherConfig configures the storage event publisher.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool
}

// SubscriberConfig configures one durable stage consumer.
type SubscriberConfig struct {
	URL              string
	StreamName       string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	MaxDeliver       int
	MaxAckPending    int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// CircuitBreakerConfig configures the publish circuit breaker.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultServerConfig listens on localhost only.
func DefaultServerConfig(storeDir string) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          storeDir,
		JetStreamMaxMem:   256 << 20,
		JetStreamMaxStore: 10 << 30,
	}
}

// DefaultStreamConfig covers every stage subject plus the poison topic.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "LAKE_EVENTS",
		Subjects:        []string{"lake.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        -1,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// DefaultPublisherConfig reconnects forever.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 << 20,
		EnableTrackMsgID: true,
	}
}

// DefaultCircuitBreakerConfig trips after five consecutive publish failures.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// StreamConfigFrom applies the application settings to the stream defaults.
func StreamConfigFrom(cfg *config.NATSConfig) StreamConfig {
	s := DefaultStreamConfig()
	if cfg.StreamName != "" {
		s.Name = cfg.StreamName
	}
	if cfg.Retention > 0 {
		s.MaxAge = cfg.Retention
	}
	if cfg.MaxStore > 0 {
		s.MaxBytes = cfg.MaxStore
	}
	return s
}

// SubscriberConfigFor builds the consumer settings for one stage. Every
// stage gets its own durable so that each subject is acknowledged on its own.
func SubscriberConfigFor(cfg *config.NATSConfig, url string, stage models.Stage) SubscriberConfig {
	sub := SubscriberConfig{
		URL:              url,
		StreamName:       StreamConfigFrom(cfg).Name,
		DurableName:      durableName(cfg.DurablePrefix, stage),
		QueueGroup:       durableName(cfg.DurablePrefix, stage),
		SubscribersCount: cfg.SubscribersCount,
		MaxDeliver:       cfg.MaxDeliver,
		MaxAckPending:    100,
		AckWaitTimeout:   cfg.AckWait,
		CloseTimeout:     cfg.CloseTimeout,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
	if sub.SubscribersCount <= 0 {
		sub.SubscribersCount = 1
	}
	if sub.MaxDeliver <= 0 {
		sub.MaxDeliver = 3
	}
	if sub.AckWaitTimeout <= 0 {
		sub.AckWaitTimeout = 15 * time.Minute
	}
	if sub.CloseTimeout <= 0 {
		sub.CloseTimeout = 30 * time.Second
	}
	return sub
}

// RouterConfigFrom applies the application retry and poison settings.
func RouterConfigFrom(cfg *config.NATSConfig) RouterConfig {
	r := DefaultRouterConfig()
	r.RetryMaxRetries = cfg.RouterRetryCount
	if cfg.RouterRetryInterval > 0 {
		r.RetryInitialInterval = cfg.RouterRetryInterval
	}
	if cfg.PoisonTopic != "" {
		r.PoisonQueueTopic = cfg.PoisonTopic
	}
	if cfg.CloseTimeout > 0 {
		r.CloseTimeout = cfg.CloseTimeout
	}
	return r
}

// durableName turns prefix and stage into a NATS-safe consumer name.
func durableName(prefix string, stage models.Stage) string {
	if prefix == "" {
		prefix = "mealreco"
	}
	return strings.NewReplacer(".", "-", " ", "-").Replace(prefix + "-" + string(stage))
}
