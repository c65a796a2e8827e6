// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/mealreco/internal/logging"
)

// defaultDrainTimeout bounds how long open requests may run after stop.
const defaultDrainTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the query API service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService keeps the query API listening in the API layer of the
// tree. On stop, open requests get the drain timeout to finish. With NATS
// disabled an upload request runs every stage before it answers, so the
// drain also lets an in-flight upload finish writing the lake.
//
//	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
type HTTPServerService struct {
	server       HTTPServer
	drainTimeout time.Duration
}

// NewHTTPServerService wraps server. drainTimeout <= 0 means 10 seconds.
func NewHTTPServerService(server HTTPServer, drainTimeout time.Duration) *HTTPServerService {
	if drainTimeout <= 0 {
		drainTimeout = defaultDrainTimeout
	}
	return &HTTPServerService{server: server, drainTimeout: drainTimeout}
}

// Serve implements suture.Service. A listener that fails is returned so the
// supervisor restarts it; a cancelled ctx drains the server and returns
// ctx.Err().
func (s *HTTPServerService) Serve(ctx context.Context) error {
	stopped := make(chan error, 1)
	go func() { stopped <- s.server.ListenAndServe() }()

	select {
	case err := <-stopped:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("query API listener: %w", err)
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drainTimeout)
	defer cancel()
	if err := s.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("query API drain: %w", err)
	}
	<-stopped
	logging.Info().Dur("drain_timeout", s.drainTimeout).Msg("Query API drained")
	return ctx.Err()
}

func (s *HTTPServerService) String() string {
	return "query-api"
}
