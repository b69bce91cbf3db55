// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server owns the accept loop, shutdown coordination, and
// connection accounting (spec §4.8), grounded in the teacher's
// app/server.go runServer helper: start serving in a goroutine, signal
// readiness, then select on a server error versus a stop signal, with a
// bounded shutdown window.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/conn"
	"github.com/rivaas-dev/fusecore/fuse"
)

// stopCommand is sent over Server's command channel (spec §4.8: "an
// unbounded command channel").
type stopCommand struct {
	forcible bool
	timeout  time.Duration // 0 means no bound
}

// Server owns one Acceptor, an HttpBuilder, a fuse Factory, and the
// command channel that drives graceful/forcible shutdown (spec §4.8).
type Server struct {
	acceptor    conn.Acceptor
	builder     *conn.HTTPBuilder
	fuseFactory fuse.Factory
	service     *fusecore.Service
	logger      *slog.Logger
	metrics     *fusecore.MetricsRecorder

	cmdCh chan stopCommand

	gracefulCh   chan struct{}
	gracefulOnce sync.Once

	forceCh   chan struct{}
	forceOnce sync.Once

	aliveCount  atomic.Int64
	drainedCh   chan struct{}
	drainedOnce sync.Once

	readyCh   chan struct{}
	readyOnce sync.Once
}

// Option configures a Server, the teacher's functional-options idiom
// (options.go) generalized from App to Server.
type Option func(*Server)

// WithHTTPBuilder overrides the default HttpBuilder.
func WithHTTPBuilder(b *conn.HTTPBuilder) Option {
	return func(s *Server) { s.builder = b }
}

// WithFuseFactory overrides the default fuse.Factory (FlexFactory with
// spec defaults).
func WithFuseFactory(f fuse.Factory) Option {
	return func(s *Server) { s.fuseFactory = f }
}

// WithLogger overrides the server loop's lifecycle logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics attaches a MetricsRecorder for connection-count and fuse-trip
// accounting.
func WithMetrics(m *fusecore.MetricsRecorder) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds a Server around acceptor, dispatching every accepted
// connection's requests to service.
func New(acceptor conn.Acceptor, service *fusecore.Service, opts ...Option) *Server {
	s := &Server{
		acceptor:    acceptor,
		builder:     conn.DefaultHTTPBuilder(),
		fuseFactory: fuse.NewFlexFactory(),
		service:     service,
		logger:      fusecore.NoopLogger(),
		cmdCh:       make(chan stopCommand, 1),
		gracefulCh:  make(chan struct{}),
		forceCh:     make(chan struct{}),
		drainedCh:   make(chan struct{}),
		readyCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready returns a channel that closes once Serve's accept loop has
// started, mirroring the teacher's serverReady channel in runServer.
func (s *Server) Ready() <-chan struct{} { return s.readyCh }

// AliveConnections reports the current live connection count.
func (s *Server) AliveConnections() int64 { return s.aliveCount.Load() }

type acceptOutcome struct {
	accepted *conn.Accepted
	err      error
}

// Serve runs the accept loop until a stop command is applied, returning
// once the server has fully stopped: for a graceful stop, once every
// connection has drained or the timeout (if any) expired; for a forcible
// stop, immediately (spec §4.8).
func (s *Server) Serve(ctx context.Context) error {
	s.readyOnce.Do(func() { close(s.readyCh) })
	s.logger.Info("server starting")

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	for {
		acceptCh := make(chan acceptOutcome, 1)
		go func() {
			accepted, err := s.acceptor.Accept(loopCtx, s.fuseFactory)
			acceptCh <- acceptOutcome{accepted: accepted, err: err}
		}()

		select {
		case cmd := <-s.cmdCh:
			cancelLoop()
			return s.applyStop(cmd)

		case out := <-acceptCh:
			if out.err != nil {
				select {
				case cmd := <-s.cmdCh:
					return s.applyStop(cmd)
				default:
				}
				if loopCtx.Err() != nil {
					return nil
				}
				return fmt.Errorf("server: accept: %w", out.err)
			}
			s.aliveCount.Add(1)
			if s.metrics != nil {
				s.metrics.ConnOpened()
			}
			go s.handleConn(ctx, out.accepted)

		case <-ctx.Done():
			cancelLoop()
			return ctx.Err()
		}
	}
}

// StopGraceful requests a graceful shutdown: stop accepting new
// connections, let in-flight ones drain, bounded by timeout if non-zero
// (spec §4.8). Calling it more than once has no additional effect.
func (s *Server) StopGraceful(timeout time.Duration) {
	select {
	case s.cmdCh <- stopCommand{forcible: false, timeout: timeout}:
	default:
	}
}

// StopForcible requests an immediate, abortive shutdown: stop accepting
// new connections and cancel every in-flight one (spec §4.8).
func (s *Server) StopForcible() {
	select {
	case s.cmdCh <- stopCommand{forcible: true}:
	default:
	}
}

func (s *Server) applyStop(cmd stopCommand) error {
	s.gracefulOnce.Do(func() { close(s.gracefulCh) })
	_ = s.acceptor.Close()
	s.logger.Info("server shutting down", "forcible", cmd.forcible)

	if cmd.forcible {
		s.forceOnce.Do(func() { close(s.forceCh) })
		return nil
	}

	s.checkDrained()
	if cmd.timeout > 0 {
		timer := time.AfterFunc(cmd.timeout, func() {
			s.forceOnce.Do(func() { close(s.forceCh) })
		})
		defer timer.Stop()
	}

	select {
	case <-s.drainedCh:
	case <-s.forceCh:
	}
	s.logger.Info("server exited")
	return nil
}

func (s *Server) checkDrained() {
	if s.aliveCount.Load() <= 0 {
		s.drainedOnce.Do(func() { close(s.drainedCh) })
	}
}

// handleConn is the per-connection task (spec §4.8): race the coupler's
// connection future against the server's force-stop token and the
// connection's own fuse trip, whichever fires first wins.
func (s *Server) handleConn(ctx context.Context, accepted *conn.Accepted) {
	defer func() {
		if accepted.Fusewire != nil {
			accepted.Fusewire.Close()
		}
		_ = accepted.Stream.Close()
		s.aliveCount.Add(-1)
		if s.metrics != nil {
			s.metrics.ConnClosed()
		}
		s.checkDrained()
	}()

	handler := &conn.ServiceHandler{Service: s.service, Fusewire: accepted.Fusewire}

	connCtx, cancelConn := context.WithCancel(ctx)
	defer cancelConn()

	done := make(chan error, 1)
	go func() {
		done <- accepted.Coupler.Couple(connCtx, accepted.Stream, handler, s.builder, s.gracefulCh)
	}()

	var fused <-chan struct{}
	if accepted.Fusewire != nil {
		fused = accepted.Fusewire.Fused()
	}

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warn("connection closed with error", "error", err)
		}
	case <-s.forceCh:
		cancelConn()
		<-done
	case <-fused:
		if s.metrics != nil {
			s.metrics.IncFuseTrip()
		}
		cancelConn()
		<-done
	}
}
