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

package server

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/conn"
	"github.com/rivaas-dev/fusecore/fuse"
)

// fakeAcceptor feeds pre-built *conn.Accepted values to a Server under
// test without touching real sockets.
type fakeAcceptor struct {
	ch     chan *conn.Accepted
	closed chan struct{}
	once   sync.Once
}

func newFakeAcceptor() *fakeAcceptor {
	return &fakeAcceptor{ch: make(chan *conn.Accepted, 8), closed: make(chan struct{})}
}

func (a *fakeAcceptor) Holdings() []conn.Holding { return nil }

func (a *fakeAcceptor) Accept(ctx context.Context, _ fuse.Factory) (*conn.Accepted, error) {
	select {
	case c := <-a.ch:
		return c, nil
	case <-a.closed:
		return nil, fusecore.ErrAcceptorClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *fakeAcceptor) Close() error {
	a.once.Do(func() { close(a.closed) })
	return nil
}

func (a *fakeAcceptor) push(c *conn.Accepted) { a.ch <- c }

// fakeCoupler's Couple blocks until one of its governing signals fires,
// recording which one did.
type fakeCoupler struct {
	ignoreGraceful bool
	result         chan string
}

func (f *fakeCoupler) Couple(ctx context.Context, _ net.Conn, _ *conn.ServiceHandler, _ *conn.HTTPBuilder, gracefulStop <-chan struct{}) error {
	if f.ignoreGraceful {
		<-ctx.Done()
		if f.result != nil {
			f.result <- "ctx"
		}
		return ctx.Err()
	}
	select {
	case <-gracefulStop:
		if f.result != nil {
			f.result <- "graceful"
		}
		return nil
	case <-ctx.Done():
		if f.result != nil {
			f.result <- "ctx"
		}
		return ctx.Err()
	}
}

func newAccepted(t *testing.T, coupler conn.Coupler, fw *fuse.Fusewire) *conn.Accepted {
	t.Helper()
	client, serverSide := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })
	return &conn.Accepted{Stream: serverSide, Coupler: coupler, Fusewire: fw}
}

func testService(t *testing.T) *fusecore.Service {
	t.Helper()
	return fusecore.NewService(fusecore.NewRouter())
}

func TestServer_GracefulDrainWaitsForConnectionsThenExits(t *testing.T) {
	acceptor := newFakeAcceptor()
	srv := New(acceptor, testService(t))

	result := make(chan string, 1)
	coupler := &fakeCoupler{result: result}
	acceptor.push(newAccepted(t, coupler, nil))

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return srv.AliveConnections() == 1 }, time.Second, time.Millisecond)

	srv.StopGraceful(0)

	require.Equal(t, "graceful", <-result, "coupler should observe the graceful-stop signal, not an abortive context cancellation")
	require.NoError(t, <-serveErr)
	assert.Equal(t, int64(0), srv.AliveConnections())
}

func TestServer_GracefulDrainReturnsImmediatelyWhenNoConnections(t *testing.T) {
	acceptor := newFakeAcceptor()
	srv := New(acceptor, testService(t))

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(context.Background()) }()

	<-srv.Ready()
	srv.StopGraceful(0)

	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return for a server with no live connections")
	}
}

func TestServer_ForcibleStopBoundsShutdownEvenWithStuckConnection(t *testing.T) {
	acceptor := newFakeAcceptor()
	srv := New(acceptor, testService(t))

	result := make(chan string, 1)
	coupler := &fakeCoupler{ignoreGraceful: true, result: result}
	acceptor.push(newAccepted(t, coupler, nil))

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return srv.AliveConnections() == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	srv.StopForcible()

	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("forcible stop did not bound Serve's return")
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "ctx", <-result, "a stuck connection must be cancelled abortively by the force token")
}

func TestServer_FuseTripClosesConnectionAbortively(t *testing.T) {
	acceptor := newFakeAcceptor()
	srv := New(acceptor, testService(t))

	factory := fuse.NewFlexFactory()
	factory.IdleTimeout = 20 * time.Millisecond
	factory.FrameTimeout = time.Hour
	factory.HandshakeTimeout = time.Hour
	fw := factory.NewFusewire(fuse.TransportTCP)

	result := make(chan string, 1)
	coupler := &fakeCoupler{ignoreGraceful: true, result: result}
	acceptor.push(newAccepted(t, coupler, fw))

	go func() { _ = srv.Serve(context.Background()) }()
	t.Cleanup(func() { srv.StopForcible() })

	require.Equal(t, "ctx", <-result, "the fuse trip must cancel the connection's context")
	require.Eventually(t, func() bool { return srv.AliveConnections() == 0 }, time.Second, time.Millisecond)
	assert.True(t, fw.Tripped())
}
