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

// Package conn implements the listener/acceptor/coupler pipeline (spec
// §4.1-§4.3): binding addresses, accepting streams, optionally negotiating
// TLS, and coupling each stream to an HTTP driver (HTTP/1, HTTP/2, HTTP/3).
package conn

import (
	"context"
	"fmt"
	"math/rand"
	"net"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/fuse"
)

// Holding describes one bound endpoint (spec §4.1): its local address, the
// HTTP versions it serves, and its scheme. Acceptors use this for logging
// and for computing the alt-svc advertisement.
type Holding struct {
	Local    fusecore.Addr
	Versions []string
	Scheme   string
}

// Accepted bundles everything the server loop needs about one accepted
// connection (spec §4.1): the raw stream, the Coupler that knows how to
// drive it, its addresses and scheme, and its Fusewire (nil if fuse
// tracking is disabled).
type Accepted struct {
	Stream   net.Conn
	Coupler  Coupler
	Local    fusecore.Addr
	Remote   fusecore.Addr
	Scheme   string
	Fusewire *fuse.Fusewire
}

// Listener is a value that, given asynchronous execution, produces an
// Acceptor (spec §4.1). Binding is fallible.
type Listener interface {
	Bind(ctx context.Context) (Acceptor, error)
}

// Acceptor accepts streams from one or more bound endpoints.
type Acceptor interface {
	// Holdings returns one Holding per bound endpoint.
	Holdings() []Holding
	// Accept awaits the next incoming stream. factory may be nil to
	// disable fuse tracking for this connection.
	Accept(ctx context.Context, factory fuse.Factory) (*Accepted, error)
	// Close releases the underlying OS resources.
	Close() error
}

// MustBind binds l, panicking on failure — the infallible convenience
// form mirroring Router.WithPath / TcpListener::bind (spec §4.1:
// "Listener::bind is an infallible helper that panics").
func MustBind(ctx context.Context, l Listener) Acceptor {
	a, err := l.Bind(ctx)
	if err != nil {
		panic(fmt.Errorf("conn: bind failed: %w", err))
	}
	return a
}

// Join composes two listeners into a JoinedListener whose Acceptor yields
// whichever child connection arrives first (spec §4.1).
func Join(listeners ...Listener) Listener {
	return JoinedListener{Listeners: listeners}
}

// JoinedListener binds every child listener and fans their Accept calls
// into one stream, with random tie-breaking among children that have a
// connection ready simultaneously.
type JoinedListener struct {
	Listeners []Listener
}

// Bind binds every child listener.
func (j JoinedListener) Bind(ctx context.Context) (Acceptor, error) {
	acceptors := make([]Acceptor, 0, len(j.Listeners))
	for _, l := range j.Listeners {
		a, err := l.Bind(ctx)
		if err != nil {
			for _, opened := range acceptors {
				_ = opened.Close()
			}
			return nil, err
		}
		acceptors = append(acceptors, a)
	}
	return &joinedAcceptor{acceptors: acceptors}, nil
}

type joinedAcceptor struct {
	acceptors []Acceptor
}

func (j *joinedAcceptor) Holdings() []Holding {
	var out []Holding
	for _, a := range j.acceptors {
		out = append(out, a.Holdings()...)
	}
	return out
}

// acceptResult is one child acceptor's Accept outcome, fed back to the fan-
// in loop.
type acceptResult struct {
	accepted *Accepted
	err      error
}

// Accept races every child acceptor's Accept call and returns whichever
// completes first, with fair random tie-breaking among children whose
// result arrives in the same scheduling slice (spec §4.1: "fair
// (round-robin or random) tie-breaking").
func (j *joinedAcceptor) Accept(ctx context.Context, factory fuse.Factory) (*Accepted, error) {
	if len(j.acceptors) == 0 {
		return nil, fusecore.ErrAcceptorClosed
	}
	results := make(chan acceptResult, len(j.acceptors))
	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for _, a := range j.acceptors {
		go func(a Acceptor) {
			accepted, err := a.Accept(childCtx, factory)
			select {
			case results <- acceptResult{accepted: accepted, err: err}:
			case <-childCtx.Done():
			}
		}(a)
	}

	// Drain whatever arrives first; if several already queued, pick one at
	// random for fairness rather than always favoring acceptors[0].
	select {
	case first := <-results:
		pending := len(results)
		if pending > 0 {
			buffered := make([]acceptResult, 0, pending+1)
			buffered = append(buffered, first)
			for i := 0; i < pending; i++ {
				buffered = append(buffered, <-results)
			}
			chosen := buffered[rand.Intn(len(buffered))]
			return chosen.accepted, chosen.err
		}
		return first.accepted, first.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *joinedAcceptor) Close() error {
	var firstErr error
	for _, a := range j.acceptors {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
