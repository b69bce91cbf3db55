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

package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/rivaas-dev/fusecore/fuse"
)

// HTTPCoupler drives one accepted stream with net/http, transparently
// serving HTTP/1.1, ALPN-negotiated HTTP/2-over-TLS, and cleartext HTTP/2
// prior-knowledge (h2c) over the same stream (spec §4.2: "decide the
// protocol" is delegated entirely to net/http's and x/net/http2's own
// negotiation rather than split across separate coupler types).
//
// Since net/http.Server is designed to own a net.Listener, not a single
// net.Conn, HTTPCoupler drives it through singleConnListener: a Listener
// that yields exactly the one stream it was built with, then blocks until
// closed. This is the idiomatic way to run net/http's request loop,
// keep-alive handling, and HTTP/2 upgrade logic over a connection that a
// Coupler-based acceptor (rather than net/http itself) accepted.
type HTTPCoupler struct{}

// Couple implements Coupler.
func (HTTPCoupler) Couple(ctx context.Context, stream net.Conn, hyperHandler *ServiceHandler, builder *HTTPBuilder, gracefulStop <-chan struct{}) error {
	builder = builderOrDefault(builder)

	var handler http.Handler = hyperHandler
	httpSrv := &http.Server{
		ReadHeaderTimeout: builder.ReadHeaderTimeout,
		MaxHeaderBytes:    builder.MaxHeaderBytes,
	}
	if builder.EnableHTTP2 {
		h2Srv := &http2.Server{}
		if _, isTLS := stream.(interface{ ConnectionState() tls.ConnectionState }); !isTLS {
			// Cleartext stream: h2c.NewHandler recognizes HTTP/2
			// prior-knowledge preambles and falls back to handler for
			// plain HTTP/1.1 requests on the same port.
			handler = h2c.NewHandler(hyperHandler, h2Srv)
		} else if err := http2.ConfigureServer(httpSrv, h2Srv); err != nil {
			return err
		}
	}
	httpSrv.Handler = instrumentedHandler(handler, hyperHandler.Fusewire)

	if hyperHandler.Fusewire != nil {
		// Arm the frame timer for the pre-first-request wait too: a
		// connection that is coupled and then sends nothing is exactly as
		// exposed to a slow-loris peer as one idling between keep-alive
		// requests, and instrumentedHandler's first WaitFrame only fires
		// after a request has already been read.
		hyperHandler.Fusewire.Emit(fuse.EventWaitFrame)
	}

	ln := newSingleConnListener(stream)
	serveErr := make(chan error, 1)
	go func() { serveErr <- httpSrv.Serve(ln) }()

	select {
	case err := <-serveErr:
		return normalizeServeErr(err)
	case <-gracefulStop:
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return normalizeServeErr(<-serveErr)
	case <-ctx.Done():
		_ = httpSrv.Close()
		return ctx.Err()
	}
}

// normalizeServeErr maps net/http's sentinel for "this server was shut down
// on purpose" to a clean nil, the only Couple outcome a caller (the server
// loop's handleConn) should treat as a non-error connection close.
func normalizeServeErr(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// instrumentedHandler wraps handler so that GainFrame fires as net/http
// hands a fully read request to the application and WaitFrame fires once
// the application returns, re-arming the frame timer for the wait on the
// peer's next request — spec §9's "subtlest
// invariant": the frame timeout must bracket exactly the time the driver
// spends waiting on the peer for the next unit of framing, not the
// application's own processing time.
func instrumentedHandler(next http.Handler, fw *fuse.Fusewire) http.Handler {
	if fw == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fw.Emit(fuse.EventGainFrame)
		next.ServeHTTP(w, r)
		fw.Emit(fuse.EventWaitFrame)
	})
}

// singleConnListener adapts one net.Conn into a net.Listener that yields
// it exactly once via Accept, then blocks on subsequent calls until
// Close, letting net/http.Server.Serve drive a single pre-accepted
// connection without reimplementing its request loop.
type singleConnListener struct {
	conn net.Conn
	once sync.Once
	ch   chan net.Conn
	done chan struct{}
}

func newSingleConnListener(conn net.Conn) *singleConnListener {
	l := &singleConnListener{
		conn: conn,
		ch:   make(chan net.Conn, 1),
		done: make(chan struct{}),
	}
	l.ch <- conn
	return l
}

func (l *singleConnListener) Accept() (net.Conn, error) {
	select {
	case c, ok := <-l.ch:
		if !ok {
			return nil, net.ErrClosed
		}
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *singleConnListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *singleConnListener) Addr() net.Addr { return l.conn.LocalAddr() }
