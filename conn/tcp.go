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
	"net"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/fuse"
)

// TCPListener binds a plain or TLS-wrapped TCP address (spec §6:
// "TcpListener::new(addr), .bind()/.try_bind()"). When TLS is non-nil,
// accepted connections are wrapped in the lazy handshake adapter of tls.go
// rather than handed to the coupler raw.
type TCPListener struct {
	Addr string
	TLS  *TLSConfigSource
}

// Bind opens the TCP listen socket.
func (l TCPListener) Bind(ctx context.Context) (Acceptor, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.Addr)
	if err != nil {
		return nil, err
	}
	versions := []string{"HTTP/1.1", "HTTP/2"}
	scheme := "http"
	if l.TLS != nil {
		scheme = "https"
	}
	return &tcpAcceptor{
		ln: ln,
		holding: Holding{
			Local:    fusecore.NewAddr(ln.Addr(), fusecore.TransportTCP),
			Versions: versions,
			Scheme:   scheme,
		},
		tlsSource: l.TLS,
	}, nil
}

type tcpAcceptor struct {
	ln        net.Listener
	holding   Holding
	tlsSource *TLSConfigSource
}

func (a *tcpAcceptor) Holdings() []Holding { return []Holding{a.holding} }

func (a *tcpAcceptor) Accept(ctx context.Context, factory fuse.Factory) (*Accepted, error) {
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan acceptResult, 1)
	go func() {
		c, err := a.ln.Accept()
		resultCh <- acceptResult{conn: c, err: err}
	}()

	var result acceptResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		_ = a.ln.Close()
		return nil, ctx.Err()
	}
	if result.err != nil {
		return nil, result.err
	}

	var fw *fuse.Fusewire
	if factory != nil {
		fw = factory.NewFusewire(fuse.TransportTCP)
	}

	stream := net.Conn(result.conn)
	coupler := Coupler(&HTTPCoupler{})
	scheme := "http"
	if a.tlsSource != nil {
		stream = newTLSAdapter(result.conn, a.tlsSource, fw)
		coupler = &HTTPCoupler{}
		scheme = "https"
	}

	return &Accepted{
		Stream:   stream,
		Coupler:  coupler,
		Local:    fusecore.NewAddr(result.conn.LocalAddr(), fusecore.TransportTCP),
		Remote:   fusecore.NewAddr(result.conn.RemoteAddr(), fusecore.TransportTCP),
		Scheme:   scheme,
		Fusewire: fw,
	}, nil
}

func (a *tcpAcceptor) Close() error { return a.ln.Close() }

// UnixListener binds a Unix-domain socket path.
type UnixListener struct {
	Path string
}

// Bind opens the Unix-domain listen socket.
func (l UnixListener) Bind(ctx context.Context) (Acceptor, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", l.Path)
	if err != nil {
		return nil, err
	}
	return &tcpAcceptor{
		ln: ln,
		holding: Holding{
			Local:    fusecore.NewAddr(ln.Addr(), fusecore.TransportUnspecified),
			Versions: []string{"HTTP/1.1", "HTTP/2"},
			Scheme:   "http+unix",
		},
	}, nil
}
