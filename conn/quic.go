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
	"net"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/fuse"
)

// QUICListener binds a UDP address for HTTP/3 (spec §4.1/§4.2: a third
// transport alongside TCP, carried by the dedicated HTTP/3 coupler).
// TLSConfig is required; QUIC has no cleartext mode.
type QUICListener struct {
	Addr      string
	TLSConfig *TLSConfigSource
}

// Bind opens the QUIC/UDP listen socket.
func (l QUICListener) Bind(ctx context.Context) (Acceptor, error) {
	cfg := l.TLSConfig.snapshot()
	if cfg == nil {
		return nil, fusecore.ErrNoTLSConfig
	}
	var udpAddr *net.UDPAddr
	if l.Addr != "" {
		resolved, err := net.ResolveUDPAddr("udp", l.Addr)
		if err != nil {
			return nil, err
		}
		udpAddr = resolved
	}
	tr := &quic.Transport{}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	tr.Conn = udpConn
	ln, err := tr.Listen(configureQUICALPN(cfg), &quic.Config{})
	if err != nil {
		_ = udpConn.Close()
		return nil, err
	}
	return &quicAcceptor{
		ln: ln,
		tr: tr,
		holding: Holding{
			Local:    fusecore.NewAddr(udpConn.LocalAddr(), fusecore.TransportQUIC),
			Versions: []string{"HTTP/3"},
			Scheme:   "https",
		},
		tlsSource: l.TLSConfig,
	}, nil
}

// configureQUICALPN ensures the published TLS config advertises "h3", the
// only protocol the HTTP/3 coupler speaks.
func configureQUICALPN(cfg *tls.Config) *tls.Config {
	clone := cfg.Clone()
	clone.NextProtos = []string{"h3"}
	return clone
}

type quicAcceptor struct {
	ln        *quic.Listener
	tr        *quic.Transport
	holding   Holding
	tlsSource *TLSConfigSource
}

func (a *quicAcceptor) Holdings() []Holding { return []Holding{a.holding} }

// Accept waits for the next QUIC connection (not stream — HTTP/3 multiplexes
// many request streams over one QUIC connection, so the unit this acceptor
// hands upward is the connection itself, wrapped to satisfy the Coupler
// pipeline's net.Conn-shaped Accepted.Stream).
func (a *quicAcceptor) Accept(ctx context.Context, factory fuse.Factory) (*Accepted, error) {
	qc, err := a.ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	var fw *fuse.Fusewire
	if factory != nil {
		fw = factory.NewFusewire(fuse.TransportQUIC)
	}
	return &Accepted{
		Stream:   &quicConnAdapter{Conn: qc},
		Coupler:  &HTTP3Coupler{},
		Local:    fusecore.NewAddr(qc.LocalAddr(), fusecore.TransportQUIC),
		Remote:   fusecore.NewAddr(qc.RemoteAddr(), fusecore.TransportQUIC),
		Scheme:   "https",
		Fusewire: fw,
	}, nil
}

func (a *quicAcceptor) Close() error {
	err := a.ln.Close()
	_ = a.tr.Close()
	return err
}

// quicConnAdapter lets a *quic.Conn travel through the net.Conn-shaped
// Accepted/Coupler pipeline; HTTP3Coupler type-asserts back to
// *quicConnAdapter and drives its embedded Conn directly through
// http3.Server rather than using the Read/Write methods below, which are
// unused stand-ins to satisfy the net.Conn interface.
type quicConnAdapter struct {
	*quic.Conn
}

func (a *quicConnAdapter) Read([]byte) (int, error)         { return 0, net.ErrClosed }
func (a *quicConnAdapter) Write([]byte) (int, error)        { return 0, net.ErrClosed }
func (a *quicConnAdapter) Close() error                     { return a.Conn.CloseWithError(0, "") }
func (a *quicConnAdapter) SetDeadline(time.Time) error      { return nil }
func (a *quicConnAdapter) SetReadDeadline(time.Time) error  { return nil }
func (a *quicConnAdapter) SetWriteDeadline(time.Time) error { return nil }
