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
	"crypto/tls"
	"crypto/x509"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/fuse"
)

// ClientAuthPolicy selects one of the three client-certificate policies
// spec §4.3 requires.
type ClientAuthPolicy uint8

const (
	// ClientAuthOff never requests a client certificate.
	ClientAuthOff ClientAuthPolicy = iota
	// ClientAuthOptional accepts both anonymous and authenticated clients.
	ClientAuthOptional
	// ClientAuthRequired rejects connections without a valid client
	// certificate.
	ClientAuthRequired
)

func (p ClientAuthPolicy) stdlib() tls.ClientAuthType {
	switch p {
	case ClientAuthOptional:
		return tls.VerifyClientCertIfGiven
	case ClientAuthRequired:
		return tls.RequireAndVerifyClientCert
	default:
		return tls.NoClientCert
	}
}

// TLSConfigSource latches the most recently published *tls.Config,
// supporting either a single static config or a hot-reloadable stream
// (spec §4.3: "Configuration is either static ... or a stream of configs
// ... enabling certificate hot-reload"). The acceptor polls non-blockingly
// by simply reading the latch; publishing never blocks a reader, and a
// connection that is already handshaking keeps the config snapshot it
// started with even if a newer one is published mid-handshake.
type TLSConfigSource struct {
	current atomic.Pointer[tls.Config]
}

// NewServerTLSConfig builds a *tls.Config for certs that advertises both
// "h2" and "http/1.1" over ALPN (so TCPListener's coupler can rely on
// net/http's own ALPN-based protocol selection) and applies policy's
// client-auth requirement.
func NewServerTLSConfig(certs []tls.Certificate, policy ClientAuthPolicy, clientCAs *x509.CertPool) *tls.Config {
	return &tls.Config{
		Certificates: certs,
		NextProtos:   []string{"h2", "http/1.1"},
		ClientAuth:   policy.stdlib(),
		ClientCAs:    clientCAs,
	}
}

// StaticTLSConfig builds a TLSConfigSource that never changes.
func StaticTLSConfig(cfg *tls.Config) *TLSConfigSource {
	s := &TLSConfigSource{}
	s.current.Store(cfg)
	return s
}

// NewTLSConfigSource builds an empty source. Until Publish is called,
// Accept still succeeds, but each connection accepted meanwhile fails its
// TLS handshake with fusecore.ErrNoTLSConfig; nothing is served in
// plaintext.
func NewTLSConfigSource() *TLSConfigSource {
	return &TLSConfigSource{}
}

// Publish latches cfg as the current config for all subsequently accepted
// connections (spec §4.3 hot-reload).
func (s *TLSConfigSource) Publish(cfg *tls.Config) {
	s.current.Store(cfg)
}

// snapshot returns the latched config, or nil if none has been published.
func (s *TLSConfigSource) snapshot() *tls.Config {
	return s.current.Load()
}

// tlsState is the adapter's two-state machine (spec §4.3).
type tlsState uint8

const (
	tlsStateHandshaking tlsState = iota
	tlsStateStreaming
)

// tlsAdapter wraps a raw net.Conn in a lazy TLS handshake: the first
// Read/Write triggers the handshake (via tls.Server, which itself performs
// it lazily on first use), and fuse events bracket it so the watchdog's
// handshake timeout applies (spec §4.3, §4.7.1).
type tlsAdapter struct {
	*tls.Conn
	fw        *fuse.Fusewire
	emitOnce  sync.Once
	completed bool
}

func newTLSAdapter(raw net.Conn, source *TLSConfigSource, fw *fuse.Fusewire) net.Conn {
	cfg := source.snapshot()
	if cfg == nil {
		// No config published yet: the connection is not served in
		// plaintext. A tls.Server with a nil config panics on first
		// handshake, so build a config whose GetConfigForClient returns
		// ErrNoTLSConfig; the handshake then fails and the peer receives a
		// standard TLS alert.
		cfg = &tls.Config{GetConfigForClient: func(*tls.ClientHelloInfo) (*tls.Config, error) {
			return nil, fusecore.ErrNoTLSConfig
		}}
	}
	if fw != nil {
		fw.Emit(fuse.EventTLSHandshaking)
	}
	a := &tlsAdapter{Conn: tls.Server(raw, cfg), fw: fw}
	return a
}

func (a *tlsAdapter) markHandshaked() {
	a.emitOnce.Do(func() {
		a.completed = true
		if a.fw != nil {
			a.fw.Emit(fuse.EventTLSHandshaked)
		}
	})
}

// Read performs (or completes) the handshake before delegating, emitting
// TlsHandshaked exactly once on first success (spec's "Handshaking(accept_
// future): every read/write poll first polls the handshake future; on
// success transitions to Streaming and delegates").
func (a *tlsAdapter) Read(b []byte) (int, error) {
	n, err := a.Conn.Read(b)
	if err == nil {
		a.markHandshaked()
	}
	if a.fw != nil && n > 0 {
		a.fw.Emit(fuse.EventReadData)
	}
	return n, err
}

// Write delegates to the underlying TLS stream, emitting WriteData.
func (a *tlsAdapter) Write(b []byte) (int, error) {
	n, err := a.Conn.Write(b)
	if err == nil {
		a.markHandshaked()
	}
	if a.fw != nil && n > 0 {
		a.fw.Emit(fuse.EventWriteData)
	}
	return n, err
}
