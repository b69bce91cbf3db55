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
	"time"
)

// HTTPBuilder tunes protocol-version behavior shared by every Coupler a
// server loop owns (spec §4.8: "an HttpBuilder (protocol-version tuning)").
type HTTPBuilder struct {
	// ReadHeaderTimeout bounds how long an HTTP/1 coupler waits for
	// request headers.
	ReadHeaderTimeout time.Duration
	// MaxHeaderBytes bounds the size of the request header block.
	MaxHeaderBytes int
	// EnableHTTP2 allows ALPN/prior-knowledge upgrade to HTTP/2 on a TCP
	// coupler; always true for the dedicated HTTP/3 coupler.
	EnableHTTP2 bool
}

// DefaultHTTPBuilder returns the builder's zero-configuration defaults.
func DefaultHTTPBuilder() *HTTPBuilder {
	return &HTTPBuilder{ReadHeaderTimeout: 10 * time.Second, MaxHeaderBytes: 1 << 20, EnableHTTP2: true}
}

// Coupler is the per-accepted-connection object that knows how to run an
// HTTP driver over its stream (spec §4.2). Its single method couples the
// stream to hyperHandler until the connection closes, the context is
// cancelled (abortive close), or gracefulStop is closed (drain: stop
// accepting new requests/streams on this connection, finish in-flight
// ones).
type Coupler interface {
	Couple(ctx context.Context, stream net.Conn, hyperHandler *ServiceHandler, builder *HTTPBuilder, gracefulStop <-chan struct{}) error
}

// builderOrDefault returns builder or DefaultHTTPBuilder(), so callers of
// Couple may pass nil.
func builderOrDefault(builder *HTTPBuilder) *HTTPBuilder {
	if builder != nil {
		return builder
	}
	return DefaultHTTPBuilder()
}
