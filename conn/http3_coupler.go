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
	"bytes"
	"context"
	"fmt"
	"net"

	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go/http3"
)

// HTTP3Coupler drives one accepted QUIC connection with http3.Server,
// the dedicated coupler for the QUIC-carried transport (spec §4.2: HTTP/3
// "requires its own listener/acceptor pair and coupler implementation,
// since the QUIC and TCP state machines do not share a substrate").
type HTTP3Coupler struct{}

// Couple implements Coupler. gracefulStop closes the QUIC connection at
// once with application error code 0 ("going away"); streams still in
// flight on it are not drained and end with the connection.
func (HTTP3Coupler) Couple(ctx context.Context, stream net.Conn, hyperHandler *ServiceHandler, builder *HTTPBuilder, gracefulStop <-chan struct{}) error {
	adapter, ok := stream.(*quicConnAdapter)
	if !ok {
		return fmt.Errorf("conn: HTTP3Coupler requires a QUIC-backed stream, got %T", stream)
	}

	srv := &http3.Server{
		Handler: instrumentedHandler(hyperHandler, hyperHandler.Fusewire),
	}

	served := make(chan error, 1)
	go func() { served <- srv.ServeQUICConn(adapter.Conn) }()

	select {
	case err := <-served:
		return err
	case <-gracefulStop:
		_ = adapter.Conn.CloseWithError(0, "going away")
		return <-served
	case <-ctx.Done():
		_ = adapter.Conn.CloseWithError(0, "shutdown")
		return ctx.Err()
	}
}

// encodeAltSvcHeaders builds the qpack-encoded representation of a single
// Alt-Svc response header (spec §4.2's cross-coupler alt-svc
// advertisement). Its one caller, ServiceHandler.ServeHTTP, uses it only to
// check that a handler-set res.AltSvc value encodes cleanly before writing
// the plain textual Alt-Svc header; the encoded bytes are discarded.
func encodeAltSvcHeaders(altSvc string) ([]byte, error) {
	var buf bytes.Buffer
	enc := qpack.NewEncoder(&buf)
	if err := enc.WriteField(qpack.HeaderField{Name: "alt-svc", Value: altSvc}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
