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
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/fuse"
)

// ServiceHandler adapts a *fusecore.Service into a net/http.Handler: the
// "hyper_handler" of spec §2's data-flow diagram, bridging each net/http
// request/response pair into a fusecore.Request/Response and back. Every
// Coupler in this package is built around one ServiceHandler.
type ServiceHandler struct {
	Service *fusecore.Service
	// Fusewire, if non-nil, receives ReadData/WriteData events as the
	// request body is read and the response body is written (spec
	// §4.7.1).
	Fusewire *fuse.Fusewire
}

// ServeHTTP implements http.Handler.
func (h *ServiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := fusecore.NewRequest(r.Method, r.URL)
	req.Version = r.Proto
	req.Header = r.Header
	if r.Host != "" && req.Header.Get("Host") == "" {
		// net/http moves the Host header into r.Host; restore it for
		// Router.Host filters.
		req.Header.Set("Host", r.Host)
	}
	req.Scheme = schemeOf(r)
	req.Remote = remoteAddr(r.RemoteAddr)
	if r.Body != nil {
		req.SetBody(fusecore.BodyHyper(instrumentedBody(r.Body, h.Fusewire)))
	}

	res := h.Service.Handle(r.Context(), req)

	header := w.Header()
	for key, values := range res.Header {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	if res.AltSvc != "" {
		// Validate the value encodes cleanly as a QPACK header field before
		// advertising it, since a client that takes up the offer will need
		// to decode it over the HTTP/3 connection this header points at.
		if _, err := encodeAltSvcHeaders(res.AltSvc); err == nil {
			header.Set("Alt-Svc", res.AltSvc)
		}
	}
	status := res.Status()
	if status == 0 {
		status = http.StatusNotFound
	}
	w.WriteHeader(status)

	if body, ok := res.Body().Take(); ok {
		defer body.Close()
		n, _ := io.Copy(w, body)
		if h.Fusewire != nil && n > 0 {
			h.Fusewire.Emit(fuse.EventWriteData)
		}
	}
}

func schemeOf(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func remoteAddr(s string) fusecore.Addr {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return fusecore.Addr{}
	}
	port, _ := strconv.Atoi(portStr)
	ip := net.ParseIP(host)
	kind := fusecore.AddrUnknown
	if ip != nil {
		kind = fusecore.AddrIPv6
		if ip.To4() != nil {
			kind = fusecore.AddrIPv4
		}
	}
	return fusecore.Addr{Kind: kind, IP: ip, Port: port, Transport: fusecore.TransportTCP}
}

// instrumentedReadCloser emits fuse.EventReadData on every non-empty read,
// so a slow-loris request body (one that trickles in byte-by-byte) keeps
// the idle timer alive the same way any other I/O activity would.
type instrumentedReadCloser struct {
	io.ReadCloser
	fw *fuse.Fusewire
}

func instrumentedBody(rc io.ReadCloser, fw *fuse.Fusewire) io.ReadCloser {
	if fw == nil {
		return rc
	}
	return &instrumentedReadCloser{ReadCloser: rc, fw: fw}
}

func (r *instrumentedReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		r.fw.Emit(fuse.EventReadData)
	}
	return n, err
}
