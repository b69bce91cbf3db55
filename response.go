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

package fusecore

import "net/http"

// Response is the engine's view of an outgoing HTTP response (spec §3):
// status, version, headers, a cookie jar flushed into Set-Cookie headers by
// Service.Handle, a body (same variants as Request), and an optional
// alt-svc value advertising HTTP/3 support.
//
// Status, version, and body are single-assignment in spirit (last write
// wins, matching how handlers naturally compose); headers and cookies
// append.
type Response struct {
	status  int
	Version string
	Header  http.Header
	Cookies CookieJar
	AltSvc  string

	body Body
}

// NewResponse builds an empty Response with no status set.
func NewResponse() *Response {
	return &Response{Header: make(http.Header), body: BodyNone()}
}

// Status reports the response's status code. A Response with no explicit
// status reports 0; Service.Handle resolves the spec's default ("200 when
// body set else implementation-defined", which this package resolves to
// 404 via the default catcher, see catcher.go).
func (r *Response) Status() int { return r.status }

// SetStatus sets the response's status code.
func (r *Response) SetStatus(code int) { r.status = code }

// HasStatus reports whether SetStatus has ever been called.
func (r *Response) HasStatus() bool { return r.status != 0 }

// Body returns the response's current body.
func (r *Response) Body() Body { return r.body }

// SetBody installs the response body. If no status has been set yet, it
// also sets status 200, per spec §3's default ("200 when body set").
func (r *Response) SetBody(b Body) {
	r.body = b
	if !r.HasStatus() {
		r.status = http.StatusOK
	}
}

// HasBody reports whether the response carries a non-empty body.
func (r *Response) HasBody() bool { return !r.body.IsNone() }

// IsError reports whether the response's status is a 4xx/5xx error code,
// the condition catchers and Service.Handle's post-processing step key on.
func (r *Response) IsError() bool { return r.status >= 400 }
