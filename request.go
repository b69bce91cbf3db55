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

import (
	"net/http"
	"net/url"
	"strings"
)

// Request is the engine's view of an incoming HTTP request (spec §3): method,
// URI, version, a case-insensitive header multimap, a single-consumer lazy
// body, lazily parsed query parameters, router-populated path parameters, a
// type-keyed extension bag, and the connection's addresses. Incoming
// cookies are not parsed into a jar; they stay in the Cookie header.
//
// A Request is owned by the single task driving one request; nothing here
// needs synchronization (spec §9: "a simple Option<Result<...>> guarded by
// the request's exclusive borrow").
type Request struct {
	Method  string
	URI     *url.URL
	Version string
	Header  http.Header
	Scheme  string

	Remote Addr
	Local  Addr

	pathParams map[string]string
	extensions *Depot

	body Body

	query       url.Values
	queryCached bool

	formParsed bool
	form       url.Values
}

// NewRequest builds an empty Request for the given method and URI. Service
// and the HTTP couplers populate the remaining fields before routing.
func NewRequest(method string, uri *url.URL) *Request {
	return &Request{
		Method:     method,
		URI:        uri,
		Version:    "HTTP/1.1",
		Header:     make(http.Header),
		pathParams: make(map[string]string),
		body:       BodyNone(),
	}
}

// Body takes the request body exactly once: the second and subsequent
// calls return an empty Body and ErrBodyAlreadyTaken, fulfilling the "body single-
// consumer" invariant (spec §8). The stored Body is swapped atomically with
// the read since only one goroutine ever touches a Request.
func (r *Request) Body() (Body, error) {
	if r.body.IsNone() {
		return Body{}, ErrBodyAlreadyTaken
	}
	taken := r.body
	r.body = BodyNone()
	return taken, nil
}

// SetBody installs the request body; used by HTTP couplers when constructing
// a Request from driver-owned frames.
func (r *Request) SetBody(b Body) {
	r.body = b
}

// PathParam returns a path parameter captured by the router, or ("", false)
// if it was never captured.
func (r *Request) PathParam(name string) (string, bool) {
	v, ok := r.pathParams[name]
	return v, ok
}

// PathParams returns all path parameters captured by the router.
func (r *Request) PathParams() map[string]string {
	return r.pathParams
}

// setPathParams installs the path parameters for this request; only the
// router calls this, while matching (spec §3: "Path parameters are owned by
// the request and mutated only while routing").
func (r *Request) setPathParams(params map[string]string) {
	if r.pathParams == nil {
		r.pathParams = make(map[string]string, len(params))
	}
	for k, v := range params {
		r.pathParams[k] = v
	}
}

// Query lazily parses and caches the URI's query string (spec §9: "Queries
// ... must not be parsed until first requested; once parsed, the result is
// cached").
func (r *Request) Query() url.Values {
	if !r.queryCached {
		if r.URI != nil {
			r.query = r.URI.Query()
		} else {
			r.query = url.Values{}
		}
		r.queryCached = true
	}
	return r.query
}

// QueryParam returns the first value for name in the query string.
func (r *Request) QueryParam(name string) string {
	return r.Query().Get(name)
}

// Form lazily parses the request body as application/x-www-form-urlencoded,
// caching the result on first call, mirroring the same lazy-and-cached
// contract as Query (spec §9); later calls return the cached values. For
// a urlencoded body Form consumes the body via Body(), so it does not mix
// with a direct Body() read. Any other content type, multipart/form-data
// included, yields empty values and leaves the body untouched.
func (r *Request) Form() (url.Values, error) {
	if r.formParsed {
		return r.form, nil
	}
	r.formParsed = true
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		r.form = url.Values{}
		return r.form, nil
	}
	b, err := r.Body()
	if err != nil {
		r.form = url.Values{}
		return r.form, err
	}
	raw, err := b.Bytes()
	if err != nil {
		r.form = url.Values{}
		return r.form, err
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		r.form = url.Values{}
		return r.form, err
	}
	r.form = values
	return r.form, nil
}

// Extensions returns the request's type-keyed extension bag, lazily
// allocated. Unlike Depot (which is constructed fresh per request by
// Service.Handle and passed explicitly to every handler), Extensions lives
// on the Request itself for drivers and adapters that only have a *Request
// in hand (e.g. a TLS adapter recording the negotiated protocol).
func (r *Request) Extensions() *Depot {
	if r.extensions == nil {
		r.extensions = NewDepot()
	}
	return r.extensions
}

// Path returns the URI's path component, defaulting to "/".
func (r *Request) Path() string {
	if r.URI == nil || r.URI.Path == "" {
		return "/"
	}
	return r.URI.Path
}
