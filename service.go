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
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Service is the immutable root of request handling (spec §3/§4.6): a
// router, a list of catchers, server-wide hoops run before any router-level
// hoop, and an optional allowed-media-types filter.
type Service struct {
	Router        *Router
	Catchers      []Catcher
	Hoops         []Handler
	AllowedMedia  []string
	Writer        *Writer
	Observability ObservabilityRecorder
}

// Option configures a Service at construction time, the same functional-
// options idiom the teacher uses for Router configuration.
type Option func(*Service)

// WithHoop appends a server-wide hoop run before routing.
func WithHoop(h Handler) Option {
	return func(s *Service) { s.Hoops = append(s.Hoops, h) }
}

// WithCatcher appends a catcher. User catchers are tried in the order
// registered, before the built-in ones: see NewService.
func WithCatcher(c Catcher) Option {
	return func(s *Service) { s.Catchers = append(s.Catchers, c) }
}

// WithAllowedMedia restricts response Content-Type to one of types; a
// mismatching response is rewritten to 406 Not Acceptable.
func WithAllowedMedia(types ...string) Option {
	return func(s *Service) { s.AllowedMedia = types }
}

// WithObservability attaches a metrics/tracing/logging recorder.
func WithObservability(o ObservabilityRecorder) Option {
	return func(s *Service) { s.Observability = o }
}

// NewService builds a Service around root, applying opts. User-registered
// catchers (via WithCatcher) run before the two built-ins (404, then
// generic error), so applications can override default error rendering.
func NewService(root *Router, opts ...Option) *Service {
	s := &Service{Router: root, Writer: DefaultWriter}
	for _, opt := range opts {
		opt(s)
	}
	s.Catchers = append(s.Catchers, defaultNotFoundCatcher(), defaultErrorCatcher())
	return s
}

// Handle runs the full request lifecycle of spec §4.6 and returns the
// finished Response. ctx is checked once, before the chain starts: if it is
// already done, no handler runs and no catcher runs. Handlers are not given
// ctx, so a cancellation that arrives while the chain runs does not stop it.
func (s *Service) Handle(ctx context.Context, req *Request) *Response {
	res := NewResponse()
	depot := NewDepot()

	var obsState any
	if s.Observability != nil {
		ctx, obsState = s.Observability.OnRequestStart(ctx, req.Method, req.Path())
		depot.SetLogger(s.Observability.Logger())
	} else {
		depot.SetLogger(noopLogger)
	}

	s.run(ctx, req, depot, res)

	s.applyAllowedMedia(req, res)
	res.Cookies.flushTo(res.Header)

	if s.Observability != nil {
		s.Observability.OnRequestEnd(ctx, obsState, res.Status())
	}
	return res
}

// run executes hoops + router chain, recovering from handler panics into a
// 500 response (spec §4.5: "If any handler panics or returns an error path
// that surfaces as an error response, the router executes the first
// catcher whose predicate accepts the response").
func (s *Service) run(ctx context.Context, req *Request, depot *Depot, res *Response) {
	var ctrl *FlowCtrl
	defer func() {
		if rec := recover(); rec != nil {
			depot.Logger().LogAttrs(ctx, slog.LevelError, "handler panicked",
				slog.Any("recover", rec), slog.String("method", req.Method), slog.String("path", req.Path()))
			res.SetStatus(http.StatusInternalServerError)
		}
		if ctrl != nil && ctrl.Fused() {
			return
		}
		s.runCatchers(req, depot, res)
	}()

	chain := s.Hoops
	matched, ok := s.Router.Detect(req)
	if ok {
		req.setPathParams(matched.Params)
		chain = append(append([]Handler{}, s.Hoops...), matched.Handlers...)
	}

	ctrl = newFlowCtrl(chain)
	select {
	case <-ctx.Done():
		ctrl.MarkFused()
		return
	default:
	}
	// Kick off the chain with exactly one CallNext; propagation past the
	// first handler is each handler's own responsibility (spec §4.5's onion
	// model — a hoop that returns without calling ctrl.CallNext stops the
	// chain there, the way requestid.go and an ordinary auth hoop assume).
	ctrl.CallNext(req, depot, res)
}

// runCatchers runs each registered catcher in order, stopping at the first
// whose predicate accepts the response (spec §4.6 step 4).
func (s *Service) runCatchers(req *Request, depot *Depot, res *Response) {
	for _, c := range s.Catchers {
		if c.Predicate(res) {
			c.Handle(req, depot, res)
			return
		}
	}
}

// applyAllowedMedia rewrites the response to 406 if its Content-Type does
// not match any of s.AllowedMedia (spec §4.6 step 5).
func (s *Service) applyAllowedMedia(req *Request, res *Response) {
	if len(s.AllowedMedia) == 0 {
		return
	}
	contentType := res.Header.Get("Content-Type")
	for _, allowed := range s.AllowedMedia {
		if strings.HasPrefix(contentType, allowed) {
			return
		}
	}
	s.writer().Write(req, res, http.StatusNotAcceptable, nil)
}

func (s *Service) writer() *Writer {
	if s.Writer != nil {
		return s.Writer
	}
	return DefaultWriter
}
