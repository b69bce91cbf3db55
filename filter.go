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
	"fmt"
	"strings"

	"github.com/rivaas-dev/fusecore/internal/compiler"
)

// filterOutcome is what a Filter reports for one request: whether it
// accepts, and if it is a path filter, how much of the remaining path it
// consumed and which parameters it captured.
type filterOutcome struct {
	accepted bool
	consumed int
	params   []compiler.Param
}

// rejected is the shared "no match" outcome.
var rejected = filterOutcome{accepted: false}

// Filter is evaluated against a request and the path remaining to be
// matched; it is the generalization of spec §3's "method filter, path
// filter, host filter, custom predicates" behind one interface so Router
// can hold a single ordered list of them.
type Filter interface {
	evaluate(req *Request, remaining string) filterOutcome
}

// methodFilter accepts requests with an exact HTTP method, with the
// HEAD-matches-GET special case resolved at the Router level (see
// router.go's detect, and spec §4.4.4/§9 Open Question 3: "the driver is
// responsible" — concretely, the goal lookup for HEAD falls back to GET
// when no HEAD route exists).
type methodFilter struct {
	method string
}

func (f methodFilter) evaluate(req *Request, remaining string) filterOutcome {
	if req.Method != f.method {
		return rejected
	}
	return filterOutcome{accepted: true, consumed: 0}
}

// hostFilter accepts requests whose Host header matches exactly.
type hostFilter struct {
	host string
}

func (f hostFilter) evaluate(req *Request, remaining string) filterOutcome {
	if req.Header.Get("Host") != f.host && req.URI.Host != f.host {
		return rejected
	}
	return filterOutcome{accepted: true}
}

// PredicateFunc is an arbitrary custom filter predicate (spec §3: "custom
// predicates"), e.g. matching on a header value or a feature flag in Depot.
type PredicateFunc func(req *Request) bool

type predicateFilter struct {
	fn PredicateFunc
}

func (f predicateFilter) evaluate(req *Request, remaining string) filterOutcome {
	if !f.fn(req) {
		return rejected
	}
	return filterOutcome{accepted: true}
}

// pathFilter wraps a compiled pattern (see internal/compiler) as a Filter,
// consuming a prefix of the remaining URL path on success.
type pathFilter struct {
	pattern  string
	segments []compiler.Segment
}

// newPathFilter compiles pattern at construction time; an invalid pattern
// fails here, never at serving time (spec §7).
func newPathFilter(pattern string) (*pathFilter, error) {
	segments, err := compiler.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return &pathFilter{pattern: pattern, segments: segments}, nil
}

func (f *pathFilter) evaluate(req *Request, remaining string) filterOutcome {
	result := compiler.Match(f.segments, remaining)
	if !result.Matched {
		return rejected
	}
	return filterOutcome{accepted: true, consumed: result.Consumed, params: result.Params}
}

// firstLiteral exposes the filter's leading static text and whether the
// whole pattern is static; Router.mayMatchChild uses the literal to reject
// a child cheaply before evaluating its filters.
func (f *pathFilter) firstLiteral() (literal string, static bool) {
	return compiler.FirstLiteral(f.segments)
}

// trimLeadingSlash is a small shared helper used when handing the
// "remaining path" down from a parent router node to its children.
func trimLeadingSlash(path string) string {
	return strings.TrimPrefix(path, "/")
}
