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
	"strings"

	"github.com/rivaas-dev/fusecore/internal/compiler"
)

// routerNode is one node of the route tree (spec §3): an ordered list of
// filters, an ordered list of hoops applied to the subtree rooted here, an
// optional terminal goal handler, and an ordered list of children.
type routerNode struct {
	filters  []Filter
	hoops    []Handler
	goal     Handler
	children []int
}

// routerArena backs one or more Router trees. Nodes are indexed by integers
// rather than linked by pointer (spec §9: "since the tree is immutable
// after construction, the canonical implementation is an arena of nodes
// indexed by integers... this avoids per-node heap allocation and enables
// cache-friendly traversal"). The arena is mutated only during
// construction; Service treats a Router as immutable once serving begins.
type routerArena struct {
	nodes []routerNode
}

func (a *routerArena) alloc() int {
	a.nodes = append(a.nodes, routerNode{})
	return len(a.nodes) - 1
}

// Router is a node handle into a routerArena: the public, chainable
// construction surface described in spec §6.
type Router struct {
	arena *routerArena
	idx   int
}

// NewRouter creates a fresh, empty router node with its own arena.
func NewRouter() *Router {
	a := &routerArena{}
	idx := a.alloc()
	return &Router{arena: a, idx: idx}
}

func (r *Router) node() *routerNode {
	return &r.arena.nodes[r.idx]
}

// WithPath compiles pattern and adds it as a path filter on this node. It
// panics on an invalid pattern, the same "infallible convenience
// constructor" convention as conn.MustBind (spec §4.1); use TryWithPath for
// the fallible form.
func (r *Router) WithPath(pattern string) *Router {
	if err := r.TryWithPath(pattern); err != nil {
		panic(err)
	}
	return r
}

// TryWithPath compiles pattern and adds it as a path filter, returning an
// error (rather than panicking) if the pattern is malformed. Pattern
// compilation happens here, at construction time, never at serving time
// (spec §7).
func (r *Router) TryWithPath(pattern string) error {
	pf, err := newPathFilter(pattern)
	if err != nil {
		return err
	}
	n := r.node()
	n.filters = append(n.filters, pf)
	return nil
}

// Filter appends a custom Filter to this node's filter list.
func (r *Router) Filter(f Filter) *Router {
	n := r.node()
	n.filters = append(n.filters, f)
	return r
}

// FilterFunc appends an arbitrary predicate as a Filter.
func (r *Router) FilterFunc(fn PredicateFunc) *Router {
	return r.Filter(predicateFilter{fn: fn})
}

// Host restricts this node to requests addressed to host.
func (r *Router) Host(host string) *Router {
	return r.Filter(hostFilter{host: host})
}

// Hoop appends a middleware handler to this node's subtree.
func (r *Router) Hoop(h Handler) *Router {
	n := r.node()
	n.hoops = append(n.hoops, h)
	return r
}

// Goal sets this node's terminal handler. Setting a second goal on the same
// node is a construction-time error, since a node has exactly zero or one
// goal (spec §3).
func (r *Router) Goal(h Handler) *Router {
	n := r.node()
	if n.goal != nil {
		panic(ErrRouterAlreadyGoal)
	}
	n.goal = h
	return r
}

// Push attaches child as a child of this node, merging child's arena into
// this router's arena if they are not already the same (Router values
// built independently via separate NewRouter calls each start with their
// own arena; Push is where trees are assembled together).
func (r *Router) Push(child *Router) *Router {
	childRoot := child.idx
	if child.arena != r.arena {
		childRoot = r.mergeArena(child.arena, child.idx)
	}
	n := r.node()
	n.children = append(n.children, childRoot)
	return r
}

// mergeArena copies every node of other into r's arena, offsetting indices
// so internal parent/child references remain valid, and returns the new
// index corresponding to otherRoot.
func (r *Router) mergeArena(other *routerArena, otherRoot int) int {
	offset := len(r.arena.nodes)
	for _, n := range other.nodes {
		children := make([]int, len(n.children))
		for i, c := range n.children {
			children[i] = c + offset
		}
		r.arena.nodes = append(r.arena.nodes, routerNode{
			filters:  n.filters,
			hoops:    n.hoops,
			goal:     n.goal,
			children: children,
		})
	}
	return otherRoot + offset
}

// method-shorthand routes (spec §6): each sets a method filter plus the
// goal handler directly on this node, the common single-method-per-path
// shape used throughout the spec's concrete scenarios. A path that must
// serve more than one method pushes one sibling Router per method instead.

// Get registers h as the GET handler for this node.
func (r *Router) Get(h Handler) *Router { return r.method(http.MethodGet, h) }

// Post registers h as the POST handler for this node.
func (r *Router) Post(h Handler) *Router { return r.method(http.MethodPost, h) }

// Put registers h as the PUT handler for this node.
func (r *Router) Put(h Handler) *Router { return r.method(http.MethodPut, h) }

// Delete registers h as the DELETE handler for this node.
func (r *Router) Delete(h Handler) *Router { return r.method(http.MethodDelete, h) }

// Patch registers h as the PATCH handler for this node.
func (r *Router) Patch(h Handler) *Router { return r.method(http.MethodPatch, h) }

// Head registers h as the explicit HEAD handler for this node, overriding
// the automatic HEAD-matches-GET fallback (spec §4.4.4).
func (r *Router) Head(h Handler) *Router { return r.method(http.MethodHead, h) }

// Options registers h as the OPTIONS handler for this node.
func (r *Router) Options(h Handler) *Router { return r.method(http.MethodOptions, h) }

func (r *Router) method(verb string, h Handler) *Router {
	n := r.node()
	n.filters = append(n.filters, methodFilter{method: verb})
	if n.goal != nil {
		panic(ErrRouterAlreadyGoal)
	}
	n.goal = h
	return r
}

// DetectMatched is the result of a successful route (spec §2: "DetectMatched{
// handlers, goal, params }"): the full handler chain (ancestor hoops
// followed by the goal) and the path parameters captured along the way.
type DetectMatched struct {
	Handlers []Handler
	Params   map[string]string
}

// Detect runs the route-selection algorithm of spec §4.4.3 against req,
// returning the matched handler chain and captured parameters, or false if
// no route matches. If the method is HEAD and no route matches, Detect
// retries as GET (spec §4.4.4): the underlying net/http server already
// discards response bodies on HEAD requests, so no explicit body-stripping
// step is needed here.
func (r *Router) Detect(req *Request) (DetectMatched, bool) {
	path := trimLeadingSlash(req.Path())
	chain, params, ok := r.detectNode(r.idx, req, path, nil)
	if !ok && req.Method == http.MethodHead {
		original := req.Method
		req.Method = http.MethodGet
		chain, params, ok = r.detectNode(r.idx, req, path, nil)
		req.Method = original
	}
	if !ok {
		return DetectMatched{}, false
	}
	paramMap := make(map[string]string, len(params))
	for _, p := range params {
		paramMap[p.Name] = p.Value
	}
	return DetectMatched{Handlers: chain, Params: paramMap}, true
}

// detectNode implements one recursive step of spec §4.4.3's algorithm.
func (r *Router) detectNode(idx int, req *Request, remaining string, chain []Handler) ([]Handler, []compiler.Param, bool) {
	n := &r.arena.nodes[idx]

	var params []compiler.Param
	for _, f := range n.filters {
		outcome := f.evaluate(req, remaining)
		if !outcome.accepted {
			return nil, nil, false
		}
		if outcome.consumed > 0 {
			remaining = trimLeadingSlash(remaining[outcome.consumed:])
		}
		params = append(params, outcome.params...)
	}

	extended := chain
	if len(n.hoops) > 0 {
		extended = make([]Handler, 0, len(chain)+len(n.hoops))
		extended = append(extended, chain...)
		extended = append(extended, n.hoops...)
	}

	for _, childIdx := range n.children {
		if !r.mayMatchChild(childIdx, remaining) {
			continue
		}
		if childChain, childParams, ok := r.detectNode(childIdx, req, remaining, extended); ok {
			return childChain, append(params, childParams...), true
		}
	}

	if n.goal != nil && remaining == "" {
		final := make([]Handler, 0, len(extended)+1)
		final = append(final, extended...)
		final = append(final, n.goal)
		return final, params, true
	}
	return nil, nil, false
}

// mayMatchChild is the first-segment index of spec §9: a cheap reject of
// childIdx before running its full filter chain, using pathFilter's leading
// static text (filter.go's firstLiteral). A child whose first filter is not
// a path filter, or whose path filter starts with a param/wildcard, always
// falls through to the full match; one that starts with literal text can
// only ever match remaining's leading segment, so a mismatch here is
// conclusive and skips detectNode's recursive descent entirely.
func (r *Router) mayMatchChild(childIdx int, remaining string) bool {
	child := &r.arena.nodes[childIdx]
	if len(child.filters) == 0 {
		return true
	}
	pf, ok := child.filters[0].(*pathFilter)
	if !ok {
		return true
	}
	literal, _ := pf.firstLiteral()
	if literal == "" {
		return true
	}
	seg := remaining
	if i := strings.IndexByte(seg, '/'); i != -1 {
		seg = seg[:i]
	}
	return seg == literal
}
