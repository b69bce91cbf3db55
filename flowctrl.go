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

// FlowCtrl is the mutable context threaded through every handler call of one
// request (spec §3/§4.5). It owns the handler chain and a cursor; index
// monotonically increases across CallNext invocations unless CallNextFor
// explicitly repositions it.
type FlowCtrl struct {
	chain     []Handler
	index     int
	ceased    bool
	skipMarks int
	fused     bool
}

// newFlowCtrl builds a FlowCtrl over chain, positioned before the first
// handler.
func newFlowCtrl(chain []Handler) *FlowCtrl {
	return &FlowCtrl{chain: chain, index: -1}
}

// CallNext advances the cursor and invokes the next handler, returning true
// if a handler ran. It returns false once the chain is exhausted, once
// Ceased is set, or once a pending SkipRest mark has consumed the
// remaining siblings (spec §4.5: "the current handler continues to run to
// completion; only subsequent siblings are skipped").
func (c *FlowCtrl) CallNext(req *Request, depot *Depot, res *Response) bool {
	if c.ceased || c.fused {
		return false
	}
	if c.skipMarks > 0 {
		c.skipMarks--
		return false
	}
	c.index++
	if c.index >= len(c.chain) {
		return false
	}
	return c.invoke(req, depot, res)
}

func (c *FlowCtrl) invoke(req *Request, depot *Depot, res *Response) bool {
	if c.index < 0 || c.index >= len(c.chain) {
		return false
	}
	h := c.chain[c.index]
	h.Handle(req, depot, res, c)
	return true
}

// HasNext reports whether a handler remains to be run via CallNext.
func (c *FlowCtrl) HasNext() bool {
	return !c.ceased && !c.fused && c.skipMarks == 0 && c.index+1 < len(c.chain)
}

// SkipRest marks that once control returns to the caller of the current
// handler, the next CallNext call should be skipped rather than advancing
// into a sibling (spec boundary case: "A skip_rest() call by a hoop causes
// the goal not to run").
func (c *FlowCtrl) SkipRest() {
	c.skipMarks++
}

// Cease marks the chain as permanently finished: all further CallNext calls
// return false regardless of position. Nothing in this module calls it;
// it is for handlers that must not let a partially-run chain continue.
func (c *FlowCtrl) Cease() {
	c.ceased = true
}

// Ceased reports whether Cease has been called.
func (c *FlowCtrl) Ceased() bool {
	return c.ceased
}

// MarkFused records that the connection's fuse tripped mid-chain; CallNext
// behaves as if Ceased were set, and Service.Handle skips catcher
// post-processing since no response will be written.
func (c *FlowCtrl) MarkFused() {
	c.fused = true
}

// Fused reports whether MarkFused has been called.
func (c *FlowCtrl) Fused() bool {
	return c.fused
}

// CallNextFor jumps the cursor to the handler named name (matched against
// handlerName, see handler.go) and invokes it, regardless of direction;
// the cursor may move backwards (spec §4.5: "cursor can move backwards").
// It returns ErrNoHandlerWithName if no handler in the chain has that name.
func (c *FlowCtrl) CallNextFor(req *Request, depot *Depot, res *Response, name string) error {
	for i, h := range c.chain {
		if handlerName(h) == name {
			c.index = i
			c.invoke(req, depot, res)
			return nil
		}
	}
	return ErrNoHandlerWithName
}

// Len reports the total number of handlers in the chain (used by tests
// asserting the chain-length invariant, spec §8).
func (c *FlowCtrl) Len() int {
	return len(c.chain)
}
