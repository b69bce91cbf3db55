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

// CatcherPredicate reports whether a Catcher should run for the response
// produced so far.
type CatcherPredicate func(res *Response) bool

// Catcher is a predicate + handler pair (spec §6): when the final response
// matches Predicate, Handle runs to rewrite the response. Service runs
// catchers in order and stops at the first one whose predicate accepts.
type Catcher struct {
	Predicate CatcherPredicate
	Handle    func(req *Request, depot *Depot, res *Response)
}

// StatusCatcher builds a Catcher that fires when the response's status
// equals status.
func StatusCatcher(status int, handle func(req *Request, depot *Depot, res *Response)) Catcher {
	return Catcher{
		Predicate: func(res *Response) bool { return res.Status() == status },
		Handle:    handle,
	}
}

// defaultNotFoundCatcher fires when the chain produced no body and no
// status (spec §4.5: "If the response has neither body nor status after
// the chain completes, the server renders a 404 via catchers").
func defaultNotFoundCatcher() Catcher {
	return Catcher{
		Predicate: func(res *Response) bool { return !res.HasStatus() && !res.HasBody() },
		Handle: func(req *Request, depot *Depot, res *Response) {
			DefaultWriter.Write(req, res, http.StatusNotFound, nil)
		},
	}
}

// defaultErrorCatcher fires for any response already carrying a 4xx/5xx
// status but no body, rendering a minimal negotiated body for it.
func defaultErrorCatcher() Catcher {
	return Catcher{
		Predicate: func(res *Response) bool { return res.IsError() && !res.HasBody() },
		Handle: func(req *Request, depot *Depot, res *Response) {
			DefaultWriter.Write(req, res, res.Status(), nil)
		},
	}
}
