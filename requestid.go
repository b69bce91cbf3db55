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

import "github.com/google/uuid"

// RequestIDHeader is the default header used to carry and echo a request's
// correlation ID, matching the teacher's requestid middleware default.
const RequestIDHeader = "X-Request-ID"

const requestIDDepotKey = "fusecore.request_id"

// RequestIDHoop is a built-in Hoop (spec §4.5 middleware vocabulary) that
// assigns every request a correlation ID: it reuses a client-supplied
// X-Request-ID header when AllowClientID is set, otherwise generates a
// random UUIDv4, echoes it on the response, and stores it on the Depot for
// downstream hoops and goals (grounded on the teacher's
// router/middleware/requestid package, generalized from one generator
// function option to a fixed github.com/google/uuid generator — the
// teacher's own doc comment names uuid.New().String() as the drop-in
// replacement for its default hex-random generator).
type RequestIDHoop struct {
	// Header overrides RequestIDHeader when non-empty.
	Header string
	// AllowClientID reuses an inbound header value instead of always
	// generating a fresh one.
	AllowClientID bool
}

// Handle implements Handler.
func (h RequestIDHoop) Handle(req *Request, depot *Depot, res *Response, ctrl *FlowCtrl) {
	header := h.Header
	if header == "" {
		header = RequestIDHeader
	}

	var id string
	if h.AllowClientID {
		id = req.Header.Get(header)
	}
	if id == "" {
		id = uuid.New().String()
	}

	res.Header.Set(header, id)
	depot.Set(requestIDDepotKey, id)
	ctrl.CallNext(req, depot, res)
}

// RequestID retrieves the request ID RequestIDHoop stored on depot, or ""
// if the hoop was never installed.
func RequestID(depot *Depot) string {
	v, ok := depot.Get(requestIDDepotKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
