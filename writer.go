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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusError pairs an HTTP status code with a message, the concrete error
// type Writer.Write recognizes for its Details (spec §7: "A handler may
// return an error which the framework converts into a status-code response
// via the Writer contract"), grounded on the source's http_error.rs
// StatusError/StatusCode pairing.
type StatusError struct {
	Status  int
	Message string
	Details map[string]any
}

// NewStatusError builds a StatusError for status with message.
func NewStatusError(status int, message string) *StatusError {
	return &StatusError{Status: status, Message: message}
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// Writer converts an error into a response body, negotiating the format
// via the request's Accept header (spec §7: "catchers then finalize the
// body (HTML/JSON/XML/plain per Accept header negotiation)"). This mirrors
// the three-formatter shape of the errors submodule (simple JSON, RFC 9457
// problem+json, JSON:API) collapsed to the three encodings this core ships
// out of the box: JSON, HTML and plain text. XML is not rendered; an
// Accept of application/xml gets the JSON body. Additional formats are
// ordinary handlers layered on top.
type Writer struct {
	// HTMLTemplate renders an HTML error page; nil uses a minimal built-in
	// template.
	HTMLTemplate func(status int, message string) []byte
}

// DefaultWriter is the Writer the built-in catchers always use, and the one
// Service uses for its 406 rewrite when Service.Writer is nil.
var DefaultWriter = &Writer{}

// Write renders err onto res, selecting a body encoding from req's Accept
// header: "text/html" renders an HTML page; "text/plain" renders plain
// text; anything else, including no Accept header, renders a simple JSON
// object `{"error": message}`.
func (w *Writer) Write(req *Request, res *Response, status int, err error) {
	res.SetStatus(status)
	message := http.StatusText(status)
	var details map[string]any
	if err != nil {
		message = err.Error()
		if se, ok := err.(*StatusError); ok {
			details = se.Details
		}
	}

	accept := ""
	if req != nil {
		accept = req.Header.Get("Accept")
	}

	switch {
	case strings.Contains(accept, "text/html"):
		res.Header.Set("Content-Type", "text/html; charset=utf-8")
		res.SetBody(BodyOnce(w.renderHTML(status, message)))
	case strings.Contains(accept, "text/plain"):
		res.Header.Set("Content-Type", "text/plain; charset=utf-8")
		res.SetBody(BodyOnce([]byte(message)))
	default:
		res.Header.Set("Content-Type", "application/json; charset=utf-8")
		body := map[string]any{"error": message}
		if details != nil {
			body["details"] = details
		}
		encoded, encErr := json.Marshal(body)
		if encErr != nil {
			encoded = []byte(`{"error":"internal error"}`)
		}
		res.SetBody(BodyOnce(encoded))
	}
	res.SetStatus(status)
}

func (w *Writer) renderHTML(status int, message string) []byte {
	if w.HTMLTemplate != nil {
		return w.HTMLTemplate(status, message)
	}
	return []byte(fmt.Sprintf(
		"<!DOCTYPE html><html><head><title>%d %s</title></head><body><h1>%d %s</h1><p>%s</p></body></html>",
		status, http.StatusText(status), status, http.StatusText(status), message,
	))
}
