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

// CookieJar collects cookies a handler adds to a Response. It is flushed
// into "Set-Cookie" headers exactly once by Service.Handle (spec §4.6 step
// 6), matching the "Cookie jar" round-trip property in spec §8: "A cookie
// added by a handler appears as a Set-Cookie header on the final response
// exactly once."
type CookieJar struct {
	cookies []*http.Cookie
}

// Add appends a cookie to the jar. Adding a cookie with the same name twice
// appends two Set-Cookie headers (the standard HTTP cookie multiplicity
// rule) rather than replacing the earlier one; the jar has no remove or
// replace operation.
func (j *CookieJar) Add(c *http.Cookie) {
	j.cookies = append(j.cookies, c)
}

// All returns every cookie added so far, in insertion order.
func (j *CookieJar) All() []*http.Cookie {
	return j.cookies
}

// flushTo writes every cookie in the jar as a Set-Cookie header on h.
func (j *CookieJar) flushTo(h http.Header) {
	for _, c := range j.cookies {
		h.Add("Set-Cookie", c.String())
	}
}
