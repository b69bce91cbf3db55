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

package compiler

import "strings"

// Param is one captured path parameter.
type Param struct {
	Name  string
	Value string
}

// Result reports the outcome of matching a remaining URL path against a
// compiled segment list (spec §4.4.2): whether it matched, how many bytes of
// the path it consumed (so a parent router node can hand the remainder to
// its children), and the parameters it captured.
type Result struct {
	Matched  bool
	Consumed int
	Params   []Param
}

// Match walks path (which never starts with a leading "/" consumed by the
// parent already stripped it, or is the full request path for a root-level
// filter) against segments in order. Ordinary segments consume up to the
// next '/'; "{*name}" requires at least one character; "{**name}" may
// consume zero.
func Match(segments []Segment, path string) Result {
	remaining := strings.TrimPrefix(path, "/")
	consumedPrefix := len(path) - len(remaining)
	var params []Param

	for i, seg := range segments {
		switch seg.Kind {
		case KindWildcardAny:
			params = append(params, Param{Name: seg.Name, Value: remaining})
			return Result{Matched: true, Consumed: consumedPrefix + len(remaining), Params: params}
		case KindWildcardOne:
			if remaining == "" {
				return Result{Matched: false}
			}
			params = append(params, Param{Name: seg.Name, Value: remaining})
			return Result{Matched: true, Consumed: consumedPrefix + len(remaining), Params: params}
		}

		var segText string
		slash := strings.IndexByte(remaining, '/')
		if slash == -1 {
			segText = remaining
		} else {
			segText = remaining[:slash]
		}
		if segText == "" {
			return Result{Matched: false}
		}

		switch seg.Kind {
		case KindLiteral:
			if segText != seg.Literal {
				return Result{Matched: false}
			}
		case KindParam:
			params = append(params, Param{Name: seg.Name, Value: segText})
		case KindRegexParam:
			m := seg.Regex.FindStringSubmatch(segText)
			if m == nil {
				return Result{Matched: false}
			}
			value := segText
			if len(m) > 1 {
				value = m[1]
			}
			params = append(params, Param{Name: seg.Name, Value: value})
		}

		consumedPrefix += len(segText)
		last := i == len(segments)-1
		switch {
		case slash == -1 && !last:
			// path ran out before every segment of this pattern matched
			return Result{Matched: false}
		case slash == -1 && last:
			remaining = ""
		case last:
			// boundary to the next filter/router node: leave the separating
			// '/' for the caller, which trims it before its own match.
			remaining = remaining[slash:]
		default:
			// internal boundary between two segments of the same pattern
			// (e.g. "users/{id}"): consume the separator here.
			consumedPrefix++
			remaining = remaining[slash+1:]
		}
	}
	return Result{Matched: true, Consumed: consumedPrefix, Params: params}
}

// FirstLiteral returns the leading literal text of a compiled pattern (used
// by the router as a per-child first-segment pre-check), and whether the
// whole pattern is static (no params or wildcards at all).
func FirstLiteral(segments []Segment) (literal string, static bool) {
	static = true
	for i, seg := range segments {
		if seg.Kind != KindLiteral {
			static = false
		}
		if i == 0 && seg.Kind == KindLiteral {
			literal = seg.Literal
		}
	}
	return literal, static
}
