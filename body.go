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

import "io"

// BodyKind identifies which variant a Body currently holds (spec §3: "Bodies
// may be: none, once, chunks, hyper, stream").
type BodyKind uint8

const (
	// BodyKindNone means there is no payload.
	BodyKindNone BodyKind = iota
	// BodyKindOnce is fully buffered bytes.
	BodyKindOnce
	// BodyKindChunks is a list of buffered chunks.
	BodyKindChunks
	// BodyKindHyper is a driver-owned streaming body (net/http's Request.Body
	// or an HTTP/2/3 stream reader), read lazily and at most once.
	BodyKindHyper
	// BodyKindStream is a generic async stream of byte chunks supplied by a
	// handler (e.g. a generated response body).
	BodyKindStream
)

// Body is a single-consumer lazy byte stream. It is a value type (not a
// pointer) so Request/Response can embed it directly; Take consumes it,
// leaving the receiver holding BodyKindNone — mirroring spec §3's invariant
// "a body may be taken once; after that body() returns none".
type Body struct {
	kind   BodyKind
	once   []byte
	chunks [][]byte
	reader io.ReadCloser
}

// BodyNone constructs an empty body.
func BodyNone() Body { return Body{kind: BodyKindNone} }

// BodyOnce constructs a fully-buffered body.
func BodyOnce(b []byte) Body { return Body{kind: BodyKindOnce, once: b} }

// BodyChunks constructs a body backed by a list of buffered chunks.
func BodyChunks(chunks [][]byte) Body { return Body{kind: BodyKindChunks, chunks: chunks} }

// BodyHyper constructs a body backed by a driver-owned stream (e.g. the
// underlying net/http request body).
func BodyHyper(r io.ReadCloser) Body { return Body{kind: BodyKindHyper, reader: r} }

// BodyStream constructs a body backed by a generic stream.
func BodyStream(r io.ReadCloser) Body { return Body{kind: BodyKindStream, reader: r} }

// Kind reports which variant is currently held.
func (b Body) Kind() BodyKind { return b.kind }

// IsNone reports whether the body is empty.
func (b Body) IsNone() bool { return b.kind == BodyKindNone }

// Take returns an io.ReadCloser over the body's bytes; b itself is a value
// and is left as it was. Calling Take on an empty Body returns (nil, false).
//
// Request.Body() enforces the "take exactly once" invariant by swapping its
// stored Body for the empty one atomically with the read (see request.go);
// Body.Take itself is a pure, allocation-light conversion with no hidden
// state, so it can be called freely once the caller already owns the Body.
func (b Body) Take() (io.ReadCloser, bool) {
	switch b.kind {
	case BodyKindNone:
		return nil, false
	case BodyKindOnce:
		return io.NopCloser(newByteReader(b.once)), true
	case BodyKindChunks:
		return io.NopCloser(newChunksReader(b.chunks)), true
	case BodyKindHyper, BodyKindStream:
		if b.reader == nil {
			return nil, false
		}
		return b.reader, true
	default:
		return nil, false
	}
}

// Bytes fully drains the body into a single buffer. It is the common case
// for handlers that want the whole payload (JSON, form bodies); streaming
// consumers should use Take directly.
func (b Body) Bytes() ([]byte, error) {
	switch b.kind {
	case BodyKindNone:
		return nil, nil
	case BodyKindOnce:
		return b.once, nil
	}
	r, ok := b.Take()
	if !ok {
		return nil, nil
	}
	defer r.Close()
	return io.ReadAll(r)
}

type byteReader struct {
	b   []byte
	pos int
}

func newByteReader(b []byte) *byteReader { return &byteReader{b: b} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

type chunksReader struct {
	chunks [][]byte
	idx    int
	pos    int
}

func newChunksReader(chunks [][]byte) *chunksReader { return &chunksReader{chunks: chunks} }

func (r *chunksReader) Read(p []byte) (int, error) {
	for r.idx < len(r.chunks) {
		chunk := r.chunks[r.idx]
		if r.pos >= len(chunk) {
			r.idx++
			r.pos = 0
			continue
		}
		n := copy(p, chunk[r.pos:])
		r.pos += n
		return n, nil
	}
	return 0, io.EOF
}
