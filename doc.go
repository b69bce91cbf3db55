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

// Package fusecore is the request-lifecycle engine at the core of an HTTP
// server framework: the machinery that turns an accepted byte stream into a
// fully-served HTTP response.
//
// Four subsystems make up the core:
//
//   - The listener/acceptor/coupler pipeline (package [github.com/rivaas-dev/fusecore/conn])
//     accepts connections, optionally negotiates TLS, and dispatches to an
//     HTTP protocol driver (HTTP/1, HTTP/2, HTTP/3).
//   - The [Router], a tree of path filters and middleware chains that
//     matches an incoming request to an ordered list of handlers.
//   - [FlowCtrl], which runs matched handlers cooperatively with the
//     ability to short-circuit, skip siblings, or call the inner handler
//     recursively.
//   - The connection fuse (package [github.com/rivaas-dev/fusecore/fuse]),
//     which watches every connection for idle, frame-stall, or
//     handshake-stall conditions.
//
// OpenAPI generation, CORS/CSRF/compression/JWT/static-file/multipart
// helpers, ACME issuance, and storage integrations are deliberately out of
// scope: they are ordinary [Handler] implementations built on top of this
// core, not part of it.
//
// # Quick start
//
//	svc := fusecore.NewService(
//		fusecore.NewRouter().
//			Push(fusecore.NewRouter().WithPath("hello").Get(fusecore.HandlerFunc(
//				func(req *fusecore.Request, depot *fusecore.Depot, res *fusecore.Response, ctrl *fusecore.FlowCtrl) {
//					res.SetBody(fusecore.BodyOnce([]byte("Hello World")))
//				},
//			))),
//	)
package fusecore
