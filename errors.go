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

import "errors"

// Sentinel errors declared by this package. Callers should compare with
// errors.Is, since some are wrapped with additional context (e.g. the
// compiler's description of a bad pattern). ErrBodyTooLarge,
// ErrWildcardNotLast, ErrUnknownPathFilter, ErrListenerClosed,
// ErrResponseNotHijack, ErrFused, ErrServerNotRunning and ErrServerStopped
// are not returned by any code in this module.
var (
	// ErrBodyAlreadyTaken is returned by Request.Body when the body has
	// already been consumed once (spec §3 single-consumer invariant).
	ErrBodyAlreadyTaken = errors.New("fusecore: request body already taken")
	// ErrBodyTooLarge names a body that exceeds a configured limit; no body
	// limit exists in this module.
	ErrBodyTooLarge = errors.New("fusecore: request body exceeds configured limit")

	// ErrInvalidPattern is returned at Router construction time for a
	// malformed path filter pattern, wrapping the compiler's own error.
	ErrInvalidPattern = errors.New("fusecore: invalid path filter pattern")
	// ErrWildcardNotLast names a wildcard segment that is not the final
	// segment of a pattern; the compiler reports that case as an
	// ErrInvalidPattern error that does not wrap ErrWildcardNotLast.
	ErrWildcardNotLast = errors.New("fusecore: wildcard segment must be the last segment")
	// ErrRouterAlreadyGoal is returned when a second goal handler is
	// registered on a node that already has one.
	ErrRouterAlreadyGoal = errors.New("fusecore: router node already has a goal handler")
	// ErrUnknownPathFilter names a pattern that references an unregistered
	// named filter; the compiler does not return it, and compiles an
	// unregistered name as an inline regex instead.
	ErrUnknownPathFilter = errors.New("fusecore: unknown named path filter")
	// ErrNoHandlerWithName is returned by FlowCtrl.CallNextFor when no
	// handler in the chain has the requested name.
	ErrNoHandlerWithName = errors.New("fusecore: no handler with that type name in the chain")

	// ErrNoTLSConfig is the handshake error of a TLS adapter, and the Bind
	// error of a QUICListener, when no config has been published on the
	// TLSConfigSource.
	ErrNoTLSConfig = errors.New("fusecore: no TLS config available")
	// ErrListenerClosed names a closed Listener; no Listener returns it.
	ErrListenerClosed = errors.New("fusecore: listener closed")
	// ErrAcceptorClosed is returned by an Acceptor once it has been closed.
	ErrAcceptorClosed = errors.New("fusecore: acceptor closed")
	// ErrResponseNotHijack names a driver that does not support hijacking
	// (e.g. HTTP/2, HTTP/3); Response has no Hijack method.
	ErrResponseNotHijack = errors.New("fusecore: response writer does not support hijacking")

	// ErrFused names a connection whose fuse tripped mid-request; a fused
	// chain is stopped through FlowCtrl.MarkFused, not through this error.
	ErrFused = errors.New("fusecore: connection fused (watchdog tripped)")

	// ErrServerNotRunning names a stop operation on a server that was never
	// started; server.Server's stop methods return nothing.
	ErrServerNotRunning = errors.New("fusecore: server is not running")
	// ErrServerStopped names an operation attempted after a server has
	// already fully stopped; nothing in this module returns it.
	ErrServerStopped = errors.New("fusecore: server already stopped")
)
