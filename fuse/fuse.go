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

// Package fuse implements the connection watchdog (slow-loris guard): a
// per-connection timer set that trips independently of the HTTP driver
// when a connection goes idle, stalls mid-frame, or stalls mid-handshake.
//
// Package fuse intentionally has no dependency on the root fusecore
// package (it defines its own minimal Transport tag rather than importing
// fusecore.Transport) so that conn, which depends on both, remains the
// only place the two vocabularies meet.
package fuse

import (
	"sync"
	"sync/atomic"
	"time"
)

// Transport tags the wire-level transport of a connection, used only to
// let the built-in SkipQUIC guard exempt QUIC connections (which carry
// their own transport-level keepalive) from idle/frame timeout logic.
type Transport uint8

const (
	// TransportUnspecified is used when the transport does not matter.
	TransportUnspecified Transport = iota
	// TransportTCP tags a TCP-carried connection.
	TransportTCP
	// TransportQUIC tags a QUIC-carried connection.
	TransportQUIC
)

// Event is one of the signals a coupler emits to a Fusewire (spec §4.7.1).
type Event uint8

const (
	// EventTLSHandshaking fires when a TLS handshake begins.
	EventTLSHandshaking Event = iota
	// EventTLSHandshaked fires when a TLS handshake completes.
	EventTLSHandshaked
	// EventWaitFrame fires when the driver begins waiting for the next
	// HTTP frame/chunk.
	EventWaitFrame
	// EventGainFrame fires when a complete frame/chunk has been received.
	EventGainFrame
	// EventReadData fires on arbitrary inbound I/O activity.
	EventReadData
	// EventWriteData fires on arbitrary outbound I/O activity.
	EventWriteData
)

// String renders the event name for logging.
func (e Event) String() string {
	switch e {
	case EventTLSHandshaking:
		return "tls_handshaking"
	case EventTLSHandshaked:
		return "tls_handshaked"
	case EventWaitFrame:
		return "wait_frame"
	case EventGainFrame:
		return "gain_frame"
	case EventReadData:
		return "read_data"
	case EventWriteData:
		return "write_data"
	default:
		return "unknown"
	}
}

// Verdict is a Guard's answer for one event (spec §4.7.3).
type Verdict uint8

const (
	// ToNext defers to the next guard in the chain; the default if no
	// guard remains.
	ToNext Verdict = iota
	// Permit bypasses timeout logic for this event entirely.
	Permit
	// Reject trips the fuse immediately.
	Reject
)

// Guard is consulted, in order, before a Fusewire applies its own timeout
// logic to an event.
type Guard interface {
	Check(event Event, transport Transport) Verdict
}

// GuardFunc adapts a plain function to Guard.
type GuardFunc func(event Event, transport Transport) Verdict

// Check calls f.
func (f GuardFunc) Check(event Event, transport Transport) Verdict { return f(event, transport) }

// SkipQUIC is the built-in guard of spec §4.7.3: "permits all events on
// QUIC connections, which have their own transport-level keepalive".
var SkipQUIC Guard = GuardFunc(func(event Event, transport Transport) Verdict {
	if transport == TransportQUIC {
		return Permit
	}
	return ToNext
})

// Fusewire is the per-connection watchdog (spec §3/§4.7): three
// independent cancellable deadlines — idle, frame, and TLS handshake — any
// one of which trips the fuse.
type Fusewire struct {
	transport Transport
	guards    []Guard

	idleTimeout      time.Duration
	frameTimeout     time.Duration
	handshakeTimeout time.Duration

	mu             sync.Mutex
	idleTimer      *time.Timer
	frameTimer     *time.Timer
	handshakeTimer *time.Timer

	tripped   atomic.Bool
	fusedCh   chan struct{}
	fusedOnce sync.Once
}

// newFusewire builds a Fusewire armed with an idle timer; frame and
// handshake timers arm lazily on their first WaitFrame/TlsHandshaking
// event. guards is a snapshot taken at creation time (see FlexFactory),
// matching the concurrency model's "a guard list is read-shared via
// reference-counted pointer to an immutable list".
func newFusewire(transport Transport, guards []Guard, idle, frame, handshake time.Duration) *Fusewire {
	fw := &Fusewire{
		transport:        transport,
		guards:           guards,
		idleTimeout:      idle,
		frameTimeout:     frame,
		handshakeTimeout: handshake,
		fusedCh:          make(chan struct{}),
	}
	fw.idleTimer = time.AfterFunc(idle, fw.trip)
	return fw
}

func (fw *Fusewire) trip() {
	fw.fusedOnce.Do(func() {
		fw.tripped.Store(true)
		close(fw.fusedCh)
	})
}

// Fused returns a channel that closes once the watchdog has tripped,
// analogous to context.Context.Done(); the server's accept loop races this
// against the connection future (spec §4.8).
func (fw *Fusewire) Fused() <-chan struct{} { return fw.fusedCh }

// Tripped reports whether the fuse has tripped.
func (fw *Fusewire) Tripped() bool { return fw.tripped.Load() }

// Emit records one coupler event, consulting guards before applying
// timeout logic (spec §4.7.3). Any event resets the idle timer unless a
// guard permitted it outright.
func (fw *Fusewire) Emit(event Event) {
	for _, g := range fw.guards {
		switch g.Check(event, fw.transport) {
		case Permit:
			return
		case Reject:
			fw.trip()
			return
		case ToNext:
			continue
		}
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.tripped.Load() {
		return
	}
	fw.idleTimer.Reset(fw.idleTimeout)
	switch event {
	case EventWaitFrame:
		if fw.frameTimer == nil {
			fw.frameTimer = time.AfterFunc(fw.frameTimeout, fw.trip)
		} else {
			fw.frameTimer.Reset(fw.frameTimeout)
		}
	case EventGainFrame:
		if fw.frameTimer != nil {
			fw.frameTimer.Stop()
		}
	case EventTLSHandshaking:
		if fw.handshakeTimer == nil {
			fw.handshakeTimer = time.AfterFunc(fw.handshakeTimeout, fw.trip)
		} else {
			fw.handshakeTimer.Reset(fw.handshakeTimeout)
		}
	case EventTLSHandshaked:
		if fw.handshakeTimer != nil {
			fw.handshakeTimer.Stop()
		}
	}
}

// Close stops all timers without tripping the fuse, for a connection that
// closed normally.
func (fw *Fusewire) Close() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.idleTimer.Stop()
	if fw.frameTimer != nil {
		fw.frameTimer.Stop()
	}
	if fw.handshakeTimer != nil {
		fw.handshakeTimer.Stop()
	}
}

// Factory creates a Fusewire per accepted connection (spec §4.1:
// "accept(fuse_factory) ... creates a Fusewire via the factory").
type Factory interface {
	NewFusewire(transport Transport) *Fusewire
}

// FlexFactory is the default watchdog factory (spec §4.7.2), with the
// three deadlines defaulting to 30s/60s/10s.
type FlexFactory struct {
	IdleTimeout      time.Duration
	FrameTimeout     time.Duration
	HandshakeTimeout time.Duration

	guards atomic.Pointer[[]Guard]
}

// NewFlexFactory builds a FlexFactory with the spec's default deadlines and
// an empty guard list.
func NewFlexFactory() *FlexFactory {
	f := &FlexFactory{
		IdleTimeout:      30 * time.Second,
		FrameTimeout:     60 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
	empty := []Guard{}
	f.guards.Store(&empty)
	return f
}

// AddGuard appends g to the factory's guard list via copy-on-write. This is
// safe to call even after the factory has started handing out Fusewires to
// live connections — resolving the source's "Arc::get_mut panics if the
// guard list is already shared" hazard (spec §9 Open Question 2) by never
// requiring exclusive access to begin with; connections created before the
// call keep their own snapshot, connections created after see the new
// guard.
func (f *FlexFactory) AddGuard(g Guard) {
	for {
		old := f.guards.Load()
		next := make([]Guard, len(*old)+1)
		copy(next, *old)
		next[len(*old)] = g
		if f.guards.CompareAndSwap(old, &next) {
			return
		}
	}
}

// NewFusewire implements Factory.
func (f *FlexFactory) NewFusewire(transport Transport) *Fusewire {
	guards := *f.guards.Load()
	return newFusewire(transport, guards, f.IdleTimeout, f.FrameTimeout, f.HandshakeTimeout)
}
