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

package conn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPListener_BindAcceptRoundTrip(t *testing.T) {
	ln := TCPListener{Addr: "127.0.0.1:0"}
	acceptor, err := ln.Bind(context.Background())
	require.NoError(t, err)
	defer acceptor.Close()

	holdings := acceptor.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, "http", holdings[0].Scheme)
	assert.NotZero(t, holdings[0].Local.Port)

	client, err := net.Dial("tcp", holdings[0].Local.String())
	require.NoError(t, err)
	defer client.Close()

	accepted, err := acceptor.Accept(context.Background(), nil)
	require.NoError(t, err)
	defer accepted.Stream.Close()

	assert.Equal(t, "http", accepted.Scheme)
	assert.NotNil(t, accepted.Coupler)
	assert.Nil(t, accepted.Fusewire, "a nil fuse.Factory must disable fuse tracking")
}

func TestTCPListener_AcceptRespectsContextCancellation(t *testing.T) {
	ln := TCPListener{Addr: "127.0.0.1:0"}
	acceptor, err := ln.Bind(context.Background())
	require.NoError(t, err)
	defer acceptor.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = acceptor.Accept(ctx, nil)
	assert.Error(t, err)
}

func TestJoinedListener_FansInFromEitherChild(t *testing.T) {
	lnA := TCPListener{Addr: "127.0.0.1:0"}
	lnB := TCPListener{Addr: "127.0.0.1:0"}
	joined := Join(lnA, lnB)

	acceptor, err := joined.Bind(context.Background())
	require.NoError(t, err)
	defer acceptor.Close()

	holdings := acceptor.Holdings()
	require.Len(t, holdings, 2)

	client, err := net.Dial("tcp", holdings[1].Local.String())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	accepted, err := acceptor.Accept(ctx, nil)
	require.NoError(t, err)
	defer accepted.Stream.Close()
}

func TestUnixListener_BindAcceptRoundTrip(t *testing.T) {
	path := t.TempDir() + "/fusecore-test.sock"
	ln := UnixListener{Path: path}
	acceptor, err := ln.Bind(context.Background())
	require.NoError(t, err)
	defer acceptor.Close()

	holdings := acceptor.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, "http+unix", holdings[0].Scheme)

	client, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer client.Close()

	accepted, err := acceptor.Accept(context.Background(), nil)
	require.NoError(t, err)
	defer accepted.Stream.Close()
}
