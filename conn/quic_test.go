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
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureQUICALPN_AdvertisesH3Only(t *testing.T) {
	base := &tls.Config{NextProtos: []string{"h2", "http/1.1"}}
	alpn := configureQUICALPN(base)

	assert.Equal(t, []string{"h3"}, alpn.NextProtos)
	assert.Equal(t, []string{"h2", "http/1.1"}, base.NextProtos, "must not mutate the source config")
}

func TestQUICListener_BindFailsWithoutTLSConfig(t *testing.T) {
	ln := QUICListener{Addr: "127.0.0.1:0", TLSConfig: NewTLSConfigSource()}
	_, err := ln.Bind(context.Background())
	require.Error(t, err)
}

func TestQUICConnAdapter_StandInMethodsAreInert(t *testing.T) {
	adapter := &quicConnAdapter{}

	_, err := adapter.Read(make([]byte, 4))
	assert.ErrorIs(t, err, net.ErrClosed)

	_, err = adapter.Write([]byte("x"))
	assert.ErrorIs(t, err, net.ErrClosed)

	assert.NoError(t, adapter.SetDeadline(time.Time{}))
	assert.NoError(t, adapter.SetReadDeadline(time.Time{}))
	assert.NoError(t, adapter.SetWriteDeadline(time.Time{}))
}
