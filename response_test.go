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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponse_NewResponseHasNoStatus(t *testing.T) {
	res := NewResponse()
	assert.Equal(t, 0, res.Status())
	assert.False(t, res.HasStatus())
	assert.False(t, res.HasBody())
}

func TestResponse_SetBodyDefaultsStatusTo200(t *testing.T) {
	res := NewResponse()
	res.SetBody(BodyOnce([]byte("hi")))
	assert.Equal(t, http.StatusOK, res.Status())
}

func TestResponse_SetBodyDoesNotOverrideExplicitStatus(t *testing.T) {
	res := NewResponse()
	res.SetStatus(http.StatusCreated)
	res.SetBody(BodyOnce([]byte("hi")))
	assert.Equal(t, http.StatusCreated, res.Status())
}

func TestResponse_IsErrorTracksStatus(t *testing.T) {
	res := NewResponse()
	assert.False(t, res.IsError())
	res.SetStatus(http.StatusNotFound)
	assert.True(t, res.IsError())
	res.SetStatus(http.StatusOK)
	assert.False(t, res.IsError())
}

func TestResponse_HasBodyReflectsCurrentBody(t *testing.T) {
	res := NewResponse()
	assert.False(t, res.HasBody())
	res.SetBody(BodyOnce([]byte("x")))
	assert.True(t, res.HasBody())
}
