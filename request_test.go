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
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_BodyTakenOnceThenErrors(t *testing.T) {
	req := NewRequest("POST", &url.URL{Path: "/"})
	req.SetBody(BodyOnce([]byte("payload")))

	b, err := req.Body()
	require.NoError(t, err)
	raw, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(raw))

	_, err = req.Body()
	assert.ErrorIs(t, err, ErrBodyAlreadyTaken)
}

func TestRequest_PathParamRoundTrip(t *testing.T) {
	req := NewRequest("GET", &url.URL{Path: "/"})
	req.setPathParams(map[string]string{"id": "7"})

	v, ok := req.PathParam("id")
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	_, ok = req.PathParam("missing")
	assert.False(t, ok)
}

func TestRequest_QueryIsParsedLazilyAndCached(t *testing.T) {
	u, err := url.Parse("/search?q=go&page=2")
	require.NoError(t, err)
	req := NewRequest("GET", u)

	assert.False(t, req.queryCached)
	assert.Equal(t, "go", req.QueryParam("q"))
	assert.True(t, req.queryCached)
	assert.Equal(t, "2", req.QueryParam("page"))
}

func TestRequest_FormParsesURLEncodedBody(t *testing.T) {
	req := NewRequest("POST", &url.URL{Path: "/"})
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBody(BodyOnce([]byte("name=ada&role=engineer")))

	form, err := req.Form()
	require.NoError(t, err)
	assert.Equal(t, "ada", form.Get("name"))
	assert.Equal(t, "engineer", form.Get("role"))
}

func TestRequest_FormIsEmptyForNonFormContentType(t *testing.T) {
	req := NewRequest("POST", &url.URL{Path: "/"})
	req.Header.Set("Content-Type", "application/json")
	req.SetBody(BodyOnce([]byte(`{"a":1}`)))

	form, err := req.Form()
	require.NoError(t, err)
	assert.Empty(t, form)

	// the body must still be intact since Form() only consumes it for the
	// matching content type.
	b, err := req.Body()
	require.NoError(t, err)
	raw, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(raw))
}

func TestRequest_FormIsCachedAfterFirstCall(t *testing.T) {
	req := NewRequest("POST", &url.URL{Path: "/"})
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBody(BodyOnce([]byte("a=1")))

	first, err := req.Form()
	require.NoError(t, err)
	second, err := req.Form()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRequest_ExtensionsLazilyAllocated(t *testing.T) {
	req := NewRequest("GET", &url.URL{Path: "/"})
	assert.Nil(t, req.extensions)
	ext := req.Extensions()
	require.NotNil(t, ext)
	ext.Set("k", "v")
	v, ok := req.Extensions().Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestRequest_PathDefaultsToSlash(t *testing.T) {
	req := NewRequest("GET", &url.URL{})
	assert.Equal(t, "/", req.Path())
}
