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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rivaas-dev/fusecore"
	"github.com/rivaas-dev/fusecore/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *fusecore.Service {
	root := fusecore.NewRouter()
	root.Push(fusecore.NewRouter().WithPath("echo").Post(fusecore.HandlerFunc(
		func(req *fusecore.Request, depot *fusecore.Depot, res *fusecore.Response, ctrl *fusecore.FlowCtrl) {
			body, err := req.Body()
			if err != nil {
				res.SetStatus(http.StatusInternalServerError)
				return
			}
			raw, _ := body.Bytes()
			res.SetBody(fusecore.BodyOnce(raw))
		},
	)))
	return fusecore.NewService(root)
}

func TestServiceHandler_RoundTripsBody(t *testing.T) {
	handler := &ServiceHandler{Service: newTestService()}
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("payload"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payload", rec.Body.String())
}

func TestServiceHandler_UnmatchedRouteRendersNotFound(t *testing.T) {
	handler := &ServiceHandler{Service: newTestService()}
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServiceHandler_EmitsReadDataOnBodyConsumption(t *testing.T) {
	factory := fuse.NewFlexFactory()
	var sawReadData bool
	factory.AddGuard(fuse.GuardFunc(func(event fuse.Event, _ fuse.Transport) fuse.Verdict {
		if event == fuse.EventReadData {
			sawReadData = true
		}
		return fuse.ToNext
	}))
	fw := factory.NewFusewire(fuse.TransportTCP)
	handler := &ServiceHandler{Service: newTestService(), Fusewire: fw}

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("xyz"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "xyz", rec.Body.String())
	assert.True(t, sawReadData)
}

func TestServiceHandler_AltSvcSetWhenEncodable(t *testing.T) {
	root := fusecore.NewRouter()
	root.Push(fusecore.NewRouter().WithPath("x").Get(fusecore.HandlerFunc(
		func(req *fusecore.Request, depot *fusecore.Depot, res *fusecore.Response, ctrl *fusecore.FlowCtrl) {
			res.AltSvc = `h3=":443"; ma=3600`
			res.SetBody(fusecore.BodyOnce([]byte("ok")))
		},
	)))
	handler := &ServiceHandler{Service: fusecore.NewService(root)}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `h3=":443"; ma=3600`, rec.Header().Get("Alt-Svc"))
}

func TestRemoteAddr_ParsesIPv4HostPort(t *testing.T) {
	a := remoteAddr("203.0.113.5:54321")
	assert.Equal(t, fusecore.AddrIPv4, a.Kind)
	assert.Equal(t, 54321, a.Port)
}

func TestRemoteAddr_MalformedInputReturnsZeroValue(t *testing.T) {
	a := remoteAddr("not-a-host-port")
	assert.Equal(t, fusecore.Addr{}, a)
}
