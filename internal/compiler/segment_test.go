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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Literal(t *testing.T) {
	segs, err := Compile("users/profile")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, KindLiteral, segs[0].Kind)
	assert.Equal(t, "users", segs[0].Literal)
	assert.Equal(t, "profile", segs[1].Literal)
}

func TestCompile_Param(t *testing.T) {
	segs, err := Compile("users/{id}")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, KindParam, segs[1].Kind)
	assert.Equal(t, "id", segs[1].Name)
}

func TestCompile_RegexParam(t *testing.T) {
	segs, err := Compile("users/{id:num}")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, KindRegexParam, segs[1].Kind)
	assert.True(t, segs[1].Regex.MatchString("42"))
	assert.False(t, segs[1].Regex.MatchString("abc"))
}

func TestCompile_InlineRegex(t *testing.T) {
	segs, err := Compile(`{id:[0-9]+}`)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.True(t, segs[0].Regex.MatchString("7"))
}

func TestCompile_WildcardOne(t *testing.T) {
	segs, err := Compile("files/{*rest}")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, KindWildcardOne, segs[1].Kind)
}

func TestCompile_WildcardAny(t *testing.T) {
	segs, err := Compile("files/{**rest}")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, KindWildcardAny, segs[1].Kind)
}

func TestCompile_WildcardMustBeLast(t *testing.T) {
	_, err := Compile("{**rest}/extra")
	require.Error(t, err)
}

func TestCompile_CombinedSegment(t *testing.T) {
	segs, err := Compile("v{version:num}")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, KindRegexParam, segs[0].Kind)
	assert.True(t, segs[0].Regex.MatchString("v2"))
	assert.False(t, segs[0].Regex.MatchString("2"))
}

func TestCompile_InvalidRegex(t *testing.T) {
	_, err := Compile(`{id:(}`)
	require.Error(t, err)
}

func TestCompile_InvalidName(t *testing.T) {
	_, err := Compile("{1bad}")
	require.Error(t, err)
}

func TestCompile_Root(t *testing.T) {
	segs, err := Compile("/")
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestRegister_CustomFilter(t *testing.T) {
	Register("zip", `[0-9]{5}`)
	segs, err := Compile("address/{code:zip}")
	require.NoError(t, err)
	assert.True(t, segs[1].Regex.MatchString("94107"))
	assert.False(t, segs[1].Regex.MatchString("ab"))
}
