// Copyright 2025 walteh LLC
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

package install_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/winstall/pkg/install"
	"github.com/walteh/winstall/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func TestEnsureDirCreatesFinalSegment(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "dest")
	created, err := install.EnsureDir(ctx, target, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, testutils.Exists(t, target))
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "dest")
	_, err := install.EnsureDir(ctx, target, false)
	require.NoError(t, err)

	created, err := install.EnsureDir(ctx, target, false)
	require.NoError(t, err)
	assert.False(t, created, "existing directory is success, not creation")

	created, err = install.EnsureDir(ctx, target, true)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureDirMissingIntermediate(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "a", "b", "c")
	_, err := install.EnsureDir(ctx, target, false)
	require.Error(t, err)

	var ierr *install.Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, install.KindNotFound, ierr.Kind)
	assert.True(t, ierr.Kind.Recoverable(), "missing intermediate only skips the current file")
	assert.Equal(t, target, ierr.Path)
	assert.Equal(t, "No such file or directory", ierr.Cause())
}

func TestEnsureDirRecursiveCreatesChain(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "a", "b", "c")
	created, err := install.EnsureDir(ctx, target, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, testutils.Exists(t, target))
}

func TestEnsureDirEmptyPath(t *testing.T) {
	ctx := testutils.Context(t)

	created, err := install.EnsureDir(ctx, "", false)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = install.EnsureDir(ctx, ".", true)
	require.NoError(t, err)
	assert.False(t, created)
}
