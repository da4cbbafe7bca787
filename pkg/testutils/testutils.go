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

// Package testutils stages declarative fixture trees for filesystem tests.
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Context returns a context carrying a test-writer logger.
func Context(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// Tree declares a fixture tree: string values become file contents, nested
// Tree values become subdirectories.
type Tree map[string]any

// Stage materializes tree under root.
func Stage(t *testing.T, root string, tree Tree) {
	t.Helper()
	for name, v := range tree {
		path := filepath.Join(root, name)
		switch val := v.(type) {
		case string:
			require.NoError(t, os.WriteFile(path, []byte(val), 0o644), "staging file %s", path)
		case Tree:
			require.NoError(t, os.Mkdir(path, 0o755), "staging directory %s", path)
			Stage(t, path, val)
		default:
			t.Fatalf("unsupported fixture element %T for %s", v, name)
		}
	}
}

// Read returns the content of path, failing the test on error.
func Read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	return string(b)
}

// Exists reports whether path exists.
func Exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	if err != nil {
		require.ErrorIs(t, err, os.ErrNotExist, "statting %s", path)
		return false
	}
	return true
}
