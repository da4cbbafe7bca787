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

package diag_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/winstall/pkg/diag"
	"github.com/walteh/winstall/pkg/testutils"
)

func newTestConsole(t *testing.T, root string) (*diag.Console, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	errw := &bytes.Buffer{}
	c := diag.NewConsole(testutils.Context(t), diag.Options{Out: out, Err: errw, Root: root})
	return c, out, errw
}

func TestInstalledLine(t *testing.T) {
	c, out, errw := newTestConsole(t, "")

	c.Installed("a.txt", "dest/a.txt", "")
	assert.Equal(t, "'a.txt' -> 'dest/a.txt'\n", out.String())
	assert.Empty(t, errw.String())
}

func TestInstalledLineWithBackup(t *testing.T) {
	c, out, _ := newTestConsole(t, "")

	c.Installed("a.txt", "dest/a.txt", "dest/a.txt.~1~")
	assert.Equal(t, "'a.txt' -> 'dest/a.txt' (backup: 'dest/a.txt.~1~')\n", out.String())
}

func TestRemovedLine(t *testing.T) {
	c, out, _ := newTestConsole(t, "")

	c.Removed("dest/a.txt")
	assert.Equal(t, "removed 'dest/a.txt'\n", out.String())
}

func TestSkippingDirectoryLine(t *testing.T) {
	c, out, errw := newTestConsole(t, "")

	c.SkippingDirectory("source/")
	assert.Equal(t, "winstall: skipping directory 'source'\n", errw.String())
	assert.Empty(t, out.String())
}

func TestCreatingDirectoryLine(t *testing.T) {
	c, out, _ := newTestConsole(t, "")

	c.CreatingDirectory("dest/sub")
	assert.Equal(t, "winstall: creating directory 'dest/sub'\n", out.String())
}

func TestErrorLine(t *testing.T) {
	c, _, errw := newTestConsole(t, "")

	c.Errorf("cannot open file to read", "missing.txt", "No such file or directory")
	assert.Equal(t, "winstall: cannot open file to read 'missing.txt': No such file or directory\n", errw.String())
}

func TestPathsRenderedRelativeToRoot(t *testing.T) {
	root := t.TempDir()
	c, out, _ := newTestConsole(t, root)

	c.Installed(filepath.Join(root, "a.txt"), filepath.Join(root, "dest", "a.txt"), "")
	assert.Equal(t, "'a.txt' -> '"+filepath.Join("dest", "a.txt")+"'\n", out.String())
}

func TestPathsOutsideRootStayAsGiven(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	c, out, _ := newTestConsole(t, root)

	c.Removed(filepath.Join(other, "a.txt"))
	assert.Equal(t, "removed '"+filepath.Join(other, "a.txt")+"'\n", out.String())
}

func TestRelativeOperandsUntouched(t *testing.T) {
	c, _, errw := newTestConsole(t, "/somewhere/else")

	c.Errorf("cannot create directory", "a/b", "Permission denied")
	assert.Equal(t, "winstall: cannot create directory 'a/b': Permission denied\n", errw.String())
}
