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

// Package diag renders the human-readable progress and error stream, with
// paths shown relative to a working root.
package diag

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// Prefix is the diagnostic vocabulary prefix on every error line.
const Prefix = "winstall: "

// 🔧 Options configures a console sink.
type Options struct {
	// Out receives progress lines, including the `winstall: creating
	// directory` notice; Err receives error lines.
	Out io.Writer
	Err io.Writer
	// Root is the working directory paths are rendered relative to.
	Root string
	// Color enables red error lines when Err supports it.
	Color bool
}

// 🎯 Console writes diagnostic lines and mirrors every event to zerolog at
// debug level. It is safe for use from a single run at a time; the mutex only
// guards against interleaved lines from shared writers.
type Console struct {
	out, err io.Writer
	root     string
	errc     *color.Color
	log      zerolog.Logger
	mu       sync.Mutex
}

// 🏭 NewConsole creates a console sink, taking its logger from ctx.
func NewConsole(ctx context.Context, opts Options) *Console {
	c := &Console{
		out:  opts.Out,
		err:  opts.Err,
		root: opts.Root,
		log:  *zerolog.Ctx(ctx),
	}
	if opts.Color {
		c.errc = color.New(color.FgRed)
	}
	return c
}

// Installed emits `'<src>' -> '<dst>'`, suffixed with the backup path when
// one was created.
func (c *Console) Installed(src, dst, backupPath string) {
	line := fmt.Sprintf("'%s' -> '%s'", c.rel(src), c.rel(dst))
	if backupPath != "" {
		line += fmt.Sprintf(" (backup: '%s')", c.rel(backupPath))
	}
	c.println(c.out, line)
	c.log.Debug().Str("src", src).Str("dst", dst).Str("backup", backupPath).Msg("installed")
}

// Removed emits `removed '<path>'`.
func (c *Console) Removed(path string) {
	c.println(c.out, fmt.Sprintf("removed '%s'", c.rel(path)))
	c.log.Debug().Str("path", path).Msg("removed existing content")
}

// SkippingDirectory emits `winstall: skipping directory '<path>'`.
func (c *Console) SkippingDirectory(path string) {
	c.println(c.err, fmt.Sprintf("%sskipping directory '%s'", Prefix, c.rel(path)))
	c.log.Debug().Str("path", path).Msg("skipping directory operand")
}

// CreatingDirectory emits `winstall: creating directory '<path>'`.
func (c *Console) CreatingDirectory(path string) {
	c.println(c.out, fmt.Sprintf("%screating directory '%s'", Prefix, c.rel(path)))
	c.log.Debug().Str("path", path).Msg("created directory")
}

// Errorf emits `winstall: <op> '<path>': <cause>`.
func (c *Console) Errorf(op, path, cause string) {
	line := fmt.Sprintf("%s%s '%s': %s", Prefix, op, c.rel(path), cause)
	if c.errc != nil {
		line = c.errc.Sprint(line)
	}
	c.println(c.err, line)
	c.log.Debug().Str("op", op).Str("path", path).Str("cause", cause).Msg("install error")
}

func (c *Console) println(w io.Writer, line string) {
	if w == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, line)
}

// rel renders path relative to the working root, falling back to the path as
// given (cleaned) when it does not sit under the root.
func (c *Console) rel(path string) string {
	p := filepath.Clean(path)
	if c.root == "" {
		return p
	}
	r, err := filepath.Rel(c.root, p)
	if err != nil || strings.HasPrefix(r, "..") {
		return p
	}
	return r
}
