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

package install

import (
	"context"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// EnsureDir guarantees that dir exists. Non-recursive creates exactly the
// final path segment and fails when an intermediate one is missing; recursive
// creates every missing segment. A directory that already exists is success.
// The returned bool reports whether anything was actually created.
func EnsureDir(ctx context.Context, dir string, recursive bool) (bool, error) {
	if dir == "" || dir == "." {
		return false, nil
	}

	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return false, nil
	}

	var err error
	if recursive {
		err = os.MkdirAll(dir, 0o755)
	} else {
		err = os.Mkdir(dir, 0o755)
		if errors.Is(err, fs.ErrExist) {
			err = nil
		}
	}
	if err != nil {
		return false, classify("cannot create directory", dir, err, KindMkdir)
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Bool("recursive", recursive).Msg("created destination directory")
	return true, nil
}
