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

// Package backup decides the fate of a destination file's existing content
// before it is overwritten, following the GNU install backup conventions.
package backup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultSuffix is the simple-backup suffix used when neither --suffix nor
// $SIMPLE_BACKUP_SUFFIX supplies one.
const DefaultSuffix = "~"

// 🎯 Kind identifies one of the four backup policies.
type Kind int

const (
	None Kind = iota // existing content is discarded in place
	Numbered
	Simple
	Existing
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Numbered:
		return "numbered"
	case Simple:
		return "simple"
	case Existing:
		return "existing"
	default:
		return "unknown"
	}
}

// 🔧 Policy is the resolved backup policy for one batch. It is immutable for
// the whole run; Suffix only matters for Simple and Existing.
type Policy struct {
	Kind   Kind
	Suffix string
}

// OutcomeKind tags what happened to the destination's prior content.
type OutcomeKind int

const (
	Removed  OutcomeKind = iota // content discarded in place
	BackedUp                    // content relocated to Outcome.Path
)

// 📦 Outcome reports where the destination's existing content went. For
// Removed, Path is the destination itself; for BackedUp it is the backup file.
type Outcome struct {
	Kind OutcomeKind
	Path string
}

// Relocate decides the fate of dst's existing content before new bytes are
// written. f must be an open read/write handle on dst positioned at offset 0.
// On success the handle is returned truncated to length zero and rewound,
// ready for the overwrite. At most one backup file is created per call and
// existing backups are never deleted.
func Relocate(ctx context.Context, dst string, f *os.File, policy Policy) (Outcome, error) {
	logger := zerolog.Ctx(ctx)

	switch policy.Kind {
	case None:
		if err := truncateAndRewind(f); err != nil {
			return Outcome{}, err
		}
		logger.Debug().Str("path", dst).Msg("discarded existing content")
		return Outcome{Kind: Removed, Path: dst}, nil

	case Numbered:
		return numbered(ctx, dst, f)

	case Simple:
		return simple(ctx, dst, f, policy.Suffix)

	case Existing:
		// A .~1~ neighbor means numbered backups are already in play.
		_, err := os.Lstat(numberedPath(dst, 1))
		switch {
		case err == nil:
			return numbered(ctx, dst, f)
		case errors.Is(err, fs.ErrNotExist):
			return simple(ctx, dst, f, policy.Suffix)
		default:
			return Outcome{}, errors.Errorf("probing for numbered backup of %q: %w", dst, err)
		}

	default:
		return Outcome{}, errors.Errorf("unknown backup policy %d", policy.Kind)
	}
}

// numbered probes <dst>.~1~, <dst>.~2~, ... via exclusive create and copies
// the handle's current bytes into the first slot that does not exist yet.
func numbered(ctx context.Context, dst string, f *os.File) (Outcome, error) {
	for n := 1; ; n++ {
		path := numberedPath(dst, n)

		bf, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return Outcome{}, errors.Errorf("creating numbered backup %q: %w", path, err)
		}

		if err := relocateInto(f, bf); err != nil {
			return Outcome{}, errors.Errorf("writing backup %q: %w", path, err)
		}

		zerolog.Ctx(ctx).Debug().Str("path", dst).Str("backup", path).Int("n", n).Msg("created numbered backup")
		return Outcome{Kind: BackedUp, Path: path}, nil
	}
}

// simple relocates the handle's content to <dst><suffix>. Unlike numbered
// there is no next slot to advance to, so a preexisting simple backup is an
// error rather than something to silently clobber.
func simple(ctx context.Context, dst string, f *os.File, suffix string) (Outcome, error) {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	path := dst + suffix

	bf, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Outcome{}, errors.Errorf("creating simple backup %q: %w", path, err)
	}

	if err := relocateInto(f, bf); err != nil {
		return Outcome{}, errors.Errorf("writing backup %q: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", dst).Str("backup", path).Msg("created simple backup")
	return Outcome{Kind: BackedUp, Path: path}, nil
}

// relocateInto streams all bytes from f into bf, closes bf, and leaves f
// truncated and rewound for the overwrite.
func relocateInto(f, bf *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		bf.Close()
		return errors.Errorf("rewinding destination: %w", err)
	}
	if _, err := io.Copy(bf, f); err != nil {
		bf.Close()
		return errors.Errorf("copying existing content: %w", err)
	}
	if err := bf.Close(); err != nil {
		return errors.Errorf("closing backup: %w", err)
	}
	return truncateAndRewind(f)
}

func truncateAndRewind(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return errors.Errorf("truncating destination: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.Errorf("rewinding destination: %w", err)
	}
	return nil
}

func numberedPath(dst string, n int) string {
	return fmt.Sprintf("%s.~%d~", dst, n)
}
