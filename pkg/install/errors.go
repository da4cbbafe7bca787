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
	"fmt"
	"io/fs"

	"gitlab.com/tozd/go/errors"
)

// 🚦 ErrorKind classifies every fallible step of an install run. The executor
// consults Recoverable in exactly one place to decide whether a failure skips
// the current file or aborts the whole batch.
type ErrorKind int

const (
	KindDirectorySource ErrorKind = iota // source operand is a directory
	KindNotFound                         // source or destination missing
	KindPermission                       // source or destination denied
	KindMkdir                            // destination directory creation failed
	KindBackup                           // unexpected error relocating existing content
	KindCopy                             // I/O error during the byte-copy phase
	KindTimes                            // timestamp retrieval or application failed
	KindIO                               // any other unexpected filesystem error
)

// Recoverable reports whether a failure of this kind skips only the current
// file. Non-recoverable kinds abort the entire run.
func (k ErrorKind) Recoverable() bool {
	switch k {
	case KindDirectorySource, KindNotFound, KindPermission, KindMkdir:
		return true
	default:
		return false
	}
}

// String returns a string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindDirectorySource:
		return "directory_source"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission_denied"
	case KindMkdir:
		return "mkdir_failed"
	case KindBackup:
		return "backup_failed"
	case KindCopy:
		return "copy_failed"
	case KindTimes:
		return "times_failed"
	default:
		return "io_error"
	}
}

// ❌ Error is the one error type threaded through every fallible step. Op is
// the human-readable action for diagnostics ("cannot open file to read", ...),
// Path the offending file as given in the directive.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s '%s': %s", e.Op, e.Path, e.Cause())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause renders the strerror-style cause used in diagnostic lines.
func (e *Error) Cause() string {
	switch e.Kind {
	case KindNotFound:
		return "No such file or directory"
	case KindPermission:
		return "Permission denied"
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "unknown error"
	}
}

// classify wraps a raw filesystem error, promoting the well-known not-found
// and permission cases to their recoverable kinds and leaving everything else
// on the fallback kind.
func classify(op, path string, err error, fallback ErrorKind) *Error {
	kind := fallback
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermission
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
