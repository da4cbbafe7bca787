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

// Package install copies source files into a destination, preserving any
// preexisting destination content under the configured backup policy. Files
// are processed strictly in directive order, one destination handle open at
// a time; a recoverable failure skips only the offending file.
package install

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/winstall/pkg/backup"
	"gitlab.com/tozd/go/errors"
)

// 📢 Sink receives the human-readable progress and error stream. Concrete
// implementations live in pkg/diag; the executor only emits events.
type Sink interface {
	// Installed reports a completed copy; backupPath is empty when no backup
	// file was created.
	Installed(src, dst, backupPath string)
	// Removed reports existing destination content discarded in place.
	Removed(path string)
	// SkippingDirectory reports a source operand that is a directory.
	SkippingDirectory(path string)
	// CreatingDirectory reports a destination directory that was created.
	CreatingDirectory(path string)
	// Errorf reports a failure as `<op> '<path>': <cause>`.
	Errorf(op, path, cause string)
}

// Destination is the directory files are installed into. File, when set,
// names the one explicit target path of a single-source install and takes
// precedence over the derived Dir/<basename> path.
type Destination struct {
	Dir  string
	File string
}

// PathFor derives the destination path for one source operand.
func (d Destination) PathFor(src string) string {
	if d.File != "" {
		return d.File
	}
	return filepath.Join(d.Dir, filepath.Base(src))
}

// 📋 Directive is one fully validated batch of work, created by the CLI layer
// and consumed exactly once.
type Directive struct {
	Files              []string
	Dest               Destination
	Policy             backup.Policy
	PreserveTimestamps bool
	MakeAllDirectories bool
	Verbose            bool
}

// 📊 Status tags the per-file outcome in the execution report.
type Status int

const (
	StatusInstalled Status = iota
	StatusSkippedDirectory
	StatusNotFound
	StatusPermissionDenied
	StatusDirFailed // destination directory could not be created
	StatusFailed    // aborted the run (fatal error class)
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusSkippedDirectory:
		return "skipped_directory"
	case StatusNotFound:
		return "not_found"
	case StatusPermissionDenied:
		return "permission_denied"
	case StatusDirFailed:
		return "dir_failed"
	default:
		return "failed"
	}
}

// FileResult is the outcome of one source operand.
type FileResult struct {
	Source string
	Dest   string
	Status Status
	Backup string // backup file path, when one was created
}

// Report aggregates per-file outcomes for one run.
type Report struct {
	Files []FileResult
}

// OK reports whether every file installed without a reported failure.
func (r Report) OK() bool {
	for _, f := range r.Files {
		if f.Status != StatusInstalled {
			return false
		}
	}
	return true
}

// 🔧 Options contains the executor's collaborators.
type Options struct {
	// Sink receives diagnostic events. Required.
	Sink Sink
}

// 🎮 Installer executes copy directives.
type Installer struct {
	sink Sink
}

// 🏭 New creates a new installer with the given options
func New(opts Options) (*Installer, error) {
	if opts.Sink == nil {
		return nil, errors.Errorf("sink is required")
	}
	return &Installer{sink: opts.Sink}, nil
}

// Run processes every file in the directive in order. Recoverable failures
// (directory source, missing source, permission denied, directory creation)
// are reported and skip only the offending file; the returned error is
// non-nil only for the fatal class, which aborts the remaining files.
func (i *Installer) Run(ctx context.Context, d Directive) (Report, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("files", len(d.Files)).Str("dir", d.Dest.Dir).
		Stringer("policy", d.Policy.Kind).Msg("starting install run")

	var report Report
	for _, src := range d.Files {
		res, err := i.installOne(ctx, d, src)
		if err == nil {
			report.Files = append(report.Files, res)
			continue
		}

		var ierr *Error
		if !errors.As(err, &ierr) {
			return report, errors.Errorf("installing %s: %w", src, err)
		}

		i.emit(ierr)
		res.Status = statusFor(ierr.Kind)
		report.Files = append(report.Files, res)

		if !ierr.Kind.Recoverable() {
			return report, ierr
		}
	}

	logger.Debug().Bool("ok", report.OK()).Msg("install run finished")
	return report, nil
}

// installOne walks one source operand through the per-file state machine:
// open source, ensure destination directory, open destination with backup
// relocation, stream copy, restore timestamps.
func (i *Installer) installOne(ctx context.Context, d Directive, src string) (FileResult, error) {
	res := FileResult{Source: src}

	if fi, err := os.Stat(src); err == nil && fi.IsDir() {
		return res, &Error{Kind: KindDirectorySource, Op: "skipping directory", Path: src}
	}

	sf, err := os.Open(src)
	if err != nil {
		return res, classify("cannot open file to read", src, err, KindIO)
	}
	defer sf.Close()

	// Snapshot source times before any write happens.
	var atime, mtime time.Time
	if d.PreserveTimestamps {
		sfi, err := sf.Stat()
		if err != nil {
			return res, &Error{Kind: KindTimes, Op: "unable to get file times for", Path: src, Err: err}
		}
		atime, mtime = accessTime(sfi), sfi.ModTime()
	}

	created, err := EnsureDir(ctx, d.Dest.Dir, d.MakeAllDirectories)
	if err != nil {
		return res, err
	}
	if created && d.Verbose {
		i.sink.CreatingDirectory(d.Dest.Dir)
	}

	dst := d.Dest.PathFor(src)
	res.Dest = dst

	df, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return res, classify("cannot open file to write", dst, err, KindIO)
	}

	dfi, err := df.Stat()
	if err != nil {
		df.Close()
		return res, &Error{Kind: KindIO, Op: "cannot stat file", Path: dst, Err: err}
	}

	// Backup relocation only runs when there is prior content to preserve;
	// with an empty destination all four policies behave identically.
	hadContent := dfi.Size() > 0
	if hadContent {
		outcome, err := backup.Relocate(ctx, dst, df, d.Policy)
		if err != nil {
			df.Close()
			return res, &Error{Kind: KindBackup, Op: "unable to back up", Path: dst, Err: err}
		}
		if outcome.Kind == backup.BackedUp {
			res.Backup = outcome.Path
		}
	}

	if _, err := io.Copy(df, sf); err != nil {
		df.Close()
		return res, &Error{Kind: KindCopy, Op: "cannot copy file to", Path: dst, Err: err}
	}
	if err := df.Close(); err != nil {
		return res, &Error{Kind: KindCopy, Op: "cannot copy file to", Path: dst, Err: err}
	}

	if d.PreserveTimestamps {
		if err := os.Chtimes(dst, atime, mtime); err != nil {
			return res, &Error{Kind: KindTimes, Op: "unable to set file times for", Path: dst, Err: err}
		}
	}

	if d.Verbose {
		if hadContent && d.Policy.Kind == backup.None {
			i.sink.Removed(dst)
		} else {
			i.sink.Installed(src, dst, res.Backup)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("src", src).Str("dst", dst).
		Str("backup", res.Backup).Msg("installed file")

	res.Status = StatusInstalled
	return res, nil
}

// emit renders one failure on the diagnostic stream.
func (i *Installer) emit(e *Error) {
	if e.Kind == KindDirectorySource {
		i.sink.SkippingDirectory(e.Path)
		return
	}
	i.sink.Errorf(e.Op, e.Path, e.Cause())
}

func statusFor(k ErrorKind) Status {
	switch k {
	case KindDirectorySource:
		return StatusSkippedDirectory
	case KindNotFound:
		return StatusNotFound
	case KindPermission:
		return StatusPermissionDenied
	case KindMkdir:
		return StatusDirFailed
	default:
		return StatusFailed
	}
}
