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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/walteh/winstall/pkg/backup"
	"github.com/walteh/winstall/pkg/config"
	"github.com/walteh/winstall/pkg/diag"
	"github.com/walteh/winstall/pkg/install"
	"gitlab.com/tozd/go/errors"
)

// backupFromEnv marks a bare -b/--backup, which defers the backup-control
// choice to $VERSION_CONTROL.
const backupFromEnv = "\x00from-env"

// errInstallFailed signals exit status 1 after diagnostics were already
// written; cobra error printing is silenced.
var errInstallFailed = errors.New("install failed")

// usageError is an operand or flag-combination problem reported in the
// original install vocabulary.
type usageError struct {
	msg  string
	hint bool // append the Try '--help' line
}

func (e *usageError) Error() string { return e.msg }

type rootFlags struct {
	verbose       bool
	debug         bool
	preserve      bool
	makeAll       bool // -D
	directoryArgs bool // -d
	noTargetDir   bool // -T
	targetDir     string
	suffix        string
	backup        string

	// captured after parsing
	suffixSet bool
	backupSet bool
}

func newRootCmd(cfg config.Config, stdout, stderr io.Writer) *cobra.Command {
	fl := &rootFlags{}

	cmd := &cobra.Command{
		Use:     "winstall [OPTION]... SOURCE... DEST",
		Short:   "Copy files into a destination, preserving existing content as backups",
		Version: GetVersionInfo().Version,
		Long: `winstall copies each SOURCE file to DEST, recreating the POSIX install
file-placement semantics on platforms without guaranteed atomic rename:
selectable backup policies for preexisting destination content, optional
destination directory creation, and optional timestamp preservation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fl.suffixSet = cmd.Flags().Changed("suffix")
			fl.backupSet = cmd.Flags().Changed("backup")
			return run(cmd.Context(), fl, args, cfg, stdout, stderr)
		},
	}

	addInstallFlags(cmd.Flags(), fl)
	return cmd
}

func addInstallFlags(flags *pflag.FlagSet, fl *rootFlags) {
	flags.BoolVarP(&fl.verbose, "verbose", "v", false, "print the name of each created file or directory")
	flags.BoolVarP(&fl.preserve, "preserve-timestamps", "p", false, "apply access/modification times of SOURCE files to corresponding destination files")
	flags.BoolVarP(&fl.makeAll, "D", "D", false, "create all leading components of DEST except the last, then copy SOURCE to DEST")
	flags.BoolVarP(&fl.directoryArgs, "directory", "d", false, "treat all arguments as directory names; create all components of the specified directories")
	flags.BoolVarP(&fl.noTargetDir, "no-target-directory", "T", false, "treat DEST as a normal file")
	flags.StringVarP(&fl.targetDir, "target-directory", "t", "", "copy all SOURCE arguments into DIRECTORY")
	flags.StringVarP(&fl.suffix, "suffix", "S", "", "override the usual backup suffix")
	flags.StringVarP(&fl.backup, "backup", "b", "", "make a backup of each existing destination file (CONTROL: none, numbered, existing, simple)")
	flags.Lookup("backup").NoOptDefVal = backupFromEnv
	flags.BoolVar(&fl.debug, "debug", false, "explain how a file is copied, and log internal steps; implies -v")

	addCompatFlags(flags)
}

// addCompatFlags registers the unix-specific options winstall accepts but
// ignores, so command lines written for GNU install keep working.
func addCompatFlags(flags *pflag.FlagSet) {
	flags.BoolP("c", "c", false, "(ignored)")
	flags.BoolP("compare", "C", false, "(ignored)")
	flags.StringP("group", "g", "", "(ignored)")
	flags.StringP("mode", "m", "", "(ignored)")
	flags.StringP("owner", "o", "", "(ignored)")
	flags.BoolP("strip", "s", false, "(ignored)")
	flags.String("strip-program", "", "(ignored)")
	flags.Bool("preserve-context", false, "(ignored)")
	flags.StringP("context", "Z", "", "(ignored)")
	flags.Lookup("context").NoOptDefVal = "default"
}

// plan is the routed work for one invocation: either a copy directive or, in
// -d mode, a list of directories to create.
type plan struct {
	directive   install.Directive
	directories []string
}

// buildPlan routes operands and resolves the backup policy into a fully
// validated plan. It only touches the filesystem to ask whether the last
// operand is a directory.
func buildPlan(args []string, fl *rootFlags, cfg config.Config) (*plan, error) {
	if len(args) == 0 {
		return nil, &usageError{msg: "missing file operand", hint: true}
	}
	if fl.noTargetDir && fl.targetDir != "" {
		return nil, &usageError{msg: "cannot combine --target-directory (-t) and --no-target-directory (-T)"}
	}

	if fl.directoryArgs {
		return &plan{directories: args}, nil
	}

	policy := backup.Policy{Kind: backup.None, Suffix: cfg.Suffix(fl.suffix, fl.suffixSet)}
	if fl.backupSet {
		var explicit *string
		if fl.backup != backupFromEnv {
			explicit = &fl.backup
		}
		kind, err := cfg.ResolveKind(explicit)
		if err != nil {
			return nil, err
		}
		policy.Kind = kind
	}

	d := install.Directive{
		Policy:             policy,
		PreserveTimestamps: fl.preserve,
		MakeAllDirectories: fl.makeAll,
		Verbose:            fl.verbose || fl.debug,
	}

	switch {
	case fl.targetDir != "":
		d.Files = args
		d.Dest = install.Destination{Dir: fl.targetDir}

	default:
		if len(args) < 2 {
			return nil, &usageError{msg: fmt.Sprintf("missing destination file operand after '%s'", args[0]), hint: true}
		}

		last := args[len(args)-1]
		if fl.noTargetDir || (len(args) == 2 && !isDir(last)) {
			if len(args) > 2 {
				return nil, &usageError{msg: fmt.Sprintf("extra operand '%s'", args[2]), hint: true}
			}
			d.Files = args[:1]
			d.Dest = install.Destination{Dir: filepath.Dir(last), File: last}
		} else {
			d.Files = args[:len(args)-1]
			d.Dest = install.Destination{Dir: last}
		}
	}

	return &plan{directive: d}, nil
}

func run(ctx context.Context, fl *rootFlags, args []string, cfg config.Config, stdout, stderr io.Writer) error {
	if fl.debug {
		ctx = zerolog.Ctx(ctx).Level(zerolog.DebugLevel).WithContext(ctx)
	}

	p, err := buildPlan(args, fl, cfg)
	if err != nil {
		printUsageError(stderr, err)
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		// Paths fall back to their absolute form.
		zerolog.Ctx(ctx).Debug().Err(err).Msg("could not resolve working directory")
	}
	sink := diag.NewConsole(ctx, diag.Options{Out: stdout, Err: stderr, Root: root, Color: true})

	if p.directories != nil {
		return createDirectories(ctx, p.directories, fl.verbose || fl.debug, sink)
	}

	installer, err := install.New(install.Options{Sink: sink})
	if err != nil {
		return err
	}

	report, err := installer.Run(ctx, p.directive)
	if err != nil {
		// Fatal-class failure; the diagnostic line is already written.
		return err
	}
	if !report.OK() {
		return errInstallFailed
	}
	return nil
}

// createDirectories implements -d mode: every operand is a directory chain to
// create. Failures are reported per operand and the rest still run.
func createDirectories(ctx context.Context, dirs []string, verbose bool, sink install.Sink) error {
	ok := true
	for _, dir := range dirs {
		created, err := install.EnsureDir(ctx, dir, true)
		if err != nil {
			var ierr *install.Error
			if errors.As(err, &ierr) {
				sink.Errorf(ierr.Op, ierr.Path, ierr.Cause())
			} else {
				sink.Errorf("cannot create directory", dir, err.Error())
			}
			ok = false
			continue
		}
		if created && verbose {
			sink.CreatingDirectory(dir)
		}
	}
	if !ok {
		return errInstallFailed
	}
	return nil
}

func printUsageError(stderr io.Writer, err error) {
	var icerr *config.InvalidControlError
	if errors.As(err, &icerr) {
		fmt.Fprintf(stderr, "winstall: %s\n", icerr)
		fmt.Fprintln(stderr, "Valid arguments are:")
		fmt.Fprintln(stderr, "  - ‘none’, ‘off’")
		fmt.Fprintln(stderr, "  - ‘simple’, ‘never’")
		fmt.Fprintln(stderr, "  - ‘existing’, ‘nil’")
		fmt.Fprintln(stderr, "  - ‘numbered’, ‘t’")
		fmt.Fprintln(stderr, "Try 'winstall --help' for more information.")
		return
	}

	fmt.Fprintf(stderr, "winstall: %s\n", err)
	var uerr *usageError
	if errors.As(err, &uerr) && uerr.hint {
		fmt.Fprintln(stderr, "Try 'winstall --help' for more information.")
	}
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
