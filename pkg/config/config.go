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

// Package config resolves the environment collaborators of a run:
// $VERSION_CONTROL selects the backup policy for a bare -b, and
// $SIMPLE_BACKUP_SUFFIX supplies the simple-backup suffix.
package config

import (
	"fmt"
	"os"

	"github.com/walteh/winstall/pkg/backup"
)

// Config carries the environment configuration. Empty values mean unset.
type Config struct {
	VersionControl     string
	SimpleBackupSuffix string
}

// FromEnv reads the configuration from the process environment.
func FromEnv() Config {
	return Config{
		VersionControl:     os.Getenv("VERSION_CONTROL"),
		SimpleBackupSuffix: os.Getenv("SIMPLE_BACKUP_SUFFIX"),
	}
}

// InvalidControlError reports a backup-control word outside the accepted set,
// naming where the word came from (`backup type` or `$VERSION_CONTROL`).
type InvalidControlError struct {
	Control string
	Source  string
}

func (e *InvalidControlError) Error() string {
	return fmt.Sprintf("invalid argument ‘%s’ for ‘%s’", e.Control, e.Source)
}

// ParseControl maps a backup-control word to a policy kind.
func ParseControl(control, source string) (backup.Kind, error) {
	switch control {
	case "none", "off":
		return backup.None, nil
	case "simple", "never":
		return backup.Simple, nil
	case "existing", "nil", "":
		return backup.Existing, nil
	case "numbered", "t":
		return backup.Numbered, nil
	default:
		return backup.None, &InvalidControlError{Control: control, Source: source}
	}
}

// ResolveKind resolves the backup kind for a run. explicit is the CONTROL
// given as --backup=CONTROL; nil means a bare -b/--backup, which consults
// $VERSION_CONTROL before defaulting to existing.
func (c Config) ResolveKind(explicit *string) (backup.Kind, error) {
	switch {
	case explicit != nil:
		return ParseControl(*explicit, "backup type")
	case c.VersionControl != "":
		return ParseControl(c.VersionControl, "$VERSION_CONTROL")
	default:
		return backup.Existing, nil
	}
}

// Suffix resolves the simple-backup suffix: the --suffix flag wins over
// $SIMPLE_BACKUP_SUFFIX, which wins over the default `~`. An explicit empty
// flag value resets to the default.
func (c Config) Suffix(flag string, flagSet bool) string {
	if flagSet {
		if flag == "" {
			return backup.DefaultSuffix
		}
		return flag
	}
	if c.SimpleBackupSuffix != "" {
		return c.SimpleBackupSuffix
	}
	return backup.DefaultSuffix
}
