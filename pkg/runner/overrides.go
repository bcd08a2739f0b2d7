// Package runner executes planned jobs: it acquires transient Portage
// override files, spawns the build tool and records structured
// results.
package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
)

// Override directories under the Portage configuration root.
const (
	DirEnv            = "env"
	DirPackageEnv     = "package.env"
	DirPackageUse     = "package.use"
	DirAcceptKeywords = "package.accept_keywords"
	DirUnmask         = "package.unmask"
)

// overridePrefix sorts the transient files after any static
// configuration, so they win within Portage's lexical merge order.
const overridePrefix = "zzz_pkg_testing_tool_"

// OverrideScope is a set of transient override files, one per
// configuration directory, that exists only between Acquire and
// Close. Close removes every file regardless of how the job went;
// Portage sees the overrides solely for the duration of one scope.
type OverrideScope struct {
	files map[string]*os.File
}

// AcquireOverrideScope creates one transient file in each of the
// given directories under configRoot. Every directory must already
// exist; a missing one is a fatal configuration error.
func AcquireOverrideScope(configRoot string, dirs ...string) (*OverrideScope, error) {
	scope := &OverrideScope{files: make(map[string]*os.File, len(dirs))}

	for _, dir := range dirs {
		target := filepath.Join(configRoot, dir)

		info, err := os.Stat(target)
		if err != nil || !info.IsDir() {
			scope.Close()
			return nil, errors.Newf(errors.ErrOverrideDir, "the location %s needs to exist and be a directory", target)
		}

		handle, err := os.CreateTemp(target, overridePrefix+"*")
		if err != nil {
			scope.Close()
			return nil, errors.Wrapf(err, errors.ErrOverrideWrite, "failed to create override file in %s", target)
		}

		// Portage reads these as an unprivileged user; make them
		// world-readable modulo the process umask.
		if err := os.Chmod(handle.Name(), os.FileMode(0o644)&^currentUmask()); err != nil {
			handle.Close()
			os.Remove(handle.Name())
			scope.Close()
			return nil, errors.Wrapf(err, errors.ErrOverrideWrite, "failed to chmod override file %s", handle.Name())
		}

		scope.files[dir] = handle
	}

	return scope, nil
}

// WriteLine appends one line to the override file for dir.
func (s *OverrideScope) WriteLine(dir, format string, args ...interface{}) error {
	handle, ok := s.files[dir]
	if !ok {
		return errors.Newf(errors.ErrInternal, "no override file acquired for %s", dir)
	}
	if _, err := fmt.Fprintf(handle, format+"\n", args...); err != nil {
		return errors.Wrapf(err, errors.ErrOverrideWrite, "failed to write override file %s", handle.Name())
	}
	return nil
}

// FileName returns the base name of the override file for dir, as
// referenced from package.env lines.
func (s *OverrideScope) FileName(dir string) string {
	handle, ok := s.files[dir]
	if !ok {
		return ""
	}
	return filepath.Base(handle.Name())
}

// Flush syncs all override files to disk before the build starts.
func (s *OverrideScope) Flush() error {
	for _, handle := range s.files {
		if err := handle.Sync(); err != nil {
			return errors.Wrapf(err, errors.ErrOverrideWrite, "failed to flush override file %s", handle.Name())
		}
	}
	return nil
}

// Close removes every override file. Safe to call more than once.
func (s *OverrideScope) Close() {
	logger := logging.GetLogger("runner.overrides")

	for dir, handle := range s.files {
		if err := handle.Close(); err != nil {
			logger.Warn().Err(err).Str("file", handle.Name()).Msg("Failed to close override file")
		}
		if err := os.Remove(handle.Name()); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("file", handle.Name()).Msg("Failed to remove override file")
		}
		delete(s.files, dir)
	}
}

// currentUmask reads the process umask the only way POSIX offers:
// set-and-restore.
func currentUmask() os.FileMode {
	mask := syscall.Umask(0)
	syscall.Umask(mask)
	return os.FileMode(mask)
}
