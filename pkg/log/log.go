// Copyright 2018 The gVisor Authors.
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

// Package log centralizes all logging so the rest of the sentry never
// imports a logging backend directly.
package log

import (
	"github.com/sirupsen/logrus"
)

// Logger is the active backend. Tests may swap it for one with a buffered
// output and a fixed level.
var Logger = logrus.New()

// SetLevel sets the minimum level that will be emitted.
func SetLevel(level logrus.Level) {
	Logger.SetLevel(level)
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) {
	Logger.Debugf(format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...any) {
	Logger.Infof(format, args...)
}

// Warningf logs at warning level.
func Warningf(format string, args ...any) {
	Logger.Warnf(format, args...)
}

// FIXME logs an unsupported-operation notice without aborting the
// caller: for an unimplemented futex op, it surfaces the gap instead of
// failing the call outright.
func FIXME(format string, args ...any) {
	Logger.WithField("fixme", true).Warnf(format, args...)
}

// Traceback logs at error level and is used for invariant violations
// that are fatal to the host process.
func Traceback(format string, args ...any) {
	Logger.Errorf(format, args...)
}
