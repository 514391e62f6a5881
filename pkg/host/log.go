/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package host

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// The internal logger reports runtime lifecycle events only. Per-call errors
// are returned to the guest as errnos, never logged on its behalf.
type logger struct {
	name      string
	out       io.Writer
	callDepth int
}

var (
	internalLogger = &logger{"", os.Stderr, 4}
	logLevel       int
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
	levelNoPrint
)

var levelName = []string{"Trace", "Debug", "Info", "Warn", "Error"}

func init() {
	logLevel = levelWarn
	if v := os.Getenv("PLUGIN_CRYPTO_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n <= levelNoPrint {
			logLevel = n
		}
	}
}

// SetLogLevel changes the internal logger's level; the default is Warn.
// The process env `PLUGIN_CRYPTO_LOG_LEVEL` also sets it.
func SetLogLevel(l int) {
	if l <= levelNoPrint {
		logLevel = l
	}
}

func (l *logger) logf(level int, format string, a ...interface{}) {
	if logLevel > level {
		return
	}
	_, _ = fmt.Fprintf(l.out, l.prefix(level)+format+"\n", a...)
}

func (l *logger) errorf(format string, a ...interface{}) { l.logf(levelError, format, a...) }
func (l *logger) warnf(format string, a ...interface{})  { l.logf(levelWarn, format, a...) }
func (l *logger) infof(format string, a ...interface{})  { l.logf(levelInfo, format, a...) }
func (l *logger) debugf(format string, a ...interface{}) { l.logf(levelDebug, format, a...) }

func (l *logger) prefix(level int) string {
	return levelName[level] + " " +
		time.Now().Format("2006-01-02 15:04:05.999999") + " " +
		l.location() + " " + l.name + " "
}

func (l *logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		return "???:0"
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
