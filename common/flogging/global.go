/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flogging

import (
	"io"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	defaultFormat = "console"
	defaultLevel  = zapcore.InfoLevel
)

// Global is the process wide logging system used by MustGetLogger.
var Global *Logging

func init() {
	logging, err := New(Config{})
	if err != nil {
		panic(err)
	}

	Global = logging
}

// Init initializes logging with the provided config.
func Init(config Config) {
	err := Global.Apply(config)
	if err != nil {
		panic(err)
	}
}

// Reset sets logging to the defaults defined in this package.
//
// Used in tests and in the package init
func Reset() {
	Global.Apply(Config{})
}

// LoggerLevel gets the current logging level for the logger with the
// provided name.
func LoggerLevel(loggerName string) string {
	return Global.Level(loggerName).String()
}

// DefaultLevel returns the default log level.
func DefaultLevel() string {
	return strings.ToUpper(Global.DefaultLevel().String())
}

// MustGetLogger creates a logger with the specified name. If an invalid name
// is provided, the operation will panic.
func MustGetLogger(loggerName string) *FabricLogger {
	return Global.Logger(loggerName)
}

// ActivateSpec is used to activate a logging specification.
// Loggers will be enabled at the "info" level unless otherwise specified
// by the spec.
func ActivateSpec(spec string) {
	err := Global.ActivateSpec(spec)
	if err != nil {
		panic(err)
	}
}

// SetWriter calls SetWriter on the Global logging instance.
func SetWriter(w io.Writer) {
	Global.SetWriter(w)
}

// SetObserver calls SetObserver on the Global logging instance.
func SetObserver(observer Observer) {
	Global.SetObserver(observer)
}
