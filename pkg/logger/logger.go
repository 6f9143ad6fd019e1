/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package logger provides structured logging for the scanner using zerolog
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	outputStdout  = "stdout"
	outputStderr  = "stderr"
	outputConsole = "console"
)

var globalLogger zerolog.Logger

type Config struct {
	Level      string `json:"level"`
	Debug      bool   `json:"debug"`
	Output     string `json:"output"`
	TimeFormat string `json:"time_format"`
}

func init() {
	globalLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339
}

// Init configures the package-level logger. Output is "stdout", "stderr" or
// "console" (human readable, written to stderr).
func Init(config *Config) error {
	l, err := build(config)
	if err != nil {
		return err
	}

	globalLogger = l
	log.Logger = globalLogger

	return nil
}

// New returns a Logger configured independently of the package-level one.
func New(config *Config) (Logger, error) {
	l, err := build(config)
	if err != nil {
		return nil, err
	}

	return Wrap(l), nil
}

func build(config *Config) (zerolog.Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return zerolog.Logger{}, err
		}
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	return zerolog.New(writerFor(config)).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func writerFor(config *Config) io.Writer {
	switch config.Output {
	case outputStdout:
		return os.Stdout
	case outputConsole:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	default:
		return os.Stderr
	}
}

// Global returns the package-level logger behind the Logger interface.
func Global() Logger {
	return Wrap(globalLogger)
}
