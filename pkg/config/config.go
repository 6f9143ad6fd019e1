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

// Package config loads scanner configuration from a JSON file or the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carverauto/lanscan/pkg/logger"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errNoConfigPath        = errors.New("no config path given for CONFIG_SOURCE=file")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix prefixes every variable read by the env loader.
	DefaultEnvPrefix = "LANSCAN_"
)

// ConfigLoader fills dst from some backing source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configs that can check themselves after loading.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	defaultLoader ConfigLoader
	logger        logger.Logger
}

// NewConfig initializes a new Config instance with a default file loader.
// A nil logger falls back to the package-level one.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.Global().WithComponent("config")
	}

	return &Config{
		defaultLoader: &FileConfigLoader{},
		logger:        log,
	}
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads cfg from the source named by CONFIG_SOURCE and validates it.
// With CONFIG_SOURCE unset an empty path leaves cfg untouched, so callers can
// pre-populate defaults and run without a file.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	var loader ConfigLoader

	switch source {
	case configSourceEnv:
		prefix := os.Getenv("CONFIG_ENV_PREFIX")
		if prefix == "" {
			prefix = DefaultEnvPrefix
		}

		loader = NewEnvConfigLoader(c.logger, prefix)
	case configSourceFile:
		if path == "" {
			return errNoConfigPath
		}

		loader = c.defaultLoader
	case "":
		if path != "" {
			loader = c.defaultLoader
		}
	default:
		return fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	if loader != nil {
		if err := loader.Load(ctx, path, cfg); err != nil {
			return err
		}

		c.logger.Debug().Str("source", sourceName(source)).Str("path", path).Msg("Loaded configuration")
	}

	return ValidateConfig(cfg)
}

func sourceName(source string) string {
	if source == "" {
		return configSourceFile
	}

	return source
}
