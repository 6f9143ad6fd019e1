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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/lanscan/pkg/cli"
	"github.com/carverauto/lanscan/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := cli.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}

	if err != nil {
		cli.ShowHelp(os.Stderr)

		return err
	}

	if err := logger.InitWithDefaults(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger, err := logger.New(logger.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.NewApp(os.Stdout, os.Stderr, appLogger).Run(ctx, cfg)
}
