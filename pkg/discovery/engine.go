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

package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/models"
	"github.com/google/uuid"
)

// Engine owns the accumulator of a scanner and runs the pipeline against it.
// Scans on one engine are serialized; use separate engines for concurrent
// sessions.
type Engine struct {
	pipeline *Pipeline
	acc      *Accumulator
	logger   logger.Logger

	scanMu sync.Mutex

	mu        sync.RWMutex
	sessionID string
}

func NewEngine(pipeline *Pipeline, log logger.Logger) *Engine {
	return &Engine{
		pipeline: pipeline,
		acc:      NewAccumulator(),
		logger:   log.WithComponent("engine"),
	}
}

// Scan resets the accumulator, runs every phase and returns the devices in
// numeric IP order. When ctx is cancelled the partial result is returned
// together with ctx.Err().
func (e *Engine) Scan(ctx context.Context, sc *ScanContext, report ProgressFunc) ([]models.DiscoveredDevice, error) {
	if e.pipeline == nil {
		return nil, ErrNoPipeline
	}

	e.scanMu.Lock()
	defer e.scanMu.Unlock()

	id := uuid.NewString()

	e.mu.Lock()
	e.sessionID = id
	e.mu.Unlock()

	e.acc.Reset()

	start := time.Now()

	e.logger.Info().
		Str("session", id).
		Int("hosts", len(sc.Hosts)).
		Int("steps", len(e.pipeline.Steps())).
		Str("local_ip", sc.LocalIP).
		Msg("Scan started")

	e.pipeline.Run(ctx, sc, e.acc, report)

	devices := e.acc.SortedSnapshot()

	e.logger.Info().
		Str("session", id).
		Int("devices", len(devices)).
		Dur("duration", time.Since(start)).
		Msg("Scan finished")

	return devices, ctx.Err()
}

// SessionID identifies the current or most recent scan.
func (e *Engine) SessionID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.sessionID
}

// Devices returns the devices found so far, safe to call during a scan.
func (e *Engine) Devices() []models.DiscoveredDevice {
	return e.acc.SortedSnapshot()
}

// DeviceCount is the number of devices found so far.
func (e *Engine) DeviceCount() int {
	return e.acc.Len()
}
