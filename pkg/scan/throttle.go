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

package scan

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

// Pressure levels map to concurrency multipliers.
const (
	MultiplierNominal  = 1.0
	MultiplierHigh     = 0.5
	MultiplierCritical = 0.25
)

var (
	cpuPercentWithContext   = cpu.PercentWithContext
	sensorsTempsWithContext = host.SensorsTemperaturesWithContext
)

// EffectiveLimit scales base by multiplier, never going below one.
func EffectiveLimit(base int, multiplier float64) int {
	return max(1, int(float64(base)*multiplier))
}

// FixedThrottle always reports the same multiplier.
type FixedThrottle float64

func (f FixedThrottle) Multiplier() float64 { return float64(f) }

func (f FixedThrottle) EffectiveLimit(base int) int { return EffectiveLimit(base, float64(f)) }

// ThrottleThresholds configures SystemThrottle.
type ThrottleThresholds struct {
	CPUHigh      float64
	CPUCritical  float64
	TempHigh     float64
	TempCritical float64
	Interval     time.Duration
}

// SystemThrottle samples host CPU load and sensor temperatures and lowers the
// concurrency multiplier while the machine is under pressure.
type SystemThrottle struct {
	thresholds ThrottleThresholds
	logger     logger.Logger
	bits       atomic.Uint64
	stopOnce   sync.Once
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewSystemThrottle returns a monitor reporting nominal until the first sample.
func NewSystemThrottle(thresholds ThrottleThresholds, log logger.Logger) *SystemThrottle {
	if thresholds.Interval <= 0 {
		thresholds.Interval = 2 * time.Second
	}

	t := &SystemThrottle{
		thresholds: thresholds,
		logger:     log,
		done:       make(chan struct{}),
	}
	t.bits.Store(math.Float64bits(MultiplierNominal))

	return t
}

// Start takes one sample synchronously and keeps sampling until Stop or ctx ends.
func (t *SystemThrottle) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)

	t.Sample(ctx)

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(t.thresholds.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Sample(ctx)
			}
		}
	}()
}

// Stop ends background sampling.
func (t *SystemThrottle) Stop() {
	t.stopOnce.Do(func() {
		if t.cancel == nil {
			return
		}

		t.cancel()
		<-t.done
	})
}

// Sample reads CPU and temperature once and updates the multiplier.
func (t *SystemThrottle) Sample(ctx context.Context) {
	level := MultiplierNominal

	if pct, err := cpuPercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		level = math.Min(level, t.levelFor(pct[0], t.thresholds.CPUHigh, t.thresholds.CPUCritical))
	}

	// sensors often return partial data together with an error
	if temps, _ := sensorsTempsWithContext(ctx); len(temps) > 0 {
		hottest := 0.0
		for _, s := range temps {
			hottest = math.Max(hottest, s.Temperature)
		}

		level = math.Min(level, t.levelFor(hottest, t.thresholds.TempHigh, t.thresholds.TempCritical))
	}

	if prev := t.Multiplier(); prev != level {
		t.logger.Debug().Float64("from", prev).Float64("to", level).Msg("Concurrency multiplier changed")
	}

	t.bits.Store(math.Float64bits(level))
}

func (*SystemThrottle) levelFor(value, high, critical float64) float64 {
	switch {
	case critical > 0 && value >= critical:
		return MultiplierCritical
	case high > 0 && value >= high:
		return MultiplierHigh
	default:
		return MultiplierNominal
	}
}

// Multiplier is the current concurrency multiplier.
func (t *SystemThrottle) Multiplier() float64 {
	return math.Float64frombits(t.bits.Load())
}

// EffectiveLimit scales base by the current multiplier.
func (t *SystemThrottle) EffectiveLimit(base int) int {
	return EffectiveLimit(base, t.Multiplier())
}
