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
	"errors"
	"sync"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
)

// DefaultPhaseTimeout bounds every phase.
const DefaultPhaseTimeout = 30 * time.Second

// PhaseComplete is reported with the final progress update.
const PhaseComplete = "Complete"

// Pipeline runs steps in sequence. The phases of one step run concurrently
// and the next step starts once all of them returned.
type Pipeline struct {
	steps        [][]Phase
	phaseTimeout time.Duration
	logger       logger.Logger
}

// NewPipeline drops nil phases and empty steps.
func NewPipeline(phaseTimeout time.Duration, log logger.Logger, steps ...[]Phase) *Pipeline {
	if phaseTimeout <= 0 {
		phaseTimeout = DefaultPhaseTimeout
	}

	p := &Pipeline{phaseTimeout: phaseTimeout, logger: log}

	for _, step := range steps {
		var kept []Phase

		for _, ph := range step {
			if ph != nil {
				kept = append(kept, ph)
			}
		}

		if len(kept) > 0 {
			p.steps = append(p.steps, kept)
		}
	}

	return p
}

// Steps returns the phase layout.
func (p *Pipeline) Steps() [][]Phase {
	return p.steps
}

// TotalWeight is the sum of all phase weights.
func (p *Pipeline) TotalWeight() float64 {
	var total float64

	for _, step := range p.steps {
		for _, ph := range step {
			total += ph.Weight()
		}
	}

	return total
}

// Run executes every step. It stops early only when ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, sc *ScanContext, acc *Accumulator, report ProgressFunc) {
	tracker := newProgressTracker(p.TotalWeight(), report)

	for i, step := range p.steps {
		if ctx.Err() != nil {
			p.logger.Info().Int("step", i).Msg("Scan cancelled, skipping remaining steps")
			break
		}

		var wg sync.WaitGroup

		for _, ph := range step {
			wg.Add(1)

			go func(ph Phase) {
				defer wg.Done()

				p.runPhase(ctx, ph, sc, acc, tracker)
			}(ph)
		}

		wg.Wait()
		tracker.completeStep(step)
	}

	tracker.finish()
}

func (p *Pipeline) runPhase(ctx context.Context, ph Phase, sc *ScanContext, acc *Accumulator, tracker *progressTracker) {
	log := p.logger.WithComponent(ph.ID())

	phaseCtx, cancel := context.WithTimeout(ctx, p.phaseTimeout)
	defer cancel()

	start := time.Now()
	before := acc.Len()

	log.Debug().Msg("Phase started")

	ph.Run(phaseCtx, sc, acc, func(f float64) { tracker.update(ph, f) })
	tracker.update(ph, 1)

	if errors.Is(phaseCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		log.Warn().Dur("timeout", p.phaseTimeout).Msg("Phase hit its time limit")
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Int("new_devices", acc.Len()-before).
		Msg("Phase finished")
}

// progressTracker turns per-phase fractions into a monotonic overall value.
type progressTracker struct {
	mu        sync.Mutex
	total     float64
	completed float64
	running   map[string]float64 // phase id -> fraction
	weights   map[string]float64
	last      float64
	report    ProgressFunc
}

func newProgressTracker(total float64, report ProgressFunc) *progressTracker {
	return &progressTracker{
		total:   total,
		running: make(map[string]float64),
		weights: make(map[string]float64),
		report:  report,
	}
}

func (t *progressTracker) update(ph Phase, fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fraction = clamp01(fraction)

	id := ph.ID()
	if fraction < t.running[id] {
		fraction = t.running[id]
	}

	t.running[id] = fraction
	t.weights[id] = ph.Weight()

	t.emit(ph.DisplayName())
}

func (t *progressTracker) completeStep(step []Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ph := range step {
		t.completed += ph.Weight()
		delete(t.running, ph.ID())
		delete(t.weights, ph.ID())
	}
}

func (t *progressTracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = 1

	if t.report != nil {
		t.report(1, PhaseComplete)
	}
}

// emit must be called with mu held so reports are delivered in order.
func (t *progressTracker) emit(name string) {
	overall := 1.0

	if t.total > 0 {
		sum := t.completed
		for id, f := range t.running {
			sum += t.weights[id] * f
		}

		overall = clamp01(sum / t.total)
	}

	if overall < t.last {
		overall = t.last
	}

	t.last = overall

	if t.report != nil {
		t.report(overall, name)
	}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
