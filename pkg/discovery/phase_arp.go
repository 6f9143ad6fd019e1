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
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/models"
)

// ARPPhase nudges the kernel into resolving every host and then harvests the
// neighbour table.
type ARPPhase struct {
	phaseInfo
	reader ARPReader
	settle time.Duration
	logger logger.Logger
}

// NewARPPhase waits settle between populating and reading the cache.
func NewARPPhase(reader ARPReader, settle time.Duration, log logger.Logger) *ARPPhase {
	return &ARPPhase{
		phaseInfo: phaseInfo{id: PhaseARP, name: "Reading ARP cache", weight: WeightARP},
		reader:    reader,
		settle:    settle,
		logger:    log.WithComponent(PhaseARP),
	}
}

func (p *ARPPhase) Run(ctx context.Context, sc *ScanContext, acc *Accumulator, progress func(float64)) {
	hosts := sc.ProbeHosts(nil)

	if err := p.reader.Populate(ctx, hosts); err != nil {
		p.logger.Debug().Err(err).Msg("ARP populate stopped early")
	}

	progress(0.4)

	if p.settle > 0 {
		timer := time.NewTimer(p.settle)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	progress(0.8)

	entries, err := p.reader.Read(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("ARP cache unavailable")
		return
	}

	added := 0

	for _, e := range entries {
		if !sc.Accepts(e.IP) {
			continue
		}

		d := models.NewDevice(e.IP, models.SourceLocalARP)
		d.MAC = models.StringPtr(e.MAC)
		acc.Upsert(&d)

		added++
	}

	p.logger.Debug().Int("entries", len(entries)).Int("accepted", added).Msg("ARP cache read")
}
