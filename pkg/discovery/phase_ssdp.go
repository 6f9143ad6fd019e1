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
	"strings"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/models"
	"github.com/carverauto/lanscan/pkg/scan"
	"golang.org/x/sync/errgroup"
)

const (
	ssdpSearchShare         = 0.6
	ssdpDescribeWorkers     = 4
	defaultSSDPSearchWindow = 3 * time.Second
)

// SSDPPhase multicasts one M-SEARCH and records every responder. With
// describe set it also fetches each device description for a name and
// manufacturer.
type SSDPPhase struct {
	phaseInfo
	searcher SSDPSearcher
	window   time.Duration
	describe bool
	logger   logger.Logger
}

func NewSSDPPhase(searcher SSDPSearcher, window time.Duration, describe bool, log logger.Logger) *SSDPPhase {
	if window <= 0 {
		window = defaultSSDPSearchWindow
	}

	return &SSDPPhase{
		phaseInfo: phaseInfo{id: PhaseSSDP, name: "Searching UPnP devices", weight: WeightSSDP},
		searcher:  searcher,
		window:    window,
		describe:  describe,
		logger:    log.WithComponent(PhaseSSDP),
	}
}

func (p *SSDPPhase) Run(ctx context.Context, sc *ScanContext, acc *Accumulator, progress func(float64)) {
	p.logger.Debug().
		Dur("window", p.window).
		Int("mx", SSDPMaxWait(p.window)).
		Msg("Sending M-SEARCH, window rounded to whole seconds")

	responses, err := p.searcher.Search(ctx, p.window)
	if err != nil {
		p.logger.Debug().Err(err).Msg("SSDP search failed")
		return
	}

	progress(ssdpSearchShare)

	// one location per responder
	locations := make(map[string]string)

	for _, r := range responses {
		ip, ok := scan.FirstIPv4(r.Location)
		if !ok || !sc.Accepts(ip) {
			continue
		}

		if _, seen := locations[ip]; !seen {
			locations[ip] = r.Location
		}
	}

	p.logger.Debug().Int("responses", len(responses)).Int("devices", len(locations)).Msg("SSDP search finished")

	if !p.describe {
		for ip := range locations {
			d := models.NewDevice(ip, models.SourceSSDP)
			acc.Upsert(&d)
		}

		return
	}

	p.describeAll(ctx, locations, acc, progress)
}

func (p *SSDPPhase) describeAll(ctx context.Context, locations map[string]string, acc *Accumulator, progress func(float64)) {
	described := newItemProgress(len(locations), ssdpSearchShare, 1-ssdpSearchShare, progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ssdpDescribeWorkers)

	for ip, loc := range locations {
		g.Go(func() error {
			defer described.step()

			d := models.NewDevice(ip, models.SourceSSDP)

			desc, err := p.searcher.Describe(gctx, loc)
			if err != nil {
				p.logger.Debug().Err(err).Str("location", loc).Msg("Description fetch failed")
			} else {
				applyDescription(&d, desc)
			}

			acc.Upsert(&d)

			return nil
		})
	}

	_ = g.Wait()
}

func applyDescription(d *models.DiscoveredDevice, desc *SSDPDescription) {
	if name := strings.TrimSpace(desc.FriendlyName); name != "" {
		d.Hostname = models.StringPtr(name)
	}

	if vendor := strings.TrimSpace(desc.Manufacturer); vendor != "" {
		d.Vendor = models.StringPtr(vendor)
	}
}
