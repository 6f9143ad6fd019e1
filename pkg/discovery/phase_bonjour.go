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
	"github.com/carverauto/lanscan/pkg/mdns"
	"github.com/carverauto/lanscan/pkg/models"
	"github.com/carverauto/lanscan/pkg/scan"
	"golang.org/x/sync/errgroup"
)

const (
	bonjourWaitShare    = 0.3
	bonjourTickInterval = 250 * time.Millisecond
)

// BonjourOptions tunes the Bonjour phase.
type BonjourOptions struct {
	ServiceTypes   []string
	Domain         string
	DiscoveryWait  time.Duration
	ResolveTimeout time.Duration
	MaxResolves    int
	Concurrency    int
}

// BonjourPhase browses mDNS service types for a while and resolves what it
// saw to addresses.
type BonjourPhase struct {
	phaseInfo
	browser  ServiceBrowser
	resolver ServiceResolver
	budget   *scan.ConnectionBudget
	opts     BonjourOptions
	logger   logger.Logger
}

func NewBonjourPhase(
	browser ServiceBrowser, resolver ServiceResolver, budget *scan.ConnectionBudget, opts BonjourOptions, log logger.Logger,
) *BonjourPhase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	if opts.MaxResolves <= 0 {
		opts.MaxResolves = 100
	}

	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = 2 * time.Second
	}

	if budget == nil {
		budget = scan.NewConnectionBudget(scan.DefaultConnectionLimit)
	}

	return &BonjourPhase{
		phaseInfo: phaseInfo{id: PhaseBonjour, name: "Browsing Bonjour services", weight: WeightBonjour},
		browser:   browser,
		resolver:  resolver,
		budget:    budget,
		opts:      opts,
		logger:    log.WithComponent(PhaseBonjour),
	}
}

func (p *BonjourPhase) Run(ctx context.Context, sc *ScanContext, acc *Accumulator, progress func(float64)) {
	if err := p.browser.Start(ctx, p.opts.ServiceTypes, p.opts.Domain); err != nil {
		p.logger.Debug().Err(err).Msg("Bonjour browse failed to start")
		return
	}
	defer p.browser.Stop()

	if !p.wait(ctx, progress) {
		return
	}

	services := dedupeServices(p.browser.Services(), p.opts.MaxResolves)

	p.logger.Debug().Int("services", len(services)).Msg("Resolving services")

	progress(bonjourWaitShare)

	resolved := newItemProgress(len(services), bonjourWaitShare, 1-bonjourWaitShare, progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for _, svc := range services {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer resolved.step()

			if ip, ok := p.resolve(gctx, sc, svc); ok {
				d := models.NewDevice(ip, models.SourceBonjour)
				d.Hostname = models.StringPtr(svc.Name)
				acc.Upsert(&d)
			}

			return nil
		})
	}

	_ = g.Wait()
}

// wait lets the browser collect answers and reports progress meanwhile. It
// returns false when ctx ended first.
func (p *BonjourPhase) wait(ctx context.Context, progress func(float64)) bool {
	if p.opts.DiscoveryWait <= 0 {
		return ctx.Err() == nil
	}

	start := time.Now()
	deadline := time.NewTimer(p.opts.DiscoveryWait)
	ticker := time.NewTicker(bonjourTickInterval)

	defer deadline.Stop()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return true
		case <-ticker.C:
			elapsed := float64(time.Since(start)) / float64(p.opts.DiscoveryWait)
			progress(bonjourWaitShare * min(elapsed, 1))
		}
	}
}

// resolve returns the first resolved IPv4 address that belongs to the scan.
func (p *BonjourPhase) resolve(ctx context.Context, sc *ScanContext, svc mdns.Service) (string, bool) {
	if err := p.budget.Acquire(ctx); err != nil {
		return "", false
	}
	defer p.budget.Release()

	rctx, cancel := context.WithTimeout(ctx, p.opts.ResolveTimeout)
	defer cancel()

	addrs, err := p.resolver.Resolve(rctx, svc)
	if err != nil {
		p.logger.Debug().Err(err).Str("service", svc.Key()).Msg("Resolve failed")
		return "", false
	}

	for _, a := range addrs {
		if sc.Accepts(a) {
			return a, true
		}
	}

	return "", false
}

func dedupeServices(in []mdns.Service, limit int) []mdns.Service {
	seen := make(map[string]struct{}, len(in))
	out := make([]mdns.Service, 0, min(len(in), limit))

	for _, s := range in {
		if len(out) == limit {
			break
		}

		if _, ok := seen[s.Key()]; ok {
			continue
		}

		seen[s.Key()] = struct{}{}
		out = append(out, s)
	}

	return out
}
