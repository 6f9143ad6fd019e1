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
	"golang.org/x/sync/errgroup"
)

// ReverseDNSPhase names devices through PTR lookups.
type ReverseDNSPhase struct {
	phaseInfo
	resolver    PTRResolver
	concurrency int
	timeout     time.Duration
	logger      logger.Logger
}

func NewReverseDNSPhase(resolver PTRResolver, concurrency int, timeout time.Duration, log logger.Logger) *ReverseDNSPhase {
	if concurrency <= 0 {
		concurrency = 20
	}

	if timeout <= 0 {
		timeout = time.Second
	}

	return &ReverseDNSPhase{
		phaseInfo:   phaseInfo{id: PhaseRDNS, name: "Resolving hostnames", weight: WeightRDNS},
		resolver:    resolver,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      log.WithComponent(PhaseRDNS),
	}
}

func (p *ReverseDNSPhase) Run(ctx context.Context, _ *ScanContext, acc *Accumulator, progress func(float64)) {
	ips := acc.IPsWithoutHostname()
	if len(ips) == 0 {
		return
	}

	looked := newItemProgress(len(ips), 0, 1, progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, ip := range ips {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer looked.step()

			lctx, cancel := context.WithTimeout(gctx, p.timeout)
			defer cancel()

			name, err := p.resolver.LookupPTR(lctx, ip)
			if err != nil {
				p.logger.Trace().Err(err).Str("ip", ip).Msg("PTR lookup failed")
				return nil
			}

			name = strings.TrimSuffix(strings.TrimSpace(name), ".")
			if name == "" || name == ip {
				return nil
			}

			acc.Enrich(&models.DiscoveredDevice{IP: ip, Hostname: models.StringPtr(name)})

			return nil
		})
	}

	_ = g.Wait()
}
