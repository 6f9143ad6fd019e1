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

// maxVendorLen bounds the sysDescr text kept as a vendor string.
const maxVendorLen = 64

// SNMPPhase asks SNMP agents for their system name.
type SNMPPhase struct {
	phaseInfo
	querier     SNMPQuerier
	budget      *scan.ConnectionBudget
	concurrency int
	timeout     time.Duration
	logger      logger.Logger
}

func NewSNMPPhase(
	querier SNMPQuerier, budget *scan.ConnectionBudget, concurrency int, timeout time.Duration, log logger.Logger,
) *SNMPPhase {
	if concurrency <= 0 {
		concurrency = 10
	}

	if timeout <= 0 {
		timeout = time.Second
	}

	if budget == nil {
		budget = scan.NewConnectionBudget(scan.DefaultConnectionLimit)
	}

	return &SNMPPhase{
		phaseInfo:   phaseInfo{id: PhaseSNMP, name: "Querying SNMP agents", weight: WeightSNMP},
		querier:     querier,
		budget:      budget,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      log.WithComponent(PhaseSNMP),
	}
}

func (p *SNMPPhase) Run(ctx context.Context, _ *ScanContext, acc *Accumulator, progress func(float64)) {
	ips := acc.IPsWithoutHostname()
	if len(ips) == 0 {
		return
	}

	queried := newItemProgress(len(ips), 0, 1, progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, ip := range ips {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer queried.step()

			info, err := p.query(gctx, ip)
			if err != nil {
				p.logger.Trace().Err(err).Str("ip", ip).Msg("SNMP query failed")
				return nil
			}

			acc.Enrich(snmpUpdate(ip, info))

			return nil
		})
	}

	_ = g.Wait()
}

func (p *SNMPPhase) query(ctx context.Context, ip string) (*SNMPSystemInfo, error) {
	if err := p.budget.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.budget.Release()

	qctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.querier.QuerySystem(qctx, ip)
}

func snmpUpdate(ip string, info *SNMPSystemInfo) *models.DiscoveredDevice {
	d := &models.DiscoveredDevice{IP: ip}

	if name := strings.TrimSpace(info.Name); name != "" {
		d.Hostname = models.StringPtr(name)
	}

	descr := strings.TrimSpace(info.Description)
	if line, _, _ := strings.Cut(descr, "\n"); line != "" {
		line = strings.TrimSpace(line)
		if len(line) > maxVendorLen {
			line = line[:maxVendorLen]
		}

		d.Vendor = models.StringPtr(line)
	}

	return d
}
