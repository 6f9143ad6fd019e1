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
	"github.com/carverauto/lanscan/pkg/scan"
	"golang.org/x/sync/errgroup"
)

// tcpSweepShare is the part of the phase's progress spent on the sweep; the
// rest covers latency enrichment.
const tcpSweepShare = 0.85

// TCPOptions tunes the TCP probe phase.
type TCPOptions struct {
	Stages          []scan.ProbeStage
	HostConcurrency int
	LatencyPort     int
	LatencyTimeout  time.Duration
}

// TCPPhase finds hosts that stay silent on ARP and multicast by connecting
// to common ports. Known hosts are skipped.
type TCPPhase struct {
	phaseInfo
	prober   HostProber
	throttle ThrottleMonitor
	opts     TCPOptions
	logger   logger.Logger
}

func NewTCPPhase(prober HostProber, throttle ThrottleMonitor, opts TCPOptions, log logger.Logger) *TCPPhase {
	if opts.HostConcurrency <= 0 {
		opts.HostConcurrency = 40
	}

	return &TCPPhase{
		phaseInfo: phaseInfo{id: PhaseTCP, name: "Probing TCP ports", weight: WeightTCP},
		prober:    prober,
		throttle:  throttle,
		opts:      opts,
		logger:    log.WithComponent(PhaseTCP),
	}
}

func (p *TCPPhase) limit() int {
	if p.throttle == nil {
		return p.opts.HostConcurrency
	}

	return max(1, p.throttle.EffectiveLimit(p.opts.HostConcurrency))
}

func (p *TCPPhase) Run(ctx context.Context, sc *ScanContext, acc *Accumulator, progress func(float64)) {
	hosts := sc.ProbeHosts(acc.KnownIPs())
	workers := p.limit()

	p.logger.Debug().Int("hosts", len(hosts)).Int("workers", workers).Msg("Sweeping hosts")

	swept := newItemProgress(len(hosts), 0, tcpSweepShare, progress)
	found := 0

	for r := range p.prober.Sweep(ctx, hosts, p.opts.Stages, workers) {
		swept.step()

		if !r.Reachable || !sc.Accepts(r.Host) {
			continue
		}

		d := models.NewDevice(r.Host, models.SourceProbe)
		d.LatencyMS = models.Float64Ptr(durationMS(r.RTT))
		acc.Upsert(&d)

		found++
	}

	progress(tcpSweepShare)

	p.logger.Debug().Int("reachable", found).Msg("Sweep finished")

	if p.opts.LatencyPort > 0 {
		p.enrichLatency(ctx, acc, workers, progress)
	}
}

// enrichLatency measures a single connect for known devices that have no
// latency yet.
func (p *TCPPhase) enrichLatency(ctx context.Context, acc *Accumulator, workers int, progress func(float64)) {
	ips := acc.IPsWithoutLatency()
	if len(ips) == 0 {
		return
	}

	done := newItemProgress(len(ips), tcpSweepShare, 1-tcpSweepShare, progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, ip := range ips {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer done.step()

			if rtt, ok := p.prober.Latency(gctx, ip, p.opts.LatencyPort, p.opts.LatencyTimeout); ok {
				acc.UpdateLatency(ip, durationMS(rtt))
			}

			return nil
		})
	}

	_ = g.Wait()
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
