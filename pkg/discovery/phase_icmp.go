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
	"github.com/carverauto/lanscan/pkg/scan"
	"golang.org/x/sync/errgroup"
)

// PingerFactory opens the session ICMP socket.
type PingerFactory func() (Pinger, error)

// ICMPLatencyPhase pings every known device that has no latency yet.
type ICMPLatencyPhase struct {
	phaseInfo
	open        PingerFactory
	throttle    ThrottleMonitor
	concurrency int
	timeout     time.Duration
	logger      logger.Logger
}

func NewICMPLatencyPhase(
	open PingerFactory, throttle ThrottleMonitor, concurrency int, timeout time.Duration, log logger.Logger,
) *ICMPLatencyPhase {
	if concurrency <= 0 {
		concurrency = 50
	}

	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &ICMPLatencyPhase{
		phaseInfo:   phaseInfo{id: PhaseICMP, name: "Measuring latency", weight: WeightICMP},
		open:        open,
		throttle:    throttle,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      log.WithComponent(PhaseICMP),
	}
}

func (p *ICMPLatencyPhase) Run(ctx context.Context, _ *ScanContext, acc *Accumulator, progress func(float64)) {
	ips := acc.IPsWithoutLatency()
	if len(ips) == 0 {
		return
	}

	pinger, err := p.open()
	if err != nil {
		p.logger.Debug().Err(err).Msg("ICMP socket unavailable, skipping latency")
		return
	}

	defer func() {
		if err := pinger.Close(); err != nil {
			p.logger.Debug().Err(err).Msg("Failed to close ICMP socket")
		}
	}()

	workers := p.concurrency
	if p.throttle != nil {
		workers = max(1, p.throttle.EffectiveLimit(p.concurrency))
	}

	pinged := newItemProgress(len(ips), 0, 1, progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, ip := range ips {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer pinged.step()

			resp, err := pinger.Ping(gctx, ip, p.timeout)
			if err != nil || resp.Kind != scan.EchoReply {
				return nil
			}

			acc.UpdateLatency(ip, durationMS(resp.RTT))

			return nil
		})
	}

	_ = g.Wait()
}
