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

	"github.com/carverauto/lanscan/pkg/dnsclient"
	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/mdns"
	"github.com/carverauto/lanscan/pkg/models"
	"github.com/carverauto/lanscan/pkg/scan"
)

// Dependencies are the collaborators the phases run against. A nil
// collaborator drops its phase from the pipeline.
type Dependencies struct {
	Budget   *scan.ConnectionBudget
	Throttle ThrottleMonitor
	ARP      ARPReader
	Prober   HostProber
	Browser  ServiceBrowser
	Resolver ServiceResolver
	SSDP     SSDPSearcher
	Pinger   PingerFactory
	PTR      PTRResolver
	SNMP     SNMPQuerier

	closers []func()
}

// Close releases background resources such as the throttle sampler.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}

	d.closers = nil
}

// NewDependencies builds the production collaborators for cfg. Collaborators
// that cannot be created are logged and left nil.
func NewDependencies(ctx context.Context, cfg *models.ScanConfig, log logger.Logger) *Dependencies {
	budget := scan.NewConnectionBudget(cfg.ConnectionLimit)

	deps := &Dependencies{Budget: budget}

	if cfg.Throttle.Enabled {
		st := scan.NewSystemThrottle(scan.ThrottleThresholds{
			CPUHigh:      cfg.Throttle.CPUHigh,
			CPUCritical:  cfg.Throttle.CPUCritical,
			TempHigh:     cfg.Throttle.TempHigh,
			TempCritical: cfg.Throttle.TempCritical,
			Interval:     cfg.Throttle.SampleInterval.Std(),
		}, log.WithComponent("throttle"))
		st.Start(ctx)

		deps.Throttle = st
		deps.closers = append(deps.closers, st.Stop)
	} else {
		deps.Throttle = scan.FixedThrottle(scan.MultiplierNominal)
	}

	if cfg.ARP.Enabled {
		deps.ARP = scan.NewARPCache(cfg.ARP.PopulatePort, log.WithComponent(PhaseARP))
	}

	deps.Prober = scan.NewTCPSweeper(budget, scan.NewRTTTracker(), cfg.TCP.PortConcurrency, log.WithComponent(PhaseTCP))

	if cfg.Bonjour.Enabled {
		browser := mdns.NewBrowser(log)
		deps.Browser = browser
		deps.Resolver = mdns.NewResolver(browser, log)
	}

	if cfg.SSDP.Enabled {
		deps.SSDP = NewUPnPSearcher(budget, log.WithComponent(PhaseSSDP))
	}

	if cfg.ICMP.Enabled {
		opts := scan.ICMPOptions{PayloadSize: cfg.ICMP.PayloadSize}
		icmpLog := log.WithComponent(PhaseICMP)

		deps.Pinger = func() (Pinger, error) {
			s, err := scan.OpenICMPSocket(opts, icmpLog)
			if err != nil {
				return nil, err
			}

			return s, nil
		}
	}

	if cfg.DNS.Enabled {
		client, err := dnsclient.New(dnsclient.Options{
			Server:    cfg.DNS.Server,
			Timeout:   cfg.DNS.Timeout.Std(),
			CacheSize: cfg.DNS.CacheSize,
			CacheTTL:  cfg.DNS.CacheTTL.Std(),
		}, budget, log)
		if err != nil {
			log.Warn().Err(err).Msg("Reverse DNS disabled")
		} else {
			deps.PTR = client
		}
	}

	if cfg.SNMP.Enabled {
		deps.SNMP = NewGoSNMPQuerier(cfg.SNMP.Community, cfg.SNMP.Port, cfg.SNMP.Timeout.Std(), log.WithComponent(PhaseSNMP))
	}

	return deps
}

// ProbeStages converts the TCP config into probe stages.
func ProbeStages(cfg *models.TCPConfig) []scan.ProbeStage {
	stages := []scan.ProbeStage{{Ports: cfg.PrimaryPorts, BaseTimeout: cfg.PrimaryTimeout.Std()}}

	if len(cfg.SecondaryPorts) > 0 {
		stages = append(stages, scan.ProbeStage{Ports: cfg.SecondaryPorts, BaseTimeout: cfg.SecondaryTimeout.Std()})
	}

	return stages
}

// BuildPipeline lays out the phases:
// [ARP + Bonjour] -> [TCP] -> [SSDP] -> [ICMP latency] -> [SNMP] -> [reverse DNS].
func BuildPipeline(cfg *models.ScanConfig, deps *Dependencies, log logger.Logger) *Pipeline {
	var arp, bonjour, tcp, ssdp, icmp, snmp, rdns Phase

	if deps.ARP != nil {
		arp = NewARPPhase(deps.ARP, cfg.ARP.SettleTime.Std(), log)
	}

	if deps.Browser != nil && deps.Resolver != nil {
		bonjour = NewBonjourPhase(deps.Browser, deps.Resolver, deps.Budget, BonjourOptions{
			ServiceTypes:   cfg.Bonjour.ServiceTypes,
			Domain:         cfg.Bonjour.Domain,
			DiscoveryWait:  cfg.Bonjour.DiscoveryWait.Std(),
			ResolveTimeout: cfg.Bonjour.ResolveTimeout.Std(),
			MaxResolves:    cfg.Bonjour.MaxResolves,
			Concurrency:    cfg.Bonjour.Concurrency,
		}, log)
	}

	if deps.Prober != nil {
		tcp = NewTCPPhase(deps.Prober, deps.Throttle, TCPOptions{
			Stages:          ProbeStages(&cfg.TCP),
			HostConcurrency: cfg.TCP.HostConcurrency,
			LatencyPort:     cfg.TCP.LatencyPort,
			LatencyTimeout:  cfg.TCP.LatencyTimeout.Std(),
		}, log)
	}

	if deps.SSDP != nil {
		ssdp = NewSSDPPhase(deps.SSDP, cfg.SSDP.SearchWindow.Std(), cfg.SSDP.FetchDescriptions, log)
	}

	if deps.Pinger != nil {
		icmp = NewICMPLatencyPhase(deps.Pinger, deps.Throttle, cfg.ICMP.Concurrency, cfg.ICMP.Timeout.Std(), log)
	}

	if deps.SNMP != nil {
		snmp = NewSNMPPhase(deps.SNMP, deps.Budget, cfg.SNMP.Concurrency, cfg.SNMP.Timeout.Std(), log)
	}

	if deps.PTR != nil {
		rdns = NewReverseDNSPhase(deps.PTR, cfg.DNS.Concurrency, cfg.DNS.Timeout.Std(), log)
	}

	return NewPipeline(cfg.PhaseTimeout.Std(), log,
		[]Phase{arp, bonjour},
		[]Phase{tcp},
		[]Phase{ssdp},
		[]Phase{icmp},
		[]Phase{snmp},
		[]Phase{rdns},
	)
}
