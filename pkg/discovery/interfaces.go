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

//go:generate mockgen -destination=mock_discovery.go -package=discovery github.com/carverauto/lanscan/pkg/discovery ServiceBrowser,ServiceResolver,ThrottleMonitor,PTRResolver,SNMPQuerier,SSDPSearcher,ARPReader,Pinger,HostProber

import (
	"context"
	"time"

	"github.com/carverauto/lanscan/pkg/mdns"
	"github.com/carverauto/lanscan/pkg/scan"
)

// ServiceBrowser collects mDNS service instances in the background between
// Start and Stop.
type ServiceBrowser interface {
	Start(ctx context.Context, serviceTypes []string, domain string) error
	Services() []mdns.Service
	Stop()
}

// ServiceResolver turns a service instance into IPv4 addresses.
type ServiceResolver interface {
	Resolve(ctx context.Context, svc mdns.Service) ([]string, error)
}

// ThrottleMonitor scales concurrency down under CPU or thermal pressure.
type ThrottleMonitor interface {
	Multiplier() float64
	EffectiveLimit(base int) int
}

// PTRResolver performs reverse lookups.
type PTRResolver interface {
	LookupPTR(ctx context.Context, ip string) (string, error)
}

// SNMPQuerier reads the system group of an agent.
type SNMPQuerier interface {
	QuerySystem(ctx context.Context, ip string) (*SNMPSystemInfo, error)
}

// SSDPSearcher sends M-SEARCH requests and fetches device descriptions.
type SSDPSearcher interface {
	Search(ctx context.Context, window time.Duration) ([]SSDPResponse, error)
	Describe(ctx context.Context, location string) (*SSDPDescription, error)
}

// ARPReader induces ARP resolution and reads the kernel neighbour table.
type ARPReader interface {
	Populate(ctx context.Context, hosts []string) error
	Read(ctx context.Context) ([]scan.ARPEntry, error)
}

// Pinger sends ICMP echo requests.
type Pinger interface {
	Ping(ctx context.Context, target string, timeout time.Duration) (scan.ICMPResponse, error)
	Close() error
}

// HostProber checks TCP reachability.
type HostProber interface {
	Sweep(ctx context.Context, hosts []string, stages []scan.ProbeStage, concurrency int) <-chan scan.HostResult
	Latency(ctx context.Context, host string, port int, base time.Duration) (time.Duration, bool)
}

var (
	_ ThrottleMonitor = (*scan.SystemThrottle)(nil)
	_ ThrottleMonitor = scan.FixedThrottle(1)
	_ ARPReader       = (*scan.ARPCache)(nil)
	_ Pinger          = (*scan.ICMPSocket)(nil)
	_ HostProber      = (*scan.TCPSweeper)(nil)
)
