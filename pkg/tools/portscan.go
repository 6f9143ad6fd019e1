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

package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/lanscan/pkg/scan"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPortScanConcurrency = 50
	defaultPortScanTimeout     = 2 * time.Second
)

// PortProber connects to one port. scan.TCPSweeper implements it.
type PortProber interface {
	ProbePort(ctx context.Context, host string, port int, timeout time.Duration) scan.PortResult
}

// PortState is how a port answered a connect.
type PortState string

const (
	PortStateOpen     PortState = "open"
	PortStateClosed   PortState = "closed"
	PortStateFiltered PortState = "filtered"
)

var portPresets = map[string][]int{
	"common":   {20, 21, 22, 23, 25, 53, 80, 110, 143, 443, 445, 993, 995, 3306, 3389, 5432, 5900, 8080, 8443},
	"web":      {80, 443, 8080, 8443, 3000, 5000, 8000},
	"database": {1433, 1521, 3306, 5432, 6379, 27017},
	"mail":     {25, 110, 143, 465, 587, 993, 995},
}

var serviceNames = map[int]string{
	20: "FTP Data", 21: "FTP", 22: "SSH", 23: "Telnet",
	25: "SMTP", 53: "DNS", 67: "DHCP", 68: "DHCP",
	80: "HTTP", 110: "POP3", 119: "NNTP", 123: "NTP",
	143: "IMAP", 161: "SNMP", 194: "IRC", 443: "HTTPS",
	465: "SMTPS", 514: "Syslog", 587: "Submission",
	993: "IMAPS", 995: "POP3S", 1433: "MSSQL", 1521: "Oracle",
	3306: "MySQL", 3389: "RDP", 5432: "PostgreSQL",
	5900: "VNC", 6379: "Redis", 8080: "HTTP Alt",
	8443: "HTTPS Alt", 27017: "MongoDB",
}

// ServiceName returns the well-known service on port, or "".
func ServiceName(port int) string {
	return serviceNames[port]
}

// PresetPorts expands a named port set. "well-known" is 1-1024 and
// "extended" is 1-10000.
func PresetPorts(name string) ([]int, error) {
	switch name {
	case "well-known":
		return portRange(1, 1024), nil
	case "extended":
		return portRange(1, 10000), nil
	}

	ports, ok := portPresets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	return append([]int(nil), ports...), nil
}

// ParsePorts parses a list such as "22,80,8000-8010". Duplicates are dropped
// and the result is sorted.
func ParsePorts(spec string) ([]int, error) {
	seen := make(map[int]struct{})

	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(field, "-")

		first, err := parsePort(lo)
		if err != nil {
			return nil, err
		}

		last := first
		if isRange {
			if last, err = parsePort(hi); err != nil {
				return nil, err
			}
		}

		if last < first {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPort, field)
		}

		for p := first; p <= last; p++ {
			seen[p] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, ErrNoPorts
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}

	sort.Ints(ports)

	return ports, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}

	return p, nil
}

func portRange(first, last int) []int {
	ports := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		ports = append(ports, p)
	}

	return ports
}

// PortScanOptions bounds a port scan.
type PortScanOptions struct {
	Concurrency int
	Timeout     time.Duration
}

// PortScanEntry is the state of one port.
type PortScanEntry struct {
	Port    int           `json:"port"`
	State   PortState     `json:"state"`
	Service string        `json:"service,omitempty"`
	RTT     time.Duration `json:"rtt_ns,omitempty"`
}

// ScanPorts connects to every port on host with at most opts.Concurrency
// attempts in flight. A refusal is reported closed; a timeout or any other
// failure is filtered. onResult, when set, sees entries as they complete.
// The returned entries are sorted by port. On cancellation the entries seen
// so far are returned with ctx's error.
func ScanPorts(ctx context.Context, prober PortProber, host string, ports []int, opts PortScanOptions,
	onResult func(PortScanEntry),
) ([]PortScanEntry, error) {
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultPortScanConcurrency
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultPortScanTimeout
	}

	var (
		mu      sync.Mutex
		entries = make([]PortScanEntry, 0, len(ports))
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)

	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			r := prober.ProbePort(ctx, host, port, opts.Timeout)
			if ctx.Err() != nil {
				return nil
			}

			e := PortScanEntry{Port: port, State: stateOf(r.Outcome), Service: ServiceName(port)}
			if e.State == PortStateOpen {
				e.RTT = r.RTT
			}

			mu.Lock()
			entries = append(entries, e)
			if onResult != nil {
				onResult(e)
			}
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Port < entries[j].Port })

	return entries, ctx.Err()
}

func stateOf(o scan.PortOutcome) PortState {
	switch o {
	case scan.PortOpen:
		return PortStateOpen
	case scan.PortRefused:
		return PortStateClosed
	default:
		return PortStateFiltered
	}
}
