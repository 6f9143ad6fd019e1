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
	"sort"
	"sync"
	"time"

	"github.com/carverauto/lanscan/pkg/models"
	"github.com/carverauto/lanscan/pkg/scan"
)

// Accumulator is the merge-by-IP registry of one scan session. Every method
// is safe for concurrent use and none of them fail.
type Accumulator struct {
	mu      sync.Mutex
	devices map[string]*models.DiscoveredDevice
	order   []string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{devices: make(map[string]*models.DiscoveredDevice)}
}

// Upsert adds a device or merges it into the existing entry for its IP.
// Devices without an IP are ignored.
func (a *Accumulator) Upsert(d *models.DiscoveredDevice) {
	if d == nil || d.IP == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.devices[d.IP]; ok {
		existing.Merge(d)
		return
	}

	c := d.Clone()
	if c.DiscoveredAt.IsZero() {
		c.DiscoveredAt = time.Now()
	}

	a.devices[d.IP] = &c
	a.order = append(a.order, d.IP)
}

// Enrich merges d into an existing entry only. It reports whether the IP was
// known.
func (a *Accumulator) Enrich(d *models.DiscoveredDevice) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.devices[d.IP]
	if ok {
		existing.Merge(d)
	}

	return ok
}

// UpdateLatency sets the latency of a known device that has none yet.
func (a *Accumulator) UpdateLatency(ip string, ms float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, ok := a.devices[ip]
	if !ok || d.LatencyMS != nil {
		return false
	}

	d.LatencyMS = models.Float64Ptr(ms)

	return true
}

func (a *Accumulator) Contains(ip string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.devices[ip]

	return ok
}

// KnownIPs returns a copy of the set of known addresses.
func (a *Accumulator) KnownIPs() map[string]struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]struct{}, len(a.devices))
	for ip := range a.devices {
		out[ip] = struct{}{}
	}

	return out
}

// IPsWithoutLatency lists known devices with no latency, in insertion order.
func (a *Accumulator) IPsWithoutLatency() []string {
	return a.selectIPs(func(d *models.DiscoveredDevice) bool { return d.LatencyMS == nil })
}

// IPsWithoutHostname lists known devices with no hostname, in insertion order.
func (a *Accumulator) IPsWithoutHostname() []string {
	return a.selectIPs(func(d *models.DiscoveredDevice) bool { return d.Hostname == nil || *d.Hostname == "" })
}

func (a *Accumulator) selectIPs(keep func(*models.DiscoveredDevice) bool) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []string

	for _, ip := range a.order {
		if keep(a.devices[ip]) {
			out = append(out, ip)
		}
	}

	return out
}

// Snapshot returns deep copies of every device in insertion order.
func (a *Accumulator) Snapshot() []models.DiscoveredDevice {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]models.DiscoveredDevice, 0, len(a.order))
	for _, ip := range a.order {
		out = append(out, a.devices[ip].Clone())
	}

	return out
}

// SortedSnapshot is Snapshot ordered by numeric IPv4 value.
func (a *Accumulator) SortedSnapshot() []models.DiscoveredDevice {
	out := a.Snapshot()

	sort.SliceStable(out, func(i, j int) bool {
		return scan.IPv4Key(out[i].IP) < scan.IPv4Key(out[j].IP)
	})

	return out
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.devices)
}

// Reset drops every device. It starts a new session.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.devices = make(map[string]*models.DiscoveredDevice)
	a.order = nil
}
