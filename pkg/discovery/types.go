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
	"github.com/carverauto/lanscan/pkg/scan"
)

// ScanContext is the input of one scan session.
type ScanContext struct {
	Hosts        []string
	SubnetFilter func(string) bool
	// LocalIP is the scanning host. It is never probed and never reported.
	LocalIP string
}

// NewScanContext builds a ScanContext from a planned target, dropping the
// local address from the host list.
func NewScanContext(t *scan.Target) *ScanContext {
	hosts := make([]string, 0, len(t.Hosts))

	for _, h := range t.Hosts {
		if h != t.LocalIP {
			hosts = append(hosts, h)
		}
	}

	return &ScanContext{Hosts: hosts, SubnetFilter: t.Filter, LocalIP: t.LocalIP}
}

// Accepts reports whether a discovered address belongs in the results.
func (sc *ScanContext) Accepts(ip string) bool {
	if !scan.IsIPv4(ip) || ip == sc.LocalIP {
		return false
	}

	return sc.SubnetFilter == nil || sc.SubnetFilter(ip)
}

// ProbeHosts is the host list minus the local address and anything skip
// contains.
func (sc *ScanContext) ProbeHosts(skip map[string]struct{}) []string {
	out := make([]string, 0, len(sc.Hosts))

	for _, h := range sc.Hosts {
		if h == sc.LocalIP {
			continue
		}

		if _, ok := skip[h]; ok {
			continue
		}

		out = append(out, h)
	}

	return out
}

// ProgressFunc receives overall progress in [0,1] and the display name of
// the phase that reported last.
type ProgressFunc func(overall float64, phase string)

// SNMPSystemInfo holds the parts of the system group used for enrichment.
type SNMPSystemInfo struct {
	Name        string
	Description string
}

// SSDPResponse is one reply to an M-SEARCH.
type SSDPResponse struct {
	Location string
	Server   string
	USN      string
}

// SSDPDescription is the subset of a UPnP device description used for
// enrichment.
type SSDPDescription struct {
	FriendlyName string
	Manufacturer string
	ModelName    string
}
