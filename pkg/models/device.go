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

package models

import (
	"fmt"
	"time"
)

// DeviceSource records how a device was first observed.
type DeviceSource string

const (
	SourceLocalARP       DeviceSource = "local-arp"
	SourceBonjour        DeviceSource = "bonjour"
	SourceSSDP           DeviceSource = "ssdp"
	SourceProbe          DeviceSource = "probe"
	SourceCompanionRelay DeviceSource = "companion-relay"
)

// DiscoveredDevice is one host observed during a scan. IP is the unique key;
// optional fields are filled in by later phases.
type DiscoveredDevice struct {
	IP           string       `json:"ip"`
	Hostname     *string      `json:"hostname,omitempty"`
	Vendor       *string      `json:"vendor,omitempty"`
	MAC          *string      `json:"mac,omitempty"`
	LatencyMS    *float64     `json:"latency_ms,omitempty"`
	DiscoveredAt time.Time    `json:"discovered_at"`
	Source       DeviceSource `json:"source"`
}

// NewDevice returns a device first seen now.
func NewDevice(ip string, source DeviceSource) DiscoveredDevice {
	return DiscoveredDevice{IP: ip, Source: source, DiscoveredAt: time.Now()}
}

// Merge fills every nil optional field of d from other. Populated fields,
// DiscoveredAt and Source are left alone.
func (d *DiscoveredDevice) Merge(other *DiscoveredDevice) {
	if d.Hostname == nil {
		d.Hostname = cloneString(other.Hostname)
	}

	if d.Vendor == nil {
		d.Vendor = cloneString(other.Vendor)
	}

	if d.MAC == nil {
		d.MAC = cloneString(other.MAC)
	}

	if d.LatencyMS == nil && other.LatencyMS != nil {
		v := *other.LatencyMS
		d.LatencyMS = &v
	}
}

// Clone returns a deep copy.
func (d *DiscoveredDevice) Clone() DiscoveredDevice {
	out := *d
	out.Hostname = cloneString(d.Hostname)
	out.Vendor = cloneString(d.Vendor)
	out.MAC = cloneString(d.MAC)

	if d.LatencyMS != nil {
		v := *d.LatencyMS
		out.LatencyMS = &v
	}

	return out
}

// DisplayName is the hostname when known, else the IP.
func (d *DiscoveredDevice) DisplayName() string {
	if d.Hostname != nil && *d.Hostname != "" {
		return *d.Hostname
	}

	return d.IP
}

// LatencyText renders latency for tables. Devices without a measurement show
// where they came from instead.
func (d *DiscoveredDevice) LatencyText() string {
	if d.LatencyMS != nil {
		if *d.LatencyMS < 1 {
			return "<1 ms"
		}

		return fmt.Sprintf("%.0f ms", *d.LatencyMS)
	}

	switch d.Source {
	case SourceSSDP:
		return "UPnP"
	case SourceBonjour:
		return "Bonjour"
	case SourceCompanionRelay:
		return "via companion"
	case SourceLocalARP, SourceProbe:
		return "-"
	}

	return "-"
}

// StringPtr is a small helper for the optional string fields.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr is a small helper for LatencyMS.
func Float64Ptr(f float64) *float64 {
	return &f
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
