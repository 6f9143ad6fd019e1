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

package scan

import (
	"fmt"
	"net"
	"strings"
)

// DefaultMaxHosts bounds the number of addresses a single scan will probe.
const DefaultMaxHosts = 1024

// Filter decides whether an address belongs to the scanned subnet.
type Filter func(ip string) bool

// NetworkFilter accepts addresses inside network.
func NetworkFilter(network *net.IPNet) Filter {
	return func(ip string) bool {
		parsed, ok := ParseIPv4(ip)

		return ok && network.Contains(parsed)
	}
}

// PrefixFilter accepts addresses that start with "<prefix>.", for example
// prefix "192.168.1".
func PrefixFilter(prefix string) Filter {
	p := strings.TrimSuffix(prefix, ".") + "."

	return func(ip string) bool {
		return strings.HasPrefix(ip, p) && IsIPv4(ip)
	}
}

// Target is the planned host list together with the predicate used to
// accept addresses learned from multicast or the ARP cache.
type Target struct {
	Hosts   []string
	Filter  Filter
	LocalIP string
	Label   string
}

// HostsForNetwork lists usable addresses of network, excluding localIP. When
// the network holds more than limit hosts a window of limit addresses centred
// on localIP is returned, clamped to the network bounds.
func HostsForNetwork(network *net.IPNet, localIP string, limit int) []string {
	ip4 := network.IP.To4()
	if ip4 == nil || len(network.Mask) != net.IPv4len {
		return nil
	}

	if limit <= 0 {
		limit = DefaultMaxHosts
	}

	ones, _ := network.Mask.Size()
	base := IPv4Key(ip4.String()) & maskValue(ones)
	bcast := base | ^maskValue(ones)

	first, last := base+1, bcast-1
	if ones >= 31 {
		first, last = base, bcast
	}

	local, hasLocal := uint32(0), false
	if ip, ok := ParseIPv4(localIP); ok && network.Contains(ip) {
		local, hasLocal = IPv4Key(localIP), true
	}

	start, end := first, last
	if uint64(last-first)+1 > uint64(limit) {
		center := first + (last-first)/2
		if hasLocal {
			center = local
		}

		half := uint32(limit / 2)

		start = first
		if center-first > half {
			start = center - half
		}

		end = start + uint32(limit)
		if end > last || end < start {
			end = last
			start = last - uint32(limit)
		}
	}

	hosts := make([]string, 0, min(uint64(end-start)+1, uint64(limit)))

	for v := start; ; v++ {
		if !(hasLocal && v == local) && len(hosts) < limit {
			hosts = append(hosts, uint32ToIP(v).String())
		}

		if v == end {
			break
		}
	}

	return hosts
}

// HostsForPrefix returns "<prefix>.1" through "<prefix>.254" minus localIP.
func HostsForPrefix(prefix, localIP string) []string {
	prefix = strings.TrimSuffix(prefix, ".")
	hosts := make([]string, 0, 254)

	for i := 1; i <= 254; i++ {
		ip := fmt.Sprintf("%s.%d", prefix, i)
		if ip != localIP {
			hosts = append(hosts, ip)
		}
	}

	return hosts
}

// PrefixOf returns the first three octets of an IPv4 address.
func PrefixOf(ip string) (string, bool) {
	if !IsIPv4(ip) {
		return "", false
	}

	return ip[:strings.LastIndexByte(ip, '.')], true
}

func maskValue(ones int) uint32 {
	if ones <= 0 {
		return 0
	}

	return ^uint32(0) << (32 - ones)
}
