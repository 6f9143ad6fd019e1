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
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
)

const (
	// RouteDiscoveryHost is dialed over UDP, which sends nothing, to learn
	// which local address the default route uses.
	RouteDiscoveryHost = "8.8.8.8:80"

	fallbackPrefix = "192.168.1"
)

var (
	interfacesWithContext = psnet.InterfacesWithContext
	routeLocalIP          = dialRouteLocalIP
)

// LocalNetwork returns the local IPv4 address used for outbound traffic and
// the interface network that contains it.
func LocalNetwork(ctx context.Context) (string, *net.IPNet, error) {
	ifaces, err := interfacesWithContext(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list interfaces: %w", err)
	}

	candidates := ipv4Networks(ifaces)
	if len(candidates) == 0 {
		return "", nil, ErrNoSuitableInterface
	}

	if ip, err := routeLocalIP(ctx); err == nil {
		for _, c := range candidates {
			if c.IP.Equal(ip) {
				return ip.String(), c, nil
			}
		}
	}

	return candidates[0].IP.String(), candidates[0], nil
}

// ipv4Networks lists IPv4 interface networks on up, non-loopback interfaces.
// The IP field holds the interface address, not the network address.
func ipv4Networks(ifaces []psnet.InterfaceStat) []*net.IPNet {
	var out []*net.IPNet

	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}

		for _, addr := range iface.Addrs {
			ip, network, err := net.ParseCIDR(addr.Addr)
			if err != nil || ip.To4() == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}

			out = append(out, &net.IPNet{IP: ip.To4(), Mask: network.Mask})
		}
	}

	return out
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}

	return false
}

func dialRouteLocalIP(ctx context.Context) (net.IP, error) {
	dialer := &net.Dialer{Timeout: time.Second}

	conn, err := dialer.DialContext(ctx, "udp4", RouteDiscoveryHost)
	if err != nil {
		return nil, err
	}

	defer func() { _ = conn.Close() }()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return nil, ErrNoSuitableInterface
	}

	return addr.IP.To4(), nil
}

// PlanTarget builds the host list for a scan. spec may be an IPv4 CIDR
// ("10.0.0.0/22"), a three-octet prefix ("192.168.1") or empty, in which case
// the local interface network is used. Detection failures fall back to a
// /24 prefix.
func PlanTarget(ctx context.Context, spec string, maxHosts int) (*Target, error) {
	localIP, network, detectErr := LocalNetwork(ctx)

	switch {
	case strings.Contains(spec, "/"):
		_, ipnet, err := net.ParseCIDR(spec)
		if err != nil || ipnet.IP.To4() == nil {
			return nil, fmt.Errorf("%w: %q", ErrNotIPv4Network, spec)
		}

		return &Target{
			Hosts:   HostsForNetwork(ipnet, localIP, maxHosts),
			Filter:  NetworkFilter(ipnet),
			LocalIP: localIP,
			Label:   ipnet.String(),
		}, nil
	case spec != "":
		prefix := strings.TrimSuffix(spec, ".")
		if !IsIPv4(prefix + ".0") {
			return nil, fmt.Errorf("%w: %q", ErrNotIPv4Network, spec)
		}

		return prefixTarget(prefix, localIP), nil
	}

	if detectErr == nil {
		subnet := &net.IPNet{IP: network.IP.Mask(network.Mask), Mask: network.Mask}
		if hosts := HostsForNetwork(subnet, localIP, maxHosts); len(hosts) > 0 {
			return &Target{
				Hosts:   hosts,
				Filter:  NetworkFilter(subnet),
				LocalIP: localIP,
				Label:   subnet.String(),
			}, nil
		}
	}

	prefix, ok := PrefixOf(localIP)
	if !ok {
		prefix = fallbackPrefix
	}

	return prefixTarget(prefix, localIP), nil
}

func prefixTarget(prefix, localIP string) *Target {
	return &Target{
		Hosts:   HostsForPrefix(prefix, localIP),
		Filter:  PrefixFilter(prefix),
		LocalIP: localIP,
		Label:   prefix + ".0/24",
	}
}
