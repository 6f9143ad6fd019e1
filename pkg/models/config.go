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
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
)

var (
	errInvalidDuration   = errors.New("invalid duration")
	errInvalidNetwork    = errors.New("network must be an IPv4 CIDR")
	errInvalidPort       = errors.New("port out of range")
	errNonPositiveValue  = errors.New("value must be positive")
	errNoPrimaryPorts    = errors.New("tcp.primary_ports must not be empty")
	errThresholdOrdering = errors.New("critical threshold must not be below high threshold")
	errSearchWindowShort = errors.New("ssdp.search_window must be at least 1s")
)

// Duration is a time.Duration that unmarshals from "5s" style strings or
// from a number of nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))

		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// MarshalJSON writes the duration in its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ScanConfig carries every scanner tunable. Start from DefaultScanConfig and
// overlay a file or the environment on top.
type ScanConfig struct {
	// Network is an IPv4 CIDR to sweep. Empty means the local interface network.
	Network         string         `json:"network"`
	MaxHosts        int            `json:"max_hosts"`
	ConnectionLimit int            `json:"connection_limit"`
	PhaseTimeout    Duration       `json:"phase_timeout"`
	ARP             ARPConfig      `json:"arp"`
	TCP             TCPConfig      `json:"tcp"`
	Bonjour         BonjourConfig  `json:"bonjour"`
	SSDP            SSDPConfig     `json:"ssdp"`
	ICMP            ICMPConfig     `json:"icmp"`
	DNS             DNSConfig      `json:"dns"`
	SNMP            SNMPConfig     `json:"snmp"`
	Throttle        ThrottleConfig `json:"throttle"`
	Logging         *logger.Config `json:"logging,omitempty"`
}

type ARPConfig struct {
	Enabled      bool     `json:"enabled"`
	PopulatePort int      `json:"populate_port"`
	SettleTime   Duration `json:"settle_time"`
}

type TCPConfig struct {
	PrimaryPorts     []int    `json:"primary_ports"`
	SecondaryPorts   []int    `json:"secondary_ports"`
	PrimaryTimeout   Duration `json:"primary_timeout"`
	SecondaryTimeout Duration `json:"secondary_timeout"`
	HostConcurrency  int      `json:"host_concurrency"`
	PortConcurrency  int      `json:"port_concurrency"`
	LatencyPort      int      `json:"latency_port"`
	LatencyTimeout   Duration `json:"latency_timeout"`
}

type BonjourConfig struct {
	Enabled        bool     `json:"enabled"`
	ServiceTypes   []string `json:"service_types"`
	Domain         string   `json:"domain"`
	DiscoveryWait  Duration `json:"discovery_wait"`
	ResolveTimeout Duration `json:"resolve_timeout"`
	MaxResolves    int      `json:"max_resolves"`
	Concurrency    int      `json:"concurrency"`
}

// SSDPConfig tunes the UPnP search. SearchWindow is sent as the M-SEARCH MX
// value, so it is rounded to whole seconds.
type SSDPConfig struct {
	Enabled           bool     `json:"enabled"`
	SearchWindow      Duration `json:"search_window"`
	FetchDescriptions bool     `json:"fetch_descriptions"`
}

type ICMPConfig struct {
	Enabled     bool     `json:"enabled"`
	Timeout     Duration `json:"timeout"`
	Concurrency int      `json:"concurrency"`
	PayloadSize int      `json:"payload_size"`
}

type DNSConfig struct {
	Enabled     bool     `json:"enabled"`
	Server      string   `json:"server"`
	Timeout     Duration `json:"timeout"`
	Concurrency int      `json:"concurrency"`
	CacheSize   int      `json:"cache_size"`
	CacheTTL    Duration `json:"cache_ttl"`
}

type SNMPConfig struct {
	Enabled     bool     `json:"enabled"`
	Community   string   `json:"community" sensitive:"true"`
	Port        int      `json:"port"`
	Timeout     Duration `json:"timeout"`
	Concurrency int      `json:"concurrency"`
}

// ThrottleConfig sets the CPU and temperature levels that scale concurrency
// down to one half (high) and one quarter (critical).
type ThrottleConfig struct {
	Enabled        bool     `json:"enabled"`
	CPUHigh        float64  `json:"cpu_high"`
	CPUCritical    float64  `json:"cpu_critical"`
	TempHigh       float64  `json:"temp_high"`
	TempCritical   float64  `json:"temp_critical"`
	SampleInterval Duration `json:"sample_interval"`
}

// DefaultBonjourServiceTypes are browsed when the config names none.
var DefaultBonjourServiceTypes = []string{
	"_http._tcp",
	"_https._tcp",
	"_ssh._tcp",
	"_smb._tcp",
	"_afpovertcp._tcp",
	"_airplay._tcp",
	"_raop._tcp",
	"_googlecast._tcp",
	"_ipp._tcp",
	"_printer._tcp",
	"_hap._tcp",
	"_homekit._tcp",
	"_companion-link._tcp",
	"_spotify-connect._tcp",
	"_sonos._tcp",
	"_workstation._tcp",
	"_device-info._tcp",
	"_rfb._tcp",
}

// DefaultScanConfig returns the stock tuning.
func DefaultScanConfig() *ScanConfig {
	return &ScanConfig{
		MaxHosts:        1024,
		ConnectionLimit: 30,
		PhaseTimeout:    Duration(30 * time.Second),
		ARP: ARPConfig{
			Enabled:      true,
			PopulatePort: 55555,
			SettleTime:   Duration(2 * time.Second),
		},
		TCP: TCPConfig{
			PrimaryPorts:     []int{80, 443, 22, 445},
			SecondaryPorts:   []int{7000, 8080, 8443, 62078, 5353, 9100, 1883, 554, 548},
			PrimaryTimeout:   Duration(700 * time.Millisecond),
			SecondaryTimeout: Duration(1200 * time.Millisecond),
			HostConcurrency:  40,
			PortConcurrency:  3,
			LatencyPort:      443,
			LatencyTimeout:   Duration(200 * time.Millisecond),
		},
		Bonjour: BonjourConfig{
			Enabled:        true,
			ServiceTypes:   append([]string(nil), DefaultBonjourServiceTypes...),
			Domain:         "local.",
			DiscoveryWait:  Duration(8 * time.Second),
			ResolveTimeout: Duration(2 * time.Second),
			MaxResolves:    100,
			Concurrency:    8,
		},
		SSDP: SSDPConfig{
			Enabled:      true,
			SearchWindow: Duration(3 * time.Second),
		},
		ICMP: ICMPConfig{
			Enabled:     true,
			Timeout:     Duration(2 * time.Second),
			Concurrency: 50,
			PayloadSize: 56,
		},
		DNS: DNSConfig{
			Enabled:     true,
			Timeout:     Duration(time.Second),
			Concurrency: 20,
			CacheSize:   4096,
			CacheTTL:    Duration(10 * time.Minute),
		},
		SNMP: SNMPConfig{
			Community:   "public",
			Port:        161,
			Timeout:     Duration(time.Second),
			Concurrency: 10,
		},
		Throttle: ThrottleConfig{
			Enabled:        true,
			CPUHigh:        75,
			CPUCritical:    90,
			TempHigh:       80,
			TempCritical:   95,
			SampleInterval: Duration(2 * time.Second),
		},
	}
}

// Validate implements config.Validator.
func (c *ScanConfig) Validate() error {
	if c.Network != "" {
		ip, _, err := net.ParseCIDR(c.Network)
		if err != nil || ip.To4() == nil {
			return fmt.Errorf("%w: %q", errInvalidNetwork, c.Network)
		}
	}

	counts := map[string]int{
		"max_hosts":            c.MaxHosts,
		"connection_limit":     c.ConnectionLimit,
		"tcp.host_concurrency": c.TCP.HostConcurrency,
		"tcp.port_concurrency": c.TCP.PortConcurrency,
		"bonjour.max_resolves": c.Bonjour.MaxResolves,
		"bonjour.concurrency":  c.Bonjour.Concurrency,
		"icmp.concurrency":     c.ICMP.Concurrency,
		"dns.concurrency":      c.DNS.Concurrency,
		"dns.cache_size":       c.DNS.CacheSize,
		"snmp.concurrency":     c.SNMP.Concurrency,
	}

	for name, v := range counts {
		if v <= 0 {
			return fmt.Errorf("%w: %s", errNonPositiveValue, name)
		}
	}

	timeouts := map[string]Duration{
		"phase_timeout":           c.PhaseTimeout,
		"tcp.primary_timeout":     c.TCP.PrimaryTimeout,
		"tcp.secondary_timeout":   c.TCP.SecondaryTimeout,
		"tcp.latency_timeout":     c.TCP.LatencyTimeout,
		"bonjour.resolve_timeout": c.Bonjour.ResolveTimeout,
		"ssdp.search_window":      c.SSDP.SearchWindow,
		"icmp.timeout":            c.ICMP.Timeout,
		"dns.timeout":             c.DNS.Timeout,
		"snmp.timeout":            c.SNMP.Timeout,
	}

	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%w: %s", errNonPositiveValue, name)
		}
	}

	if c.SSDP.SearchWindow < Duration(time.Second) {
		return fmt.Errorf("%w: %s", errSearchWindowShort, c.SSDP.SearchWindow.Std())
	}

	if len(c.TCP.PrimaryPorts) == 0 {
		return errNoPrimaryPorts
	}

	ports := append(append([]int{c.TCP.LatencyPort, c.ARP.PopulatePort, c.SNMP.Port}, c.TCP.PrimaryPorts...),
		c.TCP.SecondaryPorts...)

	for _, p := range ports {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("%w: %d", errInvalidPort, p)
		}
	}

	if c.Throttle.CPUCritical < c.Throttle.CPUHigh || c.Throttle.TempCritical < c.Throttle.TempHigh {
		return errThresholdOrdering
	}

	return nil
}
