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

// Package cli implements the lanscan command line: LAN scans with an
// optional progress view plus the ping, traceroute, DNS, WHOIS, port scan
// and Wake-on-LAN tools.
package cli

import (
	"flag"
	"fmt"
	"io"
	"time"
)

const (
	subScan       = "scan"
	subPing       = "ping"
	subTraceroute = "traceroute"
	subDNS        = "dns"
	subWhois      = "whois"
	subPortScan   = "portscan"
	subWake       = "wol"
	subVersion    = "version"
)

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)

	return fs
}

// ScanHandler handles flags for the scan subcommand.
type ScanHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the scan subcommand.
func (h ScanHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subScan, h.Output)
	configFile := fs.String("config", "", "path to a JSON scan config")
	network := fs.String("network", "", "IPv4 CIDR or three-octet prefix to scan (default: local network)")
	maxHosts := fs.Int("max-hosts", 0, "cap on probed hosts (default from config)")
	jsonOut := fs.Bool("json", false, "print results as JSON")
	tui := fs.Bool("tui", false, "show an interactive progress view")
	snmp := fs.Bool("snmp", false, "query SNMP system info on discovered hosts")
	community := fs.String("community", "", "SNMP community (default from config)")
	debug := fs.Bool("debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing scan flags: %w", err)
	}

	if fs.NArg() > 1 {
		return fmt.Errorf("%w: %v", errTooManyArgs, fs.Args())
	}

	if *jsonOut && *tui {
		return errInvalidOutput
	}

	cfg.ConfigFile = *configFile
	cfg.Network = *network
	cfg.MaxHosts = *maxHosts
	cfg.JSON = *jsonOut
	cfg.TUI = *tui
	cfg.SNMP = *snmp
	cfg.Community = *community
	cfg.Debug = *debug

	// a bare positional argument is accepted as the network
	if fs.NArg() == 1 && cfg.Network == "" {
		cfg.Network = fs.Arg(0)
	}

	return nil
}

// PingHandler handles flags for the ping subcommand.
type PingHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the ping subcommand.
func (h PingHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subPing, h.Output)
	count := fs.Int("c", 4, "number of echo requests")
	interval := fs.Duration("i", time.Second, "delay between requests")
	timeout := fs.Duration("W", 2*time.Second, "reply timeout")
	privileged := fs.Bool("privileged", false, "use a raw ICMP socket")
	jsonOut := fs.Bool("json", false, "print statistics as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing ping flags: %w", err)
	}

	cfg.Count = *count
	cfg.Interval = *interval
	cfg.Timeout = *timeout
	cfg.Privileged = *privileged
	cfg.JSON = *jsonOut

	return setTarget(fs, cfg)
}

// TracerouteHandler handles flags for the traceroute subcommand.
type TracerouteHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the traceroute subcommand.
func (h TracerouteHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subTraceroute, h.Output)
	maxHops := fs.Int("m", 30, "maximum number of hops")
	timeout := fs.Duration("W", 2*time.Second, "per-hop timeout")
	privileged := fs.Bool("privileged", true, "use a raw ICMP socket (needed for intermediate hops on Linux)")
	noResolve := fs.Bool("n", false, "do not resolve hop names")
	jsonOut := fs.Bool("json", false, "print hops as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing traceroute flags: %w", err)
	}

	cfg.MaxHops = *maxHops
	cfg.Timeout = *timeout
	cfg.Privileged = *privileged
	cfg.NoResolve = *noResolve
	cfg.JSON = *jsonOut

	return setTarget(fs, cfg)
}

// DNSHandler handles flags for the dns subcommand.
type DNSHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the dns subcommand.
func (h DNSHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subDNS, h.Output)
	recordType := fs.String("t", "A", "record type: A, AAAA, MX, TXT, CNAME, NS, SOA or PTR")
	server := fs.String("server", "", "DNS server host:port (default from /etc/resolv.conf)")
	timeout := fs.Duration("timeout", 2*time.Second, "query timeout")
	jsonOut := fs.Bool("json", false, "print records as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing dns flags: %w", err)
	}

	cfg.RecordType = *recordType
	cfg.Server = *server
	cfg.Timeout = *timeout
	cfg.JSON = *jsonOut

	return setTarget(fs, cfg)
}

// WhoisHandler handles flags for the whois subcommand.
type WhoisHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the whois subcommand.
func (h WhoisHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subWhois, h.Output)
	timeout := fs.Duration("timeout", 10*time.Second, "connection timeout")
	jsonOut := fs.Bool("json", false, "print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing whois flags: %w", err)
	}

	cfg.Timeout = *timeout
	cfg.JSON = *jsonOut

	return setTarget(fs, cfg)
}

// PortScanHandler handles flags for the portscan subcommand.
type PortScanHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the portscan subcommand.
func (h PortScanHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subPortScan, h.Output)
	ports := fs.String("p", "", "ports to scan, e.g. 22,80,8000-8100 (overrides -preset)")
	preset := fs.String("preset", "common", "port set: common, well-known, extended, web, database or mail")
	concurrency := fs.Int("c", 50, "connections in flight")
	timeout := fs.Duration("W", 2*time.Second, "connect timeout")
	all := fs.Bool("all", false, "also list filtered ports")
	jsonOut := fs.Bool("json", false, "print every port as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing portscan flags: %w", err)
	}

	cfg.Ports = *ports
	cfg.Preset = *preset
	cfg.Concurrency = *concurrency
	cfg.Timeout = *timeout
	cfg.ShowAll = *all
	cfg.JSON = *jsonOut

	return setTarget(fs, cfg)
}

// WakeHandler handles flags for the wol subcommand.
type WakeHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the wol subcommand.
func (h WakeHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subWake, h.Output)
	broadcast := fs.String("b", "255.255.255.255", "broadcast address")
	port := fs.Int("port", 9, "UDP port")
	jsonOut := fs.Bool("json", false, "print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing wol flags: %w", err)
	}

	cfg.Broadcast = *broadcast
	cfg.WakePort = *port
	cfg.JSON = *jsonOut

	return setTarget(fs, cfg)
}

// VersionHandler handles flags for the version subcommand.
type VersionHandler struct{ Output io.Writer }

// Parse processes the command-line arguments for the version subcommand.
func (h VersionHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(subVersion, h.Output)
	jsonOut := fs.Bool("json", false, "print build information as JSON")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing version flags: %w", err)
	}

	cfg.JSON = *jsonOut

	return nil
}

func setTarget(fs *flag.FlagSet, cfg *CmdConfig) error {
	switch fs.NArg() {
	case 0:
		return fmt.Errorf("%s: %w", fs.Name(), errTargetRequired)
	case 1:
		cfg.Target = fs.Arg(0)

		return nil
	default:
		return fmt.Errorf("%s: %w: %v", fs.Name(), errTooManyArgs, fs.Args())
	}
}

// ParseFlags parses args (without the program name) into a CmdConfig.
// Flag errors are written to errOut.
func ParseFlags(args []string, errOut io.Writer) (*CmdConfig, error) {
	cfg := &CmdConfig{Args: args}

	if len(args) == 0 {
		cfg.Help = true

		return cfg, nil
	}

	cfg.SubCmd = args[0]

	switch cfg.SubCmd {
	case "-h", "-help", "--help", "help":
		cfg.Help = true

		return cfg, nil
	}

	subcommands := map[string]SubcommandHandler{
		subScan:       ScanHandler{Output: errOut},
		subPing:       PingHandler{Output: errOut},
		subTraceroute: TracerouteHandler{Output: errOut},
		subDNS:        DNSHandler{Output: errOut},
		subWhois:      WhoisHandler{Output: errOut},
		subPortScan:   PortScanHandler{Output: errOut},
		subWake:       WakeHandler{Output: errOut},
		subVersion:    VersionHandler{Output: errOut},
	}

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %q", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
