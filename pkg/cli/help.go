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

package cli

import (
	"fmt"
	"io"
)

// ShowHelp writes the usage text.
func ShowHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `lanscan: discover devices on the local IPv4 network
Usage:
  lanscan scan [options] [network]
  lanscan ping [options] host
  lanscan traceroute [options] host
  lanscan dns [options] name
  lanscan whois [options] domain
  lanscan portscan [options] host
  lanscan wol [options] mac
  lanscan version

Commands:
  scan         Sweep the LAN with ARP, Bonjour, TCP, SSDP, ICMP, SNMP and reverse DNS
  ping         Send ICMP echo requests and print statistics
  traceroute   Trace the route to a host with increasing TTL
  dns          Query DNS records
  whois        Query the WHOIS registry for a domain
  portscan     Connect to TCP ports on a host and report open, closed or filtered
  wol          Send a Wake-on-LAN magic packet
  version      Print the version

Options for scan:
  -config string      path to a JSON scan config
  -network string     IPv4 CIDR or three-octet prefix (default: local network)
  -max-hosts int      cap on probed hosts
  -json               print results as JSON
  -tui                show an interactive progress view
  -snmp               query SNMP system info
  -community string   SNMP community
  -debug              enable debug logging

Options for ping:
  -c int          number of echo requests (default 4)
  -i duration     delay between requests (default 1s)
  -W duration     reply timeout (default 2s)
  -privileged     use a raw ICMP socket

Options for traceroute:
  -m int          maximum hops (default 30)
  -W duration     per-hop timeout (default 2s)
  -privileged     use a raw ICMP socket (default true)
  -n              do not resolve hop names

Options for dns:
  -t string       record type (default "A")
  -server string  DNS server host:port

Options for portscan:
  -p string       ports, e.g. 22,80,8000-8100
  -preset string  common, well-known, extended, web, database or mail (default "common")
  -c int          connections in flight (default 50)
  -W duration     connect timeout (default 2s)
  -all            also list filtered ports

Options for wol:
  -b string       broadcast address (default "255.255.255.255")
  -port int       UDP port (default 9)

Environment:
  CONFIG_SOURCE=env reads scan settings from LANSCAN_* variables.
  LOG_LEVEL, DEBUG, LOG_OUTPUT and LOG_TIME_FORMAT control logging.

Examples:
  lanscan scan
  lanscan scan -network 10.0.0.0/22 -json
  lanscan scan -tui
  lanscan ping -c 10 192.168.1.1
  lanscan traceroute example.com
  lanscan dns -t MX example.com
  lanscan whois example.com
  lanscan portscan -preset web 192.168.1.10
  lanscan wol -b 192.168.1.255 aa:bb:cc:dd:ee:ff
`)
}
