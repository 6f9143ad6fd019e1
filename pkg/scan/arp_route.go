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
	"encoding/binary"
	"net"
)

// Layout of the BSD routing messages returned for NET_RT_FLAGS/RTF_LLINFO.
// Offsets are fixed by the darwin rt_msghdr and sockaddr definitions.
const (
	rtMsgHdrLen    = 92
	rtmAddrsOffset = 12

	rtaDst     = 0x1
	rtaGateway = 0x2

	afInet = 2
	afLink = 18

	sockaddrInLen    = 16
	sdlNlenOffset    = 5
	sdlAlenOffset    = 6
	sdlDataOffset    = 8
	sinAddrOffset    = 4
	sockaddrAlignTo  = 4
	ethernetAddrSize = 6
)

// ParseRouteMessages walks a buffer of routing messages and extracts IPv4 to
// link-layer mappings. Malformed messages end the walk; messages without both
// a destination and a gateway sockaddr are skipped. The routing sysctl uses
// host byte order, little-endian on every supported platform.
func ParseRouteMessages(buf []byte) []ARPEntry {
	var entries []ARPEntry

	for offset := 0; offset+rtMsgHdrLen <= len(buf); {
		msgLen := int(binary.LittleEndian.Uint16(buf[offset:]))
		if msgLen == 0 || offset+msgLen > len(buf) {
			break
		}

		msg := buf[offset : offset+msgLen]
		offset += msgLen

		if msgLen < rtMsgHdrLen {
			continue
		}

		addrs := binary.LittleEndian.Uint32(msg[rtmAddrsOffset:])
		if addrs&rtaDst == 0 || addrs&rtaGateway == 0 {
			continue
		}

		if e, ok := parseRouteAddrs(msg[rtMsgHdrLen:]); ok {
			entries = append(entries, e)
		}
	}

	return entries
}

// parseRouteAddrs reads the destination sockaddr_in followed by the gateway
// sockaddr_dl.
func parseRouteAddrs(b []byte) (ARPEntry, bool) {
	if len(b) < 2 {
		return ARPEntry{}, false
	}

	dstLen := int(b[0])
	if dstLen == 0 || b[1] != afInet || dstLen < sinAddrOffset+net.IPv4len || dstLen > len(b) {
		return ARPEntry{}, false
	}

	ip := net.IP(append([]byte(nil), b[sinAddrOffset:sinAddrOffset+net.IPv4len]...)).String()

	gw := b[roundUp(dstLen):]
	if len(gw) < sdlDataOffset {
		return ARPEntry{}, false
	}

	gwLen := int(gw[0])
	if gwLen == 0 || gw[1] != afLink || gwLen > len(gw) {
		return ARPEntry{}, false
	}

	nlen, alen := int(gw[sdlNlenOffset]), int(gw[sdlAlenOffset])
	start := sdlDataOffset + nlen

	if alen != ethernetAddrSize || start+alen > gwLen {
		return ARPEntry{}, false
	}

	mac := gw[start : start+alen]
	if !usableMAC(mac) {
		return ARPEntry{}, false
	}

	return ARPEntry{IP: ip, MAC: FormatMAC(mac)}, true
}

func roundUp(n int) int {
	if n == 0 {
		return sockaddrAlignTo
	}

	return (n + sockaddrAlignTo - 1) &^ (sockaddrAlignTo - 1)
}
