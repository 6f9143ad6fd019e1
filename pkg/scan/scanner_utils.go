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
	"strings"
)

// ParseIPv4 accepts strict dotted-quad text only. A trailing zone ("%en0") is
// dropped first.
func ParseIPv4(s string) (net.IP, bool) {
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}

	if strings.Count(s, ".") != 3 {
		return nil, false
	}

	ip := net.ParseIP(s).To4()
	if ip == nil {
		return nil, false
	}

	return ip, true
}

// IsIPv4 reports whether s is a valid dotted-quad address.
func IsIPv4(s string) bool {
	_, ok := ParseIPv4(s)

	return ok
}

// IPv4Key maps a dotted quad to its big-endian 32-bit value. Invalid text
// sorts last.
func IPv4Key(s string) uint32 {
	ip, ok := ParseIPv4(s)
	if !ok {
		return ^uint32(0)
	}

	return binary.BigEndian.Uint32(ip)
}

func uint32ToIP(v uint32) net.IP {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, v)

	return ip
}

// FirstIPv4 returns the first valid dotted quad embedded in text.
func FirstIPv4(text string) (string, bool) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})

	for _, tok := range tokens {
		if IsIPv4(tok) {
			return tok, true
		}
	}

	return "", false
}
