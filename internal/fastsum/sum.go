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

// Package fastsum implements the RFC 1071 Internet checksum used by ICMP.
package fastsum

// SumBE16 returns the unfolded one's-complement sum of the 16-bit big-endian
// words in b. An odd trailing byte is padded with a zero low byte.
func SumBE16(b []byte) uint32 {
	var sum uint32

	n := len(b)
	i := 0

	for n >= 8 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
		sum += uint32(b[i+2])<<8 | uint32(b[i+3])
		sum += uint32(b[i+4])<<8 | uint32(b[i+5])
		sum += uint32(b[i+6])<<8 | uint32(b[i+7])

		// keep headroom for very large buffers
		if sum >= 0x80000000 {
			sum = (sum & 0xFFFF) + (sum >> 16)
		}

		i += 8
		n -= 8
	}

	for n >= 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
		i += 2
		n -= 2
	}

	if n == 1 {
		sum += uint32(b[i]) << 8
	}

	return sum
}

// Fold32 folds a 32-bit partial sum to 16 bits and returns the 1's complement.
func Fold32(sum uint32) uint16 {
	s := sum
	s = (s & 0xFFFF) + (s >> 16)
	s = (s & 0xFFFF) + (s >> 16)

	// #nosec G115 - truncation is the point of the fold
	return ^uint16(s)
}

// Checksum computes the Internet checksum over b.
func Checksum(b []byte) uint16 {
	return Fold32(SumBE16(b))
}
