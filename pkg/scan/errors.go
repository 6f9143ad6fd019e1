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

import "errors"

var (
	// ICMP parsing errors
	ErrShortICMPMessage = errors.New("short ICMP message")
	ErrUnexpectedICMP   = errors.New("unexpected ICMP type")
	ErrBadIPv4HeaderLen = errors.New("bad IPv4 header length")
	ErrICMPSocketClosed = errors.New("icmp socket closed")
	ErrInvalidTarget    = errors.New("target is not an IPv4 address")
	ErrInvalidTTL       = errors.New("ttl must be between 1 and 255")
	ErrPayloadTooLarge  = errors.New("icmp payload too large")

	// Routing table / ARP errors
	ErrShortRouteMessage = errors.New("short routing message")
	ErrARPUnsupported    = errors.New("arp cache reading not supported on this platform")

	// Interface errors
	ErrNoSuitableInterface = errors.New("no suitable local IP address and interface found")
	ErrNotIPv4Network      = errors.New("network is not IPv4")
)
