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

// Package tools holds the interactive network utilities: ping with
// statistics, traceroute, WHOIS, port scanning and Wake-on-LAN.
package tools

import "errors"

var (
	ErrInvalidCount   = errors.New("count must be positive")
	ErrInvalidHops    = errors.New("max hops must be between 1 and 255")
	ErrEmptyDomain    = errors.New("domain is empty")
	ErrNoWhoisServer  = errors.New("no WHOIS server for domain")
	ErrResponseTooBig = errors.New("WHOIS response too large")
	ErrUnknownPreset  = errors.New("unknown port preset")
	ErrInvalidPort    = errors.New("invalid port")
	ErrNoPorts        = errors.New("no ports to scan")
	ErrInvalidMAC     = errors.New("invalid MAC address")
	ErrShortWrite     = errors.New("magic packet only partly sent")
)
