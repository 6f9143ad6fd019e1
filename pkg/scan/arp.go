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
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
)

const (
	// DefaultARPPopulatePort is an unlikely-to-be-open UDP port. The datagram
	// exists only to make the kernel resolve the neighbour.
	DefaultARPPopulatePort = 55555

	arpBatchSize  = 50
	arpBatchPause = 20 * time.Millisecond
)

// ARPEntry is one resolved neighbour from the kernel ARP cache.
type ARPEntry struct {
	IP  string
	MAC string
}

// ARPCache populates and reads the kernel neighbour table.
type ARPCache struct {
	port   int
	logger logger.Logger
	read   func(ctx context.Context) ([]ARPEntry, error)
}

// NewARPCache returns a reader backed by the platform ARP table.
func NewARPCache(port int, log logger.Logger) *ARPCache {
	if port <= 0 {
		port = DefaultARPPopulatePort
	}

	return &ARPCache{port: port, logger: log, read: readARPTable}
}

// Populate sends one 1-byte UDP datagram per host so the kernel issues ARP
// requests. Send errors are ignored. Every 50 sends it pauses briefly.
func (a *ARPCache) Populate(ctx context.Context, hosts []string) error {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return fmt.Errorf("open populate socket: %w", err)
	}

	defer func() { _ = conn.Close() }()

	payload := []byte{0}
	sent := 0

	for _, h := range hosts {
		ip, ok := ParseIPv4(h)
		if !ok {
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Millisecond))
		_, _ = conn.WriteToUDP(payload, &net.UDPAddr{IP: ip, Port: a.port})

		sent++
		if sent%arpBatchSize != 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(arpBatchPause):
		}
	}

	a.logger.Debug().Int("sent", sent).Msg("ARP populate datagrams sent")

	return nil
}

// Read returns the complete entries currently in the ARP cache.
func (a *ARPCache) Read(ctx context.Context) ([]ARPEntry, error) {
	return a.read(ctx)
}

// FormatMAC renders six bytes as lower-case colon separated hex.
func FormatMAC(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}

	return strings.Join(parts, ":")
}

// usableMAC rejects short, all-zero and broadcast addresses.
func usableMAC(b []byte) bool {
	if len(b) != 6 {
		return false
	}

	zero, bcast := true, true

	for _, v := range b {
		zero = zero && v == 0x00
		bcast = bcast && v == 0xff
	}

	return !zero && !bcast
}

// ParseProcNetARP parses the Linux /proc/net/arp table, keeping complete
// entries (flag 0x2) with a usable hardware address.
func ParseProcNetARP(data string) []ARPEntry {
	var entries []ARPEntry

	for i, line := range strings.Split(data, "\n") {
		if i == 0 {
			continue // header
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		flags, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 32)
		if err != nil || flags&0x2 == 0 {
			continue
		}

		if !IsIPv4(fields[0]) {
			continue
		}

		hw, err := net.ParseMAC(fields[3])
		if err != nil || !usableMAC(hw) {
			continue
		}

		entries = append(entries, ARPEntry{IP: fields[0], MAC: FormatMAC(hw)})
	}

	return entries
}
