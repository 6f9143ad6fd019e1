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

package tools

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	magicPacketLen   = 102
	macRepeats       = 16
	defaultWakePort  = 9
	defaultWakeDelay = 5 * time.Second
)

// DefaultBroadcast is the limited broadcast address.
const DefaultBroadcast = "255.255.255.255"

// WakeOptions addresses the magic packet.
type WakeOptions struct {
	Broadcast string
	Port      int
	Timeout   time.Duration
}

// WakeResult records what was sent.
type WakeResult struct {
	MAC    string `json:"mac"`
	Target string `json:"target"`
	Bytes  int    `json:"bytes"`
}

// ParseMAC accepts colon, dash or dot separated addresses and bare
// 12-digit hex.
func ParseMAC(s string) (net.HardwareAddr, error) {
	s = strings.TrimSpace(s)

	if len(s) == 12 {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
		}

		return net.HardwareAddr(b), nil
	}

	mac, err := net.ParseMAC(s)
	if err != nil || len(mac) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}

	return mac, nil
}

// MagicPacket is six 0xFF bytes followed by the MAC sixteen times.
func MagicPacket(mac net.HardwareAddr) ([]byte, error) {
	if len(mac) != 6 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMAC, mac)
	}

	pkt := make([]byte, 0, magicPacketLen)
	pkt = append(pkt, bytes.Repeat([]byte{0xFF}, 6)...)

	for i := 0; i < macRepeats; i++ {
		pkt = append(pkt, mac...)
	}

	return pkt, nil
}

// Wake sends one magic packet for mac to the broadcast address over UDP.
func Wake(ctx context.Context, mac string, opts WakeOptions) (*WakeResult, error) {
	hw, err := ParseMAC(mac)
	if err != nil {
		return nil, err
	}

	pkt, err := MagicPacket(hw)
	if err != nil {
		return nil, err
	}

	if opts.Broadcast == "" {
		opts.Broadcast = DefaultBroadcast
	}

	if opts.Port <= 0 {
		opts.Port = defaultWakePort
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultWakeDelay
	}

	ip := net.ParseIP(opts.Broadcast).To4()
	if ip == nil {
		return nil, fmt.Errorf("broadcast address %q is not IPv4", opts.Broadcast)
	}

	lc := net.ListenConfig{Control: enableBroadcast}

	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("open UDP socket: %w", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetWriteDeadline(time.Now().Add(opts.Timeout))

	dst := &net.UDPAddr{IP: ip, Port: opts.Port}

	n, err := conn.WriteTo(pkt, dst)
	if err != nil {
		return nil, fmt.Errorf("send magic packet to %s: %w", dst, err)
	}

	if n != len(pkt) {
		return nil, fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(pkt))
	}

	return &WakeResult{MAC: hw.String(), Target: dst.String(), Bytes: n}, nil
}
