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
	"net"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSocket(t *testing.T) *ICMPSocket {
	t.Helper()

	s, err := OpenICMPSocket(ICMPOptions{}, logger.NewTestLogger())
	if err != nil {
		t.Skipf("unprivileged ICMP not available: %v", err)
	}

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestICMPSocketPingLoopback(t *testing.T) {
	s := openTestSocket(t)

	resp, err := s.Ping(context.Background(), "127.0.0.1", 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, EchoReply, resp.Kind)
	assert.Equal(t, "127.0.0.1", resp.SourceIP)
	assert.Positive(t, resp.RTT)
}

func TestICMPSocketConcurrentProbes(t *testing.T) {
	s := openTestSocket(t)

	var wg sync.WaitGroup

	results := make([]ICMPResponse, 8)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			resp, err := s.Ping(context.Background(), "127.0.0.1", 2*time.Second)
			if assert.NoError(t, err) {
				results[i] = resp
			}
		}(i)
	}

	wg.Wait()

	seen := map[uint16]bool{}

	for _, r := range results {
		assert.Equal(t, EchoReply, r.Kind)
		assert.False(t, seen[r.Sequence], "sequence %d delivered twice", r.Sequence)
		seen[r.Sequence] = true
	}
}

func TestICMPSocketRejectsBadInput(t *testing.T) {
	s := openTestSocket(t)

	_, err := s.Ping(context.Background(), "not-an-ip", time.Second)
	require.ErrorIs(t, err, ErrInvalidTarget)

	_, err = s.Ping(context.Background(), "::1", time.Second)
	require.ErrorIs(t, err, ErrInvalidTarget)

	_, err = s.Probe(context.Background(), "127.0.0.1", 300, time.Second)
	require.ErrorIs(t, err, ErrInvalidTTL)
}

func TestICMPSocketClose(t *testing.T) {
	s := openTestSocket(t)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Ping(context.Background(), "127.0.0.1", time.Second)
	assert.ErrorIs(t, err, ErrICMPSocketClosed)
}

func TestDispatchFiltersForeignIdentifiersOnRawSocket(t *testing.T) {
	t.Parallel()

	s := &ICMPSocket{privileged: true, id: 77, pending: make(map[uint16]*pendingProbe)}
	p := &pendingProbe{target: net.IPv4(1, 1, 1, 1), ch: make(chan ICMPResponse, 1), sent: time.Now()}
	s.pending[5] = p

	s.dispatch(ICMPResponse{Kind: TimeExceeded, Sequence: 5, ID: 12, SourceIP: "192.168.1.1"}, time.Now())

	assert.Empty(t, p.ch)
	assert.Contains(t, s.pending, uint16(5))

	s.dispatch(ICMPResponse{Kind: TimeExceeded, Sequence: 5, ID: 77, SourceIP: "192.168.1.1"}, time.Now())

	require.Len(t, p.ch, 1)

	resp := <-p.ch
	assert.Equal(t, TimeExceeded, resp.Kind)
	assert.Equal(t, "192.168.1.1", resp.SourceIP)
	assert.NotContains(t, s.pending, uint16(5))
}

func TestDispatchIgnoresIdentifierOnDatagramSocket(t *testing.T) {
	t.Parallel()

	// the kernel rewrites the identifier of datagram ICMP sockets
	s := &ICMPSocket{id: 77, pending: make(map[uint16]*pendingProbe)}
	p := &pendingProbe{target: net.IPv4(10, 0, 0, 9), ch: make(chan ICMPResponse, 1), sent: time.Now()}
	s.pending[3] = p

	s.dispatch(ICMPResponse{Kind: EchoReply, Sequence: 3, ID: 4096, SourceIP: "10.0.0.9"}, time.Now())

	assert.Len(t, p.ch, 1)
}
