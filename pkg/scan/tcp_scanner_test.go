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
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}

			_ = c.Close()
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return port
}

func newTestSweeper() *TCPSweeper {
	return NewTCPSweeper(NewConnectionBudget(4), NewRTTTracker(), 3, logger.NewTestLogger())
}

// blackhole makes every dial to the listed ports hang until its context ends.
func blackhole(s *TCPSweeper, ports ...int) *atomic.Int32 {
	var hung atomic.Int32

	real := s.dial
	s.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		_, p, _ := net.SplitHostPort(address)

		for _, port := range ports {
			if p == strconv.Itoa(port) {
				hung.Add(1)
				<-ctx.Done()

				return nil, ctx.Err()
			}
		}

		return real(ctx, network, address)
	}

	return &hung
}

func TestProbePortOutcomes(t *testing.T) {
	t.Parallel()

	s := newTestSweeper()
	open, closed := openPort(t), closedPort(t)
	blackhole(s, 9)

	r := s.ProbePort(context.Background(), "127.0.0.1", open, time.Second)
	assert.Equal(t, PortOpen, r.Outcome)
	assert.Positive(t, r.RTT)

	r = s.ProbePort(context.Background(), "127.0.0.1", closed, time.Second)
	assert.Equal(t, PortRefused, r.Outcome)
	assert.True(t, r.Outcome.Reachable())

	r = s.ProbePort(context.Background(), "127.0.0.1", 9, 30*time.Millisecond)
	assert.Equal(t, PortTimeout, r.Outcome)
	assert.False(t, r.Outcome.Reachable())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r = s.ProbePort(ctx, "127.0.0.1", open, time.Second)
	assert.Equal(t, PortFailed, r.Outcome)

	assert.Equal(t, 0, s.budget.Active())
}

func TestProbeGroupFirstReachableWins(t *testing.T) {
	t.Parallel()

	s := newTestSweeper()
	open := openPort(t)
	blackhole(s, 1, 2)

	start := time.Now()
	r := s.ProbeGroup(context.Background(), "127.0.0.1", []int{1, 2, open}, 5*time.Second)

	assert.True(t, r.Reachable)
	assert.Equal(t, open, r.Port)
	assert.Less(t, time.Since(start), 2*time.Second, "hung probes must be cancelled")
	assert.Equal(t, 1, s.tracker.Samples())
}

func TestProbeGroupLimitsPortConcurrency(t *testing.T) {
	t.Parallel()

	s := newTestSweeper()
	hung := blackhole(s, 1, 2, 3, 4, 5)

	r := s.ProbeGroup(context.Background(), "127.0.0.1", []int{1, 2, 3, 4, 5}, 50*time.Millisecond)

	assert.False(t, r.Reachable)
	assert.True(t, r.TimedOut)
	assert.Equal(t, int32(5), hung.Load())
}

func TestProbeHostFallsBackToSecondStage(t *testing.T) {
	t.Parallel()

	s := newTestSweeper()
	closed := closedPort(t)
	blackhole(s, 1)

	r := s.ProbeHost(context.Background(), "127.0.0.1", []ProbeStage{
		{Ports: []int{1}, BaseTimeout: 30 * time.Millisecond},
		{Ports: []int{closed}, BaseTimeout: time.Second},
	})

	assert.True(t, r.Reachable)
	assert.True(t, r.TimedOut)
	assert.Equal(t, closed, r.Port)
}

func TestSweepStreamsEveryHost(t *testing.T) {
	t.Parallel()

	s := newTestSweeper()
	open := openPort(t)

	hosts := []string{"127.0.0.1", "127.0.0.2", "127.0.0.3"}

	got := map[string]bool{}
	for r := range s.Sweep(context.Background(), hosts, []ProbeStage{{Ports: []int{open}, BaseTimeout: time.Second}}, 2) {
		got[r.Host] = r.Reachable
	}

	assert.Len(t, got, 3)
	assert.True(t, got["127.0.0.1"])
}

func TestLatencyCountsRefusal(t *testing.T) {
	t.Parallel()

	s := newTestSweeper()
	closed := closedPort(t)
	blackhole(s, 1)

	rtt, ok := s.Latency(context.Background(), "127.0.0.1", closed, 200*time.Millisecond)
	assert.True(t, ok)
	assert.Positive(t, rtt)

	_, ok = s.Latency(context.Background(), "127.0.0.1", 1, 20*time.Millisecond)
	assert.False(t, ok)
}
