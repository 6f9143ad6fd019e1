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
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePorts struct {
	outcomes map[int]scan.PortOutcome
	delay    time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakePorts) ProbePort(ctx context.Context, _ string, port int, _ time.Duration) scan.PortResult {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-ctx.Done():
	case <-time.After(f.delay):
	}

	outcome, ok := f.outcomes[port]
	if !ok {
		outcome = scan.PortTimeout
	}

	return scan.PortResult{Port: port, Outcome: outcome, RTT: time.Millisecond}
}

func TestScanPortsClassifiesAndSorts(t *testing.T) {
	prober := &fakePorts{outcomes: map[int]scan.PortOutcome{
		22:  scan.PortOpen,
		80:  scan.PortRefused,
		443: scan.PortFailed,
	}}

	var (
		mu   sync.Mutex
		seen []int
	)

	entries, err := ScanPorts(context.Background(), prober, "10.0.0.5", []int{443, 8080, 80, 22}, PortScanOptions{},
		func(e PortScanEntry) {
			mu.Lock()
			seen = append(seen, e.Port)
			mu.Unlock()
		})
	require.NoError(t, err)

	assert.Equal(t, []PortScanEntry{
		{Port: 22, State: PortStateOpen, Service: "SSH", RTT: time.Millisecond},
		{Port: 80, State: PortStateClosed, Service: "HTTP"},
		{Port: 443, State: PortStateFiltered, Service: "HTTPS"},
		{Port: 8080, State: PortStateFiltered, Service: "HTTP Alt"},
	}, entries)
	assert.ElementsMatch(t, []int{22, 80, 443, 8080}, seen)
}

func TestScanPortsBoundsConcurrency(t *testing.T) {
	prober := &fakePorts{delay: 5 * time.Millisecond}

	_, err := ScanPorts(context.Background(), prober, "10.0.0.5", portRange(1, 40), PortScanOptions{Concurrency: 4}, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, prober.peak.Load(), int32(4))
	assert.Positive(t, prober.peak.Load())
}

func TestScanPortsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := ScanPorts(ctx, &fakePorts{}, "10.0.0.5", []int{22, 80}, PortScanOptions{}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, entries)

	_, err = ScanPorts(context.Background(), &fakePorts{}, "10.0.0.5", nil, PortScanOptions{}, nil)
	assert.ErrorIs(t, err, ErrNoPorts)
}

func TestScanPortsWithTCPSweeper(t *testing.T) {
	open, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() { _ = open.Close() }()

	go func() {
		for {
			c, err := open.Accept()
			if err != nil {
				return
			}

			_ = c.Close()
		}
	}()

	closed, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	closedPort := closed.Addr().(*net.TCPAddr).Port
	require.NoError(t, closed.Close())

	openPort := open.Addr().(*net.TCPAddr).Port
	budget := scan.NewConnectionBudget(2)
	sweeper := scan.NewTCPSweeper(budget, nil, 2, logger.NewTestLogger())

	entries, err := ScanPorts(context.Background(), sweeper, "127.0.0.1", []int{openPort, closedPort},
		PortScanOptions{Timeout: time.Second}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	states := map[int]PortState{}
	for _, e := range entries {
		states[e.Port] = e.State
	}

	assert.Equal(t, PortStateOpen, states[openPort])
	assert.Equal(t, PortStateClosed, states[closedPort])
	assert.Equal(t, 0, budget.Active())
}

func TestParsePorts(t *testing.T) {
	ports, err := ParsePorts(" 443,22, 8000-8002,22 ")
	require.NoError(t, err)
	assert.Equal(t, []int{22, 443, 8000, 8001, 8002}, ports)

	for _, bad := range []string{"0", "65536", "http", "90-80", "1-x"} {
		_, err := ParsePorts(bad)
		assert.ErrorIs(t, err, ErrInvalidPort, bad)
	}

	_, err = ParsePorts(" , ")
	assert.ErrorIs(t, err, ErrNoPorts)
}

func TestPresetPorts(t *testing.T) {
	common, err := PresetPorts("common")
	require.NoError(t, err)
	assert.Contains(t, common, 3389)

	common[0] = -1
	again, _ := PresetPorts("common")
	assert.Equal(t, 20, again[0])

	wellKnown, err := PresetPorts("well-known")
	require.NoError(t, err)
	assert.Len(t, wellKnown, 1024)

	extended, err := PresetPorts("extended")
	require.NoError(t, err)
	assert.Equal(t, 10000, extended[len(extended)-1])

	_, err = PresetPorts("everything")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "PostgreSQL", ServiceName(5432))
	assert.Empty(t, ServiceName(31337))
}
