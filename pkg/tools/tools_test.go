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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSendFailed = errors.New("send failed")

type scriptedSocket struct {
	replies []scan.ICMPResponse
	calls   int
	ttls    []int
	err     error
}

func (s *scriptedSocket) next() (scan.ICMPResponse, error) {
	if s.err != nil {
		return scan.ICMPResponse{}, s.err
	}

	if s.calls >= len(s.replies) {
		return scan.ICMPResponse{Kind: scan.Timeout}, nil
	}

	r := s.replies[s.calls]
	s.calls++

	return r, nil
}

func (s *scriptedSocket) Ping(context.Context, string, time.Duration) (scan.ICMPResponse, error) {
	return s.next()
}

func (s *scriptedSocket) Probe(_ context.Context, _ string, ttl int, _ time.Duration) (scan.ICMPResponse, error) {
	s.ttls = append(s.ttls, ttl)

	return s.next()
}

type staticNames map[string]string

func (n staticNames) LookupPTR(_ context.Context, ip string) (string, error) {
	if name, ok := n[ip]; ok {
		return name, nil
	}

	return "", errors.New("no name")
}

func reply(ms int) scan.ICMPResponse {
	return scan.ICMPResponse{Kind: scan.EchoReply, RTT: time.Duration(ms) * time.Millisecond}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats("10.0.0.1", 4, []time.Duration{
		2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond,
	})

	assert.Equal(t, 4, s.Transmitted)
	assert.Equal(t, 3, s.Received)
	assert.InDelta(t, 25.0, s.LossPercent, 1e-9)
	assert.Equal(t, 2*time.Millisecond, s.Min)
	assert.Equal(t, 4*time.Millisecond, s.Max)
	assert.InDelta(t, float64(10*time.Millisecond)/3, float64(s.Avg), 1)
	// population variance of {2,4,4} ms is 8/9 ms²
	assert.InDelta(t, 942809, float64(s.StdDev), 1)
}

func TestComputeStatsNoReplies(t *testing.T) {
	s := ComputeStats("10.0.0.1", 3, nil)

	assert.InDelta(t, 100.0, s.LossPercent, 1e-9)
	assert.Zero(t, s.Min)
	assert.Zero(t, s.StdDev)

	empty := ComputeStats("10.0.0.1", 0, nil)
	assert.Zero(t, empty.LossPercent)
}

func TestPingCollectsReplies(t *testing.T) {
	sock := &scriptedSocket{replies: []scan.ICMPResponse{reply(1), {Kind: scan.Timeout}, reply(3)}}

	var seen []PingReply

	stats, err := Ping(context.Background(), sock, "10.0.0.1",
		PingOptions{Count: 3, Interval: time.Millisecond}, func(r PingReply) { seen = append(seen, r) })
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Transmitted)
	assert.Equal(t, 2, stats.Received)
	assert.Equal(t, time.Millisecond, stats.Min)
	assert.Equal(t, 3*time.Millisecond, stats.Max)

	require.Len(t, seen, 3)
	assert.False(t, seen[1].Received)
	assert.Equal(t, 3, seen[2].Seq)
}

func TestPingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sock := &scriptedSocket{replies: []scan.ICMPResponse{reply(1), reply(1), reply(1)}}

	stats, err := Ping(ctx, sock, "10.0.0.1", PingOptions{Count: 3, Interval: time.Hour},
		func(PingReply) { cancel() })
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Transmitted)
	assert.Equal(t, 1, stats.Received)
}

func TestPingErrors(t *testing.T) {
	_, err := Ping(context.Background(), &scriptedSocket{}, "10.0.0.1", PingOptions{Count: -1}, nil)
	require.ErrorIs(t, err, ErrInvalidCount)

	_, err = Ping(context.Background(), &scriptedSocket{err: errSendFailed}, "10.0.0.1", PingOptions{Count: 1}, nil)
	assert.ErrorIs(t, err, errSendFailed)
}

func TestTracerouteStopsAtTarget(t *testing.T) {
	sock := &scriptedSocket{replies: []scan.ICMPResponse{
		{Kind: scan.TimeExceeded, SourceIP: "192.168.1.1", RTT: time.Millisecond},
		{Kind: scan.Timeout},
		{Kind: scan.EchoReply, SourceIP: "8.8.8.8", RTT: 12 * time.Millisecond},
		reply(1),
	}}

	var streamed int

	hops, err := Traceroute(context.Background(), sock, "8.8.8.8",
		TraceOptions{Names: staticNames{"192.168.1.1": "router.lan"}}, func(Hop) { streamed++ })
	require.NoError(t, err)

	require.Len(t, hops, 3)
	assert.Equal(t, []int{1, 2, 3}, sock.ttls)
	assert.Equal(t, 3, streamed)

	assert.Equal(t, "router.lan", hops[0].Hostname)
	assert.True(t, hops[1].Timeout)
	assert.True(t, hops[2].Reached)
	assert.Empty(t, hops[2].Hostname)

	assert.Equal(t, " 2  *", hops[1].String())
	assert.Equal(t, " 1  router.lan (192.168.1.1)  1.000 ms", hops[0].String())
}

func TestTracerouteMaxHops(t *testing.T) {
	sock := &scriptedSocket{}

	hops, err := Traceroute(context.Background(), sock, "10.9.9.9", TraceOptions{MaxHops: 4}, nil)
	require.NoError(t, err)
	assert.Len(t, hops, 4)

	_, err = Traceroute(context.Background(), sock, "10.9.9.9", TraceOptions{MaxHops: 300}, nil)
	assert.ErrorIs(t, err, ErrInvalidHops)
}

func TestTracerouteProbeError(t *testing.T) {
	hops, err := Traceroute(context.Background(), &scriptedSocket{err: errSendFailed}, "10.9.9.9", TraceOptions{}, nil)

	require.ErrorIs(t, err, errSendFailed)
	assert.Empty(t, hops)
	assert.Contains(t, err.Error(), fmt.Sprintf("ttl %d", 1))
}
