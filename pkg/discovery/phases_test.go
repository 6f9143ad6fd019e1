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

package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/mdns"
	"github.com/carverauto/lanscan/pkg/models"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errUnreachable = errors.New("unreachable")

func lanContext(hosts ...string) *ScanContext {
	return &ScanContext{
		Hosts:        hosts,
		SubnetFilter: scan.PrefixFilter("192.168.1"),
		LocalIP:      "192.168.1.100",
	}
}

func noProgress(float64) {}

func sweepOf(results ...scan.HostResult) <-chan scan.HostResult {
	ch := make(chan scan.HostResult, len(results))
	for _, r := range results {
		ch <- r
	}

	close(ch)

	return ch
}

func TestARPPhaseAcceptsSubnetEntriesOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockARPReader(ctrl)

	sc := lanContext("192.168.1.1", "192.168.1.100", "192.168.1.3")

	reader.EXPECT().Populate(gomock.Any(), []string{"192.168.1.1", "192.168.1.3"}).Return(nil)
	reader.EXPECT().Read(gomock.Any()).Return([]scan.ARPEntry{
		{IP: "192.168.1.3", MAC: "aa:bb:cc:00:00:03"},
		{IP: "192.168.1.100", MAC: "aa:bb:cc:00:00:64"},
		{IP: "10.9.9.9", MAC: "aa:bb:cc:00:00:09"},
	}, nil)

	acc := NewAccumulator()
	NewARPPhase(reader, 0, logger.NewTestLogger()).Run(context.Background(), sc, acc, noProgress)

	snap := acc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "192.168.1.3", snap[0].IP)
	assert.Equal(t, models.SourceLocalARP, snap[0].Source)
	assert.Equal(t, "aa:bb:cc:00:00:03", *snap[0].MAC)
}

func TestARPPhaseSurvivesReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockARPReader(ctrl)

	reader.EXPECT().Populate(gomock.Any(), gomock.Any()).Return(errUnreachable)
	reader.EXPECT().Read(gomock.Any()).Return(nil, scan.ErrARPUnsupported)

	acc := NewAccumulator()
	NewARPPhase(reader, 0, logger.NewTestLogger()).Run(context.Background(), lanContext("192.168.1.1"), acc, noProgress)

	assert.Equal(t, 0, acc.Len())
}

func TestTCPPhaseSkipsKnownHostsAndEnrichesLatency(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockHostProber(ctrl)
	throttle := NewMockThrottleMonitor(ctrl)

	acc := NewAccumulator()
	acc.Upsert(device("192.168.1.2", models.SourceLocalARP))

	stages := []scan.ProbeStage{{Ports: []int{80}, BaseTimeout: 700 * time.Millisecond}}

	throttle.EXPECT().EffectiveLimit(40).Return(20)
	prober.EXPECT().
		Sweep(gomock.Any(), []string{"192.168.1.1", "192.168.1.3"}, stages, 20).
		Return(sweepOf(
			scan.HostResult{Host: "192.168.1.1", Reachable: true, Port: 80, RTT: 4 * time.Millisecond},
			scan.HostResult{Host: "192.168.1.3"},
		))
	prober.EXPECT().
		Latency(gomock.Any(), "192.168.1.2", 443, 200*time.Millisecond).
		Return(7*time.Millisecond, true)

	phase := NewTCPPhase(prober, throttle, TCPOptions{
		Stages:          stages,
		HostConcurrency: 40,
		LatencyPort:     443,
		LatencyTimeout:  200 * time.Millisecond,
	}, logger.NewTestLogger())

	var last float64

	phase.Run(context.Background(), lanContext("192.168.1.1", "192.168.1.2", "192.168.1.3"), acc, func(f float64) { last = f })

	snap := acc.SortedSnapshot()
	require.Len(t, snap, 2)

	assert.Equal(t, "192.168.1.1", snap[0].IP)
	assert.Equal(t, models.SourceProbe, snap[0].Source)
	assert.InDelta(t, 4.0, *snap[0].LatencyMS, 1e-9)

	assert.Equal(t, models.SourceLocalARP, snap[1].Source)
	assert.InDelta(t, 7.0, *snap[1].LatencyMS, 1e-9)
	assert.InDelta(t, 1.0, last, 1e-9)
}

func TestTCPPhaseThrottleFloorIsOne(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockHostProber(ctrl)
	throttle := NewMockThrottleMonitor(ctrl)

	throttle.EXPECT().EffectiveLimit(gomock.Any()).Return(0)
	prober.EXPECT().Sweep(gomock.Any(), gomock.Any(), gomock.Any(), 1).Return(sweepOf())

	phase := NewTCPPhase(prober, throttle, TCPOptions{}, logger.NewTestLogger())
	phase.Run(context.Background(), lanContext("192.168.1.1"), NewAccumulator(), noProgress)
}

func TestBonjourPhaseDedupesCapsAndFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	browser := NewMockServiceBrowser(ctrl)
	resolver := NewMockServiceResolver(ctrl)

	printer := mdns.Service{Name: "Office Printer", Type: "_ipp._tcp", Domain: "local."}
	tv := mdns.Service{Name: "Living Room", Type: "_airplay._tcp", Domain: "local."}
	remote := mdns.Service{Name: "Elsewhere", Type: "_ssh._tcp", Domain: "local."}
	dropped := mdns.Service{Name: "Over The Cap", Type: "_ssh._tcp", Domain: "local."}

	gomock.InOrder(
		browser.EXPECT().Start(gomock.Any(), []string{"_ipp._tcp"}, "local.").Return(nil),
		browser.EXPECT().Services().Return([]mdns.Service{printer, tv, printer, remote, dropped}),
		browser.EXPECT().Stop(),
	)

	resolver.EXPECT().Resolve(gomock.Any(), printer).Return([]string{"10.0.0.1", "192.168.1.20"}, nil)
	resolver.EXPECT().Resolve(gomock.Any(), tv).Return(nil, errUnreachable)
	resolver.EXPECT().Resolve(gomock.Any(), remote).Return([]string{"172.16.0.4"}, nil)

	budget := scan.NewConnectionBudget(2)

	phase := NewBonjourPhase(browser, resolver, budget, BonjourOptions{
		ServiceTypes: []string{"_ipp._tcp"},
		Domain:       "local.",
		MaxResolves:  3,
		Concurrency:  2,
	}, logger.NewTestLogger())

	acc := NewAccumulator()
	phase.Run(context.Background(), lanContext(), acc, noProgress)

	snap := acc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "192.168.1.20", snap[0].IP)
	assert.Equal(t, "Office Printer", *snap[0].Hostname)
	assert.Equal(t, models.SourceBonjour, snap[0].Source)
	assert.Equal(t, 0, budget.Active())
}

func TestBonjourPhaseWaitReportsProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	browser := NewMockServiceBrowser(ctrl)

	browser.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	browser.EXPECT().Services().Return(nil)
	browser.EXPECT().Stop()

	phase := NewBonjourPhase(browser, NewMockServiceResolver(ctrl), nil, BonjourOptions{
		DiscoveryWait: 600 * time.Millisecond,
	}, logger.NewTestLogger())

	var reports []float64

	phase.Run(context.Background(), lanContext(), NewAccumulator(), func(f float64) { reports = append(reports, f) })

	require.NotEmpty(t, reports)
	assert.Greater(t, reports[0], 0.0)
	assert.LessOrEqual(t, reports[0], bonjourWaitShare)
	assert.InDelta(t, bonjourWaitShare, reports[len(reports)-1], 1e-9)
}

func TestBonjourPhaseBrowseFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	browser := NewMockServiceBrowser(ctrl)

	browser.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(errUnreachable)

	phase := NewBonjourPhase(browser, NewMockServiceResolver(ctrl), nil, BonjourOptions{}, logger.NewTestLogger())
	phase.Run(context.Background(), lanContext(), NewAccumulator(), noProgress)
}

func TestSSDPPhaseRecordsResponders(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := NewMockSSDPSearcher(ctrl)

	searcher.EXPECT().Search(gomock.Any(), 3*time.Second).Return([]SSDPResponse{
		{Location: "http://192.168.1.30:49152/desc.xml"},
		{Location: "http://192.168.1.30:49152/other.xml"},
		{Location: "http://10.1.1.1/desc.xml"},
		{Location: "not a url"},
	}, nil)

	acc := NewAccumulator()
	NewSSDPPhase(searcher, 0, false, logger.NewTestLogger()).Run(context.Background(), lanContext(), acc, noProgress)

	snap := acc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "192.168.1.30", snap[0].IP)
	assert.Equal(t, models.SourceSSDP, snap[0].Source)
	assert.Nil(t, snap[0].Hostname)
}

func TestSSDPPhaseDescribes(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := NewMockSSDPSearcher(ctrl)

	searcher.EXPECT().Search(gomock.Any(), time.Second).Return([]SSDPResponse{
		{Location: "http://192.168.1.30:49152/desc.xml"},
		{Location: "http://192.168.1.31:80/desc.xml"},
	}, nil)
	searcher.EXPECT().Describe(gomock.Any(), "http://192.168.1.30:49152/desc.xml").
		Return(&SSDPDescription{FriendlyName: "Living Room TV", Manufacturer: "Acme"}, nil)
	searcher.EXPECT().Describe(gomock.Any(), "http://192.168.1.31:80/desc.xml").
		Return(nil, errUnreachable)

	acc := NewAccumulator()
	NewSSDPPhase(searcher, time.Second, true, logger.NewTestLogger()).Run(context.Background(), lanContext(), acc, noProgress)

	snap := acc.SortedSnapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "Living Room TV", *snap[0].Hostname)
	assert.Equal(t, "Acme", *snap[0].Vendor)
	assert.Nil(t, snap[1].Hostname)
}

func TestICMPLatencyPhase(t *testing.T) {
	ctrl := gomock.NewController(t)
	pinger := NewMockPinger(ctrl)

	acc := NewAccumulator()
	acc.Upsert(device("192.168.1.1", models.SourceLocalARP))
	acc.Upsert(device("192.168.1.2", models.SourceLocalARP))
	acc.Upsert(device("192.168.1.3", models.SourceLocalARP))

	pinger.EXPECT().Ping(gomock.Any(), "192.168.1.1", 2*time.Second).
		Return(scan.ICMPResponse{Kind: scan.EchoReply, RTT: 1500 * time.Microsecond}, nil)
	pinger.EXPECT().Ping(gomock.Any(), "192.168.1.2", 2*time.Second).
		Return(scan.ICMPResponse{Kind: scan.Timeout}, nil)
	pinger.EXPECT().Ping(gomock.Any(), "192.168.1.3", 2*time.Second).
		Return(scan.ICMPResponse{}, scan.ErrICMPSocketClosed)
	pinger.EXPECT().Close().Return(nil)

	phase := NewICMPLatencyPhase(func() (Pinger, error) { return pinger, nil }, scan.FixedThrottle(0.5), 4, 0, logger.NewTestLogger())
	phase.Run(context.Background(), lanContext(), acc, noProgress)

	assert.Equal(t, []string{"192.168.1.2", "192.168.1.3"}, acc.IPsWithoutLatency())
	assert.InDelta(t, 1.5, *acc.SortedSnapshot()[0].LatencyMS, 1e-9)
}

func TestICMPLatencyPhaseWithoutSocket(t *testing.T) {
	acc := NewAccumulator()
	acc.Upsert(device("192.168.1.1", models.SourceLocalARP))

	opened := false
	phase := NewICMPLatencyPhase(func() (Pinger, error) {
		opened = true
		return nil, errUnreachable
	}, nil, 0, 0, logger.NewTestLogger())

	phase.Run(context.Background(), lanContext(), acc, noProgress)

	assert.True(t, opened)
	assert.Equal(t, []string{"192.168.1.1"}, acc.IPsWithoutLatency())
}

func TestReverseDNSPhase(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockPTRResolver(ctrl)

	acc := NewAccumulator()
	acc.Upsert(device("192.168.1.1", models.SourceProbe))
	acc.Upsert(device("192.168.1.2", models.SourceProbe))
	acc.Upsert(device("192.168.1.3", models.SourceProbe))

	named := device("192.168.1.4", models.SourceBonjour)
	named.Hostname = models.StringPtr("already")
	acc.Upsert(named)

	resolver.EXPECT().LookupPTR(gomock.Any(), "192.168.1.1").Return("router.lan.", nil)
	resolver.EXPECT().LookupPTR(gomock.Any(), "192.168.1.2").Return("192.168.1.2", nil)
	resolver.EXPECT().LookupPTR(gomock.Any(), "192.168.1.3").Return("", errUnreachable)

	NewReverseDNSPhase(resolver, 0, 0, logger.NewTestLogger()).Run(context.Background(), lanContext(), acc, noProgress)

	snap := acc.SortedSnapshot()
	assert.Equal(t, "router.lan", *snap[0].Hostname)
	assert.Nil(t, snap[1].Hostname)
	assert.Nil(t, snap[2].Hostname)
	assert.Equal(t, "already", *snap[3].Hostname)
}

func TestReverseDNSPhaseAppliesTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockPTRResolver(ctrl)

	acc := NewAccumulator()
	acc.Upsert(device("192.168.1.1", models.SourceProbe))

	resolver.EXPECT().LookupPTR(gomock.Any(), "192.168.1.1").DoAndReturn(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	start := time.Now()
	NewReverseDNSPhase(resolver, 1, 30*time.Millisecond, logger.NewTestLogger()).Run(context.Background(), lanContext(), acc, noProgress)

	assert.Less(t, time.Since(start), time.Second)
}

func TestSNMPPhase(t *testing.T) {
	ctrl := gomock.NewController(t)
	querier := NewMockSNMPQuerier(ctrl)

	acc := NewAccumulator()
	acc.Upsert(device("192.168.1.1", models.SourceProbe))
	acc.Upsert(device("192.168.1.2", models.SourceProbe))

	querier.EXPECT().QuerySystem(gomock.Any(), "192.168.1.1").Return(&SNMPSystemInfo{
		Name:        "core-switch",
		Description: "Acme Switch OS 4.2\nBuilt by build@host",
	}, nil)
	querier.EXPECT().QuerySystem(gomock.Any(), "192.168.1.2").Return(nil, ErrNoSNMPDataReturned)

	budget := scan.NewConnectionBudget(1)

	NewSNMPPhase(querier, budget, 2, time.Second, logger.NewTestLogger()).Run(context.Background(), lanContext(), acc, noProgress)

	snap := acc.SortedSnapshot()
	assert.Equal(t, "core-switch", *snap[0].Hostname)
	assert.Equal(t, "Acme Switch OS 4.2", *snap[0].Vendor)
	assert.Nil(t, snap[1].Hostname)
	assert.Equal(t, 0, budget.Active())
}
